package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"STAFFBOOK_CONFIG", "PORT", "STAFFBOOK_DATA_FILE", "STAFFBOOK_WATCH",
		"STAFFBOOK_EVENT_BUFFER", "STAFFBOOK_CORS_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "staffbook.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, DefaultDataFile, cfg.Store.DataFile)
	assert.True(t, cfg.Store.Watch)
	assert.Equal(t, DefaultEventQueue, cfg.Events.Buffer)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Empty(t, cfg.File)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
addr: "127.0.0.1:9000"
dataFile: /var/lib/staffbook/employees.csv
watch: false
eventBuffer: 64
corsOrigins:
  - https://hr.example.com
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "/var/lib/staffbook/employees.csv", cfg.Store.DataFile)
	assert.False(t, cfg.Store.Watch)
	assert.Equal(t, 64, cfg.Events.Buffer)
	assert.Equal(t, []string{"https://hr.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, path, cfg.File)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "addr: \":9000\"\ndataFile: from-file.csv\nwatch: false\n")
	t.Setenv("STAFFBOOK_CONFIG", path)
	t.Setenv("PORT", "7070")
	t.Setenv("STAFFBOOK_DATA_FILE", "from-env.csv")
	t.Setenv("STAFFBOOK_WATCH", "true")
	t.Setenv("STAFFBOOK_EVENT_BUFFER", "0")
	t.Setenv("STAFFBOOK_CORS_ORIGINS", "https://a.example.com, https://b.example.com,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "from-env.csv", cfg.Store.DataFile)
	assert.True(t, cfg.Store.Watch)
	assert.Equal(t, 1, cfg.Events.Buffer)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestExplicitConfigFileMustExist(t *testing.T) {
	clearEnv(t)

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	t.Setenv("STAFFBOOK_CONFIG", filepath.Join(t.TempDir(), "missing.yml"))
	_, err = Load()
	assert.Error(t, err)
}

func TestInvalidValues(t *testing.T) {
	tests := map[string]string{
		"PORT":                   "80 80",
		"STAFFBOOK_WATCH":        "sometimes",
		"STAFFBOOK_EVENT_BUFFER": "lots",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestMalformedConfigFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "addr: [unterminated\n")

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestInvalidValueNamesVariable(t *testing.T) {
	clearEnv(t)
	t.Setenv("STAFFBOOK_EVENT_BUFFER", " lots ")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid STAFFBOOK_EVENT_BUFFER value "lots"`)
}

func TestBlankEnvKeepsDefaults(t *testing.T) {
	clearEnv(t)
	for _, key := range []string{"PORT", "STAFFBOOK_DATA_FILE", "STAFFBOOK_WATCH", "STAFFBOOK_EVENT_BUFFER", "STAFFBOOK_CORS_ORIGINS"} {
		t.Setenv(key, "  ")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, defaults().Server, cfg.Server)
	assert.Equal(t, defaults().Store, cfg.Store)
	assert.Equal(t, defaults().Events, cfg.Events)
	assert.Equal(t, defaults().CORS, cfg.CORS)
}
