package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is read when present and STAFFBOOK_CONFIG is unset.
	DefaultConfigFile = "staffbook.yml"
	DefaultDataFile   = "employees.csv"
	DefaultPort       = "8080"
	DefaultEventQueue = 16
)

// Config aggregates every setting of the service.
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Events EventsConfig
	CORS   CORSConfig

	// File is the config file that was applied, empty when none was.
	File string
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

// StoreConfig describes where the collection lives.
type StoreConfig struct {
	DataFile string
	Watch    bool
}

// EventsConfig tunes the change feed.
type EventsConfig struct {
	Buffer int
}

// CORSConfig lists browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string
}

// fileConfig mirrors the YAML layout. Pointers mark values left unset.
type fileConfig struct {
	Addr        string   `yaml:"addr"`
	DataFile    string   `yaml:"dataFile"`
	Watch       *bool    `yaml:"watch"`
	EventBuffer int      `yaml:"eventBuffer"`
	CORSOrigins []string `yaml:"corsOrigins"`
}

// Load builds the configuration from defaults, the optional config file and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	if path, ok := lookupEnv("STAFFBOOK_CONFIG"); ok {
		return load(path, true)
	}
	return load(DefaultConfigFile, false)
}

// LoadFile is Load with an explicit config file, which must exist.
func LoadFile(path string) (*Config, error) {
	return load(path, true)
}

func load(path string, required bool) (*Config, error) {
	cfg := defaults()

	if err := cfg.applyFile(path, required); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":" + DefaultPort},
		Store:  StoreConfig{DataFile: DefaultDataFile, Watch: true},
		Events: EventsConfig{Buffer: DefaultEventQueue},
		CORS:   CORSConfig{AllowedOrigins: []string{"*"}},
	}
}

func (c *Config) applyFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if file.Addr != "" {
		addr, err := normalizeAddr(file.Addr)
		if err != nil {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		c.Server.Addr = addr
	}
	if file.DataFile != "" {
		c.Store.DataFile = file.DataFile
	}
	if file.Watch != nil {
		c.Store.Watch = *file.Watch
	}
	if file.EventBuffer != 0 {
		c.Events.Buffer = clampBuffer(file.EventBuffer)
	}
	if len(file.CORSOrigins) > 0 {
		c.CORS.AllowedOrigins = file.CORSOrigins
	}

	c.File = path
	return nil
}

func (c *Config) applyEnv() error {
	if port, ok := lookupEnv("PORT"); ok {
		addr, err := normalizeAddr(port)
		if err != nil {
			return err
		}
		c.Server.Addr = addr
	}
	if path, ok := lookupEnv("STAFFBOOK_DATA_FILE"); ok {
		c.Store.DataFile = path
	}
	if raw, ok := lookupEnv("STAFFBOOK_WATCH"); ok {
		watch, err := strconv.ParseBool(raw)
		if err != nil {
			return envError("STAFFBOOK_WATCH", raw, err)
		}
		c.Store.Watch = watch
	}
	if raw, ok := lookupEnv("STAFFBOOK_EVENT_BUFFER"); ok {
		buffer, err := strconv.Atoi(raw)
		if err != nil {
			return envError("STAFFBOOK_EVENT_BUFFER", raw, err)
		}
		c.Events.Buffer = clampBuffer(buffer)
	}
	if raw, ok := lookupEnv("STAFFBOOK_CORS_ORIGINS"); ok {
		if origins := splitAndTrim(raw); len(origins) > 0 {
			c.CORS.AllowedOrigins = origins
		}
	}
	return nil
}

// normalizeAddr accepts "8080", ":8080" or "127.0.0.1:8080".
func normalizeAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}
	if strings.Contains(port, ":") {
		return port, nil
	}
	return ":" + port, nil
}

func clampBuffer(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// lookupEnv returns the trimmed value of key. Blank values count as unset.
func lookupEnv(key string) (string, bool) {
	value := strings.TrimSpace(os.Getenv(key))
	return value, value != ""
}

func envError(key, raw string, err error) error {
	return fmt.Errorf("invalid %s value %q: %w", key, raw, err)
}

func splitAndTrim(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
