package filewatch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	employeeModel "github.com/zhouzirui/staffbook/backend/internal/model/employee"
	employeeService "github.com/zhouzirui/staffbook/backend/internal/service/employee"
	"github.com/zhouzirui/staffbook/backend/internal/service/events"
	"github.com/zhouzirui/staffbook/backend/internal/service/filewatch"
)

func startWatcher(t *testing.T) (*employeeModel.CSVStore, *events.Hub) {
	t.Helper()

	store, err := employeeModel.NewCSVStore(filepath.Join(t.TempDir(), "employees.csv"))
	require.NoError(t, err)
	hub := events.NewHub(32)

	watcher, err := filewatch.New(store.Path(), store, hub)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})

	return store, hub
}

func waitFor(t *testing.T, ch <-chan events.Event, want events.Type) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case evt := <-ch:
			if evt.Type == want {
				return
			}
		case <-timeout:
			t.Fatalf("no %s event", want)
		}
	}
}

func TestOutsideEditPublishesReloaded(t *testing.T) {
	store, hub := startWatcher(t)
	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	content := "id,name,role,salary\n9,Zed,Ops,1.0\n"
	require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0o644))

	waitFor(t, ch, events.TypeReloaded)
}

func TestServiceWritesDoNotPublishReloaded(t *testing.T) {
	store, hub := startWatcher(t)
	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	svc := employeeService.NewService(store, hub)
	ctx := context.Background()
	_, err := svc.Create(ctx, employeeModel.Employee{ID: 1, Name: "Ann", Role: "Eng", Salary: 1})
	require.NoError(t, err)
	_, err = svc.Update(ctx, 1, employeeModel.Employee{Name: "Ann", Role: "Lead", Salary: 2})
	require.NoError(t, err)

	waitFor(t, ch, events.TypeCreated)
	waitFor(t, ch, events.TypeUpdated)

	select {
	case evt := <-ch:
		t.Fatalf("unexpected %s event after service writes", evt.Type)
	case <-time.After(300 * time.Millisecond):
	}
}
