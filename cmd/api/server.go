package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/staffbook/backend/internal/config"
	"github.com/zhouzirui/staffbook/backend/internal/handler"
	employeeModel "github.com/zhouzirui/staffbook/backend/internal/model/employee"
	employeeService "github.com/zhouzirui/staffbook/backend/internal/service/employee"
	"github.com/zhouzirui/staffbook/backend/internal/service/events"
	"github.com/zhouzirui/staffbook/backend/internal/service/filewatch"
)

const shutdownTimeout = 10 * time.Second

func serve(ctx context.Context, cfg *config.Config) error {
	if cfg.File != "" {
		log.Printf("loaded configuration from %s", cfg.File)
	}

	store, err := employeeModel.NewCSVStore(cfg.Store.DataFile)
	if err != nil {
		return fmt.Errorf("open employee store: %w", err)
	}
	log.Printf("[store] using %s", store.Path())

	hub := events.NewHub(cfg.Events.Buffer)
	svc := employeeService.NewService(store, hub)
	router := handler.NewRouter(svc, hub, cfg.CORS.AllowedOrigins)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Store.Watch {
		watcher, err := filewatch.New(store.Path(), store, hub)
		if err != nil {
			log.Printf("warning: file watcher disabled: %v", err)
		} else {
			g.Go(func() error { return watcher.Run(gctx) })
		}
	}

	g.Go(func() error { return startServer(gctx, cfg.Server, router) })

	return g.Wait()
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		// Long-lived feeds end when ctx is cancelled.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	log.Printf("staffbook listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// runServer serves until ctx is cancelled, then drains open connections.
func runServer(ctx context.Context, srv *http.Server) error {
	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-stopped
}
