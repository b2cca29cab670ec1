// Package app wires configuration, storage, logging, and the HTTP
// surface into a runnable process.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	server "ballistic/server"
	apinet "ballistic/server/internal/net"
	"ballistic/server/internal/net/ws"
	"ballistic/server/internal/store"
	"ballistic/server/logging"
	"ballistic/server/logging/sinks"
)

// Config is the process-level configuration, read from the environment.
type Config struct {
	Addr      string `env:"ADDR" envDefault:":8080"`
	StorePath string `env:"STORE_PATH" envDefault:"sessions.db"`

	TurnBudget        time.Duration `env:"TURN_BUDGET" envDefault:"45s"`
	WatchdogGrace     time.Duration `env:"WATCHDOG_GRACE" envDefault:"5s"`
	ProjectileTimeout time.Duration `env:"PROJECTILE_TIMEOUT" envDefault:"20s"`
	RetreatTimeout    time.Duration `env:"RETREAT_TIMEOUT" envDefault:"8s"`
	DisconnectGrace   time.Duration `env:"DISCONNECT_GRACE" envDefault:"12s"`
}

// Run starts the server and blocks until ctx is cancelled or the
// listener fails.
func Run(ctx context.Context) error {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)

	router := logging.NewRouter(logging.DefaultConfig(), logging.SystemClock{}, []logging.NamedSink{
		{Name: "console", Sink: sinks.NewConsoleSink(os.Stdout)},
	})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		router.Close(shutdownCtx)
	}()

	var st store.Store
	if cfg.StorePath == "" {
		st = store.NewMemoryStore()
		logger.Printf("[store] using in-memory session store")
	} else {
		sqliteStore, err := store.OpenSQLite(cfg.StorePath)
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}
		st = sqliteStore
		logger.Printf("[store] sqlite session store at %s", cfg.StorePath)
	}

	coordCfg := server.DefaultCoordinatorConfig()
	coordCfg.TurnBudget = cfg.TurnBudget
	coordCfg.WatchdogGrace = cfg.WatchdogGrace
	coordCfg.ProjectileTimeout = cfg.ProjectileTimeout
	coordCfg.RetreatTimeout = cfg.RetreatTimeout
	coordCfg.DisconnectGrace = cfg.DisconnectGrace
	coordCfg.Logger = logger
	coordCfg.Events = router

	manager := server.NewManager(coordCfg, st)
	defer manager.Close()

	mux := http.NewServeMux()
	api := &apinet.API{Manager: manager, Logger: logger}
	api.Register(mux)
	mux.Handle("/ws", ws.NewHandler(manager, logger))

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Printf("[http] listening on %s", cfg.Addr)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
