package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/cadence/config"
	"github.com/c360studio/cadence/storage"
	"github.com/c360studio/cadence/tracker"
)

// App wires the configured Task Store backend to the tracker.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	// NATS (nats driver only)
	embeddedServer *server.Server
	natsConn       *nats.Conn

	Store   storage.Store
	Tracker *tracker.Tracker
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{cfg: cfg, logger: logger}
}

// Start opens the Task Store.
func (a *App) Start(ctx context.Context) error {
	switch a.cfg.Store.Driver {
	case "sqlite":
		store, err := storage.NewSQLiteStore(a.cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("open sqlite store: %w", err)
		}
		a.Store = store
		a.logger.Debug("sqlite store ready", slog.String("path", a.cfg.Store.Path))
	case "nats":
		js, err := a.startNATS(ctx)
		if err != nil {
			return err
		}
		store, err := storage.NewKVStore(ctx, js)
		if err != nil {
			return fmt.Errorf("initialize KV store: %w", err)
		}
		a.Store = store
	default:
		return fmt.Errorf("unknown store driver: %q", a.cfg.Store.Driver)
	}

	a.Tracker = tracker.New(a.Store, a.logger)
	return nil
}

func (a *App) startNATS(ctx context.Context) (jetstream.JetStream, error) {
	if a.cfg.NATS.URL != "" && !a.cfg.NATS.Embedded {
		a.logger.Debug("connecting to NATS", slog.String("url", a.cfg.NATS.URL))
		conn, err := nats.Connect(a.cfg.NATS.URL)
		if err != nil {
			return nil, fmt.Errorf("connect to NATS: %w", err)
		}
		a.natsConn = conn
	} else {
		// Start embedded NATS server
		opts := &server.Options{
			Port:      -1, // Random available port
			JetStream: true,
			StoreDir:  a.cfg.Store.Path + ".nats",
			NoLog:     true,
			NoSigs:    true,
		}

		ns, err := server.NewServer(opts)
		if err != nil {
			return nil, fmt.Errorf("create embedded NATS server: %w", err)
		}

		go ns.Start()

		if !ns.ReadyForConnections(5 * time.Second) {
			ns.Shutdown()
			return nil, fmt.Errorf("embedded NATS server failed to start")
		}
		a.embeddedServer = ns

		conn, err := nats.Connect(ns.ClientURL())
		if err != nil {
			ns.Shutdown()
			return nil, fmt.Errorf("connect to embedded NATS: %w", err)
		}
		a.natsConn = conn
	}

	js, err := jetstream.New(a.natsConn)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	return js, nil
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.logger.Warn("close store", slog.String("error", err.Error()))
		}
	}
	if a.natsConn != nil {
		a.natsConn.Drain()
		a.natsConn.Close()
	}
	if a.embeddedServer != nil {
		a.embeddedServer.Shutdown()
		a.embeddedServer.WaitForShutdown()
	}
}
