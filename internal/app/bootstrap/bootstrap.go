package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	authorization "aegis/contexts/identity-access/authorization-service"
	eventsadapter "aegis/contexts/identity-access/authorization-service/adapters/events"
	"aegis/contexts/identity-access/authorization-service/adapters/memory"
	postgresadapter "aegis/contexts/identity-access/authorization-service/adapters/postgres"
	"aegis/contexts/identity-access/authorization-service/application/workers"
	"aegis/internal/platform/config"
	"aegis/internal/platform/db"
	"aegis/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

// WorkerApp owns the lifecycle consumer subscriptions and the expiry
// sweeper loop.
type WorkerApp struct {
	postgres     *db.Postgres
	bus          *messaging.Kafka
	module       authorization.Module
	cfg          config.Config
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	store := postgresadapter.NewRepository(pg.DB, logger)
	clock := postgresadapter.SystemClock{}
	dedup := memory.NewDedupStore(cfg.DedupMaxEntries)
	dedup.Clock = clock
	module := authorization.NewModule(authorization.Dependencies{
		Store:         store,
		Publisher:     eventsadapter.NewPublisher(bus, logger),
		Dedup:         dedup,
		Clock:         clock,
		IDGenerator:   postgresadapter.UUIDGenerator{},
		EnforceExpiry: cfg.EnableExpiryEnforcement,
		DedupTTL:      cfg.DedupTTL,
		Logger:        logger,
	})

	return &WorkerApp{
		postgres:     pg,
		bus:          bus,
		module:       module,
		cfg:          cfg,
		pollInterval: cfg.SweepInterval,
		logger:       logger,
	}, nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if w.cfg.EnableLifecycleConsumer {
		topics := []string{
			workers.EventUserDeleted,
			workers.EventOrganizationDeleted,
			workers.EventOrgMemberAdded,
			workers.EventOrgMemberRemoved,
		}
		for _, topic := range topics {
			if err := w.bus.Subscribe(ctx, topic, "authorization-lifecycle-cg", w.module.Lifecycle.Handle); err != nil {
				return err
			}
		}
	}

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"lifecycle_consumer", w.cfg.EnableLifecycleConsumer,
		"expiry_sweeper", w.cfg.EnableExpirySweeper,
	)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		if w.cfg.EnableExpirySweeper {
			if err := w.module.ExpirySweeper.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}
