// Package app assembles the service graph shared by the HTTP server and the operations CLI.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/sla-ticket-service/internal/api/http"
	"github.com/spec-kit/sla-ticket-service/internal/api/http/handlers"
	"github.com/spec-kit/sla-ticket-service/internal/config"
	"github.com/spec-kit/sla-ticket-service/internal/events"
	"github.com/spec-kit/sla-ticket-service/internal/observability"
	"github.com/spec-kit/sla-ticket-service/internal/persistence"
	"github.com/spec-kit/sla-ticket-service/internal/repository"
	"github.com/spec-kit/sla-ticket-service/internal/repository/memory"
	"github.com/spec-kit/sla-ticket-service/internal/service"
	"github.com/spec-kit/sla-ticket-service/internal/worker"
	"github.com/spec-kit/sla-ticket-service/migrations"
)

// Container owns infrastructure handles and the workflow services built on them.
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Postgres   *persistence.Postgres
	Redis      *persistence.Redis
	Dispatcher events.Dispatcher

	Tickets    *service.TicketService
	Assignment *service.AssignmentService
	Escalation *service.EscalationService
	Sweep      *service.SweepService
	Reassign   *service.CategoryReassignService
	Stats      *service.StatsService
	Catalog    *service.CatalogService
}

// Option adjusts Build.
type Option func(*buildOptions)

type buildOptions struct {
	migrate bool
}

// WithMigrations overrides POSTGRES_RUN_MIGRATIONS. Short-lived operation runs disable it
// and leave schema changes to the server.
func WithMigrations(enabled bool) Option {
	return func(o *buildOptions) {
		o.migrate = enabled
	}
}

// Build connects storage, wires notifications and constructs every service. Without a
// Postgres DSN the in-memory store backs the workflow.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Container, error) {
	options := buildOptions{migrate: cfg.Postgres.RunMigrations}
	for _, opt := range opts {
		opt(&options)
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	var uow repository.UnitOfWork
	if pg.Configured() {
		if options.migrate {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), migrations.FS, logger); err != nil {
				pg.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		uow = repository.NewPostgresUnitOfWork(pg.PoolHandle())
	} else {
		uow = memory.NewStore()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	dispatcher := events.NewInMemoryDispatcher()

	var relay *events.RedisRelay
	if redis.Configured() {
		relay = events.NewRedisRelay(redis.Client, cfg.Notification.RedisChannel)
	}
	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(dispatcher, notifications, relay, logger)

	metrics := observability.NewMetrics()
	deps := service.WorkflowDependencies{
		UnitOfWork: uow,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	}

	return &Container{
		Config:     cfg,
		Logger:     logger,
		Metrics:    metrics,
		Postgres:   pg,
		Redis:      redis,
		Dispatcher: dispatcher,
		Tickets:    service.NewTicketService(deps),
		Assignment: service.NewAssignmentService(deps),
		Escalation: service.NewEscalationService(deps, cfg.Workflow.DefaultEscalationReason),
		Sweep:      service.NewSweepService(deps),
		Reassign:   service.NewCategoryReassignService(deps),
		Stats:      service.NewStatsService(deps),
		Catalog:    service.NewCatalogService(deps),
	}, nil
}

// Routes builds the HTTP handlers for the container's services.
func (c *Container) Routes() httptransport.RouteConfig {
	return httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(c.Config.App.Name, c.Config.App.Version, c.Metrics, map[string]handlers.Pinger{
			"postgres": c.Postgres,
			"redis":    c.Redis,
		}),
		Tickets: handlers.NewTicketsHandler(c.Tickets, c.Assignment),
		Operations: handlers.NewOperationsHandler(handlers.OperationsDependencies{
			Assignment:    c.Assignment,
			Escalation:    c.Escalation,
			Sweep:         c.Sweep,
			Reassign:      c.Reassign,
			Stats:         c.Stats,
			AutoCloseDays: c.Config.Workflow.AutoCloseDays,
		}),
		Catalog: handlers.NewCatalogHandler(c.Catalog),
	}
}

// Close releases infrastructure handles.
func (c *Container) Close() {
	c.Redis.Close()
	c.Postgres.Close()
}
