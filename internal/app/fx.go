package app

import (
	"context"
	"net/http"

	"github.com/ahjazly/unified-notifier/internal/config"
	"github.com/ahjazly/unified-notifier/internal/consumer"
	deliveryHTTP "github.com/ahjazly/unified-notifier/internal/delivery/http"
	repo "github.com/ahjazly/unified-notifier/internal/domain/repository"
	"github.com/ahjazly/unified-notifier/internal/fcm"
	"github.com/ahjazly/unified-notifier/internal/logger"
	"github.com/ahjazly/unified-notifier/internal/notifiers"
	"github.com/ahjazly/unified-notifier/internal/service"
	"github.com/ahjazly/unified-notifier/internal/storage/postgres"
	"github.com/ahjazly/unified-notifier/internal/storage/rabbitmq"
	"github.com/ahjazly/unified-notifier/internal/storage/redis"
	"github.com/ahjazly/unified-notifier/pkg/httpx"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// CommonModule provides dependencies that are shared between the API and Worker applications.
var CommonModule = fx.Options(
	fx.Provide(
		// Core components
		config.NewConfig,
		logger.NewLogger,

		// Outbound HTTP plumbing and push credentials
		func(cfg *config.Config) httpx.Client {
			return httpx.NewClient(cfg.Channels.Timeout)
		},
		func(cfg *config.Config, client httpx.Client, log *zerolog.Logger) *fcm.TokenMinter {
			return fcm.NewTokenMinter(cfg.Channels.Push.ServiceAccount, client, log)
		},
		notifiers.NewRegistry,

		// Storage Layer - concrete implementations
		postgres.NewPool,
		redis.NewClient,
		redis.NewContactCache,
		postgres.NewRecipientRepository,
		func(r *postgres.RecipientRepository) repo.RecipientRepository { return r },

		// Service Layer
		service.NewDispatchService,
	),

	fx.Decorate(func(
		pgRepo repo.RecipientRepository,
		cache *redis.ContactCache,
		logger *zerolog.Logger,
	) repo.RecipientRepository {
		return redis.NewCachedRecipientRepository(pgRepo, cache, logger)
	}),
)

// APIModule defines the Fx module for the HTTP API application.
var APIModule = fx.Options(
	CommonModule, // Include all shared components
	fx.Provide(
		// The API publishes events to the worker queue when a broker is
		// configured; with no broker it dispatches inline.
		func(cfg *config.Config, log *zerolog.Logger) (repo.EventQueue, error) {
			if cfg.RabbitMQ.DSN == "" {
				log.Warn().Msg("no rabbitmq dsn configured, notify endpoint dispatches inline")
				return nil, nil
			}
			conn, err := rabbitmq.NewConnection(cfg)
			if err != nil {
				return nil, err
			}
			return rabbitmq.NewEventQueue(conn, log)
		},

		// API-specific components
		deliveryHTTP.NewHandlers,
		deliveryHTTP.NewServer,
	),

	fx.Invoke(func(server *deliveryHTTP.Server, lc fx.Lifecycle) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				go func() {
					if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						panic(err)
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return server.Shutdown(ctx)
			},
		})
	}),
)

// WorkerModule defines the Fx module for the background worker application.
var WorkerModule = fx.Options(
	CommonModule, // Include all shared components
	fx.Provide(
		// Worker-specific components
		rabbitmq.NewConnection,
		consumer.New,
	),
	fx.Invoke(func(consumer *consumer.Consumer, lc fx.Lifecycle) {
		runWorkerLoop(lc, consumer.Start)
	}),
)

// runWorkerLoop runs a blocking consumer loop for the lifetime of the app.
// The OnStart context only covers start-up and expires at the fx
// StartTimeout, so the loop gets its own context, cancelled on OnStop.
func runWorkerLoop(lc fx.Lifecycle, run func(context.Context)) {
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				run(runCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}
