// @title                       Velvet Rooms API
// @version                     1.0
// @description                 Session booking, escrow and content sales for the Velvet Rooms marketplace.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Davelummy/velvet-rooms-project/internal/api"
	"github.com/Davelummy/velvet-rooms-project/internal/api/handler"
	"github.com/Davelummy/velvet-rooms-project/internal/core/command"
	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
	"github.com/Davelummy/velvet-rooms-project/internal/core/service"
	"github.com/Davelummy/velvet-rooms-project/internal/infrastructure/config"
	"github.com/Davelummy/velvet-rooms-project/internal/infrastructure/db/memory"
	"github.com/Davelummy/velvet-rooms-project/internal/infrastructure/db/mongo"
	"github.com/Davelummy/velvet-rooms-project/internal/infrastructure/db/postgres"
	"github.com/Davelummy/velvet-rooms-project/internal/infrastructure/db/redis"
	"github.com/Davelummy/velvet-rooms-project/internal/infrastructure/notify"
	"github.com/Davelummy/velvet-rooms-project/internal/infrastructure/queue"
	"github.com/Davelummy/velvet-rooms-project/pkg/logger"
)

const (
	shutdownTimeout = 15 * time.Second
	lockStripes     = 256
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "velvetrooms: %v\n", err)
		os.Exit(1)
	}
}

// ephemeral groups the short-lived state backends.
type ephemeral struct {
	registrations ports.RegistrationStore
	locks         ports.KeyedLocker
	idem          ports.IdempotencyStore
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "velvetrooms",
	})

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("closing store")
		}
	}()
	log.Info().Str("driver", cfg.StoreDriver).Msg("ledger store ready")

	checks := map[string]handler.HealthCheck{"store": store.Ping}
	sinks := []ports.EventSink{
		notify.NewLogSink(logger.Component("events")),
		notify.NewMetricsSink(),
	}

	state := ephemeral{
		registrations: memory.NewRegistrationStore(cfg.RegistrationTTL),
		locks:         memory.NewStripedLocker(lockStripes),
		idem:          memory.NewIdempotencyStore(cfg.IdempotencyTTL),
	}

	if cfg.Redis.Enabled {
		rdb, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		state = ephemeral{
			registrations: redis.NewRegistrationStore(rdb, cfg.RegistrationTTL),
			locks:         redis.NewLocker(rdb, 0),
			idem:          redis.NewIdempotencyStore(rdb, cfg.IdempotencyTTL),
		}
		sinks = append(sinks, redis.NewPubSubSink(rdb, cfg.Events.Channel))
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	} else {
		log.Warn().Msg("redis disabled, registration state and idempotency keys are kept in memory")
	}

	// The dispatcher outlives the HTTP server so in-flight events still drain
	// while requests finish.
	eventsCtx, stopEvents := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Events.Workers, sinks, logger.Component("dispatcher"))
	dispatcher.Start(eventsCtx)
	defer func() {
		stopEvents()
		dispatcher.Wait()
	}()

	admins := service.NewAdminSet(cfg.AdminIDs)
	svc := api.Services{
		Actors:        service.NewActorService(store, admins, dispatcher, logger.Component("actors")),
		Registrations: service.NewRegistrationService(store, state.registrations, state.locks, dispatcher, logger.Component("registrations")),
		Sessions:      service.NewSessionService(store, state.idem, dispatcher, admins, logger.Component("sessions")),
		Content:       service.NewContentService(store, state.idem, dispatcher, logger.Component("content")),
		Audit:         service.NewAuditService(store, admins, logger.Component("audit")),
	}
	svc.Commands = command.NewRouter(svc.Actors, svc.Registrations, svc.Sessions, svc.Content, svc.Audit, logger.Component("commands"))

	e := api.NewRouter(svc, checks, cfg.JWTSecret, logger.Component("http"))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// openStore connects the configured ledger backend and prepares its schema.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.LedgerStore, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  cfg.DBTimeout,
		})
		if err != nil {
			return nil, err
		}
		store := mongo.NewLedgerStore(client, db, cfg.DBTimeout)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		return store, nil

	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, postgres.Config{
			DSN:      cfg.Postgres.DSN,
			MaxConns: cfg.Postgres.MaxConns,
			Timeout:  cfg.DBTimeout,
		})
		if err != nil {
			return nil, err
		}
		store := postgres.NewLedgerStore(pool, cfg.DBTimeout)
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		return store, nil

	default:
		log.Warn().Msg("using the in-memory ledger store, data is lost on exit")
		return memory.NewLedgerStore(), nil
	}
}
