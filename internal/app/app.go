// Package app assembles the radar dependency graph shared by the HTTP server
// and the operator CLI.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"

	"radar/internal/auth/lockout"
	authservice "radar/internal/auth/service"
	"radar/internal/auth/store/revocation"
	userstore "radar/internal/auth/store/user"
	"radar/internal/auth/token"
	historyservice "radar/internal/history/service"
	historystore "radar/internal/history/store"
	"radar/internal/lookup/attempts"
	"radar/internal/lookup/batch"
	lookupmetrics "radar/internal/lookup/metrics"
	"radar/internal/lookup/providers/radar"
	"radar/internal/lookup/providers/receitaws"
	"radar/internal/lookup/retry"
	lookupservice "radar/internal/lookup/service"
	lookupstore "radar/internal/lookup/store"
	"radar/internal/platform/config"
	"radar/internal/platform/kafka"
	"radar/internal/platform/postgres"
	radarredis "radar/internal/platform/redis"
)

// App holds the wired services and the resources they own.
type App struct {
	Config config.Config
	Logger *slog.Logger

	DB    *sql.DB
	Redis *radarredis.Client
	Kafka *kgo.Client

	Primary   *radar.Client
	Secondary *receitaws.Client

	Tokens     *token.JWTService
	Revocation RevocationList
	Auth       *authservice.Service
	Lookup     *lookupservice.Service
	History    *historyservice.Service
}

// RevocationList is satisfied by both the Redis and the in-memory lists.
type RevocationList interface {
	authservice.RevocationList
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Build opens the database (applying the schema), connects the optional Redis
// and Kafka backends and wires every service. reg receives the Prometheus
// collectors; nil uses the default registerer.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) (*App, error) {
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger, DB: db}
	if err := postgres.Migrate(ctx, db); err != nil {
		a.Close()
		return nil, err
	}

	a.Redis, err = radarredis.New(ctx, cfg.Redis)
	if err != nil {
		a.Close()
		return nil, err
	}
	var lockoutStore lockout.Store
	if a.Redis != nil {
		a.Revocation = revocation.NewRedisTRL(a.Redis)
		lockoutStore = lockout.NewRedisStore(a.Redis)
		logger.Info("token revocation and login lockout backed by redis")
	} else {
		a.Revocation = revocation.NewInMemoryTRL()
		lockoutStore = lockout.NewInMemoryStore()
		logger.Info("token revocation and login lockout kept in memory")
	}

	attemptMetrics := attempts.NewMetrics(reg)
	sinks := []attempts.Sink{attempts.NewPostgresSink(db)}
	a.Kafka, err = kafka.NewClient(ctx, cfg.Kafka.Brokers)
	if err != nil {
		a.Close()
		return nil, err
	}
	if a.Kafka != nil {
		if err := kafka.EnsureTopic(ctx, a.Kafka, cfg.Kafka.AttemptsTopic, 3); err != nil {
			a.Close()
			return nil, err
		}
		sinks = append(sinks, attempts.NewKafkaSink(a.Kafka, cfg.Kafka.AttemptsTopic,
			attempts.WithKafkaLogger(logger),
			attempts.WithKafkaMetrics(attemptMetrics),
		))
		logger.Info("attempt log mirrored to kafka", "topic", cfg.Kafka.AttemptsTopic)
	}
	recorder := attempts.NewRecorder(sinks,
		attempts.WithLogger(logger),
		attempts.WithMetrics(attemptMetrics),
	)

	a.Primary = radar.New(cfg.Upstream.RadarURL, cfg.Upstream.RadarToken, cfg.Upstream.RadarTimeout)
	if !a.Primary.Configured() {
		logger.Warn("RADAR endpoint or token not configured; live lookups will fail on the primary source")
	}
	a.Secondary = receitaws.New(cfg.Upstream.ReceitaWSURL, cfg.Upstream.ReceitaWSTimeout,
		receitaws.WithRateLimit(cfg.Upstream.ReceitaWSRatePerMinute))

	users := userstore.NewPostgres(db)
	a.Tokens = token.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, token.WithTTL(cfg.Auth.TokenTTL))
	guard := lockout.New(lockoutStore,
		lockout.WithLogger(logger),
		lockout.WithPolicy(lockout.Policy{
			MaxFailures:  cfg.Auth.LoginMaxFailures,
			Window:       cfg.Auth.LoginWindow,
			LockDuration: cfg.Auth.LoginLockDuration,
		}),
	)
	a.Auth = authservice.New(users, a.Tokens, a.Revocation,
		authservice.WithLogger(logger),
		authservice.WithLoginGuard(guard),
	)

	txRunner := postgres.NewTxRunner(db)
	records := lookupstore.NewPostgres(db,
		lookupstore.WithFreshnessDays(cfg.Lookup.CacheDays),
		lookupstore.WithLocation(cfg.Lookup.Location),
	)
	a.Lookup, err = lookupservice.New(a.Primary, a.Secondary, records,
		lookupservice.WithLogger(logger),
		lookupservice.WithMetrics(lookupmetrics.New(reg)),
		lookupservice.WithAttemptRecorder(recorder),
		lookupservice.WithBatchAuthorizer(a.Auth),
		lookupservice.WithTxRunner(txRunner),
		lookupservice.WithLocation(cfg.Lookup.Location),
		lookupservice.WithLookupPolicy(retry.Policy{MaxAttempts: cfg.Lookup.MaxAttempts, Delay: cfg.Lookup.RetryDelay}),
		lookupservice.WithRepairPolicy(retry.Policy{MaxAttempts: cfg.Lookup.RepairMaxAttempts, Delay: cfg.Lookup.RepairRetryDelay}),
		lookupservice.WithLookupTimeout(cfg.Lookup.Timeout),
		lookupservice.WithRetentionOnLookup(cfg.Lookup.RetentionMode == config.RetentionOnLookup),
		lookupservice.WithBatchOptions(batch.Options{Workers: cfg.Batch.Workers, RatePerSecond: cfg.Batch.RatePerSecond}),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("wire lookup service: %w", err)
	}

	a.History = historyservice.New(historystore.NewPostgres(db),
		historyservice.WithLogger(logger),
		historyservice.WithTxRunner(txRunner),
		historyservice.WithLocation(cfg.Lookup.Location),
	)
	return a, nil
}

// SeedAdmin creates the configured administrator when the credentials are set
// and no account with that email exists yet.
func (a *App) SeedAdmin(ctx context.Context) error {
	auth := a.Config.Auth
	if auth.AdminEmail == "" || auth.AdminPassword == "" {
		return nil
	}
	created, err := a.Auth.SeedAdmin(ctx, auth.AdminName, auth.AdminEmail, auth.AdminPassword)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		a.Logger.Info("administrator account created", "email", auth.AdminEmail)
	}
	return nil
}

// Close flushes buffered Kafka records and releases Kafka, Redis and the
// database.
func (a *App) Close() {
	if a.Kafka != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.Kafka.Flush(ctx); err != nil {
			a.Logger.Warn("flush kafka", "error", err)
		}
		cancel()
		a.Kafka.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("close redis", "error", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn("close database", "error", err)
		}
	}
}
