package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kavach-security/kavach/modules/auth"
	"github.com/kavach-security/kavach/pkg/config"
	"github.com/kavach-security/kavach/pkg/httpserver"
	"github.com/kavach-security/kavach/pkg/logger"
	"github.com/kavach-security/kavach/pkg/mongo"
	"github.com/kavach-security/kavach/pkg/pg"
	"github.com/kavach-security/kavach/pkg/ratelimiter"
	"github.com/kavach-security/kavach/pkg/redis"
)

type appConfig struct {
	Env string `env:"APP_ENV" envDefault:"development"`

	// StorageDriver selects the account store: postgres, mongo, or memory.
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`

	// PendingDriver selects where ephemeral enrollment and login challenge
	// records live: redis or memory.
	PendingDriver string `env:"PENDING_STORE_DRIVER" envDefault:"redis"`

	// Login endpoints are rate limited per client IP to bound credential
	// and code guessing.
	RateLimitCapacity int64         `env:"AUTH_RATE_LIMIT_CAPACITY" envDefault:"10"`
	RateLimitRefill   int64         `env:"AUTH_RATE_LIMIT_REFILL" envDefault:"1"`
	RateLimitInterval time.Duration `env:"AUTH_RATE_LIMIT_INTERVAL" envDefault:"6s"`

	Server httpserver.Config
	Auth   auth.Config
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var log *slog.Logger
	if cfg.Env == "production" {
		log = logger.New(logger.WithProduction("kavach"))
	} else {
		log = logger.New(logger.WithDevelopment("kavach"))
	}

	var (
		accounts     auth.AccountStore
		healthchecks []func(context.Context) error
	)

	switch cfg.StorageDriver {
	case "postgres":
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return fmt.Errorf("failed to load postgres config: %w", err)
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		defer pool.Close()
		if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		accounts = auth.NewPGAccountStore(pool)
		healthchecks = append(healthchecks, pg.Healthcheck(pool))

	case "mongo":
		var mongoCfg mongo.Config
		if err := config.Load(&mongoCfg); err != nil {
			return fmt.Errorf("failed to load mongo config: %w", err)
		}
		db, err := mongo.ConnectDatabase(ctx, mongoCfg)
		if err != nil {
			return fmt.Errorf("failed to connect to mongo: %w", err)
		}
		defer func() {
			if err := db.Client().Disconnect(context.Background()); err != nil {
				log.Error("failed to disconnect mongo", logger.Error(err))
			}
		}()
		if err := auth.EnsureMongoIndexes(ctx, db); err != nil {
			return err
		}
		accounts = auth.NewMongoAccountStore(db)
		healthchecks = append(healthchecks, mongo.Healthcheck(db.Client()))

	case "memory":
		accounts = auth.NewMemoryStore()

	default:
		return fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	var (
		enrollments auth.EnrollmentStore
		challenges  auth.ChallengeStore
	)

	switch cfg.PendingDriver {
	case "redis":
		var redisCfg redis.Config
		if err := config.Load(&redisCfg); err != nil {
			return fmt.Errorf("failed to load redis config: %w", err)
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer func() {
			if err := client.Close(); err != nil {
				log.Error("failed to close redis client", logger.Error(err))
			}
		}()
		pending := auth.NewRedisPendingStore(client)
		enrollments, challenges = pending, pending
		healthchecks = append(healthchecks, redis.Healthcheck(client))

	case "memory":
		// Reuse the account store when it is already the memory one so
		// development mode runs on a single in-process store.
		if mem, ok := accounts.(*auth.MemoryStore); ok {
			enrollments, challenges = mem, mem
		} else {
			mem := auth.NewMemoryStore()
			enrollments, challenges = mem, mem
		}

	default:
		return fmt.Errorf("unknown pending store driver %q", cfg.PendingDriver)
	}

	authService, err := auth.NewService(cfg.Auth, accounts, enrollments, challenges,
		auth.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("failed to construct auth service: %w", err)
	}

	limiterStore := ratelimiter.NewMemoryStore(10 * time.Minute)
	defer limiterStore.Close()
	limiter, err := ratelimiter.New(limiterStore, ratelimiter.Config{
		Capacity:       cfg.RateLimitCapacity,
		RefillRate:     cfg.RateLimitRefill,
		RefillInterval: cfg.RateLimitInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to construct rate limiter: %w", err)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", httpserver.HealthCheckHandler(ctx, log, healthchecks...))
	r.With(ratelimiter.Middleware(limiter, ratelimiter.ByClientIP)).
		Mount("/auth", authService.Handler())

	server := httpserver.NewFromConfig(cfg.Server,
		httpserver.WithLogger(log),
	)

	log.Info("starting kavach auth service",
		slog.String("addr", cfg.Server.Addr),
		slog.String("storage_driver", cfg.StorageDriver),
		slog.String("pending_driver", cfg.PendingDriver),
	)

	return server.Run(ctx, withRequestLogging(log, r))
}

// withRequestLogging logs one line per request at debug level.
func withRequestLogging(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
