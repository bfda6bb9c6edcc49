// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/brasil-no-mundo/internal/admin"
	"github.com/carterperez-dev/brasil-no-mundo/internal/auth"
	"github.com/carterperez-dev/brasil-no-mundo/internal/billing"
	"github.com/carterperez-dev/brasil-no-mundo/internal/blog"
	"github.com/carterperez-dev/brasil-no-mundo/internal/chat"
	"github.com/carterperez-dev/brasil-no-mundo/internal/config"
	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/directory"
	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
	"github.com/carterperez-dev/brasil-no-mundo/internal/health"
	"github.com/carterperez-dev/brasil-no-mundo/internal/meetup"
	"github.com/carterperez-dev/brasil-no-mundo/internal/middleware"
	"github.com/carterperez-dev/brasil-no-mundo/internal/moderation"
	"github.com/carterperez-dev/brasil-no-mundo/internal/realtime"
	"github.com/carterperez-dev/brasil-no-mundo/internal/server"
	"github.com/carterperez-dev/brasil-no-mundo/internal/site"
	"github.com/carterperez-dev/brasil-no-mundo/internal/snapshot"
	"github.com/carterperez-dev/brasil-no-mundo/internal/store"
	"github.com/carterperez-dev/brasil-no-mundo/internal/user"
)

const (
	drainDelay    = 5 * time.Second
	pruneInterval = time.Hour
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	genKey := flag.String("genkey", "", "write a new ES256 signing key to this path and exit")
	flag.Parse()

	if *genKey != "" {
		if err := auth.WritePrivateKey(*genKey); err != nil {
			slog.Error("generate key", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	var (
		db      *core.Database
		archive billing.LedgerArchive
	)
	if cfg.Database.URL != "" {
		db, err = core.NewDatabase(ctx, cfg.Database)
		if err != nil {
			return err
		}
		ledger := billing.NewLedgerRepository(db.DB)
		if err := ledger.EnsureSchema(ctx); err != nil {
			return err
		}
		archive = ledger
		logger.Info("database connected, ledger archive enabled",
			"max_open_conns", cfg.Database.MaxOpenConns,
		)
	}

	var rdb *core.Redis
	if cfg.Redis.URL != "" {
		rdb, err = core.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		logger.Info("redis connected", "pool_size", cfg.Redis.PoolSize)
	}

	st := store.New(store.WithHistoryLimit(cfg.Chat.HistoryLimit))
	if cfg.Seed.Enabled {
		if err := seed(st, cfg.Seed); err != nil {
			return err
		}
		logger.Info("store seeded", "admin_email", cfg.Seed.AdminEmail)
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	if cfg.JWT.PrivateKeyPath == "" {
		logger.Warn("no jwt.private_key_path set, sessions will not survive a restart")
	}

	hub := realtime.NewHub(cfg.Realtime.SendBuffer, logger)

	authSvc := auth.NewService(auth.NewMemoryRepository(), jwtManager, st, logger)
	cookies := auth.NewCookieManager(cfg.Session)

	chatSvc := chat.NewService(st, hub, cfg.Chat.MaxTextLength)

	businessModeration := moderation.NewMachine[domain.Business](
		"business",
		realtime.TopicBusinessApproved,
		st.TransitionBusiness,
		hub,
		logger,
	)
	postModeration := moderation.NewMachine[domain.Post](
		"post",
		realtime.TopicPostApproved,
		st.TransitionPost,
		hub,
		logger,
	)

	billingSvc := billing.NewService(st, archive, hub, cfg.Billing, logger)

	var redisClient *goredis.Client
	if rdb != nil {
		redisClient = rdb.Client
	}
	limiter := middleware.NewRateLimiter(redisClient, middleware.RateLimitConfig{
		Limit: redis_rate.Limit{
			Rate:   cfg.RateLimit.Requests,
			Burst:  cfg.RateLimit.Burst,
			Period: cfg.RateLimit.Window,
		},
		FailOpen: true,
		BypassFunc: func(r *http.Request) bool {
			return r.URL.Path == "/api/realtime" ||
				!strings.HasPrefix(r.URL.Path, "/api/")
		},
	})

	adminCfg := admin.HandlerConfig{
		State:       st,
		Subscribers: hub.Count,
	}
	var deps []health.Dependency
	if db != nil {
		adminCfg.DBStats = db.Stats
		adminCfg.DBPing = db.Ping
		adminCfg.ArchivedCount = archive.Count
		deps = append(deps, health.Dependency{Name: "database", Checker: db})
	}
	if rdb != nil {
		adminCfg.RedisStats = rdb.PoolStats
		adminCfg.RedisPing = rdb.Ping
		deps = append(deps, health.Dependency{Name: "redis", Checker: rdb})
	}

	healthHandler := health.NewHandler(deps...)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})
	srv.OnShutdown(hub.Close)

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))
	router.Use(limiter.Handler)

	healthHandler.RegisterRoutes(router)

	srv.MountAPI(server.Handlers{
		Auth:      auth.NewHandler(authSvc, cookies, jwtManager),
		Snapshot:  snapshot.NewHandler(st),
		Chat:      chat.NewHandler(chatSvc),
		Meetups:   meetup.NewHandler(meetup.NewService(st, hub)),
		Directory: directory.NewHandler(directory.NewService(st, businessModeration, cfg.Features.RequireProForBusiness)),
		Blog:      blog.NewHandler(blog.NewService(st, postModeration)),
		Billing:   billing.NewHandler(billingSvc),
		Site:      site.NewHandler(site.NewService(st, hub, logger)),
		Admin:     admin.NewHandler(adminCfg),
		Users:     user.NewHandler(user.NewService(st, logger)),
		Realtime:  realtime.NewHandler(hub, chatSvc, realtime.Session{
			Verifier: authSvc,
			Cookie:   cfg.Session.AccessCookie,
		}, cfg.Realtime, cfg.CORS.AllowedOrigins, logger),
	}, server.Guards{
		Authenticator: middleware.Authenticator(authSvc, cfg.Session.AccessCookie),
		OptionalAuth:  middleware.OptionalAuth(authSvc, cfg.Session.AccessCookie),
		WriteLimiter:  limiter.Tiered(middleware.DefaultTiers),
	})

	go pruneSessions(ctx, authSvc, logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	limiter.Close()

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}

	logger.Info("application stopped")
	return nil
}

func seed(st *store.Store, cfg config.SeedConfig) error {
	hash, err := core.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	err = st.Seed(domain.User{
		ID:           uuid.New().String(),
		Name:         cfg.AdminName,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Avatar:       auth.DefaultAvatar(cfg.AdminName),
	}, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("seed store: %w", err)
	}
	return nil
}

func pruneSessions(ctx context.Context, svc *auth.Service, logger *slog.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.PruneExpired(ctx)
			if err != nil {
				logger.Warn("prune refresh tokens failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("pruned refresh tokens", "count", n)
			}
		}
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
