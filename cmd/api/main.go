package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/harentsoaR/dentaheal/internal/audit"
	"github.com/harentsoaR/dentaheal/internal/auth"
	"github.com/harentsoaR/dentaheal/internal/config"
	"github.com/harentsoaR/dentaheal/internal/handlers"
	"github.com/harentsoaR/dentaheal/internal/logger"
	"github.com/harentsoaR/dentaheal/internal/server"
	"github.com/harentsoaR/dentaheal/internal/services"
	"github.com/harentsoaR/dentaheal/internal/store"
	mongostore "github.com/harentsoaR/dentaheal/internal/store/mongo"
	redisstore "github.com/harentsoaR/dentaheal/internal/store/redis"
	"github.com/harentsoaR/dentaheal/internal/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{})
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	gin.SetMode(cfg.GinMode)

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	redisCfg := redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB}
	rdb, err := redisstore.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer rdb.Close()
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")

	users := mongostore.NewUserRepository(db)
	auditRepo := mongostore.NewAuditRepository(db)

	// The writer keeps audit I/O off the request path. With AUDIT_USE_QUEUE
	// the writer enqueues to asynq and a worker persists the entries.
	var sink audit.Store = auditRepo
	if cfg.Audit.UseQueue {
		queueClient := asynq.NewClient(redisstore.AsynqOpt(redisCfg))
		defer queueClient.Close()
		sink = audit.NewQueueStore(queueClient)

		worker := audit.NewWorker(redisstore.AsynqOpt(redisCfg), auditRepo, log)
		worker.Start()
		defer worker.Shutdown()
		log.Info().Msg("audit entries routed through asynq")
	}
	auditWriter := audit.NewWriter(sink, audit.Options{
		BufferSize:   cfg.Audit.BufferSize,
		WriteTimeout: cfg.Audit.WriteTimeout,
	}, log)
	defer auditWriter.Close()

	registry, err := auth.NewRegistry(cfg.Auth.RegistryVersion, cfg.Auth.ProtectedPrefixes)
	if err != nil {
		return err
	}
	log.Info().
		Str("version", registry.Version()).
		Strs("prefixes", registry.Prefixes()).
		Msg("protected path registry loaded")

	tokens := utils.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	resolver := auth.NewResolver(users, tokens, auth.ResolverConfig{
		MaxAge:      cfg.Auth.SessionMaxAge,
		IdleTimeout: cfg.Auth.SessionIdleTimeout,
	})

	h := handlers.NewHandler(handlers.Deps{
		Users:        users,
		Settings:     mongostore.NewSettingsRepository(db),
		Appointments: mongostore.NewAppointmentRepository(db),
		AuditLogs:    auditRepo,
		Audit:        auditWriter,
		Notifier:     services.NewNotificationService(cfg.Textbelt.APIKey, log),
		Resolver:     resolver,
		Tokens:       tokens,
		Limiter:      auth.NewLoginLimiter(auth.DefaultLockout),
		Registry:     registry,
		LoginPath:    cfg.Auth.LoginPath,
		Probes: map[string]store.Pinger{
			"mongodb": mongostore.NewPinger(client),
			"redis":   redisstore.NewPinger(rdb),
		},
		Log: log,
	})

	router, err := server.NewRouter(server.Options{
		Config:   cfg,
		Handler:  h,
		Resolver: resolver,
		Registry: registry,
		Log:      log,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
