package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/arklim/content-platform-accounts/internal/core/port"
	"github.com/arklim/content-platform-accounts/internal/infra/config"
	"github.com/arklim/content-platform-accounts/internal/infra/database"
	kafkainfra "github.com/arklim/content-platform-accounts/internal/infra/kafka"
	"github.com/arklim/content-platform-accounts/internal/infra/logger"
	redisinfra "github.com/arklim/content-platform-accounts/internal/infra/redis"
	"github.com/arklim/content-platform-accounts/internal/infra/security"
	postgresrepo "github.com/arklim/content-platform-accounts/internal/repository/postgres"
	redisrepo "github.com/arklim/content-platform-accounts/internal/repository/redis"
	"github.com/arklim/content-platform-accounts/internal/transport/http/middleware"
	"github.com/arklim/content-platform-accounts/internal/transport/http/routes"
	"github.com/arklim/content-platform-accounts/internal/usecase"
)

type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	argonCfg := security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}
	if err := security.ConfigureArgon2(argonCfg); err != nil {
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	var eventPublisher port.EventPublisher
	var producer *kafkainfra.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, events will be dropped", zap.Error(err))
			eventPublisher = kafkainfra.NewNoopEventPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, events will be dropped")
		eventPublisher = kafkainfra.NewNoopEventPublisher(log)
	}

	repos := postgresrepo.NewRepositories(pool)
	contentCache := redisrepo.NewContentCache(redisClient.Client(), cfg.Redis.ContentCachePrefix)

	clock := port.SystemClock()
	passwordValidator := security.DefaultPasswordValidator()

	authService := usecase.NewAuthService(cfg, repos.Users, eventPublisher, clock, log)
	sessionService := usecase.NewSessionService(cfg, repos.Users, repos.Sessions, clock, log)
	userService := usecase.NewUserService(cfg, repos.Users, repos.Sessions, eventPublisher, passwordValidator, clock, log)
	deletionService := usecase.NewDeletionService(repos.Users, repos.Sessions, repos.Content, contentCache, eventPublisher, clock, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		_ = redisClient.Close()
		pool.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:   cfg,
		Logger:   log,
		Database: pool,
		Cache:    redisClient,
		Metrics:  metrics,
		Services: routes.ServiceSet{
			Auth:     authService,
			Sessions: sessionService,
			Users:    userService,
			Deletion: deletionService,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting accounts API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
