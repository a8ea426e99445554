package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/adapters/event"
	"github.com/khoahotran/devconnector/adapters/github"
	httpAdapter "github.com/khoahotran/devconnector/adapters/http"
	"github.com/khoahotran/devconnector/adapters/persistence"
	"github.com/khoahotran/devconnector/internal/application/service"
	authUC "github.com/khoahotran/devconnector/internal/application/usecase/auth"
	githubUC "github.com/khoahotran/devconnector/internal/application/usecase/github"
	profileUC "github.com/khoahotran/devconnector/internal/application/usecase/profile"
	"github.com/khoahotran/devconnector/internal/config"
	"github.com/khoahotran/devconnector/pkg/auth"
	"github.com/khoahotran/devconnector/pkg/logger"
	"github.com/khoahotran/devconnector/pkg/tracing"
	"github.com/khoahotran/devconnector/pkg/validation"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("cannot load config: " + err.Error())
	}

	log := logger.NewZapLogger(cfg.App.Env)
	defer func() { _ = log.Sync() }()
	log.Info("Start DevConnector API Server...", zap.String("env", cfg.App.Env))

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Tracing
	tp, err := tracing.NewTracerProvider(ctx, cfg, log, "devconnector-api")
	switch {
	case errors.Is(err, tracing.ErrNoEndpoint):
		log.Info("Tracing disabled")
	case err != nil:
		log.Fatal("Cannot init tracer", err)
	default:
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Error("Failed to shutdown tracer provider", err)
			}
		}()
	}

	// Storage
	repos, err := persistence.OpenRepositories(ctx, cfg, log)
	if err != nil {
		log.Fatal("Cannot open storage", err, zap.String("driver", cfg.DB.Driver))
	}
	defer func() {
		if err := repos.Close(context.Background()); err != nil {
			log.Error("Failed to close storage", err)
		}
	}()

	var revocations service.RevocationStore
	if cfg.Redis.Addr == "" {
		log.Warn("Redis not configured, tokens of deleted accounts stay valid until expiry")
	} else {
		redisClient, err := persistence.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal("Cannot connect Redis", err)
		}
		defer redisClient.Close()
		revocations = persistence.NewRedisRevocationStore(redisClient)
	}

	// Events
	var publisher service.EventPublisher = event.NopPublisher{}
	if len(cfg.Kafka.Brokers) == 0 {
		log.Warn("Kafka brokers not configured, profile events are dropped")
	} else {
		kafkaClient, err := event.NewKafkaProducerClient(cfg, log)
		if err != nil {
			log.Fatal("Cannot init Kafka", err)
		}
		defer kafkaClient.Close()
		publisher = kafkaClient
	}

	// Services
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
	if cfg.Auth.JWTSecret == "" {
		log.Warn("JWT secret not configured, every authenticated request will fail")
	}
	validator := validation.NewStructValidator()
	githubClient := github.NewClient(github.Config{
		BaseURL:      cfg.Github.BaseURL,
		ClientID:     cfg.Github.ClientID,
		ClientSecret: cfg.Github.ClientSecret,
		Timeout:      cfg.Github.Timeout,
	})

	// Use Cases
	loginUseCase := authUC.NewLoginUseCase(repos.Users, jwtSvc, log)
	profileUseCase := profileUC.NewProfileUseCase(profileUC.Deps{
		Profiles:      repos.Profiles,
		Users:         repos.Users,
		Posts:         repos.Posts,
		Publisher:     publisher,
		Revocations:   revocations,
		TokenLifespan: cfg.Auth.TokenLifespan,
		Logger:        log,
	})
	reposUseCase := githubUC.NewReposUseCase(githubClient, log)

	// HTTP
	router := httpAdapter.NewRouter(httpAdapter.RouterDeps{
		AuthHandler:    httpAdapter.NewAuthHandler(loginUseCase, validator),
		ProfileHandler: httpAdapter.NewProfileHandler(profileUseCase, validator),
		GithubHandler:  httpAdapter.NewGithubHandler(reposUseCase),
		JWTService:     jwtSvc,
		Revocations:    revocations,
		TokenHeader:    cfg.Auth.Header,
		CORSOrigins:    cfg.App.CORSOrigins,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Cannot run server", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err)
	}
}
