package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"

	"github.com/otcheredev/clinical-records-api/internal/audit"
	"github.com/otcheredev/clinical-records-api/internal/auth"
	"github.com/otcheredev/clinical-records-api/internal/cache"
	"github.com/otcheredev/clinical-records-api/internal/config"
	"github.com/otcheredev/clinical-records-api/internal/database"
	"github.com/otcheredev/clinical-records-api/internal/handlers"
	"github.com/otcheredev/clinical-records-api/internal/metrics"
	"github.com/otcheredev/clinical-records-api/internal/pipeline"
	"github.com/otcheredev/clinical-records-api/internal/repository"
	"github.com/otcheredev/clinical-records-api/internal/server"
	"github.com/otcheredev/clinical-records-api/internal/services"
	"github.com/otcheredev/clinical-records-api/internal/tenancy"
	"github.com/otcheredev/clinical-records-api/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Initialize logger
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log.Info().Msg("Starting clinical records API")

	// Connect to database
	dbConfig := database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
		LogLevel: cfg.Database.LogLevel,
	}

	if err := database.Connect(dbConfig); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	// Initialize tenant snapshot cache
	cacheImpl, cacheTTL, err := cache.New(cfg.Cache, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	log.Info().
		Bool("enabled", cfg.Cache.Enabled).
		Str("type", cfg.Cache.Type).
		Dur("ttl", cacheTTL).
		Msg("Tenant cache initialized")

	// Initialize repositories
	tenantRepo := repository.NewTenantRepository(database.DB)
	userRepo := repository.NewUserRepository(database.DB)
	patientRepo := repository.NewPatientRepository(database.DB)
	recordRepo := repository.NewRecordRepository(database.DB)
	auditRepo := repository.NewAuditRepository(database.DB)
	tenantStore := repository.NewTenantStore(tenantRepo, cacheImpl, cacheTTL)

	// Authorization pipeline, built once
	verifier := auth.NewJWTVerifier(auth.JWTConfig{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.Issuer,
		Leeway: cfg.Auth.Leeway,
	}, userRepo)
	authPipeline := pipeline.New(auth.NewResolver(verifier), tenancy.NewBinder(tenantStore))
	log.Info().Strs("stages", authPipeline.StageNames()).Msg("Authorization pipeline ready")

	// Initialize services
	auditSink := audit.NewAsyncSink(auditRepo, cfg.Audit.BufferSize, cfg.Audit.PremiumOnly)
	patientService := services.NewPatientService(patientRepo, auditSink)
	recordService := services.NewRecordService(recordRepo, patientRepo, auditSink)

	if cfg.Metrics.Enabled {
		metrics.Register()
	}

	healthHandler := handlers.NewHealthHandler(map[string]handlers.Check{
		"database": func(ctx context.Context) error {
			return database.Ping()
		},
		"cache": func(ctx context.Context) error {
			_, err := cacheImpl.Exists(ctx, cache.TenantKey("health"))
			return err
		},
	})

	router := server.NewRouter(server.Deps{
		Pipeline:       authPipeline,
		PatientService: patientService,
		RecordService:  recordService,
		Health:         healthHandler,
		CORS:           cfg.CORS,
		Metrics:        cfg.Metrics.Enabled,
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	var result *multierror.Error
	if err := srv.Shutdown(ctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to shut down server: %w", err))
	}
	if err := auditSink.Close(ctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to drain audit sink: %w", err))
	}
	if err := cacheImpl.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to close cache: %w", err))
	}
	if err := database.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to close database: %w", err))
	}

	if err := result.ErrorOrNil(); err != nil {
		log.Error().Err(err).Msg("Unclean shutdown")
		os.Exit(1)
	}

	log.Info().Msg("Server stopped")
}
