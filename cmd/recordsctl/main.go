package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/otcheredev/clinical-records-api/internal/admin"
	"github.com/otcheredev/clinical-records-api/internal/cache"
	"github.com/otcheredev/clinical-records-api/internal/config"
	"github.com/otcheredev/clinical-records-api/internal/database"
	"github.com/otcheredev/clinical-records-api/internal/repository"
	"github.com/otcheredev/clinical-records-api/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(cfg.Log.Level, "console")

	if err := database.Connect(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
		LogLevel: "silent",
	}); err != nil {
		return err
	}
	defer database.Close()

	cacheImpl, cacheTTL, err := cache.New(cfg.Cache, cfg.Redis)
	if err != nil {
		return err
	}
	defer cacheImpl.Close()
	if cfg.Cache.Enabled && cfg.Cache.Type != "redis" {
		log.Warn().
			Dur("ttl", cfg.Cache.TTL).
			Msg("Tenant cache is in-process; running servers pick up tenant changes when their snapshot expires")
	}

	svc := admin.NewService(
		repository.NewTenantStore(repository.NewTenantRepository(database.DB), cacheImpl, cacheTTL),
		repository.NewUserRepository(database.DB),
		repository.NewAuditRepository(database.DB),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return admin.NewRootCommand(svc).ExecuteContext(ctx)
}
