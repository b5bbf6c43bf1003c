package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/Dnl30T/Avisos-FOA/internal/bootstrap"
	"github.com/Dnl30T/Avisos-FOA/internal/config"
	noticeRepo "github.com/Dnl30T/Avisos-FOA/internal/modules/notice/repository"
	userRepo "github.com/Dnl30T/Avisos-FOA/internal/modules/user/repository"
	userService "github.com/Dnl30T/Avisos-FOA/internal/modules/user/service"
	"github.com/Dnl30T/Avisos-FOA/internal/server"
	"github.com/Dnl30T/Avisos-FOA/pkg/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

// run returns only after the server has drained, so the deferred closes never pull
// the stores out from under an in-flight request.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, closeStores, err := openStores(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer closeStores()

	admins := userService.NewAllowList(cfg.AdminEmails)
	if cfg.IsDevelopment() {
		if err := bootstrap.SeedAdminUsers(ctx, stores.Users, admins.Emails(), cfg.SeedAdminPassword); err != nil {
			return fmt.Errorf("failed to seed admin users: %w", err)
		}
	}

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		log.Println("[main] REDIS_URL not set, caches and revocations stay in process")
	}

	srv, err := server.NewServer(cfg, stores, admins, redisClient)
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	return srv.Run(ctx)
}

func openStores(cfg *config.Config) (server.Stores, func(), error) {
	if cfg.StoreDriver == config.DriverSQLite {
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return server.Stores{}, nil, err
		}
		if err := bootstrap.MigrateSQLite(db); err != nil {
			db.Close()
			return server.Stores{}, nil, err
		}
		log.Printf("[main] using sqlite store at %s", cfg.SQLitePath)
		return server.Stores{
			Notices: noticeRepo.NewSQLiteNoticeRepository(db),
			Users:   userRepo.NewSQLiteUserRepository(db),
		}, func() { db.Close() }, nil
	}

	db, err := database.Connect(database.PostgresConfig{
		Host:     cfg.DBHost,
		User:     cfg.DBUser,
		Password: cfg.DBPass,
		Name:     cfg.DBName,
		Port:     cfg.DBPort,
	}, cfg.IsDevelopment())
	if err != nil {
		return server.Stores{}, nil, err
	}
	if err := bootstrap.Migrate(db); err != nil {
		return server.Stores{}, nil, err
	}

	return server.Stores{
		Notices: noticeRepo.NewNoticeRepository(db),
		Users:   userRepo.NewUserRepository(db),
	}, func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}, nil
}
