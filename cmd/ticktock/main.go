package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"ticktock/internal/config"
	"ticktock/internal/logger"
	"ticktock/internal/repository"
	"ticktock/internal/service"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "ticktock",
		Short:         "TickTock - recurring task reminders API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(sessionsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds what every command needs: configuration, the database and the
// auth service backed by the configured session store.
type app struct {
	cfg   config.Config
	db    *gorm.DB
	redis *redis.Client
	auth  *service.AuthService
}

func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	if cfg.UsesDefaultSecret() {
		log.Printf("[WARN] SECRET_KEY not set, using development secret")
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	a := &app{cfg: cfg, db: db}

	var sessions service.SessionStore
	switch cfg.SessionStore {
	case "redis":
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.redis.Ping(pingCtx).Err(); err != nil {
			a.close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		sessions = repository.NewRedisSessionRepository(a.redis)
	default:
		sessions = repository.NewSessionRepository(db)
	}

	a.auth = service.NewAuthService(
		repository.NewUserRepository(db),
		sessions,
		service.NewTokenSigner(cfg.SecretKey),
		cfg.SessionTTL,
	)
	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Printf("[ERROR] close redis: %v", err)
		}
	}
	if err := repository.Close(a.db); err != nil {
		log.Printf("[ERROR] close db: %v", err)
	}
}
