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
	"github.com/spf13/cobra"

	"ticktock/internal/httpapi"
	"ticktock/internal/logger"
	"ticktock/internal/repository"
	"ticktock/internal/service"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tasks := service.NewTaskService(repository.NewTaskRepository(a.db))
	push := service.NewPushService(repository.NewPushRepository(a.db), a.cfg.PushPublicKey)

	router, err := httpapi.NewRouter(a.auth, tasks, push, httpapi.Options{
		CORSOrigins:    a.cfg.CORSOrigins,
		SecureCookies:  a.cfg.CrossSiteCookies(),
		SessionTTL:     a.cfg.SessionTTL,
		AuthRateLimit:  a.cfg.AuthRateLimit,
		TrustedProxies: a.cfg.TrustedProxies,
	})
	if err != nil {
		return err
	}

	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleSessionPurge(a.cfg.SessionPurgeAt, a.auth); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "ticktock API started", "addr", srv.Addr, "env", a.cfg.Environment, "sessions", a.cfg.SessionStore)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info(context.Background(), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	logger.Info(context.Background(), "shutdown complete")
	return nil
}
