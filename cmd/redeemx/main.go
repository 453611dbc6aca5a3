// Package main запускает HTTP-сервер бонусного реестра redeemx.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sujith333333/redeemx-repo/internal/accrual"
	"github.com/sujith333333/redeemx-repo/internal/config"
	"github.com/sujith333333/redeemx-repo/internal/handler"
	"github.com/sujith333333/redeemx-repo/internal/logging"
	"github.com/sujith333333/redeemx-repo/internal/middleware"
	"github.com/sujith333333/redeemx-repo/internal/repository"
	"github.com/sujith333333/redeemx-repo/internal/service"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sugar := logger.Sugar()

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		logger.Fatal("database initialization error", zap.Error(err))
	}

	var directory service.Directory
	if cfg.EmployeeDirectoryAddress != "" {
		directory = accrual.NewClient(cfg.EmployeeDirectoryAddress)
	}

	svc := service.NewService(repo, directory, logger, service.Options{
		Location:        cfg.Location(),
		AccrualPoints:   cfg.AccrualPoints,
		AccrualInterval: cfg.AccrualInterval,
	})
	defer svc.Close()

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		sugar.Warn("JWT secret is not set, tokens issued elsewhere will be rejected")
	}
	h := handler.NewHandler(svc, logger, authMiddleware)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// ежедневное начисление баллов сотрудникам
	if directory != nil {
		g.Go(func() error {
			return svc.RunAccrualUpdates(ctx)
		})
	} else {
		sugar.Info("employee directory is not configured, daily accrual disabled")
	}

	g.Go(func() error {
		sugar.Infow("starting redeemx server", "addr", cfg.RunAddress, "timezone", cfg.Timezone)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("application terminated with error", zap.Error(err))
	}
}
