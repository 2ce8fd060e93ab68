// Package main Subscription Back-Office API
//
// @title           Subscription Back-Office API
// @version         1.0
// @description     Административная панель: проверка KYC, подписки, заявки на оплату и аналитика

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/subscription-backoffice/internal/app/backoffice"
	"github.com/magabrotheeeer/subscription-backoffice/internal/config"
	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/logger"
	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env, cfg.LogLevel)

	log.Info("starting backoffice", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := backoffice.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("backoffice stopped gracefully")
}
