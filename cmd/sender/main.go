package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/subscription-backoffice/internal/app/sender"
	"github.com/magabrotheeeer/subscription-backoffice/internal/config"
	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/logger"
	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env, cfg.LogLevel)

	log.Info("starting sender service", slog.String("env", cfg.Env), slog.String("driver", cfg.Mail.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := sender.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize sender app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		log.Error("sender app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("sender app stopped gracefully")
}
