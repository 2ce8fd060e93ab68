package backoffice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi"
	"github.com/streadway/amqp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/subscription-backoffice/internal/cache"
	"github.com/magabrotheeeer/subscription-backoffice/internal/config"
	grpcserver "github.com/magabrotheeeer/subscription-backoffice/internal/grpc/server"
	analyticshandler "github.com/magabrotheeeer/subscription-backoffice/internal/http/handlers/analytics"
	"github.com/magabrotheeeer/subscription-backoffice/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/subscription-backoffice/internal/http/handlers/dashboard"
	"github.com/magabrotheeeer/subscription-backoffice/internal/http/handlers/health"
	kychandler "github.com/magabrotheeeer/subscription-backoffice/internal/http/handlers/kyc"
	"github.com/magabrotheeeer/subscription-backoffice/internal/http/handlers/payments"
	"github.com/magabrotheeeer/subscription-backoffice/internal/http/handlers/subscriptions"
	usershandler "github.com/magabrotheeeer/subscription-backoffice/internal/http/handlers/users"
	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backoffice/internal/migrations"
	"github.com/magabrotheeeer/subscription-backoffice/internal/outbox"
	"github.com/magabrotheeeer/subscription-backoffice/internal/services/analytics"
	"github.com/magabrotheeeer/subscription-backoffice/internal/services/auth"
	"github.com/magabrotheeeer/subscription-backoffice/internal/services/kyc"
	"github.com/magabrotheeeer/subscription-backoffice/internal/services/notifier"
	"github.com/magabrotheeeer/subscription-backoffice/internal/services/payment"
	"github.com/magabrotheeeer/subscription-backoffice/internal/services/subscription"
	"github.com/magabrotheeeer/subscription-backoffice/internal/services/users"
	"github.com/magabrotheeeer/subscription-backoffice/internal/storage/repository"
)

const (
	shutdownTimeout     = 15 * time.Second
	healthCheckInterval = 10 * time.Second
)

// вход администратора: 1 попытка в секунду, до 5 подряд
var (
	loginRate  = rate.Every(time.Second)
	loginBurst = 5
)

// App процесс back-office: HTTP API, ретранслятор outbox и gRPC health.
type App struct {
	server  *http.Server
	health  *grpcserver.HealthServer
	relay   *outbox.Processor
	grpcLis net.Listener
	logger  *slog.Logger
	db      *repository.Storage
	cache   *cache.Cache
	conn    *amqp.Connection
	ch      *amqp.Channel
	sentry  bool
}

// New поднимает зависимости и собирает приложение.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "backoffice.New"

	a := &App{logger: logger}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Env,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
		}); err != nil {
			logger.Error("sentry init failed", sl.Err(err))
		} else {
			a.sentry = true
		}
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.db = db
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// без Redis аналитика считается на каждый запрос
	var analyticsCache analytics.Cache
	c, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		logger.Warn("redis is not available, analytics cache disabled", sl.Err(err))
	} else {
		a.cache = c
		analyticsCache = c
	}

	a.conn, err = rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.ch, err = rabbitmq.SetupChannel(a.conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	publisher, err := rabbitmq.NewPublisher(a.ch, rabbitmq.Exchange)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.relay = outbox.NewProcessor(db, publisher, outbox.NewProcessorConfig(cfg.Outbox), logger)

	notify := notifier.New(db)
	subscriptionService := subscription.New(db, db, logger)
	kycService := kyc.New(db, db, notify, logger)
	paymentService := payment.New(db, db, subscriptionService, notify, logger)
	usersService := users.New(db, db, subscriptionService, logger)
	analyticsService := analytics.New(db, analyticsCache, cfg.Analytics.CacheTTL, logger)
	authService := auth.New(db, jwt.NewJWTMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL))

	checks := map[string]health.Pinger{"postgres": db}
	grpcChecks := map[string]grpcserver.Pinger{"postgres": db}
	if a.cache != nil {
		checks["redis"] = a.cache
	}
	a.health = grpcserver.NewHealthServer(grpcChecks, healthCheckInterval, logger)
	a.grpcLis, err = net.Listen("tcp", cfg.GRPCServer.AddressGRPC)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, RouteOptions{
		Auth:         authService,
		Admins:       authService,
		LoginLimiter: rate.NewLimiter(loginRate, loginBurst),
		Sentry:       a.sentry,
	}, Handlers{
		Login:         login.New(logger, authService),
		Health:        health.New(logger, checks),
		Dashboard:     dashboard.New(logger, usersService),
		Users:         usershandler.New(logger, usersService),
		KYC:           kychandler.New(logger, kycService),
		Subscriptions: subscriptions.New(logger, subscriptionService),
		Payments:      payments.New(logger, paymentService),
		Analytics:     analyticshandler.New(logger, analyticsService),
	})

	a.server = &http.Server{
		Addr:         cfg.HTTPServer.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.TimeoutHTTP,
		WriteTimeout: cfg.HTTPServer.TimeoutHTTP,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}
	return a, nil
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливает всё.
func (a *App) Run(ctx context.Context) error {
	a.relay.Start(ctx)

	grpcCtx, stopGRPC := context.WithCancel(ctx)
	defer stopGRPC()
	go func() {
		a.logger.Info("gRPC health server starting", slog.String("address", a.grpcLis.Addr().String()))
		if err := a.health.Serve(grpcCtx, a.grpcLis); err != nil {
			a.logger.Error("gRPC health server stopped", sl.Err(err))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		runErr = a.server.Shutdown(timeoutCtx)
	}

	stopGRPC()
	a.relay.Stop()
	a.close()
	return runErr
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close storage", sl.Err(err))
		}
	}
	if a.sentry {
		sentry.Flush(2 * time.Second)
	}
}
