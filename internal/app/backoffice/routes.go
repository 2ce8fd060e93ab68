// Package backoffice собирает HTTP-сервер административной панели,
// ретранслятор outbox и gRPC health-сервер в одно приложение.
package backoffice

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	// Регистрация спецификации Swagger.
	_ "github.com/magabrotheeeer/subscription-backoffice/docs"
	"github.com/magabrotheeeer/subscription-backoffice/internal/http/handlers/analytics"
	"github.com/magabrotheeeer/subscription-backoffice/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/subscription-backoffice/internal/http/handlers/dashboard"
	"github.com/magabrotheeeer/subscription-backoffice/internal/http/handlers/health"
	"github.com/magabrotheeeer/subscription-backoffice/internal/http/handlers/kyc"
	"github.com/magabrotheeeer/subscription-backoffice/internal/http/handlers/payments"
	"github.com/magabrotheeeer/subscription-backoffice/internal/http/handlers/subscriptions"
	"github.com/magabrotheeeer/subscription-backoffice/internal/http/handlers/users"
	"github.com/magabrotheeeer/subscription-backoffice/internal/http/middlewarectx"
)

// Handlers обработчики маршрутов приложения
type Handlers struct {
	Login         *login.Handler
	Health        *health.Handler
	Dashboard     *dashboard.Handler
	Users         *users.Handler
	KYC           *kyc.Handler
	Subscriptions *subscriptions.Handler
	Payments      *payments.Handler
	Analytics     *analytics.Handler
}

// RouteOptions middleware, зависящие от окружения
type RouteOptions struct {
	Auth         middlewarectx.Service
	Admins       middlewarectx.AdminStatusChecker
	LoginLimiter *rate.Limiter
	Sentry       bool
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, log *slog.Logger, opts RouteOptions, h Handlers) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)
	if opts.Sentry {
		// паника уходит в Sentry и пробрасывается дальше в Recoverer
		r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	}
	r.Use(middlewarectx.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health.ServeHTTP)
		r.With(middlewarectx.RateLimitMiddleware(opts.LoginLimiter, log)).
			Post("/auth/login", h.Login.ServeHTTP)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(opts.Auth, log))
			r.Use(middlewarectx.RequireSuperuser(opts.Admins, log))

			r.Get("/dashboard", h.Dashboard.ServeHTTP)

			r.Get("/users", h.Users.List)
			r.Get("/users/{id}", h.Users.Detail)
			r.Post("/users/{id}", h.Users.Action)

			r.Get("/kyc", h.KYC.List)
			r.Post("/kyc/action", h.KYC.Action)
			r.Post("/kyc/bulk", h.KYC.Bulk)

			r.Get("/subscriptions", h.Subscriptions.List)
			r.Post("/subscriptions", h.Subscriptions.Assign)
			r.Post("/subscriptions/bulk", h.Subscriptions.Bulk)
			r.Get("/subscriptions/{profile_id}/history", h.Subscriptions.History)

			r.Get("/payments", h.Payments.List)
			r.Post("/payments/action", h.Payments.Action)
			r.Post("/payments/bulk", h.Payments.Bulk)

			r.Get("/analytics", h.Analytics.ServeHTTP)
		})
	})

	r.Get("/health", h.Health.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
