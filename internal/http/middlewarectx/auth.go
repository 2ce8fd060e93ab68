// Package middlewarectx содержит HTTP middleware back-office: проверку JWT,
// требование прав суперпользователя, ограничение частоты и метрики запросов.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-backoffice/internal/http/response"
	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// AccountID ключ для ID администратора в контексте
	AccountID Key = "account_id"
	// Email ключ для email администратора в контексте
	Email Key = "email"
	// Superuser ключ для признака суперпользователя в контексте
	Superuser Key = "superuser"
)

// Service описывает интерфейс сервиса для валидации JWT токена.
type Service interface {
	ValidateToken(ctx context.Context, token string) (*jwt.CustomClaims, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
//
// Если токен валиден, добавляет данные администратора в контекст запроса,
// иначе возвращает ошибку с HTTP статусом 401 Unauthorized.
func JWTMiddleware(authService Service, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := authService.ValidateToken(r.Context(), tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), AccountID, claims.AccountID)
			ctx = context.WithValue(ctx, Email, claims.Email)
			ctx = context.WithValue(ctx, Superuser, claims.IsSuperuser)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminStatusChecker перечитывает права администратора из базы.
type AdminStatusChecker interface {
	IsActiveSuperuser(ctx context.Context, accountID int64) (bool, error)
}

// RequireSuperuser пропускает только запросы с правами суперпользователя.
// Кроме claim токена на каждый запрос проверяется, что учётная запись ещё активна
// и не лишена прав, иначе 403.
func RequireSuperuser(checker AdminStatusChecker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireSuperuser"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			superuser, _ := r.Context().Value(Superuser).(bool)
			accountID, ok := r.Context().Value(AccountID).(int64)
			if !superuser || !ok {
				log.Warn("superuser access denied", slog.Any("account_id", r.Context().Value(AccountID)))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("superuser access required"))
				return
			}

			active, err := checker.IsActiveSuperuser(r.Context(), accountID)
			if err != nil {
				log.Error("failed to check admin status", sl.ID("account_id", accountID), sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}
			if !active {
				log.Warn("admin access revoked", sl.ID("account_id", accountID))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("superuser access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminEmail возвращает email администратора из контекста запроса.
func AdminEmail(ctx context.Context) string {
	email, _ := ctx.Value(Email).(string)
	return email
}
