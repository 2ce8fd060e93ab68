// Package analytics реализует HTTP-обработчик страницы аналитики.
package analytics

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-backoffice/internal/http/response"
	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
)

// Service источник агрегатов
type Service interface {
	Summary(ctx context.Context) (models.Analytics, error)
}

// Handler отдаёт агрегаты аналитики
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Аналитика
// @Description Выручка, регистрации и выручка по дням за 30 дней, распределения KYC и активных пакетов.
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.Analytics}
// @Failure 500 {object} response.ErrorResponse
// @Router /admin/analytics [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.analytics"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	res, err := h.service.Summary(r.Context())
	if err != nil {
		log.Error("failed to compute analytics", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}
