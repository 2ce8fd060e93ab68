// Package subscriptions реализует HTTP-обработчики страницы подписок.
package subscriptions

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-backoffice/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-backoffice/internal/http/request"
	"github.com/magabrotheeeer/subscription-backoffice/internal/http/response"
	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
	"github.com/magabrotheeeer/subscription-backoffice/internal/services"
	"github.com/magabrotheeeer/subscription-backoffice/internal/services/subscription"
)

// Service назначение подписок
type Service interface {
	List(ctx context.Context, filter models.SubscriptionFilter) (models.SubscriptionList, error)
	AssignByAccount(ctx context.Context, accountID int64, days int) (models.ActionResult, error)
	BulkAssign(ctx context.Context, profileIDs []int64, days int) (models.ActionResult, error)
	History(ctx context.Context, profileID int64) ([]models.SubscriptionHistory, error)
}

// Handler обработчики подписок
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает Handler
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// AssignRequest продление подписки одного пользователя
type AssignRequest struct {
	UserID int64       `json:"user_id" form:"user_id" validate:"required,gt=0"`
	Days   request.Int `json:"days" form:"days" validate:"max=3650"`
}

// BulkRequest назначение пакета выбранным профилям
type BulkRequest struct {
	ProfileIDs []int64     `json:"profile_ids" form:"profile_ids"`
	Days       request.Int `json:"days" form:"days" validate:"max=3650"`
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("admin", middlewarectx.AdminEmail(r.Context())),
	)
}

// List godoc
// @Summary Список подписок
// @Description Фильтр all, active, expired, expiring_soon, never и сводка по подпискам.
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param q query string false "Поиск"
// @Param status query string false "Статус подписки"
// @Param page query int false "Страница"
// @Success 200 {object} response.Response{data=models.SubscriptionList}
// @Failure 500 {object} response.ErrorResponse
// @Router /admin/subscriptions [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.subscriptions.List")

	list, err := h.service.List(r.Context(), models.SubscriptionFilter{
		Query:  request.Query(r),
		Status: r.URL.Query().Get("status"),
		Page:   request.Page(r),
	})
	if err != nil {
		log.Error("failed to list subscriptions", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(list))
}

// Assign godoc
// @Summary Продлить подписку пользователя
// @Description Будущий срок продлевается, истёкший или пустой считается от текущего момента.
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AssignRequest true "Пользователь и срок"
// @Success 200 {object} response.Response{data=models.ActionResult}
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/subscriptions [post]
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.subscriptions.Assign")

	var req AssignRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	res, err := h.service.AssignByAccount(r.Context(), req.UserID, int(req.Days))
	if errors.Is(err, subscription.ErrTooManyDays) {
		log.Warn("too many days", slog.Int("days", int(req.Days)))
		response.Fail(w, r, http.StatusUnprocessableEntity, subscription.ErrTooManyDays.Error())
		return
	}
	if err != nil && !services.IsWarning(err) {
		log.Error("failed to assign subscription", sl.Err(err))
	}
	response.Action(w, r, res, err, "profile")
}

// Bulk godoc
// @Summary Назначить пакет выбранным профилям
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BulkRequest true "Профили и срок 7, 15 или 30"
// @Success 200 {object} response.Response{data=models.ActionResult}
// @Failure 422 {object} response.ErrorResponse
// @Router /admin/subscriptions/bulk [post]
func (h *Handler) Bulk(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.subscriptions.Bulk")

	var req BulkRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	res, err := h.service.BulkAssign(r.Context(), req.ProfileIDs, int(req.Days))
	if errors.Is(err, subscription.ErrInvalidDays) {
		log.Warn("invalid bulk days", slog.Int("days", int(req.Days)))
		response.Fail(w, r, http.StatusUnprocessableEntity, subscription.ErrInvalidDays.Error())
		return
	}
	if err != nil && !services.IsWarning(err) {
		log.Error("failed to assign subscriptions", sl.Err(err))
	}
	response.Action(w, r, res, err, "profile")
}

// History godoc
// @Summary Журнал подписок профиля
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param profile_id path int true "ID профиля"
// @Success 200 {object} response.Response{data=[]models.SubscriptionHistory}
// @Failure 400 {object} response.ErrorResponse
// @Router /admin/subscriptions/{profile_id}/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.subscriptions.History")

	id, err := strconv.ParseInt(chi.URLParam(r, "profile_id"), 10, 64)
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "invalid profile id")
		return
	}

	history, err := h.service.History(r.Context(), id)
	if err != nil {
		log.Error("failed to load history", sl.Err(err))
		code, resp := response.FromError(err, "profile")
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(history))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, v any) bool {
	if err := request.Decode(r, v); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return false
	}
	return true
}
