// Package users реализует HTTP-обработчики списка пользователей и карточки пользователя.
package users

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

// Действия карточки пользователя
const (
	ActionToggleStatus = "toggle_status"
	ActionAssign       = "assign_subscription"
	ActionUpdateInfo   = "update_info"
)

// Service операции над пользователями
type Service interface {
	List(ctx context.Context, filter models.UserFilter) (models.Page[models.AccountWithProfile], error)
	Detail(ctx context.Context, accountID int64) (models.UserDetail, error)
	ToggleStatus(ctx context.Context, accountID int64) (models.ActionResult, error)
	UpdateInfo(ctx context.Context, accountID int64, upd models.AccountInfoUpdate) (models.ActionResult, error)
	AssignSubscription(ctx context.Context, accountID int64, days int) (models.ActionResult, error)
}

// Handler обработчики пользователей
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

// ActionRequest тело действия из карточки пользователя
type ActionRequest struct {
	Action       string      `json:"action" form:"action" validate:"required,oneof=toggle_status assign_subscription update_info"`
	Days         request.Int `json:"days" form:"days" validate:"max=3650"`
	Name         *string     `json:"name,omitempty" form:"name"`
	MobileNumber *string     `json:"mobile_number,omitempty" form:"mobile_number" validate:"omitempty,max=32"`
	Email        *string     `json:"email,omitempty" form:"email" validate:"omitempty,email"`
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// List godoc
// @Summary Список пользователей
// @Description Поиск по email, имени и телефону, фильтр статуса, 20 записей на страницу.
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param q query string false "Поиск"
// @Param status query string false "all, active, inactive, verified, pending"
// @Param page query int false "Страница"
// @Success 200 {object} response.Response
// @Failure 500 {object} response.ErrorResponse
// @Router /admin/users [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.users.List")

	filter := models.UserFilter{
		Query:  request.Query(r),
		Status: r.URL.Query().Get("status"),
		Page:   request.Page(r),
	}
	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(page))
}

// Detail godoc
// @Summary Карточка пользователя
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID учётной записи"
// @Success 200 {object} response.Response{data=models.UserDetail}
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/users/{id} [get]
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.users.Detail")

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "invalid user id")
		return
	}

	detail, err := h.service.Detail(r.Context(), id)
	if err != nil {
		log.Error("failed to load user", sl.Err(err))
		code, resp := response.FromError(err, "user")
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(detail))
}

// Action godoc
// @Summary Действие из карточки пользователя
// @Description toggle_status, assign_subscription (срок от текущего момента) или update_info.
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID учётной записи"
// @Param request body ActionRequest true "Действие"
// @Success 200 {object} response.Response{data=models.ActionResult}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /admin/users/{id} [post]
func (h *Handler) Action(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.users.Action")

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "invalid user id")
		return
	}

	var req ActionRequest
	if err := request.Decode(r, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	var res models.ActionResult
	switch req.Action {
	case ActionToggleStatus:
		res, err = h.service.ToggleStatus(r.Context(), id)
	case ActionAssign:
		res, err = h.service.AssignSubscription(r.Context(), id, int(req.Days))
	case ActionUpdateInfo:
		res, err = h.service.UpdateInfo(r.Context(), id, models.AccountInfoUpdate{
			Name:         req.Name,
			MobileNumber: req.MobileNumber,
			Email:        req.Email,
		})
	}
	if errors.Is(err, subscription.ErrTooManyDays) {
		log.Warn("too many days", slog.Int("days", int(req.Days)))
		response.Fail(w, r, http.StatusUnprocessableEntity, subscription.ErrTooManyDays.Error())
		return
	}
	if err != nil && !services.IsWarning(err) {
		log.Error("user action failed", slog.String("action", req.Action), sl.Err(err))
	} else {
		log.Info("user action", slog.String("action", req.Action), slog.Int64("account_id", id),
			slog.String("admin", middlewarectx.AdminEmail(r.Context())))
	}
	response.Action(w, r, res, err, "user")
}
