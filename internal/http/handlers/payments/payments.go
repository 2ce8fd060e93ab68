// Package payments реализует HTTP-обработчики рассмотрения заявок на оплату.
package payments

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-backoffice/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-backoffice/internal/http/request"
	"github.com/magabrotheeeer/subscription-backoffice/internal/http/response"
	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
	"github.com/magabrotheeeer/subscription-backoffice/internal/services"
)

// Service рассмотрение заявок
type Service interface {
	List(ctx context.Context, filter models.PaymentFilter) (models.PaymentList, error)
	Approve(ctx context.Context, paymentID int64) (models.ActionResult, error)
	Reject(ctx context.Context, paymentID int64) (models.ActionResult, error)
	ApproveBulk(ctx context.Context, paymentIDs []int64) (models.ActionResult, error)
	RejectBulk(ctx context.Context, paymentIDs []int64) (models.ActionResult, error)
}

// Handler обработчики заявок на оплату
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

// ActionRequest решение по одной заявке
type ActionRequest struct {
	PaymentID int64  `json:"payment_id" form:"payment_id" validate:"required,gt=0"`
	Action    string `json:"action" form:"action" validate:"required,oneof=approve reject"`
}

// BulkRequest решение по выбранным заявкам
type BulkRequest struct {
	PaymentIDs []int64 `json:"payment_ids" form:"payment_ids"`
	Action     string  `json:"action" form:"action" validate:"required,oneof=approve reject"`
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("admin", middlewarectx.AdminEmail(r.Context())),
	)
}

// List godoc
// @Summary Заявки на оплату
// @Description По умолчанию ожидающие, status=all снимает фильтр. Поиск по email и номеру транзакции.
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param q query string false "Поиск"
// @Param status query string false "PENDING, APPROVED, REJECTED или all"
// @Param page query int false "Страница"
// @Success 200 {object} response.Response{data=models.PaymentList}
// @Failure 500 {object} response.ErrorResponse
// @Router /admin/payments [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.payments.List")

	list, err := h.service.List(r.Context(), models.PaymentFilter{
		Query:  request.Query(r),
		Status: r.URL.Query().Get("status"),
		Page:   request.Page(r),
	})
	if err != nil {
		log.Error("failed to list payments", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(list))
}

// Action godoc
// @Summary Решение по заявке
// @Description Повторная обработка не меняет заявку и возвращает предупреждение.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ActionRequest true "Решение"
// @Success 200 {object} response.Response{data=models.ActionResult}
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /admin/payments/action [post]
func (h *Handler) Action(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.payments.Action")

	var req ActionRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	var (
		res models.ActionResult
		err error
	)
	if req.Action == "approve" {
		res, err = h.service.Approve(r.Context(), req.PaymentID)
	} else {
		res, err = h.service.Reject(r.Context(), req.PaymentID)
	}
	if err != nil && !services.IsWarning(err) {
		log.Error("payment action failed", slog.String("action", req.Action), sl.Err(err))
	}
	response.Action(w, r, res, err, "payment")
}

// Bulk godoc
// @Summary Массовое решение по заявкам
// @Description Обрабатываются только ожидающие заявки.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BulkRequest true "Решение"
// @Success 200 {object} response.Response{data=models.ActionResult}
// @Failure 422 {object} response.ErrorResponse
// @Router /admin/payments/bulk [post]
func (h *Handler) Bulk(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.payments.Bulk")

	var req BulkRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	var (
		res models.ActionResult
		err error
	)
	if req.Action == "approve" {
		res, err = h.service.ApproveBulk(r.Context(), req.PaymentIDs)
	} else {
		res, err = h.service.RejectBulk(r.Context(), req.PaymentIDs)
	}
	if err != nil && !services.IsWarning(err) {
		log.Error("payment bulk action failed", slog.String("action", req.Action), sl.Err(err))
	}
	response.Action(w, r, res, err, "payment")
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
