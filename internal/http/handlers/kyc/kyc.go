// Package kyc реализует HTTP-обработчики очереди проверки KYC.
package kyc

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

// Service проверка KYC
type Service interface {
	ListPending(ctx context.Context) ([]models.KYCReviewItem, error)
	Approve(ctx context.Context, accountID int64) (models.ActionResult, error)
	Reject(ctx context.Context, accountID int64, reason string) (models.ActionResult, error)
	ApproveBulk(ctx context.Context, profileIDs []int64) (models.ActionResult, error)
	RejectBulk(ctx context.Context, profileIDs []int64, reason string) (models.ActionResult, error)
}

// Handler обработчики KYC
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

// ActionRequest решение по одному пользователю
type ActionRequest struct {
	UserID          int64  `json:"user_id" form:"user_id" validate:"required,gt=0"`
	Action          string `json:"action" form:"action" validate:"required,oneof=approve reject"`
	RejectionReason string `json:"rejection_reason" form:"rejection_reason"`
}

// BulkRequest решение по выбранным профилям
type BulkRequest struct {
	ProfileIDs      []int64 `json:"profile_ids" form:"profile_ids"`
	Action          string  `json:"action" form:"action" validate:"required,oneof=approve reject"`
	RejectionReason string  `json:"rejection_reason" form:"rejection_reason"`
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("admin", middlewarectx.AdminEmail(r.Context())),
	)
}

// List godoc
// @Summary Очередь KYC
// @Description Профили со статусом PENDING, новые регистрации первыми.
// @Tags KYC
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.KYCReviewItem}
// @Failure 500 {object} response.ErrorResponse
// @Router /admin/kyc [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.kyc.List")

	items, err := h.service.ListPending(r.Context())
	if err != nil {
		log.Error("failed to list pending kyc", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(items))
}

// Action godoc
// @Summary Решение по KYC пользователя
// @Description Пустая причина отклонения заменяется стандартной.
// @Tags KYC
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ActionRequest true "Решение"
// @Success 200 {object} response.Response{data=models.ActionResult}
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /admin/kyc/action [post]
func (h *Handler) Action(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.kyc.Action")

	var req ActionRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	var (
		res models.ActionResult
		err error
	)
	if req.Action == "approve" {
		res, err = h.service.Approve(r.Context(), req.UserID)
	} else {
		res, err = h.service.Reject(r.Context(), req.UserID, req.RejectionReason)
	}
	if err != nil && !services.IsWarning(err) {
		log.Error("kyc action failed", slog.String("action", req.Action), sl.Err(err))
	}
	response.Action(w, r, res, err, "profile")
}

// Bulk godoc
// @Summary Массовое решение по KYC
// @Tags KYC
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BulkRequest true "Решение"
// @Success 200 {object} response.Response{data=models.ActionResult}
// @Failure 422 {object} response.ErrorResponse
// @Router /admin/kyc/bulk [post]
func (h *Handler) Bulk(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.kyc.Bulk")

	var req BulkRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	var (
		res models.ActionResult
		err error
	)
	if req.Action == "approve" {
		res, err = h.service.ApproveBulk(r.Context(), req.ProfileIDs)
	} else {
		res, err = h.service.RejectBulk(r.Context(), req.ProfileIDs, req.RejectionReason)
	}
	if err != nil && !services.IsWarning(err) {
		log.Error("kyc bulk action failed", slog.String("action", req.Action), sl.Err(err))
	}
	response.Action(w, r, res, err, "profile")
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
