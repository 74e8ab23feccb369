// Package http provides HTTP handlers for running reconciliations and
// browsing their history.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/GarciaKevinFab/academico-sync/internal/errors"
	"github.com/GarciaKevinFab/academico-sync/internal/httputil"
	"github.com/GarciaKevinFab/academico-sync/internal/reconciliation/domain"
	"github.com/GarciaKevinFab/academico-sync/internal/reconciliation/http/dto"
	customValidation "github.com/GarciaKevinFab/academico-sync/internal/validation"
)

// Reconciler is the use case surface the handler needs.
type Reconciler interface {
	ReconcilePeriod(ctx context.Context, periodID string) (*domain.Result, error)
	GetResult(ctx context.Context, id uuid.UUID) (*domain.Result, error)
	ListResults(ctx context.Context, periodID string, limit, offset int) ([]*domain.Result, error)
}

// ReconciliationHandler handles HTTP requests for reconciliation runs.
type ReconciliationHandler struct {
	reconciler Reconciler
	logger     *slog.Logger
}

// NewReconciliationHandler creates a new reconciliation handler.
func NewReconciliationHandler(reconciler Reconciler, logger *slog.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{reconciler: reconciler, logger: logger}
}

// RunHandler runs a reconciliation for one period synchronously.
// POST /v1/reconciliations
// Returns 201 Created with the full result.
func (h *ReconciliationHandler) RunHandler(c *gin.Context) {
	var req dto.RunReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	result, err := h.reconciler.ReconcilePeriod(c.Request.Context(), req.PeriodID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapResultToResponse(result))
}

// GetHandler retrieves one stored result.
// GET /v1/reconciliations/:id
func (h *ReconciliationHandler) GetHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(
			c,
			apperrors.Wrap(apperrors.ErrInvalidInput, "invalid id parameter"),
			h.logger,
		)
		return
	}

	result, err := h.reconciler.GetResult(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapResultToResponse(result))
}

// ListHandler retrieves reconciliation history, optionally per period.
// GET /v1/reconciliations?period_id=&offset=0&limit=50
func (h *ReconciliationHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	results, err := h.reconciler.ListResults(c.Request.Context(), c.Query("period_id"), limit, offset)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapResultsToListResponse(results))
}
