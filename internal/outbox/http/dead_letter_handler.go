package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/GarciaKevinFab/academico-sync/internal/httputil"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/domain"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/http/dto"
)

// DeadLetterAdmin is the operator surface over dead-letter records.
type DeadLetterAdmin interface {
	ListDeadLetters(ctx context.Context, limit, offset int) ([]*domain.DeadLetterRecord, error)
	DeleteDeadLetter(ctx context.Context, id uuid.UUID) error
	ReprocessDeadLetter(ctx context.Context, id uuid.UUID) error
}

// DeadLetterHandler handles HTTP requests for dead-letter records.
type DeadLetterHandler struct {
	admin  DeadLetterAdmin
	logger *slog.Logger
}

// NewDeadLetterHandler creates a new dead-letter handler.
func NewDeadLetterHandler(admin DeadLetterAdmin, logger *slog.Logger) *DeadLetterHandler {
	return &DeadLetterHandler{admin: admin, logger: logger}
}

// ListHandler retrieves dead-letter records, newest first.
// GET /v1/dead-letters?offset=0&limit=50
func (h *DeadLetterHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	records, err := h.admin.ListDeadLetters(c.Request.Context(), limit, offset)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDeadLettersToListResponse(records))
}

// DeleteHandler removes a dead-letter record without redelivery.
// DELETE /v1/dead-letters/:id
// Returns 204 No Content.
func (h *DeadLetterHandler) DeleteHandler(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := h.admin.DeleteDeadLetter(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// ReprocessHandler resets the underlying event and removes the dead letter.
// POST /v1/dead-letters/:id/reprocess
// Returns 204 No Content.
func (h *DeadLetterHandler) ReprocessHandler(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := h.admin.ReprocessDeadLetter(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}
