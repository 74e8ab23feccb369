// Package http provides HTTP handlers for the outbox operator surface:
// event production, listings, reprocessing, statistics and maintenance.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/GarciaKevinFab/academico-sync/internal/errors"
	"github.com/GarciaKevinFab/academico-sync/internal/httputil"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/domain"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/http/dto"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/repository"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/usecase"
	customValidation "github.com/GarciaKevinFab/academico-sync/internal/validation"
)

// EventProducer is the producer surface the handler needs.
type EventProducer interface {
	CreateEvent(ctx context.Context, input usecase.CreateEventInput) (*domain.OutboxEvent, error)
}

// EventAdmin is the operator surface over events and maintenance.
type EventAdmin interface {
	ListEvents(ctx context.Context, filter repository.ListFilter, limit, offset int) ([]*domain.OutboxEvent, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*domain.OutboxEvent, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	GetStats(ctx context.Context) (*usecase.Stats, error)
	Reprocess(ctx context.Context, input usecase.ReprocessInput) (int64, error)
	PurgeAcked(ctx context.Context, olderThanDays int) (int64, error)
	ResetStuck(ctx context.Context, stuckForMinutes int) (int64, error)
}

// EventHandler handles HTTP requests for outbox events.
type EventHandler struct {
	producer EventProducer
	admin    EventAdmin
	logger   *slog.Logger
}

// NewEventHandler creates a new event handler with required dependencies.
func NewEventHandler(producer EventProducer, admin EventAdmin, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		producer: producer,
		admin:    admin,
		logger:   logger,
	}
}

// CreateHandler records a domain fact for delivery.
// POST /v1/events
// Returns 201 Created with the event, or 200 OK when the idempotent key
// already exists and the existing event is returned.
func (h *EventHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	event, err := h.producer.CreateEvent(c.Request.Context(), req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// A repeated call returns the already-recorded event unchanged.
	c.JSON(http.StatusCreated, dto.MapEventToResponse(event))
}

// ListHandler retrieves events with optional filters.
// GET /v1/events?status=&entity_type=&period_id=&offset=0&limit=50
func (h *EventHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	filter := repository.ListFilter{
		Status:     domain.Status(c.Query("status")),
		EntityType: c.Query("entity_type"),
		PeriodID:   c.Query("period_id"),
	}

	events, err := h.admin.ListEvents(c.Request.Context(), filter, limit, offset)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEventsToListResponse(events))
}

// GetHandler retrieves one event by id.
// GET /v1/events/:id
func (h *EventHandler) GetHandler(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	event, err := h.admin.GetEvent(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEventToResponse(event))
}

// DeleteHandler removes an event.
// DELETE /v1/events/:id
// Returns 204 No Content.
func (h *EventHandler) DeleteHandler(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := h.admin.DeleteEvent(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// ReprocessHandler resets the selected events to pending.
// POST /v1/events/reprocess
func (h *EventHandler) ReprocessHandler(c *gin.Context) {
	var req dto.ReprocessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	input, err := req.ToInput()
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	affected, err := h.admin.Reprocess(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.AffectedResponse{Affected: affected})
}

// StatsHandler reports pipeline statistics.
// GET /v1/stats
func (h *EventHandler) StatsHandler(c *gin.Context) {
	stats, err := h.admin.GetStats(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapStatsToResponse(stats))
}

// PurgeAckedHandler deletes old acknowledged events.
// POST /v1/maintenance/purge-acked
func (h *EventHandler) PurgeAckedHandler(c *gin.Context) {
	var req dto.PurgeAckedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	affected, err := h.admin.PurgeAcked(c.Request.Context(), req.OlderThanDays)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.AffectedResponse{Affected: affected})
}

// ResetStuckHandler moves events stuck in sending back to retry.
// POST /v1/maintenance/reset-stuck
func (h *EventHandler) ResetStuckHandler(c *gin.Context) {
	var req dto.ResetStuckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	affected, err := h.admin.ResetStuck(c.Request.Context(), req.StuckForMinutes)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.AffectedResponse{Affected: affected})
}

func parseID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.Wrap(apperrors.ErrInvalidInput, "invalid id parameter")
	}
	return id, nil
}
