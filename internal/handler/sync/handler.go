package sync

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/fhir-sync-api/internal/handler"
	"github.com/jwalitptl/fhir-sync-api/internal/model"
	"github.com/jwalitptl/fhir-sync-api/internal/repository"
	"github.com/jwalitptl/fhir-sync-api/pkg/logger"
)

type Service interface {
	Populate(ctx context.Context, postalCode string) (*model.PopulationResult, error)
}

type Handler struct {
	service    Service
	outboxRepo repository.OutboxRepository
	logger     *logger.Logger
}

func NewHandler(service Service, outboxRepo repository.OutboxRepository, log *logger.Logger) *Handler {
	return &Handler{
		service:    service,
		outboxRepo: outboxRepo,
		logger:     log,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/populate/:postalCode", h.Populate)
}

// Populate triggers a synchronization run for one postal code. The response
// body stays fixed regardless of tolerated per-record errors; those are
// logged and carried on the outbox event.
func (h *Handler) Populate(c *gin.Context) {
	postalCode := c.Param("postalCode")

	result, err := h.service.Populate(c.Request.Context(), postalCode)
	if err != nil {
		c.JSON(handler.HTTPStatus(err), handler.NewErrorResponse(err.Error()))
		return
	}

	h.publishResult(c.Request.Context(), result)

	c.JSON(http.StatusOK, gin.H{"message": "Data populated successfully"})
}

// publishResult stages an outbox event for the completed run. Failure to
// stage the event does not fail the population call.
func (h *Handler) publishResult(ctx context.Context, result *model.PopulationResult) {
	if h.outboxRepo == nil {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		h.logger.Error(err, "failed to marshal population result for event")
		return
	}
	if err := h.outboxRepo.Create(ctx, &model.OutboxEvent{
		EventType: model.EventTypePopulate,
		Payload:   payload,
	}); err != nil {
		h.logger.Error(err, "failed to create outbox event")
	}
}
