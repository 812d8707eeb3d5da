package patient

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/fhir-sync-api/internal/handler"
	"github.com/jwalitptl/fhir-sync-api/internal/model"
)

type Service interface {
	GetPatient(ctx context.Context, term string) (*model.Patient, error)
	GetPatientObservations(ctx context.Context, patientID string) ([]*model.Observation, error)
	GetPatientIDsByPostalCode(ctx context.Context, postalCode string) ([]string, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.GET("/postal_code/:postalCode", h.GetPatientIDsByPostalCode)
		patients.GET("/:term", h.GetPatient)
		patients.GET("/:term/observations", h.GetPatientObservations)
	}
}

// GetPatient looks up a stored patient by identifier or given name.
func (h *Handler) GetPatient(c *gin.Context) {
	term := c.Param("term")

	patient, err := h.service.GetPatient(c.Request.Context(), term)
	if err != nil {
		c.JSON(handler.HTTPStatus(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, patient)
}

func (h *Handler) GetPatientObservations(c *gin.Context) {
	patientID := c.Param("term")

	observations, err := h.service.GetPatientObservations(c.Request.Context(), patientID)
	if err != nil {
		c.JSON(handler.HTTPStatus(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, observations)
}

func (h *Handler) GetPatientIDsByPostalCode(c *gin.Context) {
	postalCode := c.Param("postalCode")

	ids, err := h.service.GetPatientIDsByPostalCode(c.Request.Context(), postalCode)
	if err != nil {
		c.JSON(handler.HTTPStatus(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{"patient_ids": ids})
}
