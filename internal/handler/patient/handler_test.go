package patient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/fhir-sync-api/internal/handler/patient"
	"github.com/jwalitptl/fhir-sync-api/internal/model"
	apperrors "github.com/jwalitptl/fhir-sync-api/pkg/errors"
)

type mockQueryService struct {
	getPatientFunc   func(ctx context.Context, term string) (*model.Patient, error)
	observationsFunc func(ctx context.Context, patientID string) ([]*model.Observation, error)
	idsFunc          func(ctx context.Context, postalCode string) ([]string, error)
}

func (m *mockQueryService) GetPatient(ctx context.Context, term string) (*model.Patient, error) {
	return m.getPatientFunc(ctx, term)
}

func (m *mockQueryService) GetPatientObservations(ctx context.Context, patientID string) ([]*model.Observation, error) {
	return m.observationsFunc(ctx, patientID)
}

func (m *mockQueryService) GetPatientIDsByPostalCode(ctx context.Context, postalCode string) ([]string, error) {
	return m.idsFunc(ctx, postalCode)
}

func setupRouter(svc patient.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	patient.NewHandler(svc).RegisterRoutes(engine.Group(""))
	return engine
}

func get(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestGetPatient(t *testing.T) {
	engine := setupRouter(&mockQueryService{
		getPatientFunc: func(ctx context.Context, term string) (*model.Patient, error) {
			assert.Equal(t, "p1", term)
			return &model.Patient{
				ID:         "p1",
				FirstName:  "John",
				BirthDate:  time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
				PostalCode: "12345",
			}, nil
		},
	})

	w := get(engine, "/patients/p1")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "p1", body["id"])
	assert.Equal(t, "John", body["first_name"])
	assert.Equal(t, "12345", body["postal_code"])
}

func TestGetPatientNotFound(t *testing.T) {
	engine := setupRouter(&mockQueryService{
		getPatientFunc: func(ctx context.Context, term string) (*model.Patient, error) {
			return nil, apperrors.NotFoundMsg("patient not found with ID or name: nobody")
		},
	})

	w := get(engine, "/patients/nobody")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPatientObservations(t *testing.T) {
	status := "final"
	engine := setupRouter(&mockQueryService{
		observationsFunc: func(ctx context.Context, patientID string) ([]*model.Observation, error) {
			assert.Equal(t, "p1", patientID)
			return []*model.Observation{{ID: "o1", Status: &status, PatientID: "p1"}}, nil
		},
	})

	w := get(engine, "/patients/p1/observations")

	require.Equal(t, http.StatusOK, w.Code)
	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "o1", body[0]["id"])
}

func TestGetPatientObservationsNotFound(t *testing.T) {
	engine := setupRouter(&mockQueryService{
		observationsFunc: func(ctx context.Context, patientID string) ([]*model.Observation, error) {
			return nil, apperrors.NotFoundMsg("no observations found for patient ID: p1")
		},
	})

	w := get(engine, "/patients/p1/observations")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPatientIDsByPostalCode(t *testing.T) {
	engine := setupRouter(&mockQueryService{
		idsFunc: func(ctx context.Context, postalCode string) ([]string, error) {
			assert.Equal(t, "12345", postalCode)
			return []string{"p1", "p2"}, nil
		},
	})

	w := get(engine, "/patients/postal_code/12345")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"p1", "p2"}, body["patient_ids"])
}

func TestGetPatientIDsByPostalCodeNotFound(t *testing.T) {
	engine := setupRouter(&mockQueryService{
		idsFunc: func(ctx context.Context, postalCode string) ([]string, error) {
			return nil, apperrors.NotFoundMsg("no patients found for postal code 99999")
		},
	})

	w := get(engine, "/patients/postal_code/99999")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
