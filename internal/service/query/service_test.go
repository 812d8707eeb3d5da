package query_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/fhir-sync-api/internal/model"
	"github.com/jwalitptl/fhir-sync-api/internal/repository"
	"github.com/jwalitptl/fhir-sync-api/internal/service/query"
	apperrors "github.com/jwalitptl/fhir-sync-api/pkg/errors"
)

var (
	_ repository.PatientRepository     = (*mockPatientRepo)(nil)
	_ repository.ObservationRepository = (*mockObservationRepo)(nil)
)

type mockPatientRepo struct {
	getFunc     func(ctx context.Context, term string) (*model.Patient, error)
	listIDsFunc func(ctx context.Context, postalCode string) ([]string, error)
}

func (m *mockPatientRepo) GetByIDOrName(ctx context.Context, term string) (*model.Patient, error) {
	return m.getFunc(ctx, term)
}

func (m *mockPatientRepo) ListIDsByPostalCode(ctx context.Context, postalCode string) ([]string, error) {
	return m.listIDsFunc(ctx, postalCode)
}

type mockObservationRepo struct {
	listFunc func(ctx context.Context, patientID string) ([]*model.Observation, error)
}

func (m *mockObservationRepo) ListByPatient(ctx context.Context, patientID string) ([]*model.Observation, error) {
	return m.listFunc(ctx, patientID)
}

func TestGetPatient(t *testing.T) {
	want := &model.Patient{ID: "p1", FirstName: "John"}
	svc := query.NewService(&mockPatientRepo{
		getFunc: func(ctx context.Context, term string) (*model.Patient, error) {
			assert.Equal(t, "p1", term)
			return want, nil
		},
	}, &mockObservationRepo{})

	got, err := svc.GetPatient(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGetPatientNotFound(t *testing.T) {
	svc := query.NewService(&mockPatientRepo{
		getFunc: func(ctx context.Context, term string) (*model.Patient, error) {
			return nil, fmt.Errorf("failed to get patient: %w", sql.ErrNoRows)
		},
	}, &mockObservationRepo{})

	_, err := svc.GetPatient(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestGetPatientStorageError(t *testing.T) {
	svc := query.NewService(&mockPatientRepo{
		getFunc: func(ctx context.Context, term string) (*model.Patient, error) {
			return nil, fmt.Errorf("connection refused")
		},
	}, &mockObservationRepo{})

	_, err := svc.GetPatient(context.Background(), "p1")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInternal))
}

func TestGetPatientObservations(t *testing.T) {
	status := "final"
	svc := query.NewService(&mockPatientRepo{}, &mockObservationRepo{
		listFunc: func(ctx context.Context, patientID string) ([]*model.Observation, error) {
			return []*model.Observation{{ID: "o1", Status: &status, PatientID: patientID}}, nil
		},
	})

	observations, err := svc.GetPatientObservations(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, "o1", observations[0].ID)
}

func TestGetPatientObservationsEmptyIsNotFound(t *testing.T) {
	svc := query.NewService(&mockPatientRepo{}, &mockObservationRepo{
		listFunc: func(ctx context.Context, patientID string) ([]*model.Observation, error) {
			return nil, nil
		},
	})

	_, err := svc.GetPatientObservations(context.Background(), "p1")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestGetPatientIDsByPostalCode(t *testing.T) {
	svc := query.NewService(&mockPatientRepo{
		listIDsFunc: func(ctx context.Context, postalCode string) ([]string, error) {
			return []string{"p1", "p2"}, nil
		},
	}, &mockObservationRepo{})

	ids, err := svc.GetPatientIDsByPostalCode(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ids)
}

func TestGetPatientIDsByPostalCodeEmptyIsNotFound(t *testing.T) {
	svc := query.NewService(&mockPatientRepo{
		listIDsFunc: func(ctx context.Context, postalCode string) ([]string, error) {
			return []string{}, nil
		},
	}, &mockObservationRepo{})

	_, err := svc.GetPatientIDsByPostalCode(context.Background(), "99999")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
