package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jwalitptl/fhir-sync-api/internal/model"
	"github.com/jwalitptl/fhir-sync-api/internal/repository"
	apperrors "github.com/jwalitptl/fhir-sync-api/pkg/errors"
)

// Service answers read-only lookups against local storage. Zero rows is a
// not-found condition, never an empty success.
type Service struct {
	patients     repository.PatientRepository
	observations repository.ObservationRepository
}

func NewService(patients repository.PatientRepository, observations repository.ObservationRepository) *Service {
	return &Service{
		patients:     patients,
		observations: observations,
	}
}

// GetPatient matches by identifier or given name, first hit wins.
func (s *Service) GetPatient(ctx context.Context, term string) (*model.Patient, error) {
	patient, err := s.patients.GetByIDOrName(ctx, term)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundMsg(fmt.Sprintf("patient not found with ID or name: %s", term))
		}
		return nil, apperrors.Internal(err)
	}
	return patient, nil
}

func (s *Service) GetPatientObservations(ctx context.Context, patientID string) ([]*model.Observation, error) {
	observations, err := s.observations.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if len(observations) == 0 {
		return nil, apperrors.NotFoundMsg(fmt.Sprintf("no observations found for patient ID: %s", patientID))
	}
	return observations, nil
}

func (s *Service) GetPatientIDsByPostalCode(ctx context.Context, postalCode string) ([]string, error) {
	ids, err := s.patients.ListIDsByPostalCode(ctx, postalCode)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if len(ids) == 0 {
		return nil, apperrors.NotFoundMsg(fmt.Sprintf("no patients found for postal code %s", postalCode))
	}
	return ids, nil
}
