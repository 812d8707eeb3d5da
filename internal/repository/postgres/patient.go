package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/fhir-sync-api/internal/model"
	"github.com/jwalitptl/fhir-sync-api/internal/repository"
)

type patientRepository struct {
	db *sqlx.DB
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{db: db}
}

// GetByIDOrName matches by identifier or given name, first row wins.
func (r *patientRepository) GetByIDOrName(ctx context.Context, term string) (*model.Patient, error) {
	query := `SELECT * FROM patients WHERE id = $1 OR first_name = $1 LIMIT 1`
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, term); err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) ListIDsByPostalCode(ctx context.Context, postalCode string) ([]string, error) {
	query := `SELECT id FROM patients WHERE postal_code = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, postalCode); err != nil {
		return nil, fmt.Errorf("failed to list patient ids: %w", err)
	}
	return ids, nil
}
