package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/fhir-sync-api/internal/model"
	"github.com/jwalitptl/fhir-sync-api/internal/repository"
)

type observationRepository struct {
	db *sqlx.DB
}

func NewObservationRepository(db *sqlx.DB) repository.ObservationRepository {
	return &observationRepository{db: db}
}

func (r *observationRepository) ListByPatient(ctx context.Context, patientID string) ([]*model.Observation, error) {
	query := `SELECT * FROM observations WHERE patient_id = $1`
	var observations []*model.Observation
	if err := r.db.SelectContext(ctx, &observations, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}
	return observations, nil
}
