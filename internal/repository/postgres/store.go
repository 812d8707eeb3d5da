package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/fhir-sync-api/internal/model"
	"github.com/jwalitptl/fhir-sync-api/internal/repository"
	apperrors "github.com/jwalitptl/fhir-sync-api/pkg/errors"
)

type syncStore struct {
	db *sqlx.DB
}

func NewSyncStore(db *sqlx.DB) repository.SyncStore {
	return &syncStore{db: db}
}

// SaveBatch applies all staged rows in one transaction. Upserts are explicit
// read-then-write by natural key: an existing identifier gets its mutable
// fields overwritten, a new one is inserted. Any failure rolls back the
// whole batch.
func (s *syncStore) SaveBatch(ctx context.Context, patients []*model.Patient, observations []*model.Observation) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.Persistence(err)
	}

	for _, p := range patients {
		if err := upsertPatient(ctx, tx, p); err != nil {
			tx.Rollback()
			return apperrors.Persistence(err)
		}
	}
	for _, o := range observations {
		if err := upsertObservation(ctx, tx, o); err != nil {
			tx.Rollback()
			return apperrors.Persistence(err)
		}
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return apperrors.Persistence(err)
	}
	return nil
}

func upsertPatient(ctx context.Context, tx *sqlx.Tx, p *model.Patient) error {
	var exists bool
	if err := tx.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, p.ID); err != nil {
		return err
	}

	if exists {
		_, err := tx.ExecContext(ctx,
			`UPDATE patients SET first_name = $1, gender = $2, birth_date = $3, postal_code = $4 WHERE id = $5`,
			p.FirstName, p.Gender, p.BirthDate, p.PostalCode, p.ID)
		return err
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO patients (id, first_name, gender, birth_date, postal_code) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.FirstName, p.Gender, p.BirthDate, p.PostalCode)
	return err
}

func upsertObservation(ctx context.Context, tx *sqlx.Tx, o *model.Observation) error {
	var exists bool
	if err := tx.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM observations WHERE id = $1)`, o.ID); err != nil {
		return err
	}

	if exists {
		_, err := tx.ExecContext(ctx,
			`UPDATE observations SET resource_type = $1, status = $2, patient_id = $3 WHERE id = $4`,
			o.ResourceType, o.Status, o.PatientID, o.ID)
		return err
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO observations (id, resource_type, status, patient_id) VALUES ($1, $2, $3, $4)`,
		o.ID, o.ResourceType, o.Status, o.PatientID)
	return err
}
