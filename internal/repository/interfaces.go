package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/fhir-sync-api/internal/model"
)

type PatientRepository interface {
	GetByIDOrName(ctx context.Context, term string) (*model.Patient, error)
	ListIDsByPostalCode(ctx context.Context, postalCode string) ([]string, error)
}

type ObservationRepository interface {
	ListByPatient(ctx context.Context, patientID string) ([]*model.Observation, error)
}

// SyncStore applies a staged batch of upserts as a single transaction.
// Patients are written before observations so the foreign key holds.
type SyncStore interface {
	SaveBatch(ctx context.Context, patients []*model.Patient, observations []*model.Observation) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
}
