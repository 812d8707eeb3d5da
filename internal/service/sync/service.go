package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/jwalitptl/fhir-sync-api/internal/fhir"
	"github.com/jwalitptl/fhir-sync-api/internal/model"
	"github.com/jwalitptl/fhir-sync-api/internal/repository"
	apperrors "github.com/jwalitptl/fhir-sync-api/pkg/errors"
	"github.com/jwalitptl/fhir-sync-api/pkg/logger"
	"github.com/jwalitptl/fhir-sync-api/pkg/metrics"
)

// RemoteClient is the outbound surface of the FHIR client this service needs.
type RemoteClient interface {
	PatientsByPostalCode(ctx context.Context, postalCode string) (*model.Bundle, error)
	ObservationsByPatient(ctx context.Context, patientID string) (*model.Bundle, error)
}

// Service reconciles remote FHIR data into local storage. Records are staged
// in memory with per-record error tolerance, then committed as one
// transaction.
type Service struct {
	client  RemoteClient
	store   repository.SyncStore
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewService(client RemoteClient, store repository.SyncStore, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		client:  client,
		store:   store,
		logger:  log,
		metrics: m,
	}
}

type observationFetch struct {
	observation *model.Observation
	err         error
}

// Populate fetches the remote patients for a postal code, their first
// observation each, and upserts everything in one transaction. A malformed
// or failing record is collected and skipped, never aborts the batch; an
// empty remote bundle aborts before any write.
func (s *Service) Populate(ctx context.Context, postalCode string) (*model.PopulationResult, error) {
	start := time.Now()
	result, err := s.populate(ctx, postalCode)

	if s.metrics != nil {
		s.metrics.PopulateDuration.Observe(time.Since(start).Seconds())
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		s.metrics.PopulateRuns.WithLabelValues(outcome).Inc()
	}
	return result, err
}

func (s *Service) populate(ctx context.Context, postalCode string) (*model.PopulationResult, error) {
	bundle, err := s.client.PatientsByPostalCode(ctx, postalCode)
	if err != nil {
		return nil, err
	}
	if bundle.Empty() {
		return nil, apperrors.NotFoundMsg(fmt.Sprintf("no patients found for postal code %s", postalCode))
	}

	result := &model.PopulationResult{PostalCode: postalCode}

	patients := make([]*model.Patient, 0, len(bundle.Entry))
	for _, entry := range bundle.Entry {
		patient, err := fhir.ParsePatient(entry.Resource)
		if err != nil {
			s.logger.Warn("skipping malformed patient resource", "error", err.Error())
			s.recordError(result, "", err)
			continue
		}
		// The query-key postal code always wins over the remote address.
		patient.PostalCode = postalCode
		patients = append(patients, patient)
	}

	observations := s.fetchObservations(ctx, patients, result)

	if err := s.store.SaveBatch(ctx, patients, observations); err != nil {
		return nil, err
	}

	result.Patients = len(patients)
	result.Observations = len(observations)

	if s.metrics != nil {
		s.metrics.PatientsUpserted.Add(float64(result.Patients))
		s.metrics.ObservationsStored.Add(float64(result.Observations))
	}
	s.logger.Info("population run committed",
		"postal_code", postalCode,
		"patients", result.Patients,
		"observations", result.Observations,
		"record_errors", len(result.Errors))

	return result, nil
}

// fetchObservations gathers each staged patient's observations concurrently.
// Concurrency covers network I/O only; staging stays on the caller's
// goroutine once the gather completes. Per-patient failures are recorded,
// not raised.
func (s *Service) fetchObservations(ctx context.Context, patients []*model.Patient, result *model.PopulationResult) []*model.Observation {
	fetches := make([]observationFetch, len(patients))

	var wg stdsync.WaitGroup
	for i, patient := range patients {
		wg.Add(1)
		go func(i int, patientID string) {
			defer wg.Done()
			bundle, err := s.client.ObservationsByPatient(ctx, patientID)
			if err != nil {
				fetches[i] = observationFetch{err: err}
				return
			}
			if bundle.Empty() {
				return
			}
			// Only the first entry of the bundle is stored per pass.
			observation := fhir.ParseObservation(bundle.Entry[0].Resource)
			observation.PatientID = patientID
			fetches[i] = observationFetch{observation: observation}
		}(i, patient.ID)
	}
	wg.Wait()

	observations := make([]*model.Observation, 0, len(patients))
	for i, fetch := range fetches {
		patientID := patients[i].ID
		if fetch.err != nil {
			s.logger.Warn("failed to fetch observations",
				"patient_id", patientID, "error", fetch.err.Error())
			s.recordError(result, patientID, fetch.err)
			continue
		}
		if fetch.observation == nil {
			continue
		}
		if fetch.observation.ID == "" {
			s.recordError(result, patientID,
				apperrors.MalformedRecord("observation resource has no id", nil))
			continue
		}
		observations = append(observations, fetch.observation)
	}
	return observations
}

func (s *Service) recordError(result *model.PopulationResult, patientID string, err error) {
	result.Errors = append(result.Errors, model.RecordError{
		PatientID: patientID,
		Message:   err.Error(),
	})
	if s.metrics != nil {
		s.metrics.RecordErrors.Inc()
	}
}
