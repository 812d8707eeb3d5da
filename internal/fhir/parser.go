package fhir

import (
	"encoding/json"
	"time"

	"github.com/jwalitptl/fhir-sync-api/internal/model"
	apperrors "github.com/jwalitptl/fhir-sync-api/pkg/errors"
)

const birthDateLayout = "2006-01-02"

type rawPatient struct {
	ID        string         `json:"id"`
	Name      []rawHumanName `json:"name"`
	Gender    *string        `json:"gender"`
	BirthDate string         `json:"birthDate"`
}

type rawHumanName struct {
	Given []string `json:"given"`
}

type rawObservation struct {
	ID           string  `json:"id"`
	ResourceType *string `json:"resourceType"`
	Status       *string `json:"status"`
}

// ParsePatient decodes a raw patient resource strictly: a missing identifier
// or a structurally malformed name/date fails with a MalformedRecord error.
// Missing optional fields get defaults (empty name, nil gender, 1900-01-01).
func ParsePatient(raw json.RawMessage) (*model.Patient, error) {
	var p rawPatient
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, apperrors.MalformedRecord("invalid patient data structure", err)
	}
	if p.ID == "" {
		return nil, apperrors.MalformedRecord("patient resource has no id", nil)
	}

	birthDate := model.DefaultBirthDate
	if p.BirthDate != "" {
		parsed, err := time.Parse(birthDateLayout, p.BirthDate)
		if err != nil {
			return nil, apperrors.MalformedRecord("invalid date format in patient data", err)
		}
		birthDate = parsed
	}

	var firstName string
	if len(p.Name) > 0 && len(p.Name[0].Given) > 0 {
		firstName = p.Name[0].Given[0]
	}

	return &model.Patient{
		ID:        p.ID,
		FirstName: firstName,
		Gender:    p.Gender,
		BirthDate: birthDate,
	}, nil
}

// ParseObservation decodes a raw observation resource permissively: every
// field defaults to nil/empty when missing and decoding never fails.
func ParseObservation(raw json.RawMessage) *model.Observation {
	var o rawObservation
	// An undecodable observation degrades to an empty record.
	_ = json.Unmarshal(raw, &o)

	return &model.Observation{
		ID:           o.ID,
		ResourceType: o.ResourceType,
		Status:       o.Status,
	}
}
