package model

import (
	"time"
)

// DefaultBirthDate is stored when the upstream record carries no birthDate.
var DefaultBirthDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// Patient is a locally stored copy of a remote FHIR patient. The identifier
// is sourced from the remote system, never generated here.
type Patient struct {
	ID         string    `json:"id" db:"id"`
	FirstName  string    `json:"first_name" db:"first_name"`
	Gender     *string   `json:"gender" db:"gender"`
	BirthDate  time.Time `json:"birth_date" db:"birth_date"`
	PostalCode string    `json:"postal_code" db:"postal_code"`
}

// Observation is a locally stored copy of a remote FHIR observation. All
// fields besides the identifier are free-form remote vocabulary and may be
// absent upstream.
type Observation struct {
	ID           string  `json:"id" db:"id"`
	ResourceType *string `json:"resource_type" db:"resource_type"`
	Status       *string `json:"status" db:"status"`
	PatientID    string  `json:"patient_id" db:"patient_id"`
}
