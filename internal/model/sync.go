package model

// RecordError captures one tolerated per-record failure during a population
// run. These are reported alongside the result, never raised.
type RecordError struct {
	PatientID string `json:"patient_id,omitempty"`
	Message   string `json:"message"`
}

// PopulationResult reports what a single populate call staged and committed.
type PopulationResult struct {
	PostalCode   string        `json:"postal_code"`
	Patients     int           `json:"patients"`
	Observations int           `json:"observations"`
	Errors       []RecordError `json:"errors,omitempty"`
}
