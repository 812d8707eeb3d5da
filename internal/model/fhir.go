package model

import "encoding/json"

// Bundle is the subset of a FHIR searchset bundle this service reads.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	Total        int           `json:"total"`
	Entry        []BundleEntry `json:"entry"`
}

// BundleEntry wraps a single raw resource. Resources are kept raw until the
// parser decides how strictly to decode them.
type BundleEntry struct {
	Resource json.RawMessage `json:"resource"`
}

// Empty reports whether the bundle contains no entries.
func (b *Bundle) Empty() bool {
	return b == nil || len(b.Entry) == 0
}
