package models

import "time"

// CacheValidators are the transport hints allowing a "not modified" short-circuit.
type CacheValidators struct {
	ETag         string `json:"etag,omitempty" yaml:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty" yaml:"last_modified,omitempty"`
}

// IsZero reports whether no validator is known.
func (v CacheValidators) IsZero() bool {
	return v.ETag == "" && v.LastModified == ""
}

// SnapshotRecord is the last persisted state of a target. Detail holds the last
// detail lines for before/after rendering and never takes part in change detection.
type SnapshotRecord struct {
	Fingerprint string          `json:"fingerprint"`
	Preview     string          `json:"preview"`
	Detail      []string        `json:"detail,omitempty"`
	Validators  CacheValidators `json:"cache_validators"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
