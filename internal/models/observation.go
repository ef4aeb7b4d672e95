package models

// Observation is the canonical extracted representation of a target's content.
// Only the fingerprint of HashSource and the preview are ever persisted.
type Observation struct {
	HashSource  string
	Preview     string
	DetailLines []string
}
