package models

import "time"

// Outcome is the result of evaluating one target in one poll cycle.
type Outcome string

const (
	OutcomeFirstSeen   Outcome = "first_seen"
	OutcomeUnchanged   Outcome = "unchanged"
	OutcomeChanged     Outcome = "changed"
	OutcomeFetchFailed Outcome = "fetch_failed"
	OutcomeParseFailed Outcome = "parse_failed"
)

// AllOutcomes lists every outcome in reporting order.
var AllOutcomes = []Outcome{
	OutcomeFirstSeen,
	OutcomeChanged,
	OutcomeUnchanged,
	OutcomeFetchFailed,
	OutcomeParseFailed,
}

// IsFailure reports whether the outcome is a per-target failure.
func (o Outcome) IsFailure() bool {
	return o == OutcomeFetchFailed || o == OutcomeParseFailed
}

// ChangeEvent is produced once per cycle per target for every outcome other
// than unchanged, and consumed by the notifier.
type ChangeEvent struct {
	Target        Target
	Kind          Outcome
	BeforePreview string
	AfterPreview  string
	BeforeDetail  []string
	DetailLines   []string
	Error         string
	DetectedAt    time.Time
}
