package monitor

import (
	"time"

	"github.com/aleister1102/pagemonitor/internal/fingerprint"
	"github.com/aleister1102/pagemonitor/internal/models"
)

// PollResult is what fetching and extracting one target produced. At most
// one of FetchErr, ParseErr and NotModified is set.
type PollResult struct {
	NotModified bool
	Validators  models.CacheValidators
	Observation models.Observation
	Fingerprint string
	FetchErr    error
	ParseErr    error
}

// Decision is the detector's verdict for one target in one cycle.
type Decision struct {
	Outcome models.Outcome
	// Record is the snapshot to store; only meaningful when Write is set.
	Record models.SnapshotRecord
	Write  bool
	// Event is nil for unchanged targets.
	Event *models.ChangeEvent
	// Err is the fetch or parse error behind a failure outcome.
	Err error
}

// Evaluate runs the change detection state machine. prev is nil when the
// target has never been observed. Failures never produce a record to write,
// so a stored snapshot survives transient errors untouched.
func Evaluate(target models.Target, prev *models.SnapshotRecord, poll PollResult, now time.Time) Decision {
	switch {
	case poll.FetchErr != nil:
		return failed(target, prev, models.OutcomeFetchFailed, poll.FetchErr, now)
	case poll.ParseErr != nil:
		return failed(target, prev, models.OutcomeParseFailed, poll.ParseErr, now)
	case poll.NotModified:
		if prev == nil {
			return failed(target, nil, models.OutcomeFetchFailed, errNotModifiedWithoutSnapshot, now)
		}
		return Decision{
			Outcome: models.OutcomeUnchanged,
			Record:  refreshed(*prev, poll.Validators, now),
			Write:   true,
		}
	}

	current := models.SnapshotRecord{
		Fingerprint: poll.Fingerprint,
		Preview:     fingerprint.Preview(poll.Observation.Preview),
		Detail:      fingerprint.CapLines(poll.Observation.DetailLines, fingerprint.MaxDetailLines),
		Validators:  poll.Validators,
		UpdatedAt:   now,
	}

	if prev == nil {
		return Decision{
			Outcome: models.OutcomeFirstSeen,
			Record:  current,
			Write:   true,
			Event: &models.ChangeEvent{
				Target:       target,
				Kind:         models.OutcomeFirstSeen,
				AfterPreview: current.Preview,
				DetailLines:  current.Detail,
				DetectedAt:   now,
			},
		}
	}

	if prev.Fingerprint == poll.Fingerprint {
		return Decision{
			Outcome: models.OutcomeUnchanged,
			Record:  refreshed(*prev, poll.Validators, now),
			Write:   true,
		}
	}

	return Decision{
		Outcome: models.OutcomeChanged,
		Record:  current,
		Write:   true,
		Event: &models.ChangeEvent{
			Target:        target,
			Kind:          models.OutcomeChanged,
			BeforePreview: prev.Preview,
			AfterPreview:  current.Preview,
			BeforeDetail:  prev.Detail,
			DetailLines:   current.Detail,
			DetectedAt:    now,
		},
	}
}

// refreshed keeps the fingerprint, preview and detail of prev and only moves
// the validators and timestamp forward.
func refreshed(prev models.SnapshotRecord, validators models.CacheValidators, now time.Time) models.SnapshotRecord {
	if !validators.IsZero() {
		prev.Validators = validators
	}
	prev.UpdatedAt = now
	return prev
}

func failed(target models.Target, prev *models.SnapshotRecord, outcome models.Outcome, err error, now time.Time) Decision {
	ev := &models.ChangeEvent{
		Target:     target,
		Kind:       outcome,
		Error:      err.Error(),
		DetectedAt: now,
	}
	if prev != nil {
		ev.BeforePreview = prev.Preview
	}
	return Decision{Outcome: outcome, Event: ev, Err: err}
}
