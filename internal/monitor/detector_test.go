package monitor

import (
	"errors"
	"testing"
	"time"

	"github.com/aleister1102/pagemonitor/internal/common"
	"github.com/aleister1102/pagemonitor/internal/fingerprint"
	"github.com/aleister1102/pagemonitor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	detectorTarget = models.Target{ID: "status", URL: "https://example.com/status"}
	detectedAt     = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

func storedRecord() *models.SnapshotRecord {
	return &models.SnapshotRecord{
		Fingerprint: fingerprint.Of("old"),
		Preview:     "old",
		Detail:      []string{"old"},
		Validators:  models.CacheValidators{ETag: `"v1"`},
		UpdatedAt:   detectedAt.Add(-time.Hour),
	}
}

func observed(text string) PollResult {
	return PollResult{
		Validators:  models.CacheValidators{ETag: `"v2"`},
		Observation: models.Observation{HashSource: text, Preview: text, DetailLines: []string{text}},
		Fingerprint: fingerprint.Of(text),
	}
}

func TestEvaluate(t *testing.T) {
	fetchErr := common.NewTransportError(detectorTarget.URL, "HTTP request failed", errors.New("timeout"))
	parseErr := common.NewParseError("html", "invalid selector", nil)

	tests := []struct {
		name         string
		prev         *models.SnapshotRecord
		poll         PollResult
		wantOutcome  models.Outcome
		wantWrite    bool
		wantEvent    bool
		wantFP       string
		wantPreview  string
		wantValidTag string
	}{
		{
			name:         "never seen target is first seen",
			poll:         observed("new"),
			wantOutcome:  models.OutcomeFirstSeen,
			wantWrite:    true,
			wantEvent:    true,
			wantFP:       fingerprint.Of("new"),
			wantPreview:  "new",
			wantValidTag: `"v2"`,
		},
		{
			name:         "same fingerprint is unchanged",
			prev:         storedRecord(),
			poll:         observed("old"),
			wantOutcome:  models.OutcomeUnchanged,
			wantWrite:    true,
			wantFP:       fingerprint.Of("old"),
			wantPreview:  "old",
			wantValidTag: `"v2"`,
		},
		{
			name:         "different fingerprint is changed",
			prev:         storedRecord(),
			poll:         observed("new"),
			wantOutcome:  models.OutcomeChanged,
			wantWrite:    true,
			wantEvent:    true,
			wantFP:       fingerprint.Of("new"),
			wantPreview:  "new",
			wantValidTag: `"v2"`,
		},
		{
			name:         "not modified keeps the stored record",
			prev:         storedRecord(),
			poll:         PollResult{NotModified: true},
			wantOutcome:  models.OutcomeUnchanged,
			wantWrite:    true,
			wantFP:       fingerprint.Of("old"),
			wantPreview:  "old",
			wantValidTag: `"v1"`,
		},
		{
			name:        "not modified without a snapshot is a fetch failure",
			poll:        PollResult{NotModified: true},
			wantOutcome: models.OutcomeFetchFailed,
			wantEvent:   true,
		},
		{
			name:        "fetch error",
			prev:        storedRecord(),
			poll:        PollResult{FetchErr: fetchErr},
			wantOutcome: models.OutcomeFetchFailed,
			wantEvent:   true,
		},
		{
			name:        "parse error",
			prev:        storedRecord(),
			poll:        PollResult{ParseErr: parseErr},
			wantOutcome: models.OutcomeParseFailed,
			wantEvent:   true,
		},
		{
			name:        "parse error on first poll",
			poll:        PollResult{ParseErr: parseErr},
			wantOutcome: models.OutcomeParseFailed,
			wantEvent:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Evaluate(detectorTarget, tt.prev, tt.poll, detectedAt)

			assert.Equal(t, tt.wantOutcome, decision.Outcome)
			assert.Equal(t, tt.wantWrite, decision.Write)
			assert.Equal(t, tt.wantEvent, decision.Event != nil)

			if tt.wantWrite {
				assert.Equal(t, tt.wantFP, decision.Record.Fingerprint)
				assert.Equal(t, tt.wantPreview, decision.Record.Preview)
				assert.Equal(t, tt.wantValidTag, decision.Record.Validators.ETag)
				assert.Equal(t, detectedAt, decision.Record.UpdatedAt)
			}
			if decision.Event != nil {
				assert.Equal(t, tt.wantOutcome, decision.Event.Kind)
				assert.Equal(t, detectorTarget, decision.Event.Target)
				assert.Equal(t, detectedAt, decision.Event.DetectedAt)
			}
			if tt.wantOutcome.IsFailure() {
				require.Error(t, decision.Err)
				assert.Equal(t, decision.Err.Error(), decision.Event.Error)
			} else {
				assert.NoError(t, decision.Err)
			}
		})
	}
}

func TestEvaluate_ChangedEventCarriesBeforeAndAfter(t *testing.T) {
	decision := Evaluate(detectorTarget, storedRecord(), observed("new"), detectedAt)

	require.NotNil(t, decision.Event)
	assert.Equal(t, "old", decision.Event.BeforePreview)
	assert.Equal(t, "new", decision.Event.AfterPreview)
	assert.Equal(t, []string{"old"}, decision.Event.BeforeDetail)
	assert.Equal(t, []string{"new"}, decision.Event.DetailLines)
}

func TestEvaluate_FailureKeepsBeforePreview(t *testing.T) {
	decision := Evaluate(detectorTarget, storedRecord(), PollResult{FetchErr: errors.New("boom")}, detectedAt)

	require.NotNil(t, decision.Event)
	assert.Equal(t, "old", decision.Event.BeforePreview)
	assert.Empty(t, decision.Event.AfterPreview)
	assert.Equal(t, "boom", decision.Event.Error)
}

func TestEvaluate_NotModifiedWithoutValidatorsKeepsStoredOnes(t *testing.T) {
	decision := Evaluate(detectorTarget, storedRecord(), PollResult{NotModified: true}, detectedAt)
	assert.Equal(t, `"v1"`, decision.Record.Validators.ETag)

	decision = Evaluate(detectorTarget, storedRecord(), PollResult{
		NotModified: true,
		Validators:  models.CacheValidators{ETag: `"v3"`},
	}, detectedAt)
	assert.Equal(t, `"v3"`, decision.Record.Validators.ETag)
}

func TestEvaluate_BoundsStoredPreviewAndDetail(t *testing.T) {
	long := make([]byte, fingerprint.PreviewLimit*2)
	for i := range long {
		long[i] = 'a'
	}
	detail := make([]string, fingerprint.MaxDetailLines+10)
	for i := range detail {
		detail[i] = "line"
	}
	poll := PollResult{
		Observation: models.Observation{HashSource: string(long), Preview: string(long), DetailLines: detail},
		Fingerprint: fingerprint.Of(string(long)),
	}

	decision := Evaluate(detectorTarget, nil, poll, detectedAt)
	assert.LessOrEqual(t, len([]rune(decision.Record.Preview)), fingerprint.PreviewLimit)
	assert.LessOrEqual(t, len(decision.Record.Detail), fingerprint.MaxDetailLines)
}
