package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aleister1102/pagemonitor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestRecorder_Exposition(t *testing.T) {
	r := NewRecorder()
	r.ObserveOutcome(models.OutcomeChanged)
	r.ObserveOutcome(models.OutcomeChanged)
	r.ObserveOutcome(models.OutcomeFetchFailed)
	r.ObserveFetch(150 * time.Millisecond)
	r.ObserveNotifications(2, 1)
	r.ObserveCycle(3, 2*time.Second, time.Unix(1700000000, 0))

	code, body := scrape(t, r.Handler(), "/metrics")

	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `pagemonitor_target_outcomes_total{outcome="changed"} 2`)
	assert.Contains(t, body, `pagemonitor_target_outcomes_total{outcome="fetch_failed"} 1`)
	assert.Contains(t, body, `pagemonitor_target_outcomes_total{outcome="first_seen"} 0`)
	assert.Contains(t, body, `pagemonitor_notifications_total{status="sent"} 2`)
	assert.Contains(t, body, `pagemonitor_notifications_total{status="failed"} 1`)
	assert.Contains(t, body, `pagemonitor_fetch_duration_seconds_count 1`)
	assert.Contains(t, body, `pagemonitor_cycle_duration_seconds_count 1`)
	assert.Contains(t, body, `pagemonitor_last_cycle_timestamp_seconds 1.7e+09`)
	assert.Contains(t, body, `pagemonitor_targets 3`)
}

func TestRecorder_Healthz(t *testing.T) {
	code, body := scrape(t, NewRecorder().Handler(), "/healthz")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.ObserveOutcome(models.OutcomeChanged)
		r.ObserveFetch(time.Second)
		r.ObserveNotifications(1, 0)
		r.ObserveCycle(1, time.Second, time.Now())
	})
}
