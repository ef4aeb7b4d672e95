package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aleister1102/pagemonitor/internal/config"
	"github.com/aleister1102/pagemonitor/internal/datastore"
	"github.com/aleister1102/pagemonitor/internal/extractor"
	"github.com/aleister1102/pagemonitor/internal/fetcher"
	"github.com/aleister1102/pagemonitor/internal/models"
	"github.com/aleister1102/pagemonitor/internal/notifier"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contentServer serves mutable documents keyed by path.
type contentServer struct {
	*httptest.Server

	mu          sync.Mutex
	docs        map[string]document
	conditional map[string]int
}

type document struct {
	status      int
	contentType string
	etag        string
	body        string
}

func newContentServer(t *testing.T) *contentServer {
	cs := &contentServer{docs: map[string]document{}, conditional: map[string]int{}}
	cs.Server = httptest.NewServer(http.HandlerFunc(cs.serve))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *contentServer) serve(w http.ResponseWriter, r *http.Request) {
	cs.mu.Lock()
	doc, ok := cs.docs[r.URL.Path]
	if r.Header.Get("If-None-Match") != "" {
		cs.conditional[r.URL.Path]++
	}
	cs.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if doc.etag != "" {
		w.Header().Set("ETag", doc.etag)
		if r.Header.Get("If-None-Match") == doc.etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	w.Header().Set("Content-Type", doc.contentType)
	if doc.status != 0 {
		w.WriteHeader(doc.status)
	}
	_, _ = w.Write([]byte(doc.body))
}

func (cs *contentServer) set(path string, doc document) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.docs[path] = doc
}

func (cs *contentServer) conditionalRequests(path string) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.conditional[path]
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (r *recordingNotifier) Notify(_ context.Context, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

func (r *recordingNotifier) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return ""
	}
	return r.messages[len(r.messages)-1]
}

type testHarness struct {
	service  *Service
	store    *datastore.MemorySnapshotStore
	notifier *recordingNotifier
}

func newTestHarness(t *testing.T, opts Options) *testHarness {
	t.Helper()

	f, err := fetcher.NewFetcher(fetcher.Config{Timeout: 5 * time.Second}, zerolog.Nop())
	require.NoError(t, err)

	store := datastore.NewMemorySnapshotStore()
	rec := &recordingNotifier{}
	helper := notifier.NewNotificationHelper(rec, config.NotificationConfig{
		NotifyOnFirstSeen: true,
		NotifyOnFailure:   true,
		ChunkSize:         config.DefaultNotificationChunkSize,
	}, zerolog.Nop())

	service, err := NewService(Dependencies{
		Fetcher:       f,
		Extractor:     extractor.NewExtractor(extractor.DefaultOptions(), zerolog.Nop()),
		Store:         store,
		Notifications: helper,
	}, opts, zerolog.Nop())
	require.NoError(t, err)

	return &testHarness{service: service, store: store, notifier: rec}
}

func (h *testHarness) run(t *testing.T, targets ...models.Target) *CycleReport {
	t.Helper()
	report, err := h.service.RunCycle(context.Background(), targets)
	require.NoError(t, err)
	return report
}

func (h *testHarness) record(t *testing.T, id string) (models.SnapshotRecord, bool) {
	t.Helper()
	rec, found, err := h.store.Get(context.Background(), id)
	require.NoError(t, err)
	return rec, found
}

func stormFeed(entries ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?><feed xmlns="http://www.w3.org/2005/Atom"><title>Alerts</title>`)
	for i, title := range entries {
		fmt.Fprintf(&b, `<entry><id>urn:%d</id><title>%s</title><updated>2024-01-01T0%d:00:00Z</updated><link href="/alerts/%d"/></entry>`, i, title, i, i)
	}
	b.WriteString(`</feed>`)
	return b.String()
}

func TestRunCycle_AtomStormLifecycle(t *testing.T) {
	server := newContentServer(t)
	h := newTestHarness(t, Options{MaxConcurrentChecks: 2})
	target := models.Target{ID: "alerts", Name: "Weather alerts", URL: server.URL + "/feed.xml", Keyword: "storm"}

	server.set("/feed.xml", document{contentType: "application/atom+xml", body: stormFeed("Storm Warning", "Weather Update")})
	report := h.run(t, target)
	assert.Equal(t, models.OutcomeFirstSeen, report.Results[0].Outcome)
	assert.Equal(t, 1, report.Counts[models.OutcomeFirstSeen])
	require.Len(t, report.Events, 1)
	assert.Equal(t, "Storm Warning", report.Events[0].AfterPreview)
	assert.Equal(t, 1, h.notifier.count())
	assert.Contains(t, h.notifier.last(), "Weather alerts")

	first, found := h.record(t, "alerts")
	require.True(t, found)
	assert.Equal(t, "Storm Warning", first.Preview)

	report = h.run(t, target)
	assert.Equal(t, models.OutcomeUnchanged, report.Results[0].Outcome)
	assert.Empty(t, report.Events)
	assert.Equal(t, 1, h.notifier.count(), "unchanged cycles must not notify")

	server.set("/feed.xml", document{contentType: "application/atom+xml", body: stormFeed("Storm Warning", "Weather Update", "Sunny Skies")})
	report = h.run(t, target)
	assert.Equal(t, models.OutcomeUnchanged, report.Results[0].Outcome, "entries filtered out by the keyword do not count")

	server.set("/feed.xml", document{contentType: "application/atom+xml", body: stormFeed("Storm Warning", "Weather Update", "Storm Watch")})
	report = h.run(t, target)
	assert.Equal(t, models.OutcomeChanged, report.Results[0].Outcome)
	require.Len(t, report.Events, 1)
	assert.Equal(t, "Storm Warning", report.Events[0].BeforePreview)
	assert.Equal(t, 2, h.notifier.count())
	assert.Contains(t, h.notifier.last(), "Storm Watch")

	second, _ := h.record(t, "alerts")
	assert.NotEqual(t, first.Fingerprint, second.Fingerprint)
}

func TestRunCycle_JSONOrderDoesNotMatter(t *testing.T) {
	server := newContentServer(t)
	h := newTestHarness(t, Options{MaxConcurrentChecks: 1})
	target := models.Target{ID: "api", URL: server.URL + "/items.json"}

	server.set("/items.json", document{contentType: "application/json", body: `{"items":[{"id":"1","title":"X"},{"id":"2","title":"Y"}]}`})
	h.run(t, target)

	server.set("/items.json", document{contentType: "application/json", body: `{"items":[{"title":"Y","id":"2"},{"id":"1","title":"X"}]}`})
	report := h.run(t, target)
	assert.Equal(t, models.OutcomeUnchanged, report.Results[0].Outcome)
}

func TestRunCycle_FailuresKeepStoredSnapshot(t *testing.T) {
	server := newContentServer(t)
	h := newTestHarness(t, Options{MaxConcurrentChecks: 1})
	target := models.Target{ID: "status", URL: server.URL + "/status", Selector: "#state"}

	server.set("/status", document{contentType: "text/html", body: `<p id="state">operational</p>`})
	h.run(t, target)
	stored, found := h.record(t, "status")
	require.True(t, found)

	server.set("/status", document{status: http.StatusInternalServerError, contentType: "text/plain", body: "down"})
	report := h.run(t, target)
	assert.Equal(t, models.OutcomeFetchFailed, report.Results[0].Outcome)
	assert.Error(t, report.Results[0].Err)
	require.Len(t, report.Events, 1)
	assert.Equal(t, "operational", report.Events[0].BeforePreview)

	after, _ := h.record(t, "status")
	assert.Equal(t, stored, after)

	server.set("/status", document{contentType: "text/html", body: `<p id="state">operational</p>`})
	report = h.run(t, target)
	assert.Equal(t, models.OutcomeUnchanged, report.Results[0].Outcome, "recovery after a failure is not a change")
}

func TestRunCycle_ParseFailureOnFirstPollStoresNothing(t *testing.T) {
	server := newContentServer(t)
	h := newTestHarness(t, Options{MaxConcurrentChecks: 1})
	target := models.Target{ID: "broken", URL: server.URL + "/page", Selector: "p:nth-child("}

	server.set("/page", document{contentType: "text/html", body: "<p>x</p>"})
	report := h.run(t, target)

	assert.Equal(t, models.OutcomeParseFailed, report.Results[0].Outcome)
	_, found := h.record(t, "broken")
	assert.False(t, found)
}

func TestRunCycle_MissingSelectorIsChange(t *testing.T) {
	server := newContentServer(t)
	h := newTestHarness(t, Options{MaxConcurrentChecks: 1})
	target := models.Target{ID: "price", URL: server.URL + "/book", Selector: ".price"}

	server.set("/book", document{contentType: "text/html", body: `<p class="price">£51.77</p>`})
	h.run(t, target)

	server.set("/book", document{contentType: "text/html", body: `<p class="sold-out">gone</p>`})
	report := h.run(t, target)

	assert.Equal(t, models.OutcomeChanged, report.Results[0].Outcome)
	require.Len(t, report.Events, 1)
	assert.Equal(t, "£51.77", report.Events[0].BeforePreview)
	assert.Equal(t, "(no match / empty)", report.Events[0].AfterPreview)
}

func TestRunCycle_NotModified(t *testing.T) {
	server := newContentServer(t)
	h := newTestHarness(t, Options{MaxConcurrentChecks: 1})
	target := models.Target{ID: "cached", URL: server.URL + "/cached", Selector: "h1"}

	server.set("/cached", document{contentType: "text/html", etag: `"v1"`, body: "<h1>hello</h1>"})
	h.run(t, target)
	stored, _ := h.record(t, "cached")
	assert.Equal(t, `"v1"`, stored.Validators.ETag)

	report := h.run(t, target)
	assert.Equal(t, models.OutcomeUnchanged, report.Results[0].Outcome)
	assert.Equal(t, 1, server.conditionalRequests("/cached"))

	refreshed, _ := h.record(t, "cached")
	assert.Equal(t, stored.Fingerprint, refreshed.Fingerprint)
	assert.Equal(t, stored.Preview, refreshed.Preview)
}

func TestRunCycle_BypassCacheSkipsValidators(t *testing.T) {
	server := newContentServer(t)
	h := newTestHarness(t, Options{MaxConcurrentChecks: 1, BypassCache: true})
	target := models.Target{ID: "cached", URL: server.URL + "/cached", Selector: "h1"}

	server.set("/cached", document{contentType: "text/html", etag: `"v1"`, body: "<h1>hello</h1>"})
	h.run(t, target)
	report := h.run(t, target)

	assert.Equal(t, models.OutcomeUnchanged, report.Results[0].Outcome)
	assert.Zero(t, server.conditionalRequests("/cached"))
}

func TestRunCycle_ResultsKeepTargetOrder(t *testing.T) {
	server := newContentServer(t)
	h := newTestHarness(t, Options{MaxConcurrentChecks: 4})

	var targets []models.Target
	for i := 0; i < 10; i++ {
		path := fmt.Sprintf("/page-%d", i)
		server.set(path, document{contentType: "text/html", body: fmt.Sprintf("<h1>page %d</h1>", i)})
		targets = append(targets, models.Target{ID: fmt.Sprintf("t%d", i), URL: server.URL + path, Selector: "h1"})
	}
	targets = append(targets, models.Target{ID: "missing", URL: server.URL + "/nope", Selector: "h1"})

	report := h.run(t, targets...)
	require.Len(t, report.Results, len(targets))
	for i, result := range report.Results {
		assert.Equal(t, targets[i].ID, result.Target.ID)
	}
	assert.Equal(t, 10, report.Counts[models.OutcomeFirstSeen])
	assert.Equal(t, 1, report.Counts[models.OutcomeFetchFailed])
	assert.Equal(t, 10, h.store.Len())
}

func TestRunCycle_EmptyTargetList(t *testing.T) {
	h := newTestHarness(t, Options{MaxConcurrentChecks: 3})

	report := h.run(t)
	assert.Empty(t, report.Results)
	assert.Empty(t, report.Events)
	assert.Zero(t, h.notifier.count())
}

func TestRunCycle_NotificationFailureDoesNotFailCycle(t *testing.T) {
	server := newContentServer(t)
	h := newTestHarness(t, Options{MaxConcurrentChecks: 1})
	h.notifier.err = errors.New("webhook down")
	target := models.Target{ID: "status", URL: server.URL + "/status", Selector: "h1"}

	server.set("/status", document{contentType: "text/html", body: "<h1>up</h1>"})
	report := h.run(t, target)

	assert.Equal(t, 1, report.Notification.Chunks)
	assert.Zero(t, report.Notification.Sent)
	_, found := h.record(t, "status")
	assert.True(t, found)
}

type failingStore struct {
	*datastore.MemorySnapshotStore
	loadErr error
	putErr  error
}

func (s *failingStore) LoadAll(ctx context.Context) (map[string]models.SnapshotRecord, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.MemorySnapshotStore.LoadAll(ctx)
}

func (s *failingStore) PutAll(ctx context.Context, records map[string]models.SnapshotRecord) error {
	if s.putErr != nil {
		return s.putErr
	}
	return s.MemorySnapshotStore.PutAll(ctx, records)
}

func TestRunCycle_StoreFailures(t *testing.T) {
	server := newContentServer(t)
	server.set("/status", document{contentType: "text/html", body: "<h1>up</h1>"})
	target := models.Target{ID: "status", URL: server.URL + "/status", Selector: "h1"}

	t.Run("load failure is fatal", func(t *testing.T) {
		h := newTestHarness(t, Options{MaxConcurrentChecks: 1})
		h.service.deps.Store = &failingStore{MemorySnapshotStore: h.store, loadErr: errors.New("disk gone")}

		report, err := h.service.RunCycle(context.Background(), []models.Target{target})
		require.Error(t, err)
		assert.Nil(t, report)
		assert.Contains(t, err.Error(), "disk gone")
	})

	t.Run("commit failure skips notifications", func(t *testing.T) {
		h := newTestHarness(t, Options{MaxConcurrentChecks: 1})
		h.service.deps.Store = &failingStore{MemorySnapshotStore: h.store, putErr: errors.New("readonly")}

		report, err := h.service.RunCycle(context.Background(), []models.Target{target})
		require.Error(t, err)
		require.NotNil(t, report)
		assert.Len(t, report.Events, 1)
		assert.Zero(t, h.notifier.count())
		assert.Zero(t, h.store.Len())
	})
}

type recordingArchive struct {
	cycleIDs []string
	events   int
}

func (a *recordingArchive) Write(_ context.Context, cycleID string, _ time.Time, events []models.ChangeEvent) (string, error) {
	a.cycleIDs = append(a.cycleIDs, cycleID)
	a.events += len(events)
	return "/archive/" + cycleID + ".parquet", nil
}

type recordingHistory struct {
	started   []string
	summaries []datastore.CycleSummary
}

func (r *recordingHistory) RecordCycleStart(_ context.Context, cycleID string, _ int, _ time.Time) (int64, error) {
	r.started = append(r.started, cycleID)
	return int64(len(r.started)), nil
}

func (r *recordingHistory) UpdateCycleCompletion(_ context.Context, _ int64, _ time.Time, summary datastore.CycleSummary) error {
	r.summaries = append(r.summaries, summary)
	return nil
}

func TestRunCycle_ArchiveAndHistory(t *testing.T) {
	server := newContentServer(t)
	server.set("/status", document{contentType: "text/html", body: "<h1>up</h1>"})
	target := models.Target{ID: "status", URL: server.URL + "/status", Selector: "h1"}

	h := newTestHarness(t, Options{MaxConcurrentChecks: 1})
	archive := &recordingArchive{}
	history := &recordingHistory{}
	h.service.deps.Archive = archive
	h.service.deps.History = history
	h.service.newCycleID = func(time.Time) string { return "monitor-test" }

	report := h.run(t, target)
	assert.Equal(t, "monitor-test", report.CycleID)
	assert.Equal(t, "/archive/monitor-test.parquet", report.ArchivePath)
	assert.Equal(t, 1, archive.events)

	h.run(t, target)
	assert.Len(t, archive.cycleIDs, 1, "cycles without events are not archived")

	require.Len(t, history.summaries, 2)
	assert.Equal(t, datastore.CycleStatusCompleted, history.summaries[0].Status)
	assert.Equal(t, 1, history.summaries[0].Counts[models.OutcomeFirstSeen])
	assert.Equal(t, 1, history.summaries[0].Notifications)
	assert.Equal(t, 1, history.summaries[1].Counts[models.OutcomeUnchanged])
}

func TestNewCycleID(t *testing.T) {
	id := newCycleID(time.Date(2024, 3, 9, 7, 5, 1, 0, time.UTC))
	assert.True(t, strings.HasPrefix(id, "monitor-20240309-070501-"), id)
	assert.Len(t, id, len("monitor-20240309-070501-")+8)
}

func TestNewService_RequiresCoreDependencies(t *testing.T) {
	_, err := NewService(Dependencies{}, Options{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestCheckTarget_DoesNotPersist(t *testing.T) {
	server := newContentServer(t)
	h := newTestHarness(t, Options{MaxConcurrentChecks: 1})
	target := models.Target{ID: "alerts", URL: server.URL + "/feed.xml", Keyword: "storm"}
	server.set("/feed.xml", document{contentType: "application/atom+xml", etag: `"a"`, body: stormFeed("Storm Warning")})

	result, err := h.service.CheckTarget(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeFirstSeen, result.Outcome)
	assert.Equal(t, extractor.FormatAtomFeed, result.Format)
	assert.Equal(t, extractor.FallbackNone, result.Fallback)
	assert.Equal(t, "Storm Warning", result.Observation.Preview)
	assert.NotEmpty(t, result.Fingerprint)
	assert.Zero(t, h.store.Len())
	assert.Zero(t, h.notifier.count())

	h.run(t, target)
	result, err = h.service.CheckTarget(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeUnchanged, result.Outcome)
	assert.Equal(t, "Storm Warning", result.Observation.Preview, "checks always fetch the full document")
}

func TestCheckTarget_ReportsFallback(t *testing.T) {
	server := newContentServer(t)
	h := newTestHarness(t, Options{MaxConcurrentChecks: 1})
	target := models.Target{ID: "api", URL: server.URL + "/data.json"}
	server.set("/data.json", document{contentType: "application/json", body: "  not   json "})

	result, err := h.service.CheckTarget(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeFirstSeen, result.Outcome)
	assert.Equal(t, extractor.FormatJSON, result.Format)
	assert.Equal(t, extractor.FallbackJSONUnparsable, result.Fallback)
	assert.Equal(t, "not json", result.Observation.Preview)
}
