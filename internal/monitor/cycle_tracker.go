package monitor

import (
	"sort"
	"sync"

	"github.com/aleister1102/pagemonitor/internal/models"
)

// CycleTracker counts completed cycles and remembers what the last one changed.
type CycleTracker struct {
	mutex          sync.RWMutex
	maxCycles      int
	completed      int
	lastCycleID    string
	changedTargets map[string]struct{}
}

// NewCycleTracker creates a new CycleTracker. maxCycles of 0 runs indefinitely.
func NewCycleTracker(maxCycles int) *CycleTracker {
	return &CycleTracker{
		maxCycles:      maxCycles,
		changedTargets: make(map[string]struct{}),
	}
}

// RecordCycle stores the outcome of a finished cycle.
func (ct *CycleTracker) RecordCycle(report *CycleReport) {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()

	ct.completed++
	ct.changedTargets = make(map[string]struct{})
	if report == nil {
		return
	}
	ct.lastCycleID = report.CycleID
	for _, result := range report.Results {
		if result.Outcome == models.OutcomeChanged {
			ct.changedTargets[result.Target.ID] = struct{}{}
		}
	}
}

// ShouldContinue returns false if the maximum number of cycles has been reached.
func (ct *CycleTracker) ShouldContinue() bool {
	ct.mutex.RLock()
	defer ct.mutex.RUnlock()
	if ct.maxCycles <= 0 {
		return true
	}
	return ct.completed < ct.maxCycles
}

// CompletedCycles returns the number of cycles recorded so far.
func (ct *CycleTracker) CompletedCycles() int {
	ct.mutex.RLock()
	defer ct.mutex.RUnlock()
	return ct.completed
}

// LastCycleID returns the id of the last recorded cycle.
func (ct *CycleTracker) LastCycleID() string {
	ct.mutex.RLock()
	defer ct.mutex.RUnlock()
	return ct.lastCycleID
}

// ChangedTargets returns the sorted ids of targets that changed in the last cycle.
func (ct *CycleTracker) ChangedTargets() []string {
	ct.mutex.RLock()
	defer ct.mutex.RUnlock()

	ids := make([]string, 0, len(ct.changedTargets))
	for id := range ct.changedTargets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HasChanges returns true if the last cycle changed any target.
func (ct *CycleTracker) HasChanges() bool {
	ct.mutex.RLock()
	defer ct.mutex.RUnlock()
	return len(ct.changedTargets) > 0
}
