// Copyright (C) 2020-2026, HyperMesh Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"sync"
	"time"
)

// StatusTracker records in-flight and completed validation requests so
// a client can poll check_validation_status(request_id) per §4.5,
// grounded on the teacher's poll.Set discipline (a map keyed by
// request ID, entries resolved and eventually reclaimed rather than an
// open-ended ledger).
type StatusTracker struct {
	mu      sync.Mutex
	entries map[string]*trackedRequest
}

type trackedRequest struct {
	outcome Outcome
	result  *ValidationResult
}

// NewStatusTracker creates an empty tracker.
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{entries: make(map[string]*trackedRequest)}
}

// TrackPending records requestID as queued, with eta as the current
// best estimate of completion. Overwrites any prior entry for the same
// ID, matching "request_id: monotonic within a client" (a reused ID
// means the client resubmitted).
func (t *StatusTracker) TrackPending(requestID string, eta time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[requestID] = &trackedRequest{outcome: OutcomePending(eta)}
}

// Resolve records the final ValidationResult for requestID.
func (t *StatusTracker) Resolve(requestID string, result *ValidationResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[requestID] = &trackedRequest{outcome: result.Result, result: result}
}

// Status returns the current Outcome for requestID, or false if unknown.
func (t *StatusTracker) Status(requestID string) (Outcome, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[requestID]
	if !ok {
		return Outcome{}, false
	}
	return e.outcome, true
}

// Result returns the full ValidationResult for a resolved requestID, or
// false if the request is unknown or still pending.
func (t *StatusTracker) Result(requestID string) (*ValidationResult, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[requestID]
	if !ok || e.result == nil {
		return nil, false
	}
	return e.result, true
}

// Forget discards requestID's tracked state, reclaiming memory once a
// client has confirmed receipt of a resolved result.
func (t *StatusTracker) Forget(requestID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, requestID)
}

// Len reports the number of tracked (pending or resolved-but-not-yet-
// forgotten) requests.
func (t *StatusTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
