package collector

import (
	"sync"
	"time"
)

// Status is the shared collection status record, exposed verbatim by the
// read surface.
type Status struct {
	InProgress     bool       `json:"in_progress"`
	Completed      bool       `json:"completed"`
	ItemsCollected int        `json:"items_collected"`
	StartedAt      *time.Time `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	Error          string     `json:"error"`
}

// StatusRecord owns the mutable status and serializes access to it. Its
// in_progress flag is also the guard that keeps at most one backfill active.
type StatusRecord struct {
	mu     sync.Mutex
	status Status
}

func NewStatusRecord() *StatusRecord {
	return &StatusRecord{}
}

// TryStart marks a run as started. It returns false when a run is already in
// progress, in which case the caller must not start another.
func (r *StatusRecord) TryStart(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status.InProgress {
		return false
	}
	r.status = Status{
		InProgress: true,
		StartedAt:  &now,
	}
	return true
}

func (r *StatusRecord) Complete(now time.Time, items int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.InProgress = false
	r.status.Completed = true
	r.status.ItemsCollected = items
	r.status.CompletedAt = &now
	r.status.Error = ""
}

func (r *StatusRecord) Fail(now time.Time, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.InProgress = false
	r.status.Completed = false
	r.status.CompletedAt = &now
	r.status.Error = msg
}

// RecordError surfaces a failure without touching the run flags, e.g. a
// persistence error during an incremental cycle.
func (r *StatusRecord) RecordError(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.Error = msg
}

func (r *StatusRecord) Snapshot() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}
