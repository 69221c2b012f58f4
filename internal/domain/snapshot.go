package domain

import "time"

// SnapshotStatus tells the presenter which state to render.
type SnapshotStatus string

const (
	// StatusLoading: no fetch has completed yet.
	StatusLoading SnapshotStatus = "loading"
	// StatusOK: the last fetch succeeded.
	StatusOK SnapshotStatus = "ok"
	// StatusUnavailable: the last fetch failed; Records is empty.
	StatusUnavailable SnapshotStatus = "unavailable"
)

// Snapshot is the record set handed to the presenter. It is immutable once
// built; a refresh replaces it rather than editing it.
type Snapshot struct {
	Status      SnapshotStatus
	Records     []EventImpact
	DataPending bool
	FetchedAt   time.Time
}

// LoadingSnapshot is the state before the first fetch completes.
func LoadingSnapshot() Snapshot {
	return Snapshot{Status: StatusLoading, Records: []EventImpact{}}
}

// NewSnapshot wraps freshly normalized records.
func NewSnapshot(records []EventImpact) Snapshot {
	if records == nil {
		records = []EventImpact{}
	}
	return Snapshot{
		Status:      StatusOK,
		Records:     records,
		DataPending: AnyIncomplete(records),
		FetchedAt:   clock.Now(),
	}
}

// UnavailableSnapshot is shown after a failed fetch: empty, never stale.
func UnavailableSnapshot() Snapshot {
	return Snapshot{
		Status:    StatusUnavailable,
		Records:   []EventImpact{},
		FetchedAt: clock.Now(),
	}
}
