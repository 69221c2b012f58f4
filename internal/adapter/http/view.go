package http

import (
	"time"

	"github.com/couchcryptid/event-impact-service/internal/domain"
)

// snapshotView is the wire shape of GET /api/event-impact. Unknown values
// inside events encode as null.
type snapshotView struct {
	Status      domain.SnapshotStatus `json:"status"`
	FetchedAt   *time.Time            `json:"fetched_at"`
	DataPending bool                  `json:"data_pending"`
	Events      []domain.EventImpact  `json:"events"`
	Error       string                `json:"error,omitempty"`
}

func newSnapshotView(snap domain.Snapshot, err error) snapshotView {
	v := snapshotView{
		Status:      snap.Status,
		DataPending: snap.DataPending,
		Events:      snap.Records,
	}
	if v.Events == nil {
		v.Events = []domain.EventImpact{}
	}
	if !snap.FetchedAt.IsZero() {
		t := snap.FetchedAt.UTC()
		v.FetchedAt = &t
	}
	if err != nil {
		v.Error = err.Error()
	}
	return v
}
