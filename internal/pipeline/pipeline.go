package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/event-impact-service/internal/domain"
	"github.com/couchcryptid/event-impact-service/internal/observability"
)

// ErrRefreshInFlight is returned by Refresh when another refresh has not
// finished yet.
var ErrRefreshInFlight = errors.New("refresh already in progress")

// Fetcher retrieves the raw event-impact payload.
type Fetcher interface {
	Fetch(ctx context.Context) (domain.Payload, error)
}

// Normalizer converts raw aligned results into canonical records.
type Normalizer interface {
	Normalize(results []domain.RawAlignedResult) domain.Batch
}

// Publisher writes a freshly normalized record set downstream.
type Publisher interface {
	Publish(ctx context.Context, records []domain.EventImpact, fetchedAt time.Time) error
}

// Pipeline orchestrates the fetch-normalize loop and holds the current snapshot.
type Pipeline struct {
	fetcher    Fetcher
	normalizer Normalizer
	publisher  Publisher // nil disables publishing
	logger     *slog.Logger
	metrics    *observability.Metrics
	interval   time.Duration

	refreshMu sync.Mutex
	snapshot  atomic.Pointer[domain.Snapshot]
	ready     atomic.Bool
}

// New creates a Pipeline. A zero interval makes Run fetch once; pass a nil
// publisher to skip publishing.
func New(f Fetcher, n Normalizer, pub Publisher, logger *slog.Logger, metrics *observability.Metrics, interval time.Duration) *Pipeline {
	p := &Pipeline{
		fetcher:    f,
		normalizer: n,
		publisher:  pub,
		logger:     logger,
		metrics:    metrics,
		interval:   interval,
	}
	loading := domain.LoadingSnapshot()
	p.snapshot.Store(&loading)
	return p
}

// Snapshot returns the current record set. The returned value is never
// modified by later refreshes.
func (p *Pipeline) Snapshot() domain.Snapshot {
	return *p.snapshot.Load()
}

// CheckReadiness returns nil once the first refresh has completed, whether or
// not the upstream was reachable.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("event impact snapshot is still loading")
	}
	return nil
}

// Run refreshes once, then on every interval tick until the context is
// cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "refresh_interval", p.interval)

	if _, err := p.Refresh(ctx); err != nil && ctx.Err() != nil {
		return nil
	}
	if p.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if _, err := p.Refresh(ctx); errors.Is(err, ErrRefreshInFlight) {
				p.logger.Debug("scheduled refresh skipped, previous still running")
			}
		}
	}
}

// Refresh fetches, normalizes and swaps in a new snapshot. Only one refresh runs
// at a time; a concurrent call returns the current snapshot and
// ErrRefreshInFlight.
//
// On a fetch failure the snapshot becomes an empty StatusUnavailable snapshot
// and the failure is returned alongside it. The returned snapshot is always
// valid to render.
func (p *Pipeline) Refresh(ctx context.Context) (domain.Snapshot, error) {
	if !p.refreshMu.TryLock() {
		p.metrics.RefreshesSkipped.Inc()
		return p.Snapshot(), ErrRefreshInFlight
	}
	defer p.refreshMu.Unlock()
	defer p.ready.Store(true)

	payload, err := p.fetcher.Fetch(ctx)
	if err != nil {
		p.logger.Warn("event impact fetch failed, serving empty snapshot", "error", err)
		snap := domain.UnavailableSnapshot()
		p.swap(snap)
		return snap, err
	}

	batch := p.normalizer.Normalize(payload.AlignedResults)
	p.recordWarnings(batch.Warnings)
	p.metrics.RecordsNormalized.Add(float64(len(batch.Records)))

	snap := domain.NewSnapshot(batch.Records)
	p.swap(snap)

	p.logger.Info("snapshot refreshed",
		"records", len(snap.Records),
		"warnings", len(batch.Warnings),
		"data_pending", snap.DataPending,
	)

	p.publish(ctx, snap)
	return snap, nil
}

func (p *Pipeline) swap(snap domain.Snapshot) {
	p.snapshot.Store(&snap)

	incomplete := 0
	for _, rec := range snap.Records {
		if !rec.DataComplete {
			incomplete++
		}
	}
	p.metrics.SnapshotRecords.Set(float64(len(snap.Records)))
	p.metrics.SnapshotIncomplete.Set(float64(incomplete))
	if snap.Status == domain.StatusOK {
		p.metrics.SnapshotAvailable.Set(1)
	} else {
		p.metrics.SnapshotAvailable.Set(0)
	}
}

func (p *Pipeline) recordWarnings(warnings []domain.Warning) {
	for _, w := range warnings {
		p.logger.Warn("normalize fallback",
			"index", w.Index,
			"event_id", w.EventID,
			"kind", w.Kind,
			"field", w.Field,
			"detail", w.Detail,
		)
		p.metrics.NormalizeWarnings.WithLabelValues(string(w.Kind)).Inc()
	}
}

// publish hands the records to the publisher. Failures are logged and counted
// but never affect the snapshot.
func (p *Pipeline) publish(ctx context.Context, snap domain.Snapshot) {
	if p.publisher == nil || len(snap.Records) == 0 {
		return
	}
	if err := p.publisher.Publish(ctx, snap.Records, snap.FetchedAt); err != nil {
		p.logger.Error("publish records failed", "error", err, "records", len(snap.Records))
		p.metrics.PublishErrors.Inc()
		return
	}
	p.metrics.RecordsPublished.Add(float64(len(snap.Records)))
}
