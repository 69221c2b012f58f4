package pipeline

import (
	"github.com/couchcryptid/event-impact-service/internal/domain"
)

// BenchmarkNormalizer implements Normalizer using the domain normalization
// with a fixed benchmark index symbol.
type BenchmarkNormalizer struct {
	benchmark string
}

// NewNormalizer creates a BenchmarkNormalizer. An empty benchmark falls back to
// domain.DefaultBenchmark.
func NewNormalizer(benchmark string) *BenchmarkNormalizer {
	if benchmark == "" {
		benchmark = domain.DefaultBenchmark
	}
	return &BenchmarkNormalizer{benchmark: benchmark}
}

func (n *BenchmarkNormalizer) Normalize(results []domain.RawAlignedResult) domain.Batch {
	return domain.Normalize(results, n.benchmark)
}
