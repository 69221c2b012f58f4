// Command genmock writes the event-impact mock fixtures: a raw upstream payload
// that exercises every market-response shape, and the normalized records the
// service is expected to produce from it. It runs the real domain package so
// the expectation always matches pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -payload-out data/mock/event_impact_payload.json \
//	  -expected-out data/mock/event_impact_normalized.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/couchcryptid/event-impact-service/internal/domain"
)

// fixturePayload mirrors the upstream envelope. Field values are `any` so the
// fixture can carry the loosely typed shapes the upstream actually sends.
type fixturePayload struct {
	Window         string          `json:"window"`
	AlignedResults []fixtureResult `json:"aligned_results"`
}

type fixtureResult struct {
	EventDate      string           `json:"event_date"`
	Sector         string           `json:"sector"`
	ArticleCount   any              `json:"article_count"`
	MarketResponse *fixtureResponse `json:"market_response,omitempty"`
}

type fixtureResponse struct {
	TPlus1       any `json:"t_plus_1,omitempty"`
	TPlus3       any `json:"t_plus_3,omitempty"`
	TPlus7       any `json:"t_plus_7,omitempty"`
	DataComplete any `json:"data_complete,omitempty"`
}

var jsonNull = json.RawMessage("null")

func fixture() fixturePayload {
	return fixturePayload{
		Window: "last_10_days",
		AlignedResults: []fixtureResult{
			{
				EventDate: "2024-01-05", Sector: "Fed Policy", ArticleCount: 12,
				MarketResponse: &fixtureResponse{
					TPlus1:       0.8,
					TPlus3:       0.45,
					TPlus7:       map[string]float64{"^NSEI": -1.1},
					DataComplete: true,
				},
			},
			{
				EventDate: "2024-01-05", Sector: "Economics", ArticleCount: 5,
				MarketResponse: &fixtureResponse{
					TPlus1:       map[string]float64{"^NSEI": 0.3},
					DataComplete: false,
				},
			},
			{
				EventDate: "2024-01-04", Sector: "Global Trade", ArticleCount: 3,
			},
			{
				// Double space collapses; the keyed horizon lacks the benchmark.
				EventDate: "2024-01-04", Sector: "Energy  Markets", ArticleCount: 7,
				MarketResponse: &fixtureResponse{
					TPlus1:       map[string]float64{"^GSPC": 0.5},
					TPlus3:       1.2,
					TPlus7:       jsonNull,
					DataComplete: true,
				},
			},
			{
				EventDate: "2024-01-03", Sector: "Tech", ArticleCount: -4,
				MarketResponse: &fixtureResponse{
					TPlus1:       "0.2",
					DataComplete: "yes",
				},
			},
			{
				// Collides with the first record's ID.
				EventDate: "2024-01-05", Sector: "Fed\tPolicy", ArticleCount: 2,
				MarketResponse: &fixtureResponse{
					TPlus1:       0.1,
					DataComplete: true,
				},
			},
		},
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	payloadOut := flag.String("payload-out", "", "output path for the raw payload fixture")
	expectedOut := flag.String("expected-out", "", "output path for the normalized records fixture")
	benchmark := flag.String("benchmark", domain.DefaultBenchmark, "benchmark index key for keyed horizons")
	flag.Parse()

	if *payloadOut == "" || *expectedOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -payload-out, -expected-out")
	}

	raw, err := json.MarshalIndent(fixture(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	// Round-trip through the real decoder so the expectation reflects what the
	// service sees on the wire.
	payload, err := domain.DecodePayload(raw)
	if err != nil {
		return fmt.Errorf("decode generated payload: %w", err)
	}
	batch := domain.Normalize(payload.AlignedResults, *benchmark)

	if err := writeFile(*payloadOut, raw); err != nil {
		return fmt.Errorf("writing payload fixture: %w", err)
	}
	log.Printf("wrote payload fixture: %s (%d results)", *payloadOut, len(payload.AlignedResults))

	expected, err := json.MarshalIndent(batch.Records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal expected records: %w", err)
	}
	if err := writeFile(*expectedOut, expected); err != nil {
		return fmt.Errorf("writing expected fixture: %w", err)
	}
	log.Printf("wrote expected fixture: %s", *expectedOut)

	printStats(batch)
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(batch domain.Batch) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Records: %d\n", len(batch.Records))

	incomplete := 0
	for _, rec := range batch.Records {
		if !rec.DataComplete {
			incomplete++
		}
	}
	fmt.Printf("Incomplete: %d (data pending: %t)\n", incomplete, domain.AnyIncomplete(batch.Records))

	kinds := map[domain.WarningKind]int{}
	for _, w := range batch.Warnings {
		kinds[w.Kind]++
	}
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, string(k))
	}
	sort.Strings(names)
	fmt.Printf("Warnings (%d):", len(batch.Warnings))
	for _, k := range names {
		fmt.Printf(" %s=%d", k, kinds[domain.WarningKind(k)])
	}
	fmt.Println()

	for _, w := range batch.Warnings {
		fmt.Printf("  %s\n", w)
	}

	fmt.Println("\nRecords:")
	for _, rec := range batch.Records {
		fmt.Printf("  %-28s n=%-3d 1D=%-7s 3D=%-7s 7D=%-7s complete=%t\n",
			rec.EventID, rec.EventCount,
			rec.AvgReturn1D.Percent(), rec.AvgReturn3D.Percent(), rec.AvgReturn7D.Percent(),
			rec.DataComplete)
	}

	if o, err := domain.ComputeOutlook(batch.Records); err == nil {
		fmt.Printf("\nOutlook: up=%.2f down=%.2f avg=%.3f vol=%.3f (%s, n=%d)\n",
			o.ProbabilityUp, o.ProbabilityDown, o.AvgReturn, o.Volatility, o.VolatilityRisk, o.SampleSize)
	}
}
