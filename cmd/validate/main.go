// Command validate checks an event-impact payload fixture against the
// normalization guarantees: one record per result in input order, IDs derived
// deterministically, unsourced columns left Unknown, finite values only, and
// every duplicate ID reported. With -expected it also diffs the normalized
// records against a stored expectation.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -payload data/mock/event_impact_payload.json \
//	  -expected data/mock/event_impact_normalized.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/couchcryptid/event-impact-service/internal/domain"
	"github.com/google/go-cmp/cmp"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	payloadPath := flag.String("payload", "", "path to a raw event-impact payload")
	expectedPath := flag.String("expected", "", "optional path to the expected normalized records")
	benchmark := flag.String("benchmark", domain.DefaultBenchmark, "benchmark index key for keyed horizons")
	flag.Parse()

	if *payloadPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*payloadPath, *expectedPath, *benchmark); code != 0 {
		os.Exit(code)
	}
}

func run(payloadPath, expectedPath, benchmark string) int {
	fmt.Println("=== Event Impact Fixture Validation ===")
	fmt.Println()

	body, err := os.ReadFile(payloadPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read payload: %v\n", err)
		return 1
	}
	payload, err := domain.DecodePayload(body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: decode payload: %v\n", err)
		return 1
	}

	batch := domain.Normalize(payload.AlignedResults, benchmark)

	phases := []*phase{
		validateShape(payload.AlignedResults, batch),
		validateDeterminism(payload.AlignedResults, batch, benchmark),
		validateColumns(batch.Records),
		validateCollisions(batch),
	}
	if expectedPath != "" {
		phases = append(phases, validateExpected(expectedPath, batch.Records))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d results, %d normalized, %d warnings\n",
		len(payload.AlignedResults), len(batch.Records), len(batch.Warnings))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Printf("  ... and %d more\n", len(p.errors)-20)
				break
			}
			fmt.Printf("  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}

func validateShape(results []domain.RawAlignedResult, batch domain.Batch) *phase {
	p := &phase{name: "Shape (length, order, ids)"}
	if len(batch.Records) != len(results) {
		p.errorf("normalized %d records from %d results", len(batch.Records), len(results))
		return p
	}
	for i, raw := range results {
		rec := batch.Records[i]
		if want := domain.EventID(raw.EventDate, raw.Sector); rec.EventID != want {
			p.errorf("record %d: id %q, want %q", i, rec.EventID, want)
		}
		if rec.EventName != raw.Sector {
			p.errorf("record %d: name %q, want sector %q", i, rec.EventName, raw.Sector)
		}
	}
	return p
}

func validateDeterminism(results []domain.RawAlignedResult, batch domain.Batch, benchmark string) *phase {
	p := &phase{name: "Determinism (repeat normalization)"}
	again := domain.Normalize(results, benchmark)
	if diff := cmp.Diff(batch, again, cmp.AllowUnexported(domain.Value{})); diff != "" {
		p.errorf("second normalization differs (-first +second):\n%s", diff)
	}
	return p
}

func validateColumns(records []domain.EventImpact) *phase {
	p := &phase{name: "Columns (unknown-only, finite, counts)"}
	for i := range records {
		rec := &records[i]
		if rec.EventCount < 0 {
			p.errorf("record %d (%s): negative eventCount %d", i, rec.EventID, rec.EventCount)
		}
		unsourced := map[string]domain.Value{
			"avgReturn30D":  rec.AvgReturn30D,
			"volatility1D":  rec.Volatility1D,
			"volatility3D":  rec.Volatility3D,
			"volatility7D":  rec.Volatility7D,
			"volatility30D": rec.Volatility30D,
		}
		for name, v := range unsourced {
			if v.IsKnown() {
				p.errorf("record %d (%s): %s = %s, want unknown", i, rec.EventID, name, v)
			}
		}
		for name, v := range map[string]domain.Value{
			"avgReturn1D": rec.AvgReturn1D,
			"avgReturn3D": rec.AvgReturn3D,
			"avgReturn7D": rec.AvgReturn7D,
		} {
			if x, ok := v.Get(); ok && (math.IsNaN(x) || math.IsInf(x, 0)) {
				p.errorf("record %d (%s): %s is not finite", i, rec.EventID, name)
			}
		}
	}
	return p
}

func validateCollisions(batch domain.Batch) *phase {
	p := &phase{name: "Collisions (every duplicate id reported)"}

	reported := map[int]bool{}
	for _, w := range batch.Warnings {
		if w.Kind == domain.WarnIDCollision {
			reported[w.Index] = true
		}
	}

	seen := map[string]bool{}
	for i, rec := range batch.Records {
		if seen[rec.EventID] && !reported[i] {
			p.errorf("record %d: duplicate id %q has no collision warning", i, rec.EventID)
		}
		seen[rec.EventID] = true
	}
	return p
}

func validateExpected(path string, records []domain.EventImpact) *phase {
	p := &phase{name: "Expected records"}

	data, err := os.ReadFile(path)
	if err != nil {
		p.errorf("read %s: %v", path, err)
		return p
	}
	var expected []domain.EventImpact
	if err := json.Unmarshal(data, &expected); err != nil {
		p.errorf("decode %s: %v", path, err)
		return p
	}
	if diff := cmp.Diff(expected, records, cmp.AllowUnexported(domain.Value{})); diff != "" {
		p.errorf("normalized records differ (-expected +actual):\n%s", diff)
	}
	return p
}
