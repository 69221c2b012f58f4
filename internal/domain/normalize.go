package domain

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// DefaultBenchmark is the index symbol recognized in keyed horizons when none
// is configured (NIFTY 50).
const DefaultBenchmark = "^NSEI"

// WarningKind classifies a normalization warning.
type WarningKind string

const (
	// WarnMalformedField: a field was present in a type that cannot be used.
	WarnMalformedField WarningKind = "malformed_field"
	// WarnAmbiguousField: a horizon arrived in an unrecognized shape.
	WarnAmbiguousField WarningKind = "ambiguous_field"
	// WarnNegativeCount: article_count was negative and was clamped to 0.
	WarnNegativeCount WarningKind = "negative_count"
	// WarnIDCollision: two results in one batch produced the same event ID.
	WarnIDCollision WarningKind = "id_collision"
)

// Warning describes a field the normalizer had to fall back on. Warnings never
// drop a record.
type Warning struct {
	Index   int
	EventID string
	Kind    WarningKind
	Field   string
	Detail  string
}

func (w Warning) String() string {
	return fmt.Sprintf("record %d (%s): %s %s: %s", w.Index, w.EventID, w.Kind, w.Field, w.Detail)
}

// Batch is the result of normalizing one payload. len(Records) always equals
// the number of input results, in input order.
type Batch struct {
	Records  []EventImpact
	Warnings []Warning
}

// Index maps event IDs to their position in Records. When two records share
// an ID the later one wins; the collision is also reported in Warnings.
func (b Batch) Index() map[string]int {
	idx := make(map[string]int, len(b.Records))
	for i, rec := range b.Records {
		idx[rec.EventID] = i
	}
	return idx
}

// Normalize converts raw aligned results into canonical EventImpact records.
// It is pure: no I/O, no shared state, and it never fails. Every input yields
// exactly one output at the same position.
func Normalize(results []RawAlignedResult, benchmark string) Batch {
	if benchmark == "" {
		benchmark = DefaultBenchmark
	}

	b := Batch{Records: make([]EventImpact, 0, len(results))}
	seen := make(map[string]int, len(results))

	for i, raw := range results {
		rec, warnings := normalizeResult(i, raw, benchmark)
		b.Warnings = append(b.Warnings, warnings...)

		if prev, dup := seen[rec.EventID]; dup {
			b.Warnings = append(b.Warnings, Warning{
				Index:   i,
				EventID: rec.EventID,
				Kind:    WarnIDCollision,
				Field:   "eventId",
				Detail:  fmt.Sprintf("same id as record %d; lookups by id resolve to the later record", prev),
			})
		}
		seen[rec.EventID] = i
		b.Records = append(b.Records, rec)
	}
	return b
}

func normalizeResult(index int, raw RawAlignedResult, benchmark string) (EventImpact, []Warning) {
	rec := EventImpact{
		EventID:   EventID(raw.EventDate, raw.Sector),
		EventName: raw.Sector,

		// No upstream field supplies these yet.
		AvgReturn30D:  Unknown(),
		Volatility1D:  Unknown(),
		Volatility3D:  Unknown(),
		Volatility7D:  Unknown(),
		Volatility30D: Unknown(),
	}

	var warnings []Warning
	warn := func(kind WarningKind, field, detail string) {
		warnings = append(warnings, Warning{Index: index, EventID: rec.EventID, Kind: kind, Field: field, Detail: detail})
	}

	for _, field := range raw.Malformed {
		warn(WarnMalformedField, field, "unusable type, treated as absent")
	}

	count, countWarn := resolveCount(raw)
	rec.EventCount = count
	if countWarn != nil {
		warn(countWarn.Kind, "article_count", countWarn.Detail)
	}

	if mr := raw.MarketResponse; mr != nil {
		horizons := []struct {
			field string
			h     Horizon
			dst   *Value
		}{
			{"t_plus_1", mr.TPlus1, &rec.AvgReturn1D},
			{"t_plus_3", mr.TPlus3, &rec.AvgReturn3D},
			{"t_plus_7", mr.TPlus7, &rec.AvgReturn7D},
		}
		for _, hz := range horizons {
			*hz.dst = ResolveHorizon(hz.h, benchmark)
			if hz.h.Kind == HorizonUnrecognized {
				warn(WarnAmbiguousField, hz.field, "neither number nor index-keyed object")
			}
		}
		if mr.DataComplete != nil {
			rec.DataComplete = *mr.DataComplete
		}
	}

	return rec, warnings
}

// ResolveHorizon applies the shared three-way resolution to one horizon:
// absent resolves to Unknown, a bare number to itself, and a keyed object to
// the benchmark entry if present. Unrecognized shapes resolve to Unknown.
func ResolveHorizon(h Horizon, benchmark string) Value {
	switch h.Kind {
	case HorizonNumber:
		return Known(h.Number)
	case HorizonKeyed:
		if x, ok := h.Keyed[benchmark]; ok {
			return Known(x)
		}
		return Unknown()
	default:
		return Unknown()
	}
}

// resolveCount returns a non-negative article count. Negative counts clamp to
// zero; fractional counts are unusable and also resolve to zero.
func resolveCount(raw RawAlignedResult) (int, *Warning) {
	if !raw.HasCount {
		return 0, nil
	}
	x := raw.ArticleCount
	switch {
	case x < 0:
		return 0, &Warning{Kind: WarnNegativeCount, Detail: fmt.Sprintf("%g clamped to 0", x)}
	case x != math.Trunc(x) || x > math.MaxInt32:
		return 0, &Warning{Kind: WarnMalformedField, Detail: fmt.Sprintf("%g is not a valid count", x)}
	default:
		return int(x), nil
	}
}

// EventID derives the stable identifier for a (date, sector) pair:
// lowercase(date + "-" + sector) with each maximal whitespace run replaced by
// one hyphen.
func EventID(eventDate, sector string) string {
	s := strings.ToLower(eventDate + "-" + sector)

	var sb strings.Builder
	sb.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) || r == '\uFEFF' {
			if !inSpace {
				sb.WriteByte('-')
				inSpace = true
			}
			continue
		}
		inSpace = false
		sb.WriteRune(r)
	}
	return sb.String()
}

// AnyIncomplete reports whether any record is still waiting on market data.
// The presenter uses it to show a data-pending notice.
func AnyIncomplete(records []EventImpact) bool {
	for _, rec := range records {
		if !rec.DataComplete {
			return true
		}
	}
	return false
}
