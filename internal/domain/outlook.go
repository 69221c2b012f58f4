package domain

import (
	"errors"
	"math"
)

// ErrInsufficientData is returned by ComputeOutlook when no record carries a
// known 1/3/7-day return.
var ErrInsufficientData = errors.New("insufficient data for outlook")

// ErrUnboundedReturns is returned by ComputeOutlook when the pooled returns are
// too large for their mean or spread to be represented.
var ErrUnboundedReturns = errors.New("returns overflow outlook statistics")

// Volatility risk labels.
const (
	RiskHigh     = "High"
	RiskModerate = "Moderate"
)

// highVolatility is the std-dev (in percentage points) above which the risk
// label is RiskHigh.
const highVolatility = 0.8

// Outlook is the probabilistic market-movement view derived from the
// event returns of one snapshot.
type Outlook struct {
	ProbabilityUp   float64 `json:"probability_up"`
	ProbabilityDown float64 `json:"probability_down"`
	AvgReturn       float64 `json:"avg_return"`
	Volatility      float64 `json:"volatility"`
	VolatilityRisk  string  `json:"volatility_risk"`
	SampleSize      int     `json:"sample_size"`
}

// ComputeOutlook pools every known 1, 3 and 7-day return, then maps the mean
// move to a down probability bounded to [0.3, 0.7] and the population std-dev
// to a risk label.
func ComputeOutlook(records []EventImpact) (Outlook, error) {
	var returns []float64
	for _, rec := range records {
		for _, v := range []Value{rec.AvgReturn1D, rec.AvgReturn3D, rec.AvgReturn7D} {
			if x, ok := v.Get(); ok {
				returns = append(returns, x)
			}
		}
	}
	if len(returns) == 0 {
		return Outlook{}, ErrInsufficientData
	}

	mean := avg(returns)
	sd := stddev(returns, mean)
	if !isFinite(mean) || !isFinite(sd) {
		return Outlook{}, ErrUnboundedReturns
	}

	down := clamp(math.Abs(mean)/2, 0.3, 0.7)
	risk := RiskModerate
	if sd > highVolatility {
		risk = RiskHigh
	}

	return Outlook{
		ProbabilityUp:   round(1-down, 2),
		ProbabilityDown: round(down, 2),
		AvgReturn:       round(mean, 3),
		Volatility:      round(sd, 3),
		VolatilityRisk:  risk,
		SampleSize:      len(returns),
	}, nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func avg(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the population standard deviation.
func stddev(values []float64, mean float64) float64 {
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

func round(value float64, places int) float64 {
	mult := math.Pow(10, float64(places))
	return math.Round(value*mult) / mult
}
