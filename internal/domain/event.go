package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
)

// HorizonKind tags which shape a t_plus_N field arrived in.
type HorizonKind int

const (
	HorizonAbsent HorizonKind = iota
	HorizonNumber
	HorizonKeyed
	HorizonUnrecognized
)

func (k HorizonKind) String() string {
	switch k {
	case HorizonAbsent:
		return "absent"
	case HorizonNumber:
		return "number"
	case HorizonKeyed:
		return "keyed"
	default:
		return "unrecognized"
	}
}

// Horizon is one market-response field as sent upstream.
// Number is set for HorizonNumber, Keyed for HorizonKeyed. Keyed only holds
// entries whose value was numeric.
type Horizon struct {
	Kind   HorizonKind
	Number float64
	Keyed  map[string]float64
}

// NumberHorizon builds a bare-number horizon.
func NumberHorizon(x float64) Horizon {
	return Horizon{Kind: HorizonNumber, Number: x}
}

// KeyedHorizon builds an index-keyed horizon.
func KeyedHorizon(m map[string]float64) Horizon {
	return Horizon{Kind: HorizonKeyed, Keyed: m}
}

// UnmarshalJSON never fails: shapes it cannot use become HorizonUnrecognized.
func (h *Horizon) UnmarshalJSON(data []byte) error {
	*h = decodeHorizon(data)
	return nil
}

// MarketResponse holds the per-horizon returns for one aligned result.
// DataComplete is nil when the upstream marker is absent or not a bool.
type MarketResponse struct {
	TPlus1       Horizon
	TPlus3       Horizon
	TPlus7       Horizon
	DataComplete *bool
}

// RawAlignedResult is one untrusted element of "aligned_results".
//
// Decoding is field-by-field so one badly typed field never loses the rest of
// the record. Fields that were present but unusable are listed in Malformed
// by their JSON name; the normalizer turns them into warnings.
type RawAlignedResult struct {
	EventDate      string
	Sector         string
	ArticleCount   float64
	HasCount       bool
	MarketResponse *MarketResponse
	Malformed      []string
}

// UnmarshalJSON decodes leniently and never fails. A value that is not a JSON
// object yields a zero record with Malformed = ["record"].
func (r *RawAlignedResult) UnmarshalJSON(data []byte) error {
	*r = RawAlignedResult{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		r.Malformed = append(r.Malformed, "record")
		return nil
	}

	if v, ok := fields["event_date"]; ok {
		if !decodeString(v, &r.EventDate) {
			r.Malformed = append(r.Malformed, "event_date")
		}
	}
	if v, ok := fields["sector"]; ok {
		if !decodeString(v, &r.Sector) {
			r.Malformed = append(r.Malformed, "sector")
		}
	}
	if v, ok := fields["article_count"]; ok && !isNull(v) {
		if x, ok := decodeNumber(v); ok {
			r.ArticleCount = x
			r.HasCount = true
		} else {
			r.Malformed = append(r.Malformed, "article_count")
		}
	}
	if v, ok := fields["market_response"]; ok && !isNull(v) {
		mr, malformed := decodeMarketResponse(v)
		r.MarketResponse = mr
		r.Malformed = append(r.Malformed, malformed...)
	}
	return nil
}

// Payload is the success body of the event-impact endpoint.
type Payload struct {
	Window         string
	AlignedResults []RawAlignedResult
}

// ErrMissingResults is returned by DecodePayload when the body has no
// "aligned_results" array.
var ErrMissingResults = errors.New(`payload has no "aligned_results" array`)

// DecodePayload parses an event-impact response body. Individual records never
// fail decoding; only a body that is not a JSON object with an
// "aligned_results" array is an error.
func DecodePayload(body []byte) (Payload, error) {
	var envelope struct {
		Window         json.RawMessage `json:"window"`
		AlignedResults json.RawMessage `json:"aligned_results"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Payload{}, err
	}

	results := bytes.TrimSpace(envelope.AlignedResults)
	if len(results) == 0 || results[0] != '[' {
		return Payload{}, ErrMissingResults
	}

	var p Payload
	if err := json.Unmarshal(results, &p.AlignedResults); err != nil {
		return Payload{}, err
	}
	decodeString(envelope.Window, &p.Window)
	if p.AlignedResults == nil {
		p.AlignedResults = []RawAlignedResult{}
	}
	return p, nil
}

// EventImpact is the canonical, presenter-ready record for one aligned result.
type EventImpact struct {
	EventID    string `json:"eventId"`
	EventName  string `json:"eventName"`
	EventCount int    `json:"eventCount"`

	AvgReturn1D  Value `json:"avgReturn1D"`
	AvgReturn3D  Value `json:"avgReturn3D"`
	AvgReturn7D  Value `json:"avgReturn7D"`
	AvgReturn30D Value `json:"avgReturn30D"`

	Volatility1D  Value `json:"volatility1D"`
	Volatility3D  Value `json:"volatility3D"`
	Volatility7D  Value `json:"volatility7D"`
	Volatility30D Value `json:"volatility30D"`

	DataComplete bool `json:"dataComplete"`
}

func decodeMarketResponse(data json.RawMessage) (*MarketResponse, []string) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, []string{"market_response"}
	}

	mr := &MarketResponse{
		TPlus1: decodeHorizon(fields["t_plus_1"]),
		TPlus3: decodeHorizon(fields["t_plus_3"]),
		TPlus7: decodeHorizon(fields["t_plus_7"]),
	}

	var malformed []string
	if v, ok := fields["data_complete"]; ok && !isNull(v) {
		var complete bool
		if err := json.Unmarshal(v, &complete); err != nil {
			malformed = append(malformed, "data_complete")
		} else {
			mr.DataComplete = &complete
		}
	}
	return mr, malformed
}

func decodeHorizon(data json.RawMessage) Horizon {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || isNull(data) {
		return Horizon{Kind: HorizonAbsent}
	}

	if data[0] == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return Horizon{Kind: HorizonUnrecognized}
		}
		keyed := make(map[string]float64, len(fields))
		for k, v := range fields {
			if x, ok := decodeNumber(v); ok {
				keyed[k] = x
			}
		}
		return Horizon{Kind: HorizonKeyed, Keyed: keyed}
	}

	if x, ok := decodeNumber(data); ok {
		return Horizon{Kind: HorizonNumber, Number: x}
	}
	return Horizon{Kind: HorizonUnrecognized}
}

// decodeNumber accepts only a finite JSON number literal. Quoted numbers are
// rejected.
func decodeNumber(data []byte) (float64, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || (data[0] != '-' && (data[0] < '0' || data[0] > '9')) {
		return 0, false
	}
	x, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}

func decodeString(data json.RawMessage, dst *string) bool {
	if len(data) == 0 || isNull(data) {
		return true
	}
	return json.Unmarshal(data, dst) == nil
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}
