// Package domain models news-event market impact records and the pure
// normalization that turns an upstream event-impact payload into them.
//
// # Data Source
//
// The upstream analytics backend aligns sector-classified news with market
// reactions. Each (date × sector) pair is an independent event, published as
// one element of the "aligned_results" array:
//
//	{
//	  "event_date": "2024-01-05",
//	  "sector": "Fed Policy",
//	  "article_count": 12,
//	  "market_response": {
//	    "t_plus_1": 0.8,
//	    "t_plus_3": null,
//	    "t_plus_7": {"^NSEI": -1.1},
//	    "data_complete": true
//	  }
//	}
//
// # Horizon Encoding
//
// Each t_plus_N field takes one of three shapes, depending on which version of
// the market-returns service produced it:
//
//	absent / null       return not measured yet
//	bare number         percentage return, e.g. 0.8 = +0.8%
//	object              returns keyed by index symbol, e.g. {"^NSEI": -1.1}
//
// All three are decoded into the [Horizon] tagged union and resolved through
// [ResolveHorizon]. Only the configured benchmark symbol is recognized in the
// keyed form. Any other shape (string, bool, array) is unrecognized and
// resolves to Unknown with a warning.
//
// # Unknown Values
//
// [Value] distinguishes "not measured" from a measured zero. The upstream
// service has no 30-day return and no volatility fields at all, so those
// columns are always Unknown. They are never back-filled.
//
// # ID Generation
//
// Event IDs are lowercase(event_date + "-" + sector) with every whitespace run
// collapsed to a single hyphen: "2024-01-05" + "Fed Policy" →
// "2024-01-05-fed-policy". IDs are stable across refreshes so the presenter
// can keep row state (expanded rows, selections) keyed by them. See [EventID].
package domain
