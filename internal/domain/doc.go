// Package domain models supplier and demand records and the reference
// table used to place them on a map.
//
// # Data Sources
//
// The reference table is the dashboards' in.json: one object per Indian
// state or union territory with its name and a representative coordinate.
//
//	{"State.Name": "Gujarat", "latitude": "22.2587", "longitude": "71.1924"}
//
// Coordinates arrive either as JSON numbers or as numeric strings; both are
// accepted. Entries with a blank name or coordinates that do not parse are
// skipped.
//
// Subject data is whatever the upstream analysis produced:
//
//	Suppliers: {"supplier_risk_report": [{"supplier_name": ..., "state": ...}]}
//	Demand:    [{"location_id": 1, "address": "Maharashtra", ...}]
//
// Only the location field is interpreted. Every other field is carried
// through to the output untouched.
//
// # Join Semantics
//
// A subject matches a region when both names are equal after
// [NormalizeKey]: Unicode NFC composition, surrounding whitespace trimmed,
// lowercased. There is no fuzzy matching. "Tamil Nadu" and " tamil nadu "
// match; "Tamilnadu" does not.
//
// When the reference table lists the same name twice, the later entry
// wins. Subjects without a match are dropped and reported as unmatched;
// this is a diagnostic, never an error. Matched records keep their input
// order.
//
// # Scoring Conventions
//
// Sentiment polarity is a signed score in [-1, 1]. Averages below -0.2 are
// Negative, above 0.2 Positive, anything between Neutral (see
// [ClassifyPolarity]). Risk scores count keyword hits in article text, two
// points each, capped at 10 (see [AnalyzeRisk]).
package domain
