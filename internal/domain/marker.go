package domain

import (
	"encoding/json"
	"strings"
)

// Marker colors.
const (
	ColorDefault        = "#1976d2"
	ColorHighRisk       = "red"
	ColorMediumRisk     = "orange"
	ColorLowRisk        = "green"
	ColorStrongPositive = "green"
	ColorPositive       = "#b2ff59"
	ColorStrongNegative = "red"
	ColorNegative       = "orange"
	ColorNeutral        = "gray"
)

const strongSentiment = 0.9

// SentimentColor picks a marker color from a sentiment label and polarity.
func SentimentColor(sentiment string, polarity float64) string {
	switch sentiment {
	case SentimentPositive:
		if polarity > strongSentiment {
			return ColorStrongPositive
		}
		return ColorPositive
	case SentimentNegative:
		if polarity < -strongSentiment {
			return ColorStrongNegative
		}
		return ColorNegative
	default:
		return ColorNeutral
	}
}

// SupplierColor picks a supplier marker color. An explicit risk_level wins;
// otherwise the overall sentiment and average polarity decide.
func SupplierColor(r SubjectRecord) string {
	level := r.Field("risk_level")
	if present(level) {
		s, ok := level.(string)
		if !ok {
			return ColorDefault
		}
		switch strings.ToLower(s) {
		case "high":
			return ColorHighRisk
		case "medium":
			return ColorMediumRisk
		case "low":
			return ColorLowRisk
		default:
			return ColorDefault
		}
	}

	polarity, _ := Float(r.Field("average_polarity_score"))
	return SentimentColor(r.StringField("overall_sentiment"), polarity)
}

// present reports whether a decoded JSON value carries information: not
// null, not an empty string, not false, not zero.
func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case float64:
		return x != 0
	default:
		return true
	}
}

// Marker is a joined record ready to draw.
type Marker struct {
	Record JoinedRecord `json:"record"`
	Color  string       `json:"color"`
	Label  string       `json:"label"`
}

// SupplierMarkers styles joined supplier records.
func SupplierMarkers(records []JoinedRecord) []Marker {
	out := make([]Marker, 0, len(records))
	for _, r := range records {
		label := r.StringField("supplier_name")
		if label == "" {
			label = r.StringField("supplier")
		}
		out = append(out, Marker{Record: r, Color: SupplierColor(r.SubjectRecord), Label: label})
	}
	return out
}

// DemandMarkers styles joined demand records. Demand markers share one color.
func DemandMarkers(records []JoinedRecord) []Marker {
	out := make([]Marker, 0, len(records))
	for _, r := range records {
		out = append(out, Marker{Record: r, Color: ColorDefault, Label: r.StringField("address")})
	}
	return out
}
