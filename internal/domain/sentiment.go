package domain

import "maps"

// Sentiment labels.
const (
	SentimentPositive = "Positive"
	SentimentNegative = "Negative"
	SentimentNeutral  = "Neutral"
)

// Demand trends and confidence levels.
const (
	TrendIncreasing = "Increasing"
	TrendDecreasing = "Decreasing"
	TrendStable     = "Stable"

	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

const (
	polarityThreshold = 0.2
	strongPolarity    = 0.5
)

// AveragePolarity returns the mean of scores, or 0 for none.
func AveragePolarity(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// ClassifyPolarity maps an average polarity to a sentiment label.
func ClassifyPolarity(avg float64) string {
	switch {
	case avg < -polarityThreshold:
		return SentimentNegative
	case avg > polarityThreshold:
		return SentimentPositive
	default:
		return SentimentNeutral
	}
}

// DemandPrediction is the demand outlook for one product category at a
// storage location.
type DemandPrediction struct {
	ProductCategory string  `json:"product_category"`
	Sentiment       string  `json:"sentiment"`
	PolarityScore   float64 `json:"polarity_score"`
	DemandTrend     string  `json:"demand_trend"`
	Confidence      string  `json:"confidence"`
	RecentNewsCount int     `json:"recent_news_count"`
}

// ForecastDemand derives a demand prediction from the polarity scores of
// the articles that had text. articleCount is the number of articles found,
// including any without text.
func ForecastDemand(category string, polarities []float64, articleCount int) DemandPrediction {
	p := DemandPrediction{
		ProductCategory: category,
		Sentiment:       SentimentNeutral,
		DemandTrend:     TrendStable,
		Confidence:      ConfidenceLow,
		RecentNewsCount: articleCount,
	}
	if articleCount == 0 || len(polarities) == 0 {
		return p
	}

	avg := AveragePolarity(polarities)
	p.PolarityScore = avg
	p.Sentiment = ClassifyPolarity(avg)
	switch p.Sentiment {
	case SentimentPositive:
		p.DemandTrend = TrendIncreasing
		p.Confidence = confidenceFor(avg > strongPolarity)
	case SentimentNegative:
		p.DemandTrend = TrendDecreasing
		p.Confidence = confidenceFor(avg < -strongPolarity)
	default:
		p.Confidence = ConfidenceMedium
	}
	return p
}

func confidenceFor(strong bool) string {
	if strong {
		return ConfidenceHigh
	}
	return ConfidenceMedium
}

// inOutlook reports whether p contributes to its location's outlook. A
// category with no news counts as a neutral 0; a category whose articles
// all lacked text has no score and is left out.
func (p DemandPrediction) inOutlook() bool {
	return p.RecentNewsCount == 0 || p.Confidence != ConfidenceLow
}

// LocationOutlook averages per-category polarities into an overall label
// for a storage location.
func LocationOutlook(predictions []DemandPrediction) (string, float64) {
	scores := make([]float64, 0, len(predictions))
	for _, p := range predictions {
		if p.inOutlook() {
			scores = append(scores, p.PolarityScore)
		}
	}
	if len(scores) == 0 {
		return SentimentNeutral, 0
	}
	avg := AveragePolarity(scores)
	return ClassifyPolarity(avg), avg
}

// EnrichDemand fills in the derived sentiment of a demand location. A
// prediction that carries raw per-article "polarity_scores" but no
// "sentiment" is replaced by its forecast. When the record has no
// "overall_location_sentiment", the outlook over its predictions is added
// along with "average_polarity_score". The input record is not modified.
func EnrichDemand(r SubjectRecord) SubjectRecord {
	raw, ok := r.Field("demand_predictions").([]any)
	if !ok {
		return r
	}

	fields := maps.Clone(r.Fields)
	enriched := make([]any, 0, len(raw))
	predictions := make([]DemandPrediction, 0, len(raw))
	for _, item := range raw {
		pred, ok := item.(map[string]any)
		if !ok {
			enriched = append(enriched, item)
			continue
		}
		if _, labeled := pred["sentiment"]; !labeled {
			if scores, ok := floats(pred["polarity_scores"]); ok {
				category, _ := pred["product_category"].(string)
				count := len(scores)
				if n, ok := Float(pred["recent_news_count"]); ok {
					count = int(n)
				}
				f := ForecastDemand(category, scores, count)
				predictions = append(predictions, f)
				enriched = append(enriched, f)
				continue
			}
		}
		score, _ := Float(pred["polarity_score"])
		confidence, _ := pred["confidence"].(string)
		count, _ := Float(pred["recent_news_count"])
		predictions = append(predictions, DemandPrediction{
			PolarityScore:   score,
			Confidence:      confidence,
			RecentNewsCount: int(count),
		})
		enriched = append(enriched, pred)
	}
	fields["demand_predictions"] = enriched

	if _, ok := fields["overall_location_sentiment"]; !ok {
		label, avg := LocationOutlook(predictions)
		fields["overall_location_sentiment"] = label
		fields["average_polarity_score"] = avg
	}
	return SubjectRecord{LocationKey: r.LocationKey, Fields: fields}
}

func floats(v any) ([]float64, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]float64, 0, len(list))
	for _, item := range list {
		f, ok := Float(item)
		if !ok {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}
