package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPolarity(t *testing.T) {
	tests := []struct {
		avg  float64
		want string
	}{
		{-0.9, SentimentNegative},
		{-0.21, SentimentNegative},
		{-0.2, SentimentNeutral},
		{0, SentimentNeutral},
		{0.2, SentimentNeutral},
		{0.21, SentimentPositive},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyPolarity(tt.avg), "avg=%v", tt.avg)
	}
}

func TestAveragePolarity(t *testing.T) {
	assert.Equal(t, 0.0, AveragePolarity(nil))
	assert.InDelta(t, 0.2, AveragePolarity([]float64{0.9, -0.5}), 1e-9)
}

func TestForecastDemand(t *testing.T) {
	tests := []struct {
		name       string
		polarities []float64
		articles   int
		sentiment  string
		trend      string
		confidence string
	}{
		{"no news", nil, 0, SentimentNeutral, TrendStable, ConfidenceLow},
		{"articles without text", nil, 3, SentimentNeutral, TrendStable, ConfidenceLow},
		{"strong positive", []float64{0.9, 0.8}, 2, SentimentPositive, TrendIncreasing, ConfidenceHigh},
		{"mild positive", []float64{0.3}, 1, SentimentPositive, TrendIncreasing, ConfidenceMedium},
		{"strong negative", []float64{-0.99, -0.7}, 2, SentimentNegative, TrendDecreasing, ConfidenceHigh},
		{"mild negative", []float64{-0.3}, 1, SentimentNegative, TrendDecreasing, ConfidenceMedium},
		{"mixed", []float64{0.9, -0.9}, 2, SentimentNeutral, TrendStable, ConfidenceMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ForecastDemand("Electronics", tt.polarities, tt.articles)
			assert.Equal(t, "Electronics", p.ProductCategory)
			assert.Equal(t, tt.sentiment, p.Sentiment)
			assert.Equal(t, tt.trend, p.DemandTrend)
			assert.Equal(t, tt.confidence, p.Confidence)
			assert.Equal(t, tt.articles, p.RecentNewsCount)
		})
	}
}

func TestLocationOutlook(t *testing.T) {
	label, avg := LocationOutlook(nil)
	assert.Equal(t, SentimentNeutral, label)
	assert.Equal(t, 0.0, avg)

	label, avg = LocationOutlook([]DemandPrediction{{PolarityScore: 0.6}, {PolarityScore: 0.2}})
	assert.Equal(t, SentimentPositive, label)
	assert.InDelta(t, 0.4, avg, 1e-9)
}

func TestLocationOutlook_SkipsCategoriesWithoutText(t *testing.T) {
	preds := []DemandPrediction{
		ForecastDemand("Electronics", []float64{0.9, 0.7}, 2),
		ForecastDemand("Tea", nil, 4),
		ForecastDemand("Textiles", nil, 0),
	}

	label, avg := LocationOutlook(preds)

	// Tea had articles but no text, so only Electronics (0.8) and
	// Textiles (no news, 0) are averaged.
	assert.Equal(t, SentimentPositive, label)
	assert.InDelta(t, 0.4, avg, 1e-9)

	label, avg = LocationOutlook([]DemandPrediction{ForecastDemand("Tea", nil, 4)})
	assert.Equal(t, SentimentNeutral, label)
	assert.Equal(t, 0.0, avg)
}

func TestEnrichDemand_ForecastsRawScores(t *testing.T) {
	in := NewSubject(map[string]any{
		"address": "Karnataka",
		"demand_predictions": []any{
			map[string]any{"product_category": "Electronics", "polarity_scores": []any{0.5, 1.0}, "recent_news_count": 3.0},
			map[string]any{"product_category": "Tea", "sentiment": SentimentNeutral, "polarity_score": 0.0},
		},
	}, "address")

	out := EnrichDemand(in)

	preds := out.Field("demand_predictions").([]any)
	assert.Equal(t, DemandPrediction{
		ProductCategory: "Electronics",
		Sentiment:       SentimentPositive,
		PolarityScore:   0.75,
		DemandTrend:     TrendIncreasing,
		Confidence:      ConfidenceHigh,
		RecentNewsCount: 3,
	}, preds[0])
	assert.Equal(t, SentimentPositive, out.Field("overall_location_sentiment"))
	assert.InDelta(t, 0.375, out.Field("average_polarity_score"), 1e-9)
	assert.Equal(t, "Karnataka", out.LocationKey)

	// The input is left untouched.
	assert.Nil(t, in.Field("overall_location_sentiment"))
	assert.IsType(t, map[string]any{}, in.Field("demand_predictions").([]any)[0])
}

func TestEnrichDemand_KeepsExistingOutlook(t *testing.T) {
	in := NewSubject(map[string]any{
		"address":                    "Delhi",
		"overall_location_sentiment": SentimentNegative,
		"average_polarity_score":     -0.4,
		"demand_predictions":         []any{map[string]any{"polarity_score": 0.9, "sentiment": SentimentPositive}},
	}, "address")

	out := EnrichDemand(in)

	assert.Equal(t, SentimentNegative, out.Field("overall_location_sentiment"))
	assert.Equal(t, -0.4, out.Field("average_polarity_score"))
}

func TestEnrichDemand_LabeledPredictionWithoutText(t *testing.T) {
	in := NewSubject(map[string]any{
		"address": "Punjab",
		"demand_predictions": []any{
			map[string]any{"sentiment": SentimentPositive, "polarity_score": 0.6, "confidence": ConfidenceMedium, "recent_news_count": 2.0},
			map[string]any{"sentiment": SentimentNeutral, "polarity_score": 0.0, "confidence": ConfidenceLow, "recent_news_count": 5.0},
		},
	}, "address")

	out := EnrichDemand(in)

	assert.Equal(t, SentimentPositive, out.Field("overall_location_sentiment"))
	assert.InDelta(t, 0.6, out.Field("average_polarity_score"), 1e-9)
}

func TestEnrichDemand_NoPredictions(t *testing.T) {
	in := NewSubject(map[string]any{"address": "Goa"}, "address")

	assert.Equal(t, in, EnrichDemand(in))
}
