package domain

import "strings"

// RiskKeywords are the disruption terms scanned for in supplier news.
var RiskKeywords = []string{
	"strike", "protest", "labour unrest", "shutdown", "fire", "flood",
	"bharat bandh", "curfew", "rain havoc", "roadblock", "cyclone",
	"factory accident", "supply chain disruption", "violence", "riot",
	"earthquake", "landslide", "corruption", "economic slowdown",
	"political instability", "commodity price hike", "drought",
	"heatwave", "strike notice", "legal action",
}

const (
	riskPointsPerKeyword = 2
	maxRiskScore         = 10
)

// RiskAssessment lists the keywords found in a text and the derived score.
type RiskAssessment struct {
	Keywords []string `json:"risk_keywords"`
	Score    int      `json:"risk_score"`
}

// AnalyzeRisk scans text for risk keywords (case-insensitive substring
// match). Overlapping keywords such as "strike" and "strike notice" both
// count.
func AnalyzeRisk(text string) RiskAssessment {
	lower := strings.ToLower(text)
	hits := []string{}
	for _, kw := range RiskKeywords {
		if strings.Contains(lower, kw) {
			hits = append(hits, kw)
		}
	}
	return RiskAssessment{
		Keywords: hits,
		Score:    min(len(hits)*riskPointsPerKeyword, maxRiskScore),
	}
}

// Article is a news article about a supplier or product category.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Source      string `json:"source,omitempty"`
}

// AnnotatedArticle is an article with its risk assessment.
type AnnotatedArticle struct {
	Article
	RiskAssessment
}

// AnnotateArticle assesses the description, falling back to the title when
// the description is empty.
func AnnotateArticle(a Article) AnnotatedArticle {
	content := a.Description
	if content == "" {
		content = a.Title
	}
	return AnnotatedArticle{Article: a, RiskAssessment: AnalyzeRisk(content)}
}
