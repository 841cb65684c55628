package app

import (
	"fmt"
	"time"

	"reviewit/internal/analytics"
	"reviewit/internal/domain"
)

// AllScope names the cross-company scope in cache keys and artifact paths.
const AllScope = "ALL"

// viewKey is view:<company id, 0 for all>:<extra>:<day>. The day part
// rolls trailing windows over without explicit invalidation.
func viewKey(view string, companyID int64, extra string, now time.Time) string {
	return fmt.Sprintf("view:%s:%d:%s:%s", view, companyID, extra, now.Format("2006-01-02"))
}

// companyViewKeys lists today's cached views that depend on one company.
func companyViewKeys(companyID int64, now time.Time) []string {
	keys := []string{
		viewKey("quarter_keywords", companyID, analytics.QuarterOf(now).String(), now),
		statisticsKey(companyID, now),
		viewKey("score_ranking", 0, "", now),
		viewKey("positive_ranking", 0, "", now),
	}
	for _, s := range []domain.Sentiment{domain.SentimentPositive, domain.SentimentNegative} {
		keys = append(keys,
			viewKey("wordcloud", companyID, s.String(), now),
			viewKey("wordcloud", 0, s.String(), now),
			viewKey("top_keywords", companyID, s.String(), now),
		)
	}
	return keys
}

// statisticsKey is the current year's statistics view for a company.
func statisticsKey(companyID int64, now time.Time) string {
	return viewKey("statistics", companyID, fmt.Sprint(now.Year()), now)
}
