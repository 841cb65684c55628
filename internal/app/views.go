package app

import (
	"sort"

	"reviewit/internal/analytics"
	"reviewit/internal/domain"
)

const dateLayout = "2006-01-02 15:04:05"

// ReviewView is one review as listed to API clients.
type ReviewView struct {
	Content  string   `json:"content"`
	Date     string   `json:"date,omitempty"`
	Score    *float64 `json:"score,omitempty"`
	Likes    int      `json:"like"`
	Positive *bool    `json:"positive,omitempty"`
}

type KeywordHit struct {
	Content string `json:"content"`
	Date    string `json:"date,omitempty"`
}

type WordCloud struct {
	URL      string                   `json:"url,omitempty"`
	Keywords []analytics.KeywordCount `json:"keywords"`
}

type MonthScore struct {
	Month   int     `json:"month"`
	Average float64 `json:"average_score"`
}

type Statistics struct {
	Company      string       `json:"company_name"`
	Year         int          `json:"year"`
	TotalReviews int          `json:"total_reviews"`
	Monthly      []MonthScore `json:"monthly_average"`
	Industry     []MonthScore `json:"industry_monthly_average"`
}

type QuarterlySummary struct {
	Summary  string `json:"summary"`
	Positive bool   `json:"positive"`
}

// Topic is one summarized opinion with the number of reviews mentioning it.
type Topic struct {
	Content string `json:"content"`
	Count   int    `json:"count"`
}

type DepartmentSummary struct {
	Department string  `json:"department"`
	Positive   []Topic `json:"positive_opinions"`
	Negative   []Topic `json:"negative_opinions"`
	Report     string  `json:"report"`
}

func toReviewViews(rs []domain.Review) []ReviewView {
	sorted := newestFirst(rs)
	out := make([]ReviewView, len(sorted))
	for i, r := range sorted {
		v := ReviewView{Content: r.Content, Score: r.Score, Likes: r.Likes}
		if r.HasDate() {
			v.Date = r.Date.Format(dateLayout)
		}
		if r.Sentiment != domain.SentimentUnknown {
			p := r.Sentiment == domain.SentimentPositive
			v.Positive = &p
		}
		out[i] = v
	}
	return out
}

func toKeywordHits(hs []analytics.Hit) []KeywordHit {
	out := make([]KeywordHit, len(hs))
	for i, h := range hs {
		out[i] = KeywordHit{Content: h.Content}
		if !h.Date.IsZero() {
			out[i].Date = h.Date.Format(dateLayout)
		}
	}
	return out
}

func toMonthScores(m map[int]float64) []MonthScore {
	out := make([]MonthScore, 0, len(m))
	for month, avg := range m {
		out = append(out, MonthScore{Month: month, Average: avg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// newestFirst orders dated records before undated ones, keeping source
// order among equals.
func newestFirst(rs []domain.Review) []domain.Review {
	out := make([]domain.Review, len(rs))
	copy(out, rs)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.HasDate() != b.HasDate() {
			return a.HasDate()
		}
		return a.Date.After(b.Date)
	})
	return out
}
