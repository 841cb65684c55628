package analytics

import (
	"sort"
	"strings"
	"time"

	"reviewit/internal/domain"
)

type Hit struct {
	Content string
	Date    time.Time // zero when the source date was unparsable
}

// Search returns reviews whose keyword list contains keyword exactly,
// newest first. Sentiment and window restrictions belong to the Filter the
// caller applied beforehand.
func Search(rs []domain.Review, keyword string) []Hit {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil
	}
	var matched []domain.Review
	for _, r := range rs {
		if containsToken(r.Keywords, keyword) {
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.HasDate() != b.HasDate() {
			return a.HasDate()
		}
		return a.Date.After(b.Date)
	})
	out := make([]Hit, len(matched))
	for i, r := range matched {
		out[i] = Hit{Content: r.Content}
		if r.HasDate() {
			out[i].Date = r.Date
		}
	}
	return out
}

func containsToken(tokens []string, k string) bool {
	for _, t := range tokens {
		if t == k {
			return true
		}
	}
	return false
}
