package analytics

import (
	"sort"

	"reviewit/internal/domain"
)

const (
	DefaultWordCloudMinCount = 2
	DefaultWordCloudMax      = 50
)

type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// KeywordExample is a ranked keyword with the newest review mentioning it.
type KeywordExample struct {
	Keyword      string `json:"keyword"`
	Count        int    `json:"count"`
	LatestReview string `json:"latest_review"`
}

type FrequencyOptions struct {
	MinCount    int // occurrences below this are dropped
	MaxKeywords int // distinct keywords kept after ranking
}

// canonicalOrder returns a copy sorted newest first. Equal dates fall back
// to ID (when both rows carry one) and then to batch position, so the
// iteration order doesn't depend on how a source happened to list rows.
func canonicalOrder(rs []domain.Review) []domain.Review {
	out := make([]domain.Review, len(rs))
	copy(out, rs)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.HasDate() != b.HasDate() {
			return a.HasDate()
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if a.ID != 0 && b.ID != 0 && a.ID != b.ID {
			return a.ID < b.ID
		}
		if a.CompanyID != b.CompanyID {
			return a.CompanyID < b.CompanyID
		}
		return a.Seq < b.Seq
	})
	return out
}

// tally keeps counts plus first-seen positions for stable tie-breaks.
type tally struct {
	counts map[string]int
	order  []string
}

func newTally() *tally { return &tally{counts: map[string]int{}} }

func (t *tally) inc(k string) {
	if _, ok := t.counts[k]; !ok {
		t.order = append(t.order, k)
	}
	t.counts[k]++
}

// ranked sorts by count desc; ties keep first-seen order.
func (t *tally) ranked(minCount, limit int) []KeywordCount {
	out := make([]KeywordCount, 0, len(t.order))
	for _, k := range t.order {
		if c := t.counts[k]; c >= minCount {
			out = append(out, KeywordCount{Keyword: k, Count: c})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TopKeywords counts each keyword at most once per review and returns the
// limit most frequent. rs is expected to be filtered already.
func TopKeywords(rs []domain.Review, limit int) ([]KeywordCount, error) {
	ex, err := TopKeywordsWithRepresentative(rs, limit)
	if err != nil {
		return nil, err
	}
	out := make([]KeywordCount, len(ex))
	for i, e := range ex {
		out[i] = KeywordCount{Keyword: e.Keyword, Count: e.Count}
	}
	return out, nil
}

// TopKeywordsWithRepresentative is TopKeywords plus, per keyword, the
// content of the latest-dated review containing it.
func TopKeywordsWithRepresentative(rs []domain.Review, limit int) ([]KeywordExample, error) {
	if len(rs) == 0 {
		return nil, domain.NoData("no reviews matched the filter")
	}
	t := newTally()
	latest := map[string]string{}
	for _, r := range canonicalOrder(rs) {
		seen := make(map[string]struct{}, len(r.Keywords))
		for _, k := range r.Keywords {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			t.inc(k)
			// newest first, so the first hit is the representative
			if _, ok := latest[k]; !ok {
				latest[k] = r.Content
			}
		}
	}
	ranked := t.ranked(1, limit)
	if len(ranked) == 0 {
		return nil, domain.NoData("no keywords in matching reviews")
	}
	out := make([]KeywordExample, len(ranked))
	for i, kc := range ranked {
		out[i] = KeywordExample{Keyword: kc.Keyword, Count: kc.Count, LatestReview: latest[kc.Keyword]}
	}
	return out, nil
}

// WordFrequencies counts every occurrence (word-cloud input), drops keywords
// under MinCount and keeps at most MaxKeywords.
func WordFrequencies(rs []domain.Review, opts FrequencyOptions) ([]KeywordCount, error) {
	if len(rs) == 0 {
		return nil, domain.NoData("no reviews matched the filter")
	}
	if opts.MinCount < 1 {
		opts.MinCount = 1
	}
	t := newTally()
	for _, r := range canonicalOrder(rs) {
		for _, k := range r.Keywords {
			t.inc(k)
		}
	}
	out := t.ranked(opts.MinCount, opts.MaxKeywords)
	if len(out) == 0 {
		return nil, domain.NoData("no keywords above the frequency floor")
	}
	return out, nil
}

func FrequencyMap(kcs []KeywordCount) map[string]int {
	m := make(map[string]int, len(kcs))
	for _, kc := range kcs {
		m[kc.Keyword] = kc.Count
	}
	return m
}
