package analytics

import (
	"math"
	"sort"

	"reviewit/internal/domain"
)

type Rank struct {
	Rank        int     `json:"rank"`
	Name        string  `json:"company_name"`
	Average     float64 `json:"average_score"`
	ReviewCount int     `json:"review_count"`
}

// GroupByCompany keys records by company name.
func GroupByCompany(rs []domain.Review) map[string][]domain.Review {
	out := map[string][]domain.Review{}
	for _, r := range rs {
		out[r.CompanyName] = append(out[r.CompanyName], r)
	}
	return out
}

// GroupByDepartment keys records by department; "" collects unassigned ones.
func GroupByDepartment(rs []domain.Review) map[string][]domain.Review {
	out := map[string][]domain.Review{}
	for _, r := range rs {
		out[r.Department] = append(out[r.Department], r)
	}
	return out
}

// RankByScore ranks entities by mean score over reviews with a parsable
// score. Entities with no scored reviews are left out.
func RankByScore(groups map[string][]domain.Review) ([]Rank, error) {
	return rank(groups, func(r domain.Review) (float64, bool) {
		if r.Score == nil {
			return 0, false
		}
		return *r.Score, true
	})
}

// RankByPositiveRate ranks entities by the share of positive reviews among
// those with a coerced sentiment.
func RankByPositiveRate(groups map[string][]domain.Review) ([]Rank, error) {
	return rank(groups, func(r domain.Review) (float64, bool) {
		switch r.Sentiment {
		case domain.SentimentPositive:
			return 1, true
		case domain.SentimentNegative:
			return 0, true
		}
		return 0, false
	})
}

func rank(groups map[string][]domain.Review, value func(domain.Review) (float64, bool)) ([]Rank, error) {
	type agg struct {
		name string
		avg  float64
		n    int
	}
	aggs := make([]agg, 0, len(groups))
	for name, rs := range groups {
		sum, n := 0.0, 0
		for _, r := range rs {
			if v, ok := value(r); ok {
				sum += v
				n++
			}
		}
		if n == 0 {
			continue
		}
		aggs = append(aggs, agg{name: name, avg: sum / float64(n), n: n})
	}
	if len(aggs) == 0 {
		return nil, domain.NoData("no entity has a usable value to average")
	}
	sort.Slice(aggs, func(i, j int) bool {
		if aggs[i].avg != aggs[j].avg {
			return aggs[i].avg > aggs[j].avg
		}
		return aggs[i].name < aggs[j].name
	})
	out := make([]Rank, len(aggs))
	for i, a := range aggs {
		out[i] = Rank{Rank: i + 1, Name: a.name, Average: Round2(a.avg), ReviewCount: a.n}
	}
	return out, nil
}

func Round2(f float64) float64 { return math.Round(f*100) / 100 }
