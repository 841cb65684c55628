package analytics

import "reviewit/internal/domain"

// MonthlyAverages returns month (1..12) -> mean score for reviews dated in
// year. Undated or unscored reviews don't count. Months without data are absent.
func MonthlyAverages(rs []domain.Review, year int) map[int]float64 {
	sums := map[int]float64{}
	counts := map[int]int{}
	for _, r := range rs {
		if !r.HasDate() || r.Score == nil || r.Date.Year() != year {
			continue
		}
		m := int(r.Date.Month())
		sums[m] += *r.Score
		counts[m]++
	}
	out := make(map[int]float64, len(sums))
	for m, s := range sums {
		out[m] = Round2(s / float64(counts[m]))
	}
	return out
}
