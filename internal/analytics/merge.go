package analytics

import (
	"errors"

	"reviewit/internal/domain"
)

// Union normalizes every batch and concatenates the results. Company
// identity stays on each record. Rows that can't be attributed are counted
// in the returned Skips, never fatal.
func Union(n Normalizer, batches ...domain.SourceBatch) ([]domain.Review, Skips) {
	skips := Skips{}
	total := 0
	for _, b := range batches {
		total += len(b.Rows)
	}
	out := make([]domain.Review, 0, total)
	seq := 0
	for _, b := range batches {
		for _, raw := range b.Rows {
			rv, err := n.Normalize(raw, b.Company, b.Delimiter)
			if err != nil {
				var se *SkipError
				if errors.As(err, &se) {
					skips.Add(se.Reason, 1)
				}
				continue
			}
			rv.Seq = seq
			seq++
			out = append(out, rv)
		}
	}
	return out, skips
}
