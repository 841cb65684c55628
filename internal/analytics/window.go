package analytics

import (
	"fmt"
	"time"

	"reviewit/internal/domain"
)

const DefaultTrailingDays = 90

// Window bounds the dates a view looks at, relative to now.
type Window interface {
	Contains(t, now time.Time) bool
	String() string
}

// TrailingDays keeps records dated at or after now - n*24h.
type TrailingDays int

func (d TrailingDays) Contains(t, now time.Time) bool {
	return !t.Before(now.Add(-time.Duration(d) * 24 * time.Hour))
}

func (d TrailingDays) String() string { return fmt.Sprintf("trailing_%dd", int(d)) }

// Quarter is a calendar quarter, Q in 1..4.
type Quarter struct {
	Year int
	Q    int
}

func NewQuarter(year, q int) (Quarter, error) {
	if q < 1 || q > 4 {
		return Quarter{}, fmt.Errorf("quarter must be between 1 and 4, got %d", q)
	}
	return Quarter{Year: year, Q: q}, nil
}

// QuarterOf returns the quarter containing t.
func QuarterOf(t time.Time) Quarter {
	return Quarter{Year: t.Year(), Q: (int(t.Month())-1)/3 + 1}
}

// Bounds returns the first instant of the quarter and 23:59:59 of its last
// day. Month lengths come from the calendar (leap Februaries included).
func (q Quarter) Bounds(loc *time.Location) (start, end time.Time) {
	startMonth := time.Month(3*q.Q - 2)
	start = time.Date(q.Year, startMonth, 1, 0, 0, 0, 0, loc)
	endMonth := startMonth + 2
	// day 0 of the following month is the last day of endMonth
	lastDay := time.Date(q.Year, endMonth+1, 0, 0, 0, 0, 0, loc).Day()
	end = time.Date(q.Year, endMonth, lastDay, 23, 59, 59, 0, loc)
	return start, end
}

// Contains includes the whole final second, so 23:59:59.5 on the last day is in.
func (q Quarter) Contains(t, now time.Time) bool {
	start, end := q.Bounds(now.Location())
	return !t.Before(start) && t.Before(end.Add(time.Second))
}

func (q Quarter) String() string { return fmt.Sprintf("%d-Q%d", q.Year, q.Q) }

// CurrentQuarter resolves to the quarter containing now at evaluation time.
type CurrentQuarter struct{}

func (CurrentQuarter) Contains(t, now time.Time) bool { return QuarterOf(now).Contains(t, now) }

func (CurrentQuarter) String() string { return "current_quarter" }

// Filter selects records for a view. A zero Sentiment (SentimentUnknown)
// means no sentiment restriction; a nil Window means no date restriction.
type Filter struct {
	Window    Window
	Sentiment domain.Sentiment
}

// Apply returns the matching records in input order and a tally of the
// records dropped for malformed fields. It never fails.
func (f Filter) Apply(rs []domain.Review, now time.Time) ([]domain.Review, Skips) {
	skips := Skips{}
	out := make([]domain.Review, 0, len(rs))
	for _, r := range rs {
		if f.Window != nil {
			if !r.HasDate() {
				skips.Add(domain.SkipBadDate, 1)
				continue
			}
			if !f.Window.Contains(r.Date, now) {
				continue
			}
		}
		if f.Sentiment != domain.SentimentUnknown {
			if r.Sentiment == domain.SentimentUnknown {
				skips.Add(domain.SkipBadSentiment, 1)
				continue
			}
			if r.Sentiment != f.Sentiment {
				continue
			}
		}
		out = append(out, r)
	}
	return out, skips
}

// Skips tallies records excluded from a view, by reason.
type Skips map[domain.SkipReason]int

func (s Skips) Add(reason domain.SkipReason, n int) {
	if n > 0 {
		s[reason] += n
	}
}

func (s Skips) Merge(o Skips) {
	for k, v := range o {
		s.Add(k, v)
	}
}

func (s Skips) Total() int {
	n := 0
	for _, v := range s {
		n += v
	}
	return n
}
