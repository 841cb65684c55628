package domain

import "time"

type Sentiment int8

const (
	SentimentUnknown Sentiment = iota // coercion failed or field missing
	SentimentNegative
	SentimentPositive
)

func (s Sentiment) String() string {
	switch s {
	case SentimentPositive:
		return "positive"
	case SentimentNegative:
		return "negative"
	default:
		return "unknown"
	}
}

// ParseSentiment accepts the path/query form used by the API ("positive"|"negative").
func ParseSentiment(s string) (Sentiment, bool) {
	switch s {
	case "positive":
		return SentimentPositive, true
	case "negative":
		return SentimentNegative, true
	}
	return SentimentUnknown, false
}

// Issue flags soft normalization failures. A flagged record is still valid
// for views that don't depend on the flagged field.
type Issue uint8

const (
	IssueBadDate Issue = 1 << iota
	IssueBadSentiment
	IssueBadScore
)

func (i Issue) Has(f Issue) bool { return i&f != 0 }

// Review is the canonical, read-only form of a review row.
type Review struct {
	ID          int64
	CompanyID   int64
	CompanyName string
	Department  string // "" means unassigned
	Content     string
	Keywords    []string // original multiplicity, in text order
	Date        time.Time
	Sentiment   Sentiment
	Score       *float64
	Likes       int
	Issues      Issue
	Seq         int // position in the source batch
}

func (r Review) HasDate() bool { return !r.Issues.Has(IssueBadDate) && !r.Date.IsZero() }

// RawRow is a loosely typed source row: a CSV record keyed by header or a
// relational row keyed by column name.
type RawRow map[string]any

type KeywordDelimiter int

const (
	DelimSpace KeywordDelimiter = iota // canonical space-delimited cleaned_text
	DelimComma                         // legacy comma-delimited files
)

func ParseDelimiter(s string) (KeywordDelimiter, bool) {
	switch s {
	case "space", "":
		return DelimSpace, true
	case "comma":
		return DelimComma, true
	}
	return DelimSpace, false
}

// SourceBatch is one company's rows as returned by a ReviewSource.
type SourceBatch struct {
	Company   Company
	Rows      []RawRow
	Delimiter KeywordDelimiter
}

type SkipReason string

const (
	SkipBadDate        SkipReason = "bad_date"
	SkipBadSentiment   SkipReason = "bad_sentiment"
	SkipBadScore       SkipReason = "bad_score"
	SkipUnknownCompany SkipReason = "unknown_company"
	SkipEmptyRow       SkipReason = "empty_row"
)
