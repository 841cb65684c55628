// Package analytics computes review views (keyword rankings, word-cloud
// frequencies, keyword search, score rankings) from canonical records.
// Nothing here performs I/O; callers fetch rows and hand them in.
package analytics

import (
	"math"
	"strconv"
	"strings"
	"time"

	"reviewit/internal/domain"
)

/********** alias registry (file headers and column names) **********/

var rowAliases = map[string][]string{
	"id":           {"id", "review_id", "reviewId"},
	"company_id":   {"company_id", "companyId"},
	"company_name": {"company_name", "company", "companyName"},
	"department":   {"department", "department_name", "dept"},
	"content":      {"content", "review", "text", "body"},
	"cleaned_text": {"cleaned_text", "cleanedText", "keywords", "tokens"},
	"date":         {"date", "created_at", "written_at", "review_date"},
	"sentiment":    {"positive", "sentiment", "label"},
	"score":        {"score", "rating", "rate"},
	"likes":        {"likes", "like", "like_count"},
}

// Date layouts accepted for string dates, most specific first.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02",
}

// Normalizer converts raw rows into canonical reviews. Soft failures (date,
// sentiment, score) are flagged on the record; only rows that can't be
// attributed to a company are skipped outright.
type Normalizer struct {
	Location *time.Location // zone for dates without offset; nil = time.Local
}

// SkipError is returned for rows that cannot become a record at all.
type SkipError struct{ Reason domain.SkipReason }

func (e *SkipError) Error() string { return "skip row: " + string(e.Reason) }

func (n Normalizer) loc() *time.Location {
	if n.Location == nil {
		return time.Local
	}
	return n.Location
}

// Normalize maps one row. company is the batch owner; it wins over any
// company field in the row.
func (n Normalizer) Normalize(raw domain.RawRow, company domain.Company, delim domain.KeywordDelimiter) (domain.Review, error) {
	if len(raw) == 0 {
		return domain.Review{}, &SkipError{Reason: domain.SkipEmptyRow}
	}

	rv := domain.Review{CompanyID: company.ID, CompanyName: company.Name}
	if rv.CompanyID == 0 {
		if id, ok := intField(raw, "company_id"); ok {
			rv.CompanyID = id
		}
	}
	if rv.CompanyName == "" {
		rv.CompanyName = strField(raw, "company_name")
	}
	if rv.CompanyID == 0 && rv.CompanyName == "" {
		return domain.Review{}, &SkipError{Reason: domain.SkipUnknownCompany}
	}

	if id, ok := intField(raw, "id"); ok {
		rv.ID = id
	}
	rv.Department = strings.TrimSpace(strField(raw, "department"))
	rv.Content = strField(raw, "content")
	rv.Keywords = SplitKeywords(strField(raw, "cleaned_text"), delim)

	if t, ok := n.parseDate(field(raw, "date")); ok {
		rv.Date = t
	} else {
		rv.Issues |= domain.IssueBadDate
	}

	rv.Sentiment = CoerceSentiment(field(raw, "sentiment"))
	if rv.Sentiment == domain.SentimentUnknown {
		rv.Issues |= domain.IssueBadSentiment
	}

	switch f, present := floatFlexible(field(raw, "score")); {
	case f != nil:
		rv.Score = f
	case present:
		rv.Issues |= domain.IssueBadScore
	}

	if l, ok := intField(raw, "likes"); ok && l > 0 {
		rv.Likes = int(l)
	}
	return rv, nil
}

// SplitKeywords tokenizes cleaned text. Multiplicity and order are kept.
func SplitKeywords(text string, delim domain.KeywordDelimiter) []string {
	var parts []string
	if delim == domain.DelimComma {
		parts = strings.Split(text, ",")
	} else {
		parts = strings.Fields(text)
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// CoerceSentiment parses numerically ("1", "1.0", 1, 1.0, true) and rounds
// to the nearest integer; only 1 and 0 are accepted.
func CoerceSentiment(v any) domain.Sentiment {
	var f float64
	switch t := v.(type) {
	case bool:
		if t {
			return domain.SentimentPositive
		}
		return domain.SentimentNegative
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case []byte:
		return CoerceSentiment(string(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return domain.SentimentUnknown
		}
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			switch strings.ToLower(s) {
			case "true", "positive":
				return domain.SentimentPositive
			case "false", "negative":
				return domain.SentimentNegative
			}
			return domain.SentimentUnknown
		}
		f = x
	default:
		return domain.SentimentUnknown
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return domain.SentimentUnknown
	}
	switch math.Round(f) {
	case 1:
		return domain.SentimentPositive
	case 0:
		return domain.SentimentNegative
	}
	return domain.SentimentUnknown
}

func (n Normalizer) parseDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	case []byte:
		return n.parseDate(string(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if ts, err := time.ParseInLocation(layout, s, n.loc()); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

/********** tiny helpers **********/

// field returns the first present alias value for key.
func field(raw domain.RawRow, key string) any {
	for _, k := range rowAliases[key] {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func strField(raw domain.RawRow, key string) string {
	switch v := field(raw, key).(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case *string:
		if v != nil {
			return *v
		}
	}
	return ""
}

func intField(raw domain.RawRow, key string) (int64, bool) {
	switch v := field(raw, key).(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case []byte:
		n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		return n, err == nil
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		// spreadsheets export integer columns as "3.0"
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f), true
		}
	}
	return 0, false
}

// floatFlexible reads float64/int/string like "4,5". present reports whether
// a non-empty value was there at all, so callers can tell missing from bad.
func floatFlexible(v any) (f *float64, present bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, true
		}
		x := t
		return &x, true
	case *float64:
		if t == nil {
			return nil, false
		}
		return floatFlexible(*t)
	case int:
		x := float64(t)
		return &x, true
	case int64:
		x := float64(t)
		return &x, true
	case []byte:
		return floatFlexible(string(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, false
		}
		// decimal comma ("4,5") only; "1,234" stays unparsable
		if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
			s = strings.Replace(s, ",", ".", 1)
		}
		x, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, true
		}
		return &x, true
	}
	return nil, true
}
