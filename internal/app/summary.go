package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"reviewit/internal/adapters/observability"
	"reviewit/internal/analytics"
	"reviewit/internal/domain"
)

const (
	NoReviewsSummary  = "리뷰 데이터 없음"
	FallbackPositive  = "편리하다"
	FallbackNegative  = "불편하다"
	headlineMaxTokens = 200
	topicsMaxTokens   = 700
	reportMaxTokens   = 500
)

// SummaryService assembles review texts for the summarization collaborator
// and absorbs its failures with fixed fallbacks.
type SummaryService struct {
	fetch      *Fetcher
	dir        domain.Directory
	llm        domain.Summarizer
	policy     RetryPolicy
	windowDays int
	topK       int
	now        func() time.Time
}

func NewSummaryService(f *Fetcher, dir domain.Directory, llm domain.Summarizer, policy RetryPolicy, windowDays int) *SummaryService {
	if windowDays <= 0 {
		windowDays = analytics.DefaultTrailingDays
	}
	return &SummaryService{fetch: f, dir: dir, llm: llm, policy: policy, windowDays: windowDays, topK: 2, now: time.Now}
}

func (s *SummaryService) WithClock(now func() time.Time) *SummaryService {
	s.now = now
	return s
}

func (s *SummaryService) recent(rs []domain.Review, scope string) []domain.Review {
	out, skips := analytics.Filter{Window: analytics.TrailingDays(s.windowDays)}.Apply(rs, s.now())
	observeSkips("summary", scope, skips)
	return out
}

func split(rs []domain.Review) (pos, neg []string) {
	for _, r := range newestFirst(rs) {
		switch r.Sentiment {
		case domain.SentimentPositive:
			pos = append(pos, r.Content)
		case domain.SentimentNegative:
			neg = append(neg, r.Content)
		}
	}
	return pos, neg
}

// QuarterlySummary writes one short sentence for the sentiment that
// dominates the trailing window (positive on ties).
func (s *SummaryService) QuarterlySummary(ctx context.Context, companyID int64) (QuarterlySummary, error) {
	c, err := s.dir.Company(ctx, companyID)
	if err != nil {
		return QuarterlySummary{}, err
	}
	rs, err := s.fetch.Scope(ctx, domain.Scope{Company: c})
	if err != nil && !errors.Is(err, domain.ErrNoSourceData) {
		return QuarterlySummary{}, err
	}
	if len(rs) == 0 {
		return QuarterlySummary{Summary: NoReviewsSummary, Positive: true}, nil
	}

	pos, neg := split(s.recent(rs, c.Name))
	positive := len(pos) >= len(neg)
	texts := neg
	if positive {
		texts = pos
	}
	if len(texts) == 0 {
		return QuarterlySummary{}, domain.NoData("no recent reviews for " + c.Name)
	}

	out := QuarterlySummary{Positive: positive}
	if s.llm != nil {
		prompt := headlinePrompt(positive, texts)
		out.Summary, err = s.policy.Run(ctx, func(ctx context.Context) (string, error) {
			return s.llm.Complete(ctx, prompt, headlineMaxTokens)
		})
	} else {
		err = domain.SummarizationUnavailable(fmt.Errorf("no summarizer configured"))
	}
	if err != nil {
		out.Summary = FallbackNegative
		if positive {
			out.Summary = FallbackPositive
		}
		observability.ObserveSummaryFallback("quarterly")
		log.Warn().Err(err).Str("company", c.Name).Bool("positive", positive).Msg("summary_fallback")
	}
	return out, nil
}

// DepartmentSummary condenses each sentiment's recent reviews into topK
// topics and writes a short report from them.
func (s *SummaryService) DepartmentSummary(ctx context.Context, companyID, departmentID int64) (DepartmentSummary, error) {
	c, err := s.dir.Company(ctx, companyID)
	if err != nil {
		return DepartmentSummary{}, err
	}
	d, err := s.dir.Department(ctx, departmentID)
	if err != nil {
		return DepartmentSummary{}, err
	}
	rs, err := s.fetch.Scope(ctx, domain.Scope{Company: c, Department: &d})
	if err != nil {
		return DepartmentSummary{}, err
	}
	recent := s.recent(rs, c.Name+"/"+d.Name)
	if len(recent) == 0 {
		return DepartmentSummary{}, domain.NoData(fmt.Sprintf("no recent reviews for %s/%s", c.Name, d.Name))
	}

	out := DepartmentSummary{Department: d.Name, Positive: []Topic{}, Negative: []Topic{}}
	if s.llm == nil {
		observability.ObserveSummaryFallback("department")
		return out, nil
	}
	pos, neg := split(recent)
	out.Positive = s.topics(ctx, d.Name, true, pos)
	out.Negative = s.topics(ctx, d.Name, false, neg)

	report, err := s.llm.Complete(ctx, reportPrompt(d.Name, out.Positive, out.Negative), reportMaxTokens)
	if err != nil {
		observability.ObserveSummaryFallback("department_report")
		log.Warn().Err(domain.SummarizationUnavailable(err)).Str("department", d.Name).Msg("summary_fallback")
		return out, nil
	}
	out.Report = report
	return out, nil
}

func (s *SummaryService) topics(ctx context.Context, department string, positive bool, texts []string) []Topic {
	if len(texts) == 0 {
		return []Topic{}
	}
	resp, err := s.llm.Complete(ctx, topicsPrompt(positive, s.topK, texts), topicsMaxTokens)
	if err != nil {
		observability.ObserveSummaryFallback("department_topics")
		log.Warn().Err(domain.SummarizationUnavailable(err)).Str("department", department).
			Str("sentiment", sentimentLabel(positive)).Msg("summary_fallback")
		return []Topic{}
	}
	ts := ParseTopics(resp)
	if len(ts) > s.topK {
		ts = ts[:s.topK]
	}
	if ts == nil {
		ts = []Topic{}
	}
	return ts
}
