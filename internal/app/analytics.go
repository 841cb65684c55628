package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"reviewit/internal/analytics"
	"reviewit/internal/domain"
)

// AnalyticsService computes the read-side views. Every call builds its own
// record set; computed results are cached per day when a cache is set.
type AnalyticsService struct {
	fetch    *Fetcher
	dir      domain.Directory
	renderer domain.Renderer
	cache    domain.Cache
	opts     Options
	now      func() time.Time
}

func NewAnalyticsService(f *Fetcher, dir domain.Directory, r domain.Renderer, c domain.Cache, opts Options) *AnalyticsService {
	return &AnalyticsService{fetch: f, dir: dir, renderer: r, cache: c, opts: opts.withDefaults(), now: time.Now}
}

// WithClock replaces time.Now, for tests.
func (s *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	s.now = now
	return s
}

func (s *AnalyticsService) trailing(sent domain.Sentiment) analytics.Filter {
	return analytics.Filter{Window: analytics.TrailingDays(s.opts.WindowDays), Sentiment: sent}
}

func (s *AnalyticsService) apply(view, scope string, rs []domain.Review, f analytics.Filter) []domain.Review {
	out, skips := f.Apply(rs, s.now())
	observeSkips(view, scope, skips)
	return out
}

func (s *AnalyticsService) key(view string, id int64, extra string) string {
	return viewKey(view, id, extra, s.now())
}

func (s *AnalyticsService) companyReviews(ctx context.Context, companyID int64) (domain.Company, []domain.Review, error) {
	c, err := s.dir.Company(ctx, companyID)
	if err != nil {
		return domain.Company{}, nil, err
	}
	rs, err := s.fetch.Scope(ctx, domain.Scope{Company: c})
	return c, rs, err
}

// WordCloud renders the trailing-window word cloud of one company.
func (s *AnalyticsService) WordCloud(ctx context.Context, companyID int64, sent domain.Sentiment) (WordCloud, error) {
	return cached(ctx, s.cache, s.opts.CacheTTL, s.key("wordcloud", companyID, sent.String()), func() (WordCloud, error) {
		c, rs, err := s.companyReviews(ctx, companyID)
		if err != nil {
			return WordCloud{}, err
		}
		return s.wordCloud(ctx, c.Name, sent, rs)
	})
}

// WordCloudAll renders one word cloud over every readable company source.
func (s *AnalyticsService) WordCloudAll(ctx context.Context, sent domain.Sentiment) (WordCloud, error) {
	return cached(ctx, s.cache, s.opts.CacheTTL, s.key("wordcloud", 0, sent.String()), func() (WordCloud, error) {
		rs, err := s.fetch.All(ctx)
		if err != nil {
			return WordCloud{}, err
		}
		return s.wordCloud(ctx, AllScope, sent, rs)
	})
}

func (s *AnalyticsService) wordCloud(ctx context.Context, scope string, sent domain.Sentiment, rs []domain.Review) (WordCloud, error) {
	filtered := s.apply("wordcloud", scope, rs, s.trailing(sent))
	kcs, err := analytics.WordFrequencies(filtered, s.opts.WordCloud)
	if err != nil {
		return WordCloud{}, err
	}
	out := WordCloud{Keywords: kcs}
	if s.renderer == nil {
		return out, nil
	}
	url, err := s.renderer.Render(ctx, domain.RenderRequest{
		Scope:       scope,
		Sentiment:   sent,
		Frequencies: analytics.FrequencyMap(kcs),
		Mask:        domain.CircleMask{Size: s.opts.MaskSize},
	})
	if err != nil {
		return WordCloud{}, fmt.Errorf("render word cloud for %s: %w", scope, err)
	}
	out.URL = url
	return out, nil
}

// TopKeywords ranks keywords by the number of trailing-window reviews of
// the given sentiment that mention them.
func (s *AnalyticsService) TopKeywords(ctx context.Context, companyID int64, sent domain.Sentiment) ([]analytics.KeywordExample, error) {
	return cached(ctx, s.cache, s.opts.CacheTTL, s.key("top_keywords", companyID, sent.String()), func() ([]analytics.KeywordExample, error) {
		c, rs, err := s.companyReviews(ctx, companyID)
		if err != nil {
			return nil, err
		}
		return analytics.TopKeywordsWithRepresentative(s.apply("top_keywords", c.Name, rs, s.trailing(sent)), s.opts.TopKeywords)
	})
}

// QuarterKeywords counts every keyword occurrence in the current quarter.
func (s *AnalyticsService) QuarterKeywords(ctx context.Context, companyID int64) ([]analytics.KeywordCount, error) {
	q := analytics.QuarterOf(s.now())
	return cached(ctx, s.cache, s.opts.CacheTTL, s.key("quarter_keywords", companyID, q.String()), func() ([]analytics.KeywordCount, error) {
		c, rs, err := s.companyReviews(ctx, companyID)
		if err != nil {
			return nil, err
		}
		filtered := s.apply("quarter_keywords", c.Name, rs, analytics.Filter{Window: q})
		return analytics.WordFrequencies(filtered, analytics.FrequencyOptions{MinCount: 1, MaxKeywords: s.opts.QuarterKeywords})
	})
}

// ReviewsByKeyword lists trailing-window reviews containing keyword.
// SentimentUnknown means both sentiments.
func (s *AnalyticsService) ReviewsByKeyword(ctx context.Context, companyID int64, keyword string, sent domain.Sentiment) ([]KeywordHit, error) {
	c, rs, err := s.companyReviews(ctx, companyID)
	if err != nil {
		return nil, err
	}
	hits := analytics.Search(s.apply("keyword_search", c.Name, rs, s.trailing(sent)), keyword)
	return toKeywordHits(hits), nil
}

func (s *AnalyticsService) ScoreRanking(ctx context.Context) ([]analytics.Rank, error) {
	return cached(ctx, s.cache, s.opts.CacheTTL, s.key("score_ranking", 0, ""), func() ([]analytics.Rank, error) {
		rs, err := s.fetch.All(ctx)
		if err != nil {
			return nil, err
		}
		return analytics.RankByScore(analytics.GroupByCompany(rs))
	})
}

func (s *AnalyticsService) PositiveRateRanking(ctx context.Context) ([]analytics.Rank, error) {
	return cached(ctx, s.cache, s.opts.CacheTTL, s.key("positive_ranking", 0, ""), func() ([]analytics.Rank, error) {
		rs, err := s.fetch.All(ctx)
		if err != nil {
			return nil, err
		}
		return analytics.RankByPositiveRate(analytics.GroupByCompany(rs))
	})
}

// CompanyStatistics compares the company's monthly average score for the
// current year against every other company combined.
func (s *AnalyticsService) CompanyStatistics(ctx context.Context, companyID int64) (Statistics, error) {
	year := s.now().Year()
	return cached(ctx, s.cache, s.opts.CacheTTL, statisticsKey(companyID, s.now()), func() (Statistics, error) {
		c, err := s.dir.Company(ctx, companyID)
		if err != nil {
			return Statistics{}, err
		}
		rs, err := s.fetch.All(ctx)
		if err != nil {
			return Statistics{}, err
		}
		var own, others []domain.Review
		for _, r := range rs {
			if r.CompanyID == c.ID {
				own = append(own, r)
			} else {
				others = append(others, r)
			}
		}
		if len(own) == 0 {
			return Statistics{}, domain.NoData("no reviews for " + c.Name)
		}
		return Statistics{
			Company:      c.Name,
			Year:         year,
			TotalReviews: len(own),
			Monthly:      toMonthScores(analytics.MonthlyAverages(own, year)),
			Industry:     toMonthScores(analytics.MonthlyAverages(others, year)),
		}, nil
	})
}

// CompanyReviews lists every review of the company, newest first.
func (s *AnalyticsService) CompanyReviews(ctx context.Context, companyID int64) ([]ReviewView, error) {
	c, rs, err := s.companyReviews(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, domain.NoData("no reviews for " + c.Name)
	}
	return toReviewViews(rs), nil
}

// DepartmentReviews lists the reviews assigned to one department of the company.
func (s *AnalyticsService) DepartmentReviews(ctx context.Context, companyID, departmentID int64) ([]ReviewView, error) {
	c, err := s.dir.Company(ctx, companyID)
	if err != nil {
		return nil, err
	}
	d, err := s.dir.Department(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	rs, err := s.fetch.Scope(ctx, domain.Scope{Company: c, Department: &d})
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, domain.NoData(fmt.Sprintf("no reviews for %s/%s", c.Name, d.Name))
	}
	return toReviewViews(rs), nil
}

// cached reads key from c or computes and stores the value. Cache errors
// are logged and never fail the request.
func cached[T any](ctx context.Context, c domain.Cache, ttl time.Duration, key string, compute func() (T, error)) (T, error) {
	if c != nil {
		var hit T
		ok, err := c.Get(ctx, key, &hit)
		if err != nil {
			log.Debug().Err(err).Str("key", key).Msg("cache_get_failed")
		} else if ok {
			return hit, nil
		}
	}
	v, err := compute()
	if err != nil {
		return v, err
	}
	if c != nil {
		if err := c.Set(ctx, key, v, ttl); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("cache_set_failed")
		}
	}
	return v, nil
}
