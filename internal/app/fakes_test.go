package app_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"reviewit/internal/analytics"
	"reviewit/internal/app"
	"reviewit/internal/domain"
)

// ---- fakes ----

type fakeSource struct {
	mu    sync.Mutex
	rows  map[string][]domain.RawRow // "company" or "company/department"
	fail  map[string]error
	calls int
}

func (f *fakeSource) Fetch(_ context.Context, scope domain.Scope) (domain.SourceBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	key := scope.Company.Name
	if scope.Department != nil {
		key += "/" + scope.Department.Name
	}
	if err := f.fail[key]; err != nil {
		return domain.SourceBatch{}, err
	}
	rows, ok := f.rows[key]
	if !ok {
		return domain.SourceBatch{}, domain.NoSourceData("missing "+key, nil)
	}
	return domain.SourceBatch{Company: scope.Company, Rows: rows, Delimiter: domain.DelimSpace}, nil
}

// fakeCache round-trips through JSON like the real one.
type fakeCache struct {
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(_ context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(_ context.Context, key string, v any, _ time.Duration) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(_ context.Context, key string) error {
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

type fakeRenderer struct {
	mu   sync.Mutex
	reqs []domain.RenderRequest
	err  error
}

func (r *fakeRenderer) Render(_ context.Context, req domain.RenderRequest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
	if r.err != nil {
		return "", r.err
	}
	return "https://cdn.test/" + req.Scope + "/" + req.Sentiment.String() + ".png", nil
}

type fakeSummarizer struct {
	replies []string
	errs    []error
	prompts []string
}

func (s *fakeSummarizer) Complete(_ context.Context, prompt string, _ int) (string, error) {
	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.replies) {
		return s.replies[i], nil
	}
	if len(s.replies) > 0 {
		return s.replies[len(s.replies)-1], nil
	}
	return "", nil
}

type fakeStore struct {
	companies []domain.Company
	reviews   []domain.Review
	misses    []string
}

func (s *fakeStore) UpsertCompany(_ context.Context, c domain.Company) error {
	s.companies = append(s.companies, c)
	return nil
}

func (s *fakeStore) InsertReviews(_ context.Context, rs []domain.Review) error {
	s.reviews = append(s.reviews, rs...)
	return nil
}

func (s *fakeStore) LogMiss(_ context.Context, _ int64, reason string) error {
	s.misses = append(s.misses, reason)
	return nil
}

// ---- fixtures ----

var (
	coupang = domain.Company{ID: 1, Name: "coupang"}
	gmarket = domain.Company{ID: 3, Name: "gmarket"}
	temu    = domain.Company{ID: 5, Name: "temu"}
	csDept  = domain.Department{ID: 7, Name: "CS"}
)

var now = time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func daysAgo(n int) string { return now.AddDate(0, 0, -n).Format("2006-01-02 15:04:05") }

func row(date, positive, score, cleaned, content string) domain.RawRow {
	r := domain.RawRow{"content": content, "cleaned_text": cleaned}
	if date != "" {
		r["date"] = date
	}
	if positive != "" {
		r["positive"] = positive
	}
	if score != "" {
		r["score"] = score
	}
	return r
}

func newDirectory() *app.StaticDirectory {
	return app.NewStaticDirectory([]domain.Company{coupang, gmarket, temu}, []domain.Department{csDept})
}

func newFetcher(src domain.ReviewSource) *app.Fetcher {
	return app.NewFetcher(src, newDirectory(), analytics.Normalizer{Location: time.UTC}, 2)
}
