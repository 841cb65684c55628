package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"reviewit/internal/analytics"
	"reviewit/internal/domain"
)

// IngestStats reports what one company's ingestion did.
type IngestStats struct {
	Company  string
	Rows     int
	Inserted int
	Skipped  int
	Missing  bool
}

// IngestionService copies review files into the relational store.
type IngestionService struct {
	src   domain.ReviewSource
	store domain.ReviewStore
	cache domain.Cache
	dir   domain.Directory
	norm  analytics.Normalizer
	now   func() time.Time
}

func NewIngestionService(src domain.ReviewSource, store domain.ReviewStore, cache domain.Cache, norm analytics.Normalizer) *IngestionService {
	return &IngestionService{src: src, store: store, cache: cache, norm: norm, now: time.Now}
}

// WithDirectory makes ingestion also drop every listed company's cached
// statistics, whose industry average reads all companies.
func (s *IngestionService) WithDirectory(dir domain.Directory) *IngestionService {
	s.dir = dir
	return s
}

// IngestCompany upserts the company, then its reviews. A missing source
// file is recorded as a miss and is not an error.
func (s *IngestionService) IngestCompany(ctx context.Context, c domain.Company) (IngestStats, error) {
	st := IngestStats{Company: c.Name}
	if err := s.store.UpsertCompany(ctx, c); err != nil {
		return st, fmt.Errorf("upsert company %s: %w", c.Name, err)
	}

	b, err := s.src.Fetch(ctx, domain.Scope{Company: c})
	if err != nil {
		if errors.Is(err, domain.ErrNoSourceData) {
			st.Missing = true
			if lerr := s.store.LogMiss(ctx, c.ID, "source missing"); lerr != nil {
				log.Warn().Err(lerr).Str("company", c.Name).Msg("log miss failed")
			}
			s.invalidate(ctx, c.ID)
			return st, nil
		}
		return st, fmt.Errorf("fetch %s: %w", c.Name, err)
	}
	st.Rows = len(b.Rows)

	rs, skips := analytics.Union(s.norm, b)
	st.Skipped = skips.Total()
	observeSkips("ingest", c.Name, skips)

	if err := s.store.InsertReviews(ctx, rs); err != nil {
		return st, fmt.Errorf("insert reviews for %s: %w", c.Name, err)
	}
	st.Inserted = len(rs)
	s.invalidate(ctx, c.ID)
	return st, nil
}

// invalidate drops today's cached views that read this company.
func (s *IngestionService) invalidate(ctx context.Context, companyID int64) {
	if s.cache == nil {
		return
	}
	now := s.now()
	keys := companyViewKeys(companyID, now)
	if s.dir != nil {
		cs, err := s.dir.Companies(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("list companies for invalidation failed")
		}
		for _, c := range cs {
			if c.ID != companyID {
				keys = append(keys, statisticsKey(c.ID, now))
			}
		}
	}
	for _, k := range keys {
		_ = s.cache.Del(ctx, k)
	}
}
