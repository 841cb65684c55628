package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"reviewit/internal/adapters/observability"
	"reviewit/internal/analytics"
	"reviewit/internal/domain"
)

// Fetcher materializes canonical records for one scope or for every
// known company.
type Fetcher struct {
	src     domain.ReviewSource
	dir     domain.Directory
	norm    analytics.Normalizer
	workers int
}

func NewFetcher(src domain.ReviewSource, dir domain.Directory, norm analytics.Normalizer, workers int) *Fetcher {
	if workers <= 0 {
		workers = 8
	}
	return &Fetcher{src: src, dir: dir, norm: norm, workers: workers}
}

// Scope fetches and normalizes a single scope. Source errors, including
// ErrNoSourceData, are returned as is.
func (f *Fetcher) Scope(ctx context.Context, scope domain.Scope) ([]domain.Review, error) {
	b, err := f.src.Fetch(ctx, scope)
	if err != nil {
		return nil, err
	}
	rs, skips := analytics.Union(f.norm, b)
	observeSkips("normalize", scope.Company.Name, skips)
	return rs, nil
}

// All fans out over every company in the directory. Unreadable sources are
// logged and skipped; only when none could be read is the result NoData.
func (f *Fetcher) All(ctx context.Context) ([]domain.Review, error) {
	companies, err := f.dir.Companies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	if len(companies) == 0 {
		return nil, domain.NoData("no companies configured")
	}

	batches := make([]*domain.SourceBatch, len(companies))
	sem := semaphore.NewWeighted(int64(f.workers))
	var wg sync.WaitGroup

	for i, c := range companies {
		// acquire before launching; release inside the goroutine
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int, c domain.Company) {
			defer wg.Done()
			defer sem.Release(1)

			b, err := f.src.Fetch(ctx, domain.Scope{Company: c})
			if err != nil {
				observability.ObserveSourceFailure(c.Name)
				log.Warn().Err(err).Str("company", c.Name).Str("kind", string(domain.KindPartialSourceFailure)).Msg("source_fetch_failed")
				return
			}
			batches[i] = &b
		}(i, c)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ok []domain.SourceBatch
	for _, b := range batches {
		if b != nil {
			ok = append(ok, *b)
		}
	}
	if len(ok) == 0 {
		return nil, domain.NoData("no readable review source")
	}
	rs, skips := analytics.Union(f.norm, ok...)
	observeSkips("normalize", "ALL", skips)
	return rs, nil
}

func observeSkips(view, scope string, skips analytics.Skips) {
	if skips.Total() == 0 {
		return
	}
	counts := make(map[string]int, len(skips))
	ev := log.Warn().Str("view", view).Str("scope", scope).Str("kind", string(domain.KindMalformedRecord))
	for reason, n := range skips {
		counts[string(reason)] = n
		ev = ev.Int(string(reason), n)
	}
	observability.ObserveSkips(view, counts)
	ev.Msg("records_skipped")
}
