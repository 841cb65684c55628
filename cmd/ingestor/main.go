package main

import (
	"context"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"reviewit/internal/adapters/objectstore"
	"reviewit/internal/adapters/observability"
	redisad "reviewit/internal/adapters/redis"
	"reviewit/internal/analytics"
	"reviewit/internal/app"
	"reviewit/internal/domain"
	"reviewit/internal/shared"
	"reviewit/internal/storage/sqlrepo"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "ingestor")
	observability.Serve(cfg.MetricsAddr, observability.InitRegistry())

	log.Info().
		Str("bucket", cfg.S3Bucket).
		Str("prefix", cfg.SourcePrefix).
		Int("workers", cfg.IngestWorkers).
		Int("companies", len(cfg.Companies)).
		Msg("ingestor starting")

	db, err := sqlrepo.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database connect failed")
	}
	defer db.Close()
	log.Info().Str("driver", cfg.DBDriver).Msg("db ping ok")
	repo := sqlrepo.New(db)

	store, err := objectstore.New(objectstore.Config{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		UseSSL:    cfg.S3UseSSL,
		Prefix:    cfg.SourcePrefix,
		Delimiter: cfg.FileDelimiter,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("object store init failed")
	}

	var cache domain.Cache
	rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := rc.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, cached views will expire on their own")
	} else {
		cache = rc
	}

	ing := app.NewIngestionService(store, repo, cache, analytics.Normalizer{Location: time.Local}).
		WithDirectory(repo)
	sem := semaphore.NewWeighted(int64(cfg.IngestWorkers))
	var (
		wg                       sync.WaitGroup
		inserted, skipped, fails atomic.Int64
	)

	for _, c := range cfg.Companies {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("ingestion interrupted")
			break
		}

		wg.Add(1)
		go func(c domain.Company) {
			defer wg.Done()
			defer sem.Release(1)

			st, err := ing.IngestCompany(ctx, c)
			if err != nil {
				fails.Add(1)
				log.Warn().Str("company", c.Name).Err(err).Msg("ingest failed")
				return
			}
			inserted.Add(int64(st.Inserted))
			skipped.Add(int64(st.Skipped))
			log.Info().
				Str("company", c.Name).
				Int("rows", st.Rows).
				Int("inserted", st.Inserted).
				Int("skipped", st.Skipped).
				Bool("missing", st.Missing).
				Msg("ingest ok")
		}(c)
	}

	wg.Wait()
	log.Info().
		Int64("inserted", inserted.Load()).
		Int64("skipped", skipped.Load()).
		Int64("failed", fails.Load()).
		Msg("ingestion completed")
}
