package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	server "reviewit/internal/adapters/http_server"
	"reviewit/internal/adapters/objectstore"
	"reviewit/internal/adapters/observability"
	redisad "reviewit/internal/adapters/redis"
	"reviewit/internal/adapters/renderer"
	"reviewit/internal/adapters/summarizer"
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

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "api")

	// object storage: review files and rendered images
	store, err := objectstore.New(objectstore.Config{
		Endpoint:      cfg.S3Endpoint,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		Bucket:        cfg.S3Bucket,
		Region:        cfg.S3Region,
		UseSSL:        cfg.S3UseSSL,
		PublicBaseURL: cfg.S3PublicBase,
		Prefix:        cfg.SourcePrefix,
		Delimiter:     cfg.FileDelimiter,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("object store init failed")
	}

	// review source + directory
	var (
		src domain.ReviewSource
		dir domain.Directory
	)
	switch cfg.SourceKind {
	case "object":
		src = store
		dir = app.NewStaticDirectory(cfg.Companies, cfg.Departments)
		log.Info().Str("bucket", cfg.S3Bucket).Str("prefix", cfg.SourcePrefix).Msg("reading review files")
	default:
		db, err := sqlrepo.Open(ctx, cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("database connect failed")
		}
		defer db.Close()
		log.Info().Str("driver", cfg.DBDriver).Msg("database connection ok")
		repo := sqlrepo.New(db)
		src, dir = repo, repo
	}

	var rend domain.Renderer
	if cfg.RendererURL != "" {
		rc, err := renderer.New(cfg.RendererURL, cfg.RendererRPS, store)
		if err != nil {
			log.Fatal().Err(err).Msg("renderer init failed")
		}
		rend = rc
	}

	var llm domain.Summarizer
	if cfg.AnthropicKey != "" {
		sc, err := summarizer.New(summarizer.Config{
			APIKey:     cfg.AnthropicKey,
			Model:      cfg.AnthropicModel,
			MaxRetries: 2,
			RPS:        2,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("summarizer init failed")
		}
		llm = sc
	}

	var cache domain.Cache
	rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	if err := rc.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, serving without cache")
	} else {
		cache = rc
	}
	cancel()

	// services
	norm := analytics.Normalizer{Location: time.Local}
	fetch := app.NewFetcher(src, dir, norm, cfg.FetchWorkers)
	opts := app.Options{
		WindowDays:      cfg.WindowDays,
		TopKeywords:     cfg.TopKeywords,
		QuarterKeywords: cfg.QuarterKeywords,
		WordCloud: analytics.FrequencyOptions{
			MinCount:    cfg.WordCloudMinCount,
			MaxKeywords: cfg.WordCloudMaxKeyword,
		},
		CacheTTL:     cfg.CacheTTL,
		FetchWorkers: cfg.FetchWorkers,
	}
	a := app.NewAnalyticsService(fetch, dir, rend, cache, opts)
	policy := app.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.SummaryMaxAttempts
	policy.Delay = cfg.SummaryRetryDelay
	s := app.NewSummaryService(fetch, dir, llm, policy, cfg.WindowDays)

	// http
	srv := server.New(0)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{A: a, S: s})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("source", cfg.SourceKind).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
