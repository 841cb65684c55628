//go:build integration || !unit

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	server "reviewit/internal/adapters/http_server"
	"reviewit/internal/analytics"
	"reviewit/internal/app"
	"reviewit/internal/domain"
	"reviewit/internal/storage/sqlrepo"
)

// ---------- helpers ----------

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Skipf("%s not set; export it (e.g. MIGRATIONS_DIR=$PWD/migrations/mysql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sqlx.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// rowsSource hands fixed rows to the ingestion service.
type rowsSource map[string][]domain.RawRow

func (s rowsSource) Fetch(_ context.Context, scope domain.Scope) (domain.SourceBatch, error) {
	rows, ok := s[scope.Company.Name]
	if !ok {
		return domain.SourceBatch{}, domain.NoSourceData("no file for "+scope.Company.Name, nil)
	}
	return domain.SourceBatch{Company: scope.Company, Rows: rows, Delimiter: domain.DelimComma}, nil
}

func startMySQL(t *testing.T) *sqlx.DB {
	t.Helper()
	mustEnv(t, "MIGRATIONS_DIR")

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env:        []string{"MYSQL_ROOT_PASSWORD=root", "MYSQL_DATABASE=reviewit"},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/reviewit?parseTime=true&multiStatements=true&charset=utf8mb4&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sqlx.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sqlx.Connect("mysql", dsn)
		return e
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

// ---------- the test ----------

func TestHTTP_EndToEnd_IngestThenQuery(t *testing.T) {
	db := startMySQL(t)
	repo := sqlrepo.New(db)
	ctx := context.Background()

	day := func(n int) string { return time.Now().UTC().AddDate(0, 0, -n).Format("2006-01-02 15:04:05") }
	src := rowsSource{
		"coupang": {
			{"content": "배송이 빨라요", "cleaned_text": "배송,빠름", "date": day(3), "positive": "1", "score": "5"},
			{"content": "포장이 꼼꼼해요", "cleaned_text": "포장,배송", "date": day(5), "positive": "1.0", "score": "4"},
		},
		"gmarket": {
			{"content": "느려요", "cleaned_text": "배송,느림", "date": day(2), "positive": "0", "score": "2"},
		},
	}
	ing := app.NewIngestionService(src, repo, nil, analytics.Normalizer{Location: time.UTC})
	for _, c := range []domain.Company{{ID: 1, Name: "coupang"}, {ID: 3, Name: "gmarket"}, {ID: 5, Name: "temu"}} {
		if _, err := ing.IngestCompany(ctx, c); err != nil {
			t.Fatalf("ingest %s: %v", c.Name, err)
		}
	}

	fetch := app.NewFetcher(repo, repo, analytics.Normalizer{Location: time.UTC}, 2)
	a := app.NewAnalyticsService(fetch, repo, nil, nil, app.DefaultOptions())
	s := app.NewSummaryService(fetch, repo, nil, app.DefaultRetryPolicy(), 90)
	srv := server.New(0)
	srv.MountHandlers(&server.Handlers{A: a, S: s})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	// ranking over every company in the directory; temu has no reviews
	res, err := http.Get(ts.URL + "/v1/analyze/scores/ranking")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
	var ranking struct {
		Ranking []analytics.Rank `json:"ranking"`
	}
	if err := json.NewDecoder(res.Body).Decode(&ranking); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ranking.Ranking) != 2 || ranking.Ranking[0].Name != "coupang" || ranking.Ranking[0].Average != 4.5 {
		t.Fatalf("unexpected ranking: %+v", ranking.Ranking)
	}

	// company-scoped keywords; comma-delimited input comes back space-delimited
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/analyze/keywords/positive", nil)
	req.Header.Set(server.CompanyHeader, "1")
	res2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res2.Body.Close()
	if res2.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res2.StatusCode)
	}
	var kw struct {
		Keywords []analytics.KeywordExample `json:"keywords"`
	}
	if err := json.NewDecoder(res2.Body).Decode(&kw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(kw.Keywords) == 0 || kw.Keywords[0].Keyword != "배송" || kw.Keywords[0].Count != 2 {
		t.Fatalf("unexpected keywords: %+v", kw.Keywords)
	}
}
