package objectstore_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"reviewit/internal/adapters/objectstore"
	"reviewit/internal/domain"
)

func TestDecodeCSV(t *testing.T) {
	in := "\ufeffcontent,cleaned_text,date,positive,department\n" +
		"배송 빨라요,\"배송,빠르다\",2025-01-02 10:00:00,1.0,배송\n" +
		",,,,\n" +
		"짧은 행,짧다\n"
	rows, err := objectstore.DecodeCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.RawRow{
		"content":      "배송 빨라요",
		"cleaned_text": "배송,빠르다",
		"date":         "2025-01-02 10:00:00",
		"positive":     "1.0",
		"department":   "배송",
	}, rows[0])
	assert.Equal(t, domain.RawRow{"content": "짧은 행", "cleaned_text": "짧다"}, rows[1])

	rows, err = objectstore.DecodeCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDecodeXLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"content", "score", "dept"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"좋아요", "4.5", "CS"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"별로", "", "물류"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := objectstore.DecodeXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.RawRow{"content": "좋아요", "score": "4.5", "dept": "CS"}, rows[0])
	assert.Equal(t, domain.RawRow{"content": "별로", "dept": "물류"}, rows[1])

	cs := objectstore.FilterDepartment(rows, "CS")
	require.Len(t, cs, 1)
	assert.Equal(t, "좋아요", cs[0]["content"])
}

func TestPublicURL(t *testing.T) {
	cfg := objectstore.Config{Bucket: "hanium-reviewit", Region: "ap-northeast-2"}
	assert.Equal(t, "https://hanium-reviewit.s3.ap-northeast-2.amazonaws.com/wordcloud/a.png", objectstore.PublicURL(cfg, "wordcloud/a.png"))

	cfg.PublicBaseURL = "http://cdn.local/"
	assert.Equal(t, "http://cdn.local/wordcloud/a.png", objectstore.PublicURL(cfg, "wordcloud/a.png"))
	assert.Equal(t, "reviews/coupang.csv", objectstore.SourceKey("reviews", "coupang", ".csv"))
}

// fakeS3 serves path-style GET and PUT for a single bucket.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		b, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = b
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		b, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(b)))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("ETag", `"0123456789abcdef0123456789abcdef"`)
		w.Header().Set("Last-Modified", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(b)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newStore(t *testing.T) (*objectstore.Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := objectstore.New(objectstore.Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "test",
		SecretKey: "testsecret",
		Bucket:    "reviews-bucket",
		Region:    "us-east-1",
		Prefix:    "reviews",
		Delimiter: domain.DelimComma,
	})
	require.NoError(t, err)
	return s, fake
}

func TestStore_FetchAndPut(t *testing.T) {
	s, fake := newStore(t)
	fake.objects["/reviews-bucket/reviews/coupang.csv"] = []byte("content,department\n빠름,배송\n느림,CS\n")
	ctx := context.Background()

	b, err := s.Fetch(ctx, domain.Scope{Company: domain.Company{ID: 1, Name: "coupang"}})
	require.NoError(t, err)
	assert.Equal(t, domain.DelimComma, b.Delimiter)
	assert.Len(t, b.Rows, 2)

	b, err = s.Fetch(ctx, domain.Scope{Company: domain.Company{ID: 1, Name: "coupang"}, Department: &domain.Department{Name: "CS"}})
	require.NoError(t, err)
	require.Len(t, b.Rows, 1)
	assert.Equal(t, "느림", b.Rows[0]["content"])

	_, err = s.Fetch(ctx, domain.Scope{Company: domain.Company{ID: 5, Name: "temu"}})
	assert.ErrorIs(t, err, domain.ErrNoSourceData)

	url, err := s.PutArtifact(ctx, "wordcloud/coupang/positive/x.png", "image/png", []byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	assert.Equal(t, "https://reviews-bucket.s3.us-east-1.amazonaws.com/wordcloud/coupang/positive/x.png", url)
	assert.Contains(t, fake.objects, "/reviews-bucket/wordcloud/coupang/positive/x.png")
}
