// Package renderer talks to the word-cloud rendering service and stores
// the returned image as an artifact.
package renderer

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"reviewit/internal/adapters/observability"
	"reviewit/internal/domain"
)

const maxAttempts = 4

var (
	ErrBadRequest = errors.New("renderer: bad request")
	ErrEmptyImage = errors.New("renderer: empty image")
)

type Client struct {
	base  string
	hc    *http.Client
	rl    *rate.Limiter
	store domain.ArtifactStore
}

func New(base string, rps int, store domain.ArtifactStore) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("renderer URL is required")
	}
	if store == nil {
		return nil, fmt.Errorf("artifact store is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:  strings.TrimRight(base, "/"),
		hc:    &http.Client{Timeout: 30 * time.Second},
		rl:    rate.NewLimiter(rate.Limit(rps), rps),
		store: store,
	}, nil
}

type renderBody struct {
	Frequencies map[string]int    `json:"frequencies"`
	Mask        domain.CircleMask `json:"mask"`
}

// Render implements domain.Renderer: POST the frequency map, receive PNG
// bytes, store them under wordcloud/<scope>/<sentiment>/<uuid>.png.
func (c *Client) Render(ctx context.Context, req domain.RenderRequest) (string, error) {
	body, err := json.Marshal(renderBody{Frequencies: req.Frequencies, Mask: req.Mask})
	if err != nil {
		return "", err
	}
	img, err := c.post(ctx, c.base+"/render", body)
	if err != nil {
		return "", err
	}
	if len(img) == 0 {
		return "", ErrEmptyImage
	}
	return c.store.PutArtifact(ctx, ArtifactKey(req.Scope, req.Sentiment, uuid.NewString()), "image/png", img)
}

func ArtifactKey(scope string, s domain.Sentiment, id string) string {
	return fmt.Sprintf("wordcloud/%s/%s/%s.png", scope, s, id)
}

// post sends body with client-side rate limiting and retries on 429 and
// transient 5xx, honoring Retry-After when provided.
func (c *Client) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "image/png")
		req.Header.Set("User-Agent", "reviewit/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("renderer", "render", 0, time.Since(start))
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if i < maxAttempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr
		}
		observability.ObserveExternal("renderer", "render", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated:
			img, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			return img, err

		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %s", ErrBadRequest, strings.TrimSpace(string(b)))

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("renderer %d", resp.StatusCode)
			if i < maxAttempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return nil, lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). 0 if absent.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	return base + time.Duration(0.5*float64(b[0])/255.0*float64(base))
}
