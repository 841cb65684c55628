// Package summarizer is the AI summarization collaborator backed by the
// Anthropic Messages API.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"reviewit/internal/adapters/observability"
)

const DefaultModel = "claude-sonnet-4-5-20250929"

var (
	ErrRateLimited = errors.New("summarizer: rate limited")
	ErrNoText      = errors.New("summarizer: no text content")
)

type Config struct {
	APIKey     string
	Model      string
	BaseURL    string // empty uses the SDK default
	MaxRetries int    // transport-level retries done by the SDK
	RPS        float64
}

type Client struct {
	api   anthropic.Client
	model anthropic.Model
	rl    *rate.Limiter
}

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
		option.WithRequestTimeout(60 * time.Second),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		api:   anthropic.NewClient(opts...),
		model: anthropic.Model(model),
		rl:    rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// Complete sends prompt as a single user turn and returns the first text block.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", err
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	start := time.Now()
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			observability.ObserveExternal("anthropic", "messages", apiErr.StatusCode, time.Since(start))
			if apiErr.StatusCode == http.StatusTooManyRequests {
				return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
			}
		} else {
			observability.ObserveExternal("anthropic", "messages", 0, time.Since(start))
		}
		return "", fmt.Errorf("anthropic messages: %w", err)
	}
	observability.ObserveExternal("anthropic", "messages", http.StatusOK, time.Since(start))

	for _, block := range msg.Content {
		if block.Type == "text" {
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", ErrNoText
}
