package domain

import (
	"context"
	"time"
)

// ReviewSource yields the raw rows of one company (and optionally one
// department). A missing file or empty scope is ErrNoSourceData.
type ReviewSource interface {
	Fetch(ctx context.Context, scope Scope) (SourceBatch, error)
}

// Directory resolves ids to canonical names. Unknown ids are ErrInvalidReference.
type Directory interface {
	Company(ctx context.Context, id int64) (Company, error)
	Companies(ctx context.Context) ([]Company, error)
	Department(ctx context.Context, id int64) (Department, error)
}

type ReviewStore interface {
	// Write paths
	UpsertCompany(ctx context.Context, c Company) error
	InsertReviews(ctx context.Context, rs []Review) error
	LogMiss(ctx context.Context, companyID int64, reason string) error
}

// Renderer turns a keyword frequency map into a stored image and returns its URL.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) (string, error)
}

type RenderRequest struct {
	Scope       string // company name or "ALL"
	Sentiment   Sentiment
	Frequencies map[string]int
	Mask        CircleMask
}

// CircleMask is the square canvas with a centered circular drawing area.
type CircleMask struct {
	Size int `json:"size"`
}

type ArtifactStore interface {
	PutArtifact(ctx context.Context, key, contentType string, body []byte) (string, error)
}

type Summarizer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}
