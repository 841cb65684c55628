// Package objectstore reads per-company review files from S3-compatible
// storage and writes rendered artifacts back to it.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"reviewit/internal/domain"
)

type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	UseSSL        bool
	PublicBaseURL string // overrides the virtual-hosted S3 URL when set
	Prefix        string // review files live under <Prefix>/<company>.<ext>
	Delimiter     domain.KeywordDelimiter
}

// Extensions tried, in order, for a company's review file.
var sourceExts = []string{".csv", ".xlsx"}

var errNoObject = errors.New("object not found")

type Store struct {
	client *minio.Client
	cfg    Config
}

func New(cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Store{client: client, cfg: cfg}, nil
}

// Fetch implements domain.ReviewSource. A company without any review file
// is ErrNoSourceData.
func (s *Store) Fetch(ctx context.Context, scope domain.Scope) (domain.SourceBatch, error) {
	for _, ext := range sourceExts {
		key := SourceKey(s.cfg.Prefix, scope.Company.Name, ext)
		body, err := s.get(ctx, key)
		if errors.Is(err, errNoObject) {
			continue
		}
		if err != nil {
			return domain.SourceBatch{}, fmt.Errorf("get %s: %w", key, err)
		}
		rows, err := decodeByExt(ext, body)
		if err != nil {
			return domain.SourceBatch{}, fmt.Errorf("decode %s: %w", key, err)
		}
		if scope.Department != nil {
			rows = FilterDepartment(rows, scope.Department.Name)
		}
		log.Debug().Str("key", key).Int("rows", len(rows)).Msg("source_fetched")
		return domain.SourceBatch{Company: scope.Company, Rows: rows, Delimiter: s.cfg.Delimiter}, nil
	}
	return domain.SourceBatch{}, domain.NoSourceData("no review file for "+scope.Company.Name, nil)
}

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.cfg.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, notFound(err)
	}
	defer obj.Close()
	body, err := io.ReadAll(obj)
	if err != nil {
		return nil, notFound(err)
	}
	return body, nil
}

func notFound(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return errNoObject
	}
	return err
}

// PutArtifact implements domain.ArtifactStore.
func (s *Store) PutArtifact(ctx context.Context, key, contentType string, body []byte) (string, error) {
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return PublicURL(s.cfg, key), nil
}

func SourceKey(prefix, company, ext string) string {
	return path.Join(prefix, company+ext)
}

// PublicURL is where a stored object can be fetched by browsers.
func PublicURL(cfg Config, key string) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", cfg.Bucket, cfg.Region, key)
}
