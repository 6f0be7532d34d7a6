package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"course_market_backend/logger"
)

type Config struct {
	Bucket string
	// CDNDomain, when set, replaces storage.googleapis.com in public URLs.
	CDNDomain string
	// EmulatorHost points the client at a fake-gcs server, e.g. http://localhost:4443.
	EmulatorHost string
}

// GCS stores course thumbnails in a single bucket.
type GCS struct {
	client *storage.Client
	cfg    Config
	log    *logger.Logger
}

func NewGCS(ctx context.Context, cfg Config, log *logger.Logger) (*GCS, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	var opts []option.ClientOption
	if cfg.EmulatorHost != "" {
		cfg.EmulatorHost = strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
		_ = os.Setenv("STORAGE_EMULATOR_HOST", cfg.EmulatorHost)
		opts = append(opts, option.WithoutAuthentication())
	} else {
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	log = log.With("service", "ThumbnailStorage")
	log.Info("Object storage initialized", "bucket", cfg.Bucket, "cdn_domain", cfg.CDNDomain, "emulator_host", cfg.EmulatorHost)
	return &GCS{client: client, cfg: cfg, log: log}, nil
}

// Upload writes r under key and returns the object's public URL.
func (g *GCS) Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	w := g.client.Bucket(g.cfg.Bucket).Object(key).NewWriter(ctx)
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(key))
	}
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	g.log.Debug("thumbnail uploaded", "key", key)
	return PublicURL(g.cfg, key), nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}

// PublicURL builds the address an uploaded object is served from.
func PublicURL(cfg Config, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	switch {
	case cfg.CDNDomain != "":
		return fmt.Sprintf("https://%s/%s", cfg.CDNDomain, key)
	case cfg.EmulatorHost != "":
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(cfg.EmulatorHost, "/"), cfg.Bucket, key)
	default:
		return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.Bucket, key)
	}
}
