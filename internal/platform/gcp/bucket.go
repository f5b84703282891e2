package gcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/lvflow-backend/internal/platform/logger"
)

type BucketConfig struct {
	Name string
	// EmulatorHost switches the client to an unauthenticated emulator endpoint (fake-gcs-server).
	EmulatorHost string
	Prefix       string
}

type Bucket struct {
	log    *logger.Logger
	client *storage.Client
	name   string
	prefix string
}

func NewBucket(ctx context.Context, log *logger.Logger, cfg BucketConfig) (*Bucket, error) {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		return nil, fmt.Errorf("gcs bucket name is required")
	}
	client, err := newStorageClient(ctx, cfg.EmulatorHost)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Bucket{
		log:    log.With("service", "Bucket", "bucket", name),
		client: client,
		name:   name,
		prefix: strings.Trim(strings.TrimSpace(cfg.Prefix), "/"),
	}, nil
}

func newStorageClient(ctx context.Context, emulatorHost string) (*storage.Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(emulatorHost), "/")
	if endpoint != "" {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	opts := ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	return storage.NewClient(ctx, opts...)
}

func (b *Bucket) Name() string { return b.name }

func (b *Bucket) objectKey(key string) string {
	key = strings.TrimLeft(key, "/")
	if b.prefix == "" {
		return key
	}
	return b.prefix + "/" + key
}

// Upload writes data under key and returns the gs:// URI of the object.
func (b *Bucket) Upload(ctx context.Context, key string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	obj := b.objectKey(key)
	w := b.client.Bucket(b.name).Object(obj).NewWriter(ctx)
	if ct := contentTypeForKey(obj); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	b.log.Debug("Uploaded object", "key", obj, "bytes", len(data))
	return fmt.Sprintf("gs://%s/%s", b.name, obj), nil
}

func (b *Bucket) Download(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	r, err := b.client.Bucket(b.name).Object(b.objectKey(key)).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS reader: %w", err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (b *Bucket) Close() error {
	if b == nil || b.client == nil {
		return nil
	}
	return b.client.Close()
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	switch {
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	default:
		return ""
	}
}
