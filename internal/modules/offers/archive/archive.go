package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yungbote/lvflow-backend/internal/platform/logger"
)

var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// SanitizeFilename maps an offer name to a stable archive filename.
// Distinct names that sanitize to the same value share one file; the last write wins.
func SanitizeFilename(offerName string) string {
	base := unsafeChars.ReplaceAllString(strings.TrimSpace(offerName), "_")
	base = strings.Trim(base, "_.")
	if base == "" {
		base = "offer"
	}
	if strings.HasSuffix(strings.ToLower(base), ".pdf") {
		base = base[:len(base)-len(".pdf")]
	}
	return base + ".pdf"
}

// Archiver stores the raw document and returns a reference to the stored copy.
type Archiver interface {
	Put(ctx context.Context, filename string, data []byte) (string, error)
}

type LocalArchiver struct {
	log *logger.Logger
	dir string
}

func NewLocalArchiver(log *logger.Logger, dir string) *LocalArchiver {
	if strings.TrimSpace(dir) == "" {
		dir = "data/pdfs"
	}
	return &LocalArchiver{log: log.With("service", "LocalArchiver"), dir: dir}
}

func (a *LocalArchiver) Dir() string { return a.dir }

func (a *LocalArchiver) Put(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir archive dir: %w", err)
	}
	tmp, err := os.CreateTemp(a.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	dst := filepath.Join(a.dir, filepath.Base(filename))
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename archive file: %w", err)
	}
	a.log.Debug("Archived document", "path", dst, "bytes", len(data))
	return dst, nil
}

// Uploader is the object-store surface used by ObjectArchiver (*gcp.Bucket satisfies it).
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte) (string, error)
}

type ObjectArchiver struct {
	log *logger.Logger
	up  Uploader
}

func NewObjectArchiver(log *logger.Logger, up Uploader) *ObjectArchiver {
	return &ObjectArchiver{log: log.With("service", "ObjectArchiver"), up: up}
}

func (a *ObjectArchiver) Put(ctx context.Context, filename string, data []byte) (string, error) {
	uri, err := a.up.Upload(ctx, filepath.Base(filename), data)
	if err != nil {
		return "", fmt.Errorf("upload archive object: %w", err)
	}
	a.log.Debug("Archived document", "uri", uri, "bytes", len(data))
	return uri, nil
}
