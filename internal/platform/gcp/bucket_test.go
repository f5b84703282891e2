package gcp

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/lvflow-backend/internal/platform/logger"
)

func TestObjectKeyPrefix(t *testing.T) {
	b := &Bucket{name: "offers", prefix: "pdfs"}
	if got := b.objectKey("/a.pdf"); got != "pdfs/a.pdf" {
		t.Fatalf("objectKey: got %q", got)
	}
	b.prefix = ""
	if got := b.objectKey("a.pdf"); got != "a.pdf" {
		t.Fatalf("objectKey without prefix: got %q", got)
	}
}

func TestContentTypeForKey(t *testing.T) {
	cases := map[string]string{
		"x/Offer.PDF": "application/pdf",
		"groups.json": "application/json",
		"notes.txt":   "",
		"":            "",
	}
	for in, want := range cases {
		if got := contentTypeForKey(in); got != want {
			t.Fatalf("contentTypeForKey(%q): got %q want %q", in, got, want)
		}
	}
}

func TestNewBucketRequiresName(t *testing.T) {
	if _, err := NewBucket(context.Background(), logger.Nop(), BucketConfig{}); err == nil {
		t.Fatalf("expected error for empty bucket name")
	}
}

// Runs against fake-gcs-server when GCS_TEST_EMULATOR and GCS_TEST_BUCKET are set.
func TestBucketUploadDownload(t *testing.T) {
	host, name := os.Getenv("GCS_TEST_EMULATOR"), os.Getenv("GCS_TEST_BUCKET")
	if host == "" || name == "" {
		t.Skip("GCS_TEST_EMULATOR or GCS_TEST_BUCKET not set")
	}
	ctx := context.Background()
	b, err := NewBucket(ctx, logger.Nop(), BucketConfig{Name: name, EmulatorHost: host, Prefix: "test"})
	if err != nil {
		t.Fatalf("NewBucket: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })

	key := uuid.NewString() + ".pdf"
	data := []byte("%PDF-1.4 test")
	uri, err := b.Upload(ctx, key, data)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(uri, "gs://"+name+"/test/") {
		t.Fatalf("unexpected uri %q", uri)
	}
	got, err := b.Download(ctx, key)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("Download: got %q", got)
	}
}
