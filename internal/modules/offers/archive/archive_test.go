package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yungbote/lvflow-backend/internal/platform/logger"
)

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"LV Küche 2024", "LV_Küche_2024.pdf"},
		{"  ../../etc/passwd ", "etc_passwd.pdf"},
		{"angebot.pdf", "angebot.pdf"},
		{"", "offer.pdf"},
		{"///", "offer.pdf"},
		{"a/b:c", "a_b_c.pdf"},
	}
	for _, tc := range cases {
		if got := SanitizeFilename(tc.in); got != tc.want {
			t.Fatalf("SanitizeFilename(%q): got %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestLocalArchiverLastWriteWins(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pdfs")
	a := NewLocalArchiver(logger.Nop(), dir)
	ctx := context.Background()

	name := SanitizeFilename("Offer A")
	if _, err := a.Put(ctx, name, []byte("first")); err != nil {
		t.Fatalf("Put first: %v", err)
	}
	path, err := a.Put(ctx, SanitizeFilename("Offer/A"), []byte("second"))
	if err != nil {
		t.Fatalf("Put second: %v", err)
	}
	if path != filepath.Join(dir, name) {
		t.Fatalf("path: got %q", path)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("content: got %q", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected 1 file, got %d", len(entries))
	}
}

type fakeUploader struct {
	key  string
	data []byte
	err  error
}

func (f *fakeUploader) Upload(ctx context.Context, key string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.key, f.data = key, data
	return "gs://bucket/" + key, nil
}

func TestObjectArchiver(t *testing.T) {
	up := &fakeUploader{}
	a := NewObjectArchiver(logger.Nop(), up)
	uri, err := a.Put(context.Background(), "x.pdf", []byte("pdf"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if uri != "gs://bucket/x.pdf" || up.key != "x.pdf" || string(up.data) != "pdf" {
		t.Fatalf("unexpected upload: uri=%q key=%q", uri, up.key)
	}

	up.err = errors.New("boom")
	if _, err := a.Put(context.Background(), "x.pdf", nil); err == nil {
		t.Fatalf("expected error")
	}
}
