package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"propertyhub_backend/internal/testutils"
	"propertyhub_backend/pkg/config"
)

func TestLocalSaveAndDelete(t *testing.T) {
	root := t.TempDir()
	l := NewLocal(root, "/uploads/", false)
	ctx := context.Background()

	fh := testutils.FileHeader(t, "images", "Front.JPG", []byte("jpeg bytes"))
	stored, err := l.Save(ctx, fh, "properties/1/images")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if !strings.HasPrefix(stored.Path, "properties/1/images/") || !strings.HasSuffix(stored.Path, ".jpg") {
		t.Fatalf("unexpected path %q", stored.Path)
	}
	if stored.URL != "/uploads/"+stored.Path {
		t.Fatalf("unexpected url %q", stored.URL)
	}
	if stored.OriginalName != "Front.JPG" || stored.Size != int64(len("jpeg bytes")) {
		t.Fatalf("unexpected metadata: %+v", stored)
	}
	if stored.MimeType != "image/jpeg" {
		t.Fatalf("expected mime from extension, got %q", stored.MimeType)
	}

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(stored.Path)))
	if err != nil || string(data) != "jpeg bytes" {
		t.Fatalf("stored content mismatch: %q, %v", data, err)
	}

	if err := l.Delete(ctx, stored.Path); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := l.Delete(ctx, stored.Path); err != nil {
		t.Fatalf("second Delete must be a no-op, got %v", err)
	}
}

func TestDetectMimeTypeIgnoresClientHeader(t *testing.T) {
	fh := testutils.FileHeader(t, "images", "photo.png", testutils.PNG(t))
	fh.Header.Set("Content-Type", "text/html")
	if got := DetectMimeType(fh); got != "image/png" {
		t.Fatalf("expected sniffed image/png, got %q", got)
	}

	unknown := testutils.FileHeader(t, "documents", "notes.pdf", []byte("plain words"))
	unknown.Header.Set("Content-Type", "image/png")
	if got := DetectMimeType(unknown); got != "application/pdf" {
		t.Fatalf("expected extension fallback, got %q", got)
	}
}

func TestLocalRejectsEscapingPaths(t *testing.T) {
	l := NewLocal(t.TempDir(), "/uploads", false)
	for _, p := range []string{"../etc/passwd", "/etc/passwd", "a/../../b", "."} {
		if err := l.Delete(context.Background(), p); err == nil {
			t.Fatalf("expected %q to be rejected", p)
		}
	}
}

func TestObjectNamesAreUnique(t *testing.T) {
	a, pa := objectName("f", "x.PNG")
	b, _ := objectName("f", "x.PNG")
	if a == b {
		t.Fatalf("expected unique names")
	}
	if !strings.HasSuffix(a, ".png") || pa != "f/"+a {
		t.Fatalf("unexpected name %q / %q", a, pa)
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	if _, err := New(context.Background(), configWithDriver("ftp")); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
	s, err := New(context.Background(), configWithDriver(""))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := s.(*Local); !ok {
		t.Fatalf("expected local storage by default, got %T", s)
	}
}

func configWithDriver(driver string) config.StorageConfig {
	return config.StorageConfig{Driver: driver, UploadDir: "uploads", URLPrefix: "/uploads"}
}
