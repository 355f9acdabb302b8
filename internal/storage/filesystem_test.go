package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"server/internal/domain"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	return fs
}

func TestFileStoreCreatesLayout(t *testing.T) {
	fs := newTestFileStore(t)
	for _, dir := range []string{fs.UploadsPath(), fs.TempPath(), fs.VideosPath()} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s, err=%v", dir, err)
		}
	}
}

func TestFileStoreWriteRead(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	key, err := fs.Write(ctx, "uploads/img.png", []byte("pixels"))
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if key != "uploads/img.png" {
		t.Fatalf("unexpected key %q", key)
	}

	got, err := fs.Read(ctx, key)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if !bytes.Equal(got, []byte("pixels")) {
		t.Fatalf("Read mismatch: %q", got)
	}
}

func TestFileStoreReadMissing(t *testing.T) {
	fs := newTestFileStore(t)
	_, err := fs.Read(context.Background(), "uploads/nope.png")
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if kind := domain.KindOf(err); kind != domain.KindNotFound {
		t.Fatalf("kind = %q, want %q", kind, domain.KindNotFound)
	}
}

func TestFileStoreWriteRejectsTraversal(t *testing.T) {
	fs := newTestFileStore(t)
	tests := []string{
		"../escape.png",
		"uploads/../../escape.png",
		"..",
		"  ",
	}
	for _, key := range tests {
		if _, err := fs.Write(context.Background(), key, []byte("x")); err == nil {
			t.Fatalf("Write(%q) should have failed", key)
		}
	}
	// Nothing may have landed outside the root.
	parent := filepath.Dir(fs.Root())
	if _, err := os.Stat(filepath.Join(parent, "escape.png")); !os.IsNotExist(err) {
		t.Fatalf("traversal escaped the root")
	}
}

func TestResolveUserPath(t *testing.T) {
	fs := newTestFileStore(t)
	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "legacy serving path", path: "/uploads/cat.png", want: "uploads/cat.png"},
		{name: "relative under uploads", path: "uploads/cat.png", want: "uploads/cat.png"},
		{name: "bare file name", path: "cat.png", want: "uploads/cat.png"},
		{name: "other absolute path", path: "/etc/passwd", wantErr: true},
		{name: "traversal", path: "uploads/../../etc/passwd", wantErr: true},
		{name: "legacy prefix traversal", path: "/uploads/../secret", wantErr: true},
		{name: "empty", path: "", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := fs.ResolveUserPath(tc.path)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ResolveUserPath(%q) should fail, got %q", tc.path, got)
				}
				if kind := domain.KindOf(err); kind != domain.KindMissingSource {
					t.Fatalf("kind = %q, want %q", kind, domain.KindMissingSource)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveUserPath(%q) returned error: %v", tc.path, err)
			}
			if got != tc.want {
				t.Fatalf("ResolveUserPath(%q) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}
