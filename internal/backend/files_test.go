package backend

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(t.TempDir(), []byte("signing-secret"), nil)
	if err != nil {
		t.Fatal(err)
	}
	return fs
}

func TestFileStore_UploadOpenRemove(t *testing.T) {
	fs := newFileStore(t)
	ctx := context.Background()

	if err := fs.Upload(ctx, "images", "works/portrait.jpg", strings.NewReader("jpeg bytes")); err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}

	f, err := fs.Open("images", "works/portrait.jpg")
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	data, _ := io.ReadAll(f)
	f.Close()
	if string(data) != "jpeg bytes" {
		t.Errorf("content = %q", data)
	}

	if err := fs.Remove(ctx, "images", "works/portrait.jpg"); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if _, err := fs.Open("images", "works/portrait.jpg"); err != ErrObjectNotFound {
		t.Errorf("Open() after removal = %v, want ErrObjectNotFound", err)
	}

	// Removing again is fine.
	if err := fs.Remove(ctx, "images", "works/portrait.jpg"); err != nil {
		t.Errorf("second Remove() failed: %v", err)
	}
}

func TestFileStore_RejectsTraversal(t *testing.T) {
	fs := newFileStore(t)
	ctx := context.Background()

	tests := []struct {
		bucket string
		name   string
	}{
		{"images", "../escape.jpg"},
		{"images", "a/../../escape.jpg"},
		{"images", ""},
		{"", "ok.jpg"},
	}

	for _, tt := range tests {
		if err := fs.Upload(ctx, tt.bucket, tt.name, strings.NewReader("x")); err != ErrBadObjectName {
			t.Errorf("Upload(%q, %q) = %v, want ErrBadObjectName", tt.bucket, tt.name, err)
		}
	}
}

func TestFileStore_SignedURLs(t *testing.T) {
	fs := newFileStore(t)
	ctx := context.Background()

	if err := fs.Upload(ctx, "images", "portrait.jpg", strings.NewReader("jpeg")); err != nil {
		t.Fatal(err)
	}

	signed, err := fs.CreateSignedURL("images", "portrait.jpg", time.Minute)
	if err != nil {
		t.Fatalf("CreateSignedURL() failed: %v", err)
	}
	if !strings.HasPrefix(signed, "/object/sign/images/portrait.jpg?token=") {
		t.Fatalf("signed url = %q", signed)
	}

	token := signed[strings.Index(signed, "token=")+len("token="):]
	object, err := fs.VerifySignedToken(token)
	if err != nil {
		t.Fatalf("VerifySignedToken() failed: %v", err)
	}
	if object != "images/portrait.jpg" {
		t.Errorf("object = %q", object)
	}

	if _, err := fs.VerifySignedToken("tampered"); err == nil {
		t.Error("tampered token verified")
	}

	other, err := NewFileStore(t.TempDir(), []byte("other-secret"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.VerifySignedToken(token); err == nil {
		t.Error("token verified under a different secret")
	}
}
