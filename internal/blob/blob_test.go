package blob

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
)

func newTestFS(t *testing.T) *FS {
	t.Helper()
	f, err := NewFS(t.TempDir(), "layouts", "http://localhost:8080")
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return f
}

func TestUploadAndList(t *testing.T) {
	f := newTestFS(t)
	ctx := context.Background()
	key := "public/division-1-layout-1700000000000.png"
	if err := f.Upload(ctx, key, strings.NewReader("png")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	objects, err := f.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objects) != 1 || objects[0].Key != key || objects[0].Size != 3 {
		t.Errorf("objects = %+v", objects)
	}
}

func TestUploadRefusesOverwrite(t *testing.T) {
	f := newTestFS(t)
	ctx := context.Background()
	if err := f.Upload(ctx, "public/a.png", strings.NewReader("one")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	err := f.Upload(ctx, "public/a.png", strings.NewReader("two"))
	if !errors.Is(err, ErrExists) {
		t.Errorf("second Upload err = %v, want ErrExists", err)
	}
}

func TestUploadReadOnlyIsPermission(t *testing.T) {
	f := newTestFS(t)
	f.ReadOnly = true
	err := f.Upload(context.Background(), "public/a.png", strings.NewReader("x"))
	if !errors.Is(err, ErrPermission) {
		t.Errorf("Upload err = %v, want ErrPermission", err)
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	f := newTestFS(t)
	for _, key := range []string{"", "/etc/passwd", "../x.png", "public/../../x", "a//b"} {
		if err := f.Upload(context.Background(), key, strings.NewReader("x")); !errors.Is(err, ErrBadKey) {
			t.Errorf("Upload(%q) err = %v, want ErrBadKey", key, err)
		}
	}
}

func TestPublicURLRoundTrip(t *testing.T) {
	f := newTestFS(t)
	key := "public/division-3-layout-1.jpg"
	u, err := f.PublicURL(key)
	if err != nil {
		t.Fatalf("PublicURL: %v", err)
	}
	if u != "http://localhost:8080/blobs/layouts/public/division-3-layout-1.jpg" {
		t.Errorf("url = %q", u)
	}
	got, ok := f.KeyFromURL(u + "?v=2")
	if !ok || got != key {
		t.Errorf("KeyFromURL = %q, %v, want %q", got, ok, key)
	}
	if _, ok := f.KeyFromURL("http://elsewhere/img.png"); ok {
		t.Error("KeyFromURL accepted a foreign url")
	}
}

func TestPublicURLBadBase(t *testing.T) {
	f := newTestFS(t)
	f.BaseURL = "not a url"
	if _, err := f.PublicURL("public/a.png"); !errors.Is(err, ErrBadURL) {
		t.Errorf("PublicURL err = %v, want ErrBadURL", err)
	}
}

func TestRemoveIgnoresMissing(t *testing.T) {
	f := newTestFS(t)
	ctx := context.Background()
	if err := f.Upload(ctx, "public/a.png", strings.NewReader("x")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := f.Remove(ctx, "public/a.png", "public/missing.png"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	p, _ := f.path("public/a.png")
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Errorf("object still present: %v", err)
	}
}
