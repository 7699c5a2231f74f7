package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	store := NewStore(rdb, Config{
		RedisPrefix:    "boobj",
		Buckets:        []string{"gallery", "carousel"},
		PublicBaseURL:  "https://example.com/",
		MaxObjectBytes: 64,
	})
	return store, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func TestPutGeneratesKeyAndURL(t *testing.T) {
	store, done := newTestStore(t)
	defer done()

	obj, url, err := store.Put(context.Background(), "gallery", "", "holi 2026.JPG", "image/jpeg", []byte("img"))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if !strings.HasSuffix(obj.Path, ".jpg") {
		t.Fatalf("expected lowercased extension preserved, got %q", obj.Path)
	}
	if strings.Contains(obj.Path, "holi") {
		t.Fatalf("client filename must not leak into the key: %q", obj.Path)
	}
	if url != "https://example.com/media/gallery/"+obj.Path {
		t.Fatalf("unexpected public URL %q", url)
	}
	if obj.Size != 3 || obj.ContentType != "image/jpeg" {
		t.Fatalf("metadata mismatch: %+v", obj)
	}
}

func TestPutKeysNeverCollide(t *testing.T) {
	store, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	seen := map[string]struct{}{}
	for i := 0; i < 20; i++ {
		obj, _, err := store.Put(ctx, "gallery", "", "a.png", "image/png", []byte("x"))
		if err != nil {
			t.Fatalf("put failed: %v", err)
		}
		if _, dup := seen[obj.Path]; dup {
			t.Fatalf("duplicate key generated: %q", obj.Path)
		}
		seen[obj.Path] = struct{}{}
	}
}

func TestPutFolderPrefixesKey(t *testing.T) {
	store, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	obj, url, err := store.Put(ctx, "gallery", "events", "holi.png", "image/png", []byte("x"))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if !strings.HasPrefix(obj.Path, "events/") {
		t.Fatalf("expected folder prefix on key, got %q", obj.Path)
	}
	if url != "https://example.com/media/gallery/"+obj.Path {
		t.Fatalf("unexpected public URL %q", url)
	}

	// The prefixed key round-trips through Get.
	if _, _, err := store.Get(ctx, "gallery", obj.Path); err != nil {
		t.Fatalf("get failed: %v", err)
	}
}

func TestSanitizeFolder(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"events", "events"},
		{"Events/2026", "events/2026"},
		{"/events/", "events"},
		{"../../etc", "etc"},
		{"a b!c", "abc"},
		{"..", ""},
		{`win\style`, "win/style"},
	}
	for _, tc := range cases {
		if got := sanitizeFolder(tc.in); got != tc.want {
			t.Fatalf("sanitizeFolder(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPutRejectsUnknownBucket(t *testing.T) {
	store, done := newTestStore(t)
	defer done()

	if _, _, err := store.Put(context.Background(), "etc", "", "a.png", "image/png", []byte("x")); !errors.Is(err, ErrBucketUnknown) {
		t.Fatalf("expected ErrBucketUnknown, got %v", err)
	}
}

func TestPutRejectsOversizedObject(t *testing.T) {
	store, done := newTestStore(t)
	defer done()

	big := make([]byte, 65)
	if _, _, err := store.Put(context.Background(), "gallery", "", "a.png", "image/png", big); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestGetRoundTrip(t *testing.T) {
	store, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	obj, _, err := store.Put(ctx, "carousel", "", "banner.webp", "image/webp", []byte("banner-bytes"))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, data, err := store.Get(ctx, "carousel", obj.Path)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(data) != "banner-bytes" || got.ContentType != "image/webp" {
		t.Fatalf("round trip mismatch: %+v %q", got, data)
	}

	if _, _, err := store.Get(ctx, "carousel", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAndList(t *testing.T) {
	store, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	obj, _, err := store.Put(ctx, "gallery", "", "a.png", "image/png", []byte("x"))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}

	keys, err := store.List(ctx, "gallery")
	if err != nil || len(keys) != 1 {
		t.Fatalf("expected one key, got %v err=%v", keys, err)
	}

	if err := store.Delete(ctx, "gallery", obj.Path); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	keys, err = store.List(ctx, "gallery")
	if err != nil || len(keys) != 0 {
		t.Fatalf("expected empty listing, got %v err=%v", keys, err)
	}
}
