package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(rdb, "bo")

	return store, mr, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func testSession(sessionID string) *Session {
	now := time.Now()
	return &Session{
		SessionID:     sessionID,
		UserID:        "u1",
		Email:         "admin@example.com",
		DisplayName:   "Admin One",
		Role:          "administrator",
		Permissions:   []string{"admin"},
		CreatedAt:     now.Unix(),
		ExpiresAt:     now.Add(time.Hour).Unix(),
		RevalidatedAt: now.Unix(),
		SchemaVersion: CurrentSchemaVersion,
	}
}

func TestStoreSaveGetRoundTrip(t *testing.T) {
	store, _, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	want := testSession("s1")
	if err := store.Save(ctx, want, time.Hour); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.SessionID != "s1" || got.UserID != want.UserID || got.Email != want.Email {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if len(got.Permissions) != 1 || got.Permissions[0] != "admin" {
		t.Fatalf("permissions mismatch: %v", got.Permissions)
	}
	if got.Dev {
		t.Fatal("dev flag must not appear on a normal session")
	}
}

func TestStoreGetMissing(t *testing.T) {
	store, _, done := newTestStore(t)
	defer done()

	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreGetEnforcesStoredExpiry(t *testing.T) {
	store, _, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	sess := testSession("s2")
	sess.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	if err := store.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if _, err := store.Get(ctx, "s2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired session to read as ErrNotFound, got %v", err)
	}
	// The eager delete must remove the record, not just hide it.
	if _, err := store.Get(ctx, "s2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected second read to stay ErrNotFound, got %v", err)
	}
}

func TestStoreDeleteIdempotent(t *testing.T) {
	store, _, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	sess := testSession("s3")
	if err := store.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := store.Delete(ctx, "s3"); err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	if err := store.Delete(ctx, "s3"); err != nil {
		t.Fatalf("second delete must be a no-op, got %v", err)
	}
}

func TestStoreTouchPreservesTTL(t *testing.T) {
	store, mr, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	sess := testSession("s4")
	if err := store.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	sess.RevalidatedAt = time.Now().Add(time.Minute).Unix()
	if err := store.Touch(ctx, sess); err != nil {
		t.Fatalf("touch failed: %v", err)
	}

	ttl := mr.TTL("bo:sess:s4")
	if ttl <= 0 || ttl > time.Hour {
		t.Fatalf("expected remaining TTL to survive touch, got %v", ttl)
	}

	got, err := store.Get(ctx, "s4")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.RevalidatedAt != sess.RevalidatedAt {
		t.Fatal("touch did not persist the revalidation stamp")
	}
}

func TestStoreTouchMissingSession(t *testing.T) {
	store, _, done := newTestStore(t)
	defer done()

	sess := testSession("ghost")
	if err := store.Touch(context.Background(), sess); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound touching a missing session, got %v", err)
	}
}

func TestDevMarkerLifecycle(t *testing.T) {
	store, _, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	if _, err := store.DevMarker(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before set, got %v", err)
	}

	if err := store.SetDevMarker(ctx, "dev@localhost", time.Hour); err != nil {
		t.Fatalf("set marker failed: %v", err)
	}
	name, err := store.DevMarker(ctx)
	if err != nil || name != "dev@localhost" {
		t.Fatalf("expected marker dev@localhost, got %q err=%v", name, err)
	}

	if err := store.ClearDevMarker(ctx); err != nil {
		t.Fatalf("clear marker failed: %v", err)
	}
	if _, err := store.DevMarker(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after clear, got %v", err)
	}
}

func TestEncodeDecodeDevFlag(t *testing.T) {
	sess := testSession("s5")
	sess.Dev = true

	data, err := Encode(sess)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !got.Dev {
		t.Fatal("dev flag lost in round trip")
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	sess := testSession("s6")
	data, err := Encode(sess)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	data[0] = 99

	if _, err := Decode(data); err == nil {
		t.Fatal("expected unknown version to fail decoding")
	}
}
