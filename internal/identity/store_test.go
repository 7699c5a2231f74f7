package identity

import (
	"context"
	"errors"
	"testing"
	"time"

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

	return NewStore(rdb, "boid"), func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func record(userID, email string) Record {
	return Record{
		UserID:       userID,
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		CreatedAt:    time.Now().Unix(),
	}
}

func TestCreateAndLookup(t *testing.T) {
	store, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	if err := store.Create(ctx, record("u1", "admin@example.com")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	byEmail, err := store.GetByEmail(ctx, "Admin@Example.COM")
	if err != nil || byEmail.UserID != "u1" {
		t.Fatalf("email lookup failed: %+v err=%v", byEmail, err)
	}

	byID, err := store.GetByID(ctx, "u1")
	if err != nil || byID.Email != "admin@example.com" {
		t.Fatalf("id lookup failed: %+v err=%v", byID, err)
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	store, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	if err := store.Create(ctx, record("u1", "admin@example.com")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := store.Create(ctx, record("u2", "admin@example.com")); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestCreateRejectsIncompleteRecord(t *testing.T) {
	store, done := newTestStore(t)
	defer done()

	if err := store.Create(context.Background(), Record{UserID: "u1"}); err == nil {
		t.Fatal("expected incomplete record to be rejected")
	}
}

func TestDeleteReleasesEmail(t *testing.T) {
	store, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	if err := store.Create(ctx, record("u1", "admin@example.com")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := store.Delete(ctx, "u1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.Delete(ctx, "u1"); err != nil {
		t.Fatalf("repeated delete must be a no-op, got %v", err)
	}
	if _, err := store.GetByEmail(ctx, "admin@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// The compensating delete path depends on the email being reusable.
	if err := store.Create(ctx, record("u2", "admin@example.com")); err != nil {
		t.Fatalf("recreate after delete failed: %v", err)
	}
}

func TestUpdatePasswordHash(t *testing.T) {
	store, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	if err := store.Create(ctx, record("u1", "admin@example.com")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := store.UpdatePasswordHash(ctx, "u1", "newhash"); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	rec, _ := store.GetByID(ctx, "u1")
	if rec.PasswordHash != "newhash" {
		t.Fatalf("hash not updated: %q", rec.PasswordHash)
	}

	if err := store.UpdatePasswordHash(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
