package backoffice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestContentPutAndGet(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()
	ctx := context.Background()

	row, err := engine.ContentPut(ctx, "services", "", json.RawMessage(`{"title":"Kundli Matching"}`))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if row.ID == "" {
		t.Fatal("expected generated row id")
	}

	got, err := engine.ContentGet(ctx, "services", row.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !bytes.Equal(got.Data, row.Data) {
		t.Fatalf("payload mismatch: %s vs %s", got.Data, row.Data)
	}
}

func TestContentPutRejectsInvalidJSON(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()

	_, err := engine.ContentPut(context.Background(), "services", "", json.RawMessage(`{broken`))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestContentUnknownCollection(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()
	ctx := context.Background()

	if _, err := engine.ContentList(ctx, "secrets"); !errors.Is(err, ErrUnknownCollection) {
		t.Fatalf("expected ErrUnknownCollection, got %v", err)
	}
	if _, err := engine.ContentPut(ctx, "secrets", "x", json.RawMessage(`{}`)); !errors.Is(err, ErrUnknownCollection) {
		t.Fatalf("expected ErrUnknownCollection, got %v", err)
	}
}

func TestContentGetMissingRow(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()

	_, err := engine.ContentGet(context.Background(), "services", "missing")
	if !ContentRowMissing(err) {
		t.Fatalf("expected missing-row error, got %v", err)
	}
}

func TestContentDelete(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()
	ctx := context.Background()

	row, err := engine.ContentPut(ctx, "testimonials", "", json.RawMessage(`{"name":"R. Gupta"}`))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := engine.ContentDelete(ctx, "testimonials", row.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := engine.ContentGet(ctx, "testimonials", row.ID); !ContentRowMissing(err) {
		t.Fatalf("expected row gone, got %v", err)
	}

	// Deleting again is not an error.
	if err := engine.ContentDelete(ctx, "testimonials", row.ID); err != nil {
		t.Fatalf("repeated delete failed: %v", err)
	}
}

func TestSaveObject(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()
	ctx := context.Background()

	obj, url, err := engine.SaveObject(ctx, "gallery", "", "Diwali Pooja.JPG", "image/jpeg", []byte("payload"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if obj.Bucket != "gallery" || obj.Path == "" {
		t.Fatalf("unexpected object: %+v", obj)
	}
	if url == "" {
		t.Fatal("expected public url")
	}

	got, data, err := engine.GetObject(ctx, "gallery", obj.Path)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ContentType != "image/jpeg" || string(data) != "payload" {
		t.Fatalf("round trip mismatch: %+v %q", got, data)
	}
}

func TestSaveObjectUnknownBucket(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()

	_, _, err := engine.SaveObject(context.Background(), "vault", "", "a.jpg", "image/jpeg", []byte("x"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSaveObjectWithoutServiceKey(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, func(b *Builder) {
		b.WithServiceKey("")
	})
	defer done()

	_, _, err := engine.SaveObject(context.Background(), "gallery", "", "a.jpg", "image/jpeg", []byte("x"))
	if !errors.Is(err, ErrServiceCredentialMissing) {
		t.Fatalf("expected ErrServiceCredentialMissing, got %v", err)
	}
}

func TestGetObjectMissing(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()

	_, _, err := engine.GetObject(context.Background(), "gallery", "nope.jpg")
	if !ObjectMissing(err) {
		t.Fatalf("expected missing-object error, got %v", err)
	}
}

func TestCollectionsListsKnownNames(t *testing.T) {
	names := Collections()
	if len(names) == 0 {
		t.Fatal("expected at least one collection")
	}
	seen := map[string]bool{}
	for _, n := range names {
		if seen[n] {
			t.Fatalf("duplicate collection %q", n)
		}
		seen[n] = true
	}
	if !seen["services"] || !seen["bookings"] {
		t.Fatalf("expected core collections, got %v", names)
	}
}
