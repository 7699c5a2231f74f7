package backoffice

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/omjyotish/backoffice/permission"
	"github.com/omjyotish/backoffice/session"
)

func TestResolveCachedSession(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()
	seedAdmin(t, engine)
	ctx := context.Background()

	result := mustLogin(t, engine)

	sess := engine.Resolve(ctx, result.SessionID, "")
	if sess == nil {
		t.Fatal("expected cached session to resolve")
	}
	if sess.UserID != result.Session.UserID {
		t.Fatalf("resolved user %q, want %q", sess.UserID, result.Session.UserID)
	}

	// Resolving again yields the same identity.
	again := engine.Resolve(ctx, result.SessionID, "")
	if again == nil || again.SessionID != sess.SessionID || again.UserID != sess.UserID {
		t.Fatalf("resolve is not idempotent: %+v vs %+v", sess, again)
	}
}

// Two successive resolutions with no state change in between must
// yield structurally equal sessions, or nil both times.
func TestResolveIdempotent(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()
	seedAdmin(t, engine)
	ctx := context.Background()

	result := mustLogin(t, engine)

	first := engine.Resolve(ctx, result.SessionID, result.AccessToken)
	second := engine.Resolve(ctx, result.SessionID, result.AccessToken)
	if first == nil || second == nil {
		t.Fatalf("expected sessions, got %v and %v", first, second)
	}
	if !reflect.DeepEqual(*first, *second) {
		t.Fatalf("cached-path resolutions differ:\n%+v\n%+v", *first, *second)
	}

	// The token path repopulates the cache; the next call reads exactly
	// what the first one wrote.
	if err := engine.sessions.Delete(ctx, result.SessionID); err != nil {
		t.Fatalf("delete session failed: %v", err)
	}
	rebuilt := engine.Resolve(ctx, result.SessionID, result.AccessToken)
	again := engine.Resolve(ctx, result.SessionID, result.AccessToken)
	if rebuilt == nil || again == nil {
		t.Fatalf("expected sessions, got %v and %v", rebuilt, again)
	}
	if !reflect.DeepEqual(*rebuilt, *again) {
		t.Fatalf("token-path resolutions differ:\n%+v\n%+v", *rebuilt, *again)
	}

	// The nil outcome is idempotent too.
	if a, b := engine.Resolve(ctx, "none", "junk"), engine.Resolve(ctx, "none", "junk"); a != nil || b != nil {
		t.Fatalf("expected nil both times, got %v and %v", a, b)
	}
}

func TestResolveByTokenRepopulatesCache(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()
	seedAdmin(t, engine)
	ctx := context.Background()

	result := mustLogin(t, engine)
	if err := engine.sessions.Delete(ctx, result.SessionID); err != nil {
		t.Fatalf("delete session failed: %v", err)
	}

	sess := engine.Resolve(ctx, result.SessionID, result.AccessToken)
	if sess == nil {
		t.Fatal("expected token path to resolve")
	}
	if sess.Email != testEmail {
		t.Fatalf("unexpected email %q", sess.Email)
	}

	// The token path wrote the session back; the cache alone now works.
	if cached := engine.Resolve(ctx, result.SessionID, ""); cached == nil {
		t.Fatal("expected cache to be repopulated")
	}
}

func TestResolveNothingReturnsNil(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()
	ctx := context.Background()

	if sess := engine.Resolve(ctx, "", ""); sess != nil {
		t.Fatalf("expected nil, got %+v", sess)
	}
	if sess := engine.Resolve(ctx, "no-such-session", "garbage-token"); sess != nil {
		t.Fatalf("expected nil, got %+v", sess)
	}

	var nilEngine *Engine
	if sess := nilEngine.Resolve(ctx, "a", "b"); sess != nil {
		t.Fatal("nil engine must resolve to nil")
	}
}

func TestResolveStaleSessionRevalidates(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()
	seedAdmin(t, engine)
	ctx := context.Background()

	result := mustLogin(t, engine)
	backdateSession(t, engine, result.SessionID)

	sess := engine.Resolve(ctx, result.SessionID, "")
	if sess == nil {
		t.Fatal("expected stale session of an active admin to survive revalidation")
	}
	if time.Now().Unix()-sess.RevalidatedAt > 5 {
		t.Fatalf("expected fresh revalidation stamp, got %d", sess.RevalidatedAt)
	}
}

func TestResolveStaleSessionDropsDeactivated(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()
	rec := seedAdmin(t, engine)
	ctx := context.Background()

	result := mustLogin(t, engine)
	if err := engine.SetStaffActive(ctx, rec.ID, false); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	backdateSession(t, engine, result.SessionID)

	if sess := engine.Resolve(ctx, result.SessionID, result.AccessToken); sess != nil {
		t.Fatalf("expected nil for deactivated admin, got %+v", sess)
	}

	// The stale cache entry was dropped, not left behind.
	if _, err := engine.sessions.Get(ctx, result.SessionID); err == nil {
		t.Fatal("expected session to be deleted after failed revalidation")
	}
}

func TestResolveFreshCacheSkipsDirectory(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()
	rec := seedAdmin(t, engine)
	ctx := context.Background()

	result := mustLogin(t, engine)
	if err := engine.SetStaffActive(ctx, rec.ID, false); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	// Within the revalidation window the cache is trusted as-is; the
	// deactivation lands on the next revalidation or authorization check.
	if sess := engine.Resolve(ctx, result.SessionID, ""); sess == nil {
		t.Fatal("expected fresh cached session to be adopted")
	}
}

func TestResolveRejectsUnprivilegedCache(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()
	ctx := context.Background()

	now := time.Now()
	sess := &AdminSession{
		SessionID:     "forged",
		UserID:        "u1",
		Email:         "u1@example.com",
		Role:          "scheduler",
		Permissions:   []string{permission.TagBookingManagement},
		CreatedAt:     now.Unix(),
		ExpiresAt:     now.Add(time.Hour).Unix(),
		RevalidatedAt: now.Unix(),
		SchemaVersion: session.CurrentSchemaVersion,
	}
	if err := engine.sessions.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if got := engine.Resolve(ctx, "forged", ""); got != nil {
		t.Fatalf("expected unprivileged cache entry to be ignored, got %+v", got)
	}
}

func TestResolveDevFallbackNeedsMarker(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, func(b *Builder) {
		b.WithDevAuth(map[string]string{"dev@localhost": "dev-pass-123"})
	})
	defer done()
	ctx := context.Background()

	// No dev login happened yet, so no marker and no fallback.
	if sess := engine.Resolve(ctx, "", ""); sess != nil {
		t.Fatalf("expected nil before dev login, got %+v", sess)
	}

	result, err := engine.Login(ctx, "dev@localhost", "dev-pass-123")
	if err != nil {
		t.Fatalf("dev login failed: %v", err)
	}

	sess := engine.Resolve(ctx, "", "")
	if sess == nil || !sess.Dev {
		t.Fatalf("expected synthesized dev session, got %+v", sess)
	}

	// A cached dev session without the marker is not honored either.
	if err := engine.sessions.ClearDevMarker(ctx); err != nil {
		t.Fatalf("clear marker failed: %v", err)
	}
	if got := engine.Resolve(ctx, result.SessionID, ""); got != nil {
		t.Fatalf("expected nil after marker cleared, got %+v", got)
	}
}

func TestResolveDevSessionIgnoredWhenDisabled(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()
	ctx := context.Background()

	now := time.Now()
	sess := &AdminSession{
		SessionID:     "dev-leftover",
		UserID:        "dev:dev@localhost",
		Email:         "dev@localhost",
		Role:          permission.TagAdmin,
		Permissions:   permission.DefaultTags(),
		Dev:           true,
		CreatedAt:     now.Unix(),
		ExpiresAt:     now.Add(time.Hour).Unix(),
		RevalidatedAt: now.Unix(),
		SchemaVersion: session.CurrentSchemaVersion,
	}
	if err := engine.sessions.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if got := engine.Resolve(ctx, "dev-leftover", ""); got != nil {
		t.Fatalf("dev session must not resolve with the fallback disabled, got %+v", got)
	}
}

// backdateSession pushes the revalidation stamp far enough into the
// past that the next read triggers a directory cross-check.
func backdateSession(t *testing.T, engine *Engine, sessionID string) {
	t.Helper()
	ctx := context.Background()

	sess, err := engine.sessions.Get(ctx, sessionID)
	if err != nil {
		t.Fatalf("get session failed: %v", err)
	}
	sess.RevalidatedAt = time.Now().Add(-2 * time.Hour).Unix()
	if err := engine.sessions.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("save session failed: %v", err)
	}
}
