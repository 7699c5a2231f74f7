package backoffice

import (
	"context"
	"errors"
	"time"

	"github.com/omjyotish/backoffice/internal/directory"
	"github.com/omjyotish/backoffice/permission"
	"github.com/omjyotish/backoffice/session"
)

// Resolve establishes the caller's admin identity. It consults, in
// order: the cached session, the access token cross-checked against
// the staff directory, and (only when enabled at build time) the
// development fallback marker.
//
// Resolve never returns an error. Any failure inside a step means the
// step contributes nothing and the next one runs; callers get either a
// usable session or nil.
func (e *Engine) Resolve(ctx context.Context, sessionID, accessToken string) *AdminSession {
	if e == nil {
		return nil
	}

	start := time.Now()
	defer func() {
		e.metrics.Observe(MetricResolveLatency, time.Since(start))
	}()

	if sess := e.resolveCached(ctx, sessionID); sess != nil {
		e.metricInc(MetricResolveCacheHit)
		return sess
	}

	if sess := e.resolveBackend(ctx, accessToken); sess != nil {
		e.metricInc(MetricResolveBackend)
		return sess
	}

	if sess := e.resolveDevFallback(ctx); sess != nil {
		e.metricInc(MetricResolveDevFallback)
		return sess
	}

	e.metricInc(MetricResolveMiss)
	return nil
}

// resolveCached adopts the cached session when it is structurally
// valid, carries a privileged permission set, and is fresh enough.
func (e *Engine) resolveCached(ctx context.Context, sessionID string) *AdminSession {
	if sessionID == "" {
		return nil
	}

	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil
	}
	if !sess.StructurallyValid() || !isPrivileged(sess.Permissions) {
		return nil
	}

	if sess.Dev {
		// Dev sessions are only honored while the insecure flag is on
		// and the login marker is still present.
		if !e.config.DevAuth.Allow {
			return nil
		}
		if _, err := e.sessions.DevMarker(ctx); err != nil {
			return nil
		}
		return sess
	}

	if e.staleSession(sess) {
		revalidated, err := e.revalidateSession(ctx, sess)
		if err != nil {
			// Directory says no, or the backend was unreachable.
			// Either way the cache cannot be trusted; drop it and let
			// the later steps decide.
			_ = e.sessions.Delete(ctx, sessionID)
			e.metricInc(MetricSessionInvalidated)
			return nil
		}
		return revalidated
	}

	return sess
}

func (e *Engine) staleSession(sess *AdminSession) bool {
	after := e.config.Session.RevalidateAfter
	if after <= 0 {
		return false
	}
	return time.Now().Unix()-sess.RevalidatedAt > int64(after/time.Second)
}

// revalidateSession re-checks the staff directory and refreshes the
// cached permission set.
func (e *Engine) revalidateSession(ctx context.Context, sess *AdminSession) (*AdminSession, error) {
	staff, err := e.directory.GetStaffByUserID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, directory.ErrStaffNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	if !staff.Active {
		return nil, ErrAccountDeactivated
	}

	_, perms, err := e.rolePermissions(ctx, staff.RoleID)
	if err != nil {
		return nil, err
	}
	if !isPrivileged(perms) {
		return nil, ErrInsufficientPermissions
	}

	sess.Role = staff.RoleID
	sess.Permissions = perms
	sess.DisplayName = staff.DisplayName()
	sess.RevalidatedAt = time.Now().Unix()
	if err := e.sessions.Touch(ctx, sess); err != nil {
		// The fresh answer is still good even if the cache write
		// failed; the next request revalidates again.
		return sess, nil
	}

	e.emitAudit(ctx, AuditEvent{
		EventType: AuditSessionRevalidated,
		UserID:    sess.UserID,
		Email:     sess.Email,
		SessionID: sess.SessionID,
		Success:   true,
	})
	return sess, nil
}

// resolveBackend verifies the access token and rebuilds the identity
// from the staff directory.
func (e *Engine) resolveBackend(ctx context.Context, accessToken string) *AdminSession {
	if accessToken == "" {
		return nil
	}

	claims, err := e.jwtManager.ParseAccess(accessToken)
	if err != nil {
		return nil
	}

	staff, err := e.directory.GetStaffByUserID(ctx, claims.UID)
	if err != nil || !staff.Active {
		return nil
	}

	_, perms, err := e.rolePermissions(ctx, staff.RoleID)
	if err != nil || !isPrivileged(perms) {
		return nil
	}

	now := time.Now()
	sess := &AdminSession{
		SessionID:     claims.SID,
		UserID:        staff.UserID,
		Email:         staff.Email,
		DisplayName:   staff.DisplayName(),
		Role:          staff.RoleID,
		Permissions:   perms,
		CreatedAt:     now.Unix(),
		ExpiresAt:     now.Add(e.config.Session.TTL).Unix(),
		RevalidatedAt: now.Unix(),
		SchemaVersion: session.CurrentSchemaVersion,
	}

	// Repopulate the cache so the next request takes the cheap path.
	if claims.SID != "" {
		_ = e.sessions.Save(ctx, sess, e.config.Session.TTL)
	}
	return sess
}

// resolveDevFallback synthesizes a development session when the
// insecure flag is on and a dev login happened earlier.
func (e *Engine) resolveDevFallback(ctx context.Context) *AdminSession {
	if !e.config.DevAuth.Allow {
		return nil
	}

	name, err := e.sessions.DevMarker(ctx)
	if err != nil {
		return nil
	}

	now := time.Now()
	return &AdminSession{
		SessionID:     "dev",
		UserID:        "dev:" + name,
		Email:         name,
		DisplayName:   e.config.DevAuth.DisplayName,
		Role:          permission.TagAdmin,
		Permissions:   permission.DefaultTags(),
		Dev:           true,
		CreatedAt:     now.Unix(),
		ExpiresAt:     now.Add(e.config.Session.TTL).Unix(),
		RevalidatedAt: now.Unix(),
		SchemaVersion: session.CurrentSchemaVersion,
	}
}
