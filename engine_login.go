package backoffice

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/omjyotish/backoffice/internal/directory"
	"github.com/omjyotish/backoffice/internal/identity"
	"github.com/omjyotish/backoffice/internal/rate"
	"github.com/omjyotish/backoffice/permission"
	"github.com/omjyotish/backoffice/session"
)

// Login authenticates an admin by email and password and creates a
// cached session plus an access token.
//
// Failure reasons are deliberately distinct: wrong credentials return
// [ErrInvalidCredentials], a credential with no directory row returns
// [ErrStaffNotFound], a deactivated row returns
// [ErrAccountDeactivated], and a role with no privileged capability
// returns [ErrInsufficientPermissions]. The last-login stamp is best
// effort and never fails the login.
func (e *Engine) Login(ctx context.Context, email, pass string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || pass == "" {
		return nil, ErrValidation
	}

	ip := clientIPFromContext(ctx)
	if err := e.limiter.CheckLogin(ctx, email, ip); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, AuditEvent{EventType: AuditLogin, Email: email, Error: "rate limited"})
			return nil, ErrLoginRateLimited
		}
		return nil, ErrBackendUnavailable
	}

	rec, err := e.identities.GetByEmail(ctx, email)
	if err != nil {
		// The development fallback only covers an unusable identity
		// backend or an unknown identifier, never a wrong password on
		// a real account.
		if result, ok := e.devLogin(ctx, email, pass); ok {
			return result, nil
		}
		if errors.Is(err, identity.ErrNotFound) {
			return nil, e.loginFailed(ctx, email, ip, ErrInvalidCredentials)
		}
		return nil, ErrBackendUnavailable
	}

	match, err := e.passwordHash.Verify(pass, rec.PasswordHash)
	if err != nil || !match {
		return nil, e.loginFailed(ctx, email, ip, ErrInvalidCredentials)
	}

	staff, err := e.directory.GetStaffByUserID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, directory.ErrStaffNotFound) {
			return nil, e.loginFailed(ctx, email, ip, ErrStaffNotFound)
		}
		return nil, ErrBackendUnavailable
	}
	if !staff.Active {
		return nil, e.loginFailed(ctx, email, ip, ErrAccountDeactivated)
	}

	_, perms, err := e.rolePermissions(ctx, staff.RoleID)
	if err != nil {
		return nil, err
	}
	if !isPrivileged(perms) {
		return nil, e.loginFailed(ctx, email, ip, ErrInsufficientPermissions)
	}

	now := time.Now()
	sess := &AdminSession{
		SessionID:     uuid.NewString(),
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
	if err := e.sessions.Save(ctx, sess, e.config.Session.TTL); err != nil {
		return nil, ErrBackendUnavailable
	}

	token, err := e.jwtManager.CreateAccess(staff.UserID, sess.SessionID, staff.Email)
	if err != nil {
		_ = e.sessions.Delete(ctx, sess.SessionID)
		return nil, err
	}

	// Best effort: a failed stamp is logged by the caller's audit trail,
	// never surfaced to the person logging in.
	_ = e.directory.RecordLastLogin(ctx, staff.ID, now.Unix())

	_ = e.limiter.ResetLogin(ctx, email, ip)
	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, AuditEvent{
		EventType: AuditLogin,
		UserID:    staff.UserID,
		Email:     staff.Email,
		SessionID: sess.SessionID,
		Success:   true,
	})

	return &LoginResult{
		SessionID:   sess.SessionID,
		AccessToken: token,
		Session:     sess,
	}, nil
}

// devLogin matches the identifier against the configured development
// allow-list. Only reachable when the insecure flag was set at build
// time.
func (e *Engine) devLogin(ctx context.Context, email, pass string) (*LoginResult, bool) {
	if !e.config.DevAuth.Allow {
		return nil, false
	}

	secret, ok := e.config.DevAuth.Users[email]
	if !ok || subtle.ConstantTimeCompare([]byte(secret), []byte(pass)) != 1 {
		return nil, false
	}

	now := time.Now()
	sess := &AdminSession{
		SessionID:     uuid.NewString(),
		UserID:        "dev:" + email,
		Email:         email,
		DisplayName:   e.config.DevAuth.DisplayName,
		Role:          permission.TagAdmin,
		Permissions:   permission.DefaultTags(),
		Dev:           true,
		CreatedAt:     now.Unix(),
		ExpiresAt:     now.Add(e.config.Session.TTL).Unix(),
		RevalidatedAt: now.Unix(),
		SchemaVersion: session.CurrentSchemaVersion,
	}
	if err := e.sessions.Save(ctx, sess, e.config.Session.TTL); err != nil {
		return nil, false
	}
	if err := e.sessions.SetDevMarker(ctx, email, e.config.Session.TTL); err != nil {
		_ = e.sessions.Delete(ctx, sess.SessionID)
		return nil, false
	}

	token, err := e.jwtManager.CreateAccess(sess.UserID, sess.SessionID, email)
	if err != nil {
		_ = e.sessions.Delete(ctx, sess.SessionID)
		_ = e.sessions.ClearDevMarker(ctx)
		return nil, false
	}

	e.metricInc(MetricLoginDevFallback)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, AuditEvent{
		EventType: AuditLoginDevFallback,
		UserID:    sess.UserID,
		Email:     email,
		SessionID: sess.SessionID,
		Success:   true,
	})

	return &LoginResult{
		SessionID:   sess.SessionID,
		AccessToken: token,
		Session:     sess,
	}, true
}

func (e *Engine) loginFailed(ctx context.Context, email, ip string, reason error) error {
	if err := e.limiter.IncrementLogin(ctx, email, ip); err != nil && errors.Is(err, rate.ErrRateLimited) {
		e.metricInc(MetricLoginRateLimited)
		return ErrLoginRateLimited
	}
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, AuditEvent{EventType: AuditLogin, Email: email, Error: reason.Error()})
	return reason
}

// Logout deletes the cached session. Unknown sessions are not an
// error. Dev sessions also clear the fallback marker so the resolver
// stops synthesizing identities.
func (e *Engine) Logout(ctx context.Context, sessionID string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if sessionID == "" {
		return ErrValidation
	}

	sess, err := e.sessions.Get(ctx, sessionID)
	if err == nil && sess.Dev {
		_ = e.sessions.ClearDevMarker(ctx)
	}

	if err := e.sessions.Delete(ctx, sessionID); err != nil {
		return ErrBackendUnavailable
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, AuditEvent{EventType: AuditLogout, SessionID: sessionID, Success: true})
	return nil
}

// ValidateAccess verifies the token and returns the session it refers
// to, rebuilding it from the directory when the cache expired. Unlike
// [Engine.Resolve] it reports why a caller is not authenticated.
func (e *Engine) ValidateAccess(ctx context.Context, accessToken string) (*AdminSession, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if accessToken == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := e.jwtManager.ParseAccess(accessToken)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	if sess, err := e.sessions.Get(ctx, claims.SID); err == nil {
		if sess.Dev {
			if !e.config.DevAuth.Allow {
				return nil, ErrUnauthenticated
			}
			if _, err := e.sessions.DevMarker(ctx); err != nil {
				return nil, ErrUnauthenticated
			}
			return sess, nil
		}
		if sess.StructurallyValid() && isPrivileged(sess.Permissions) {
			return sess, nil
		}
		return nil, ErrInsufficientPermissions
	}

	staff, err := e.directory.GetStaffByUserID(ctx, claims.UID)
	if err != nil {
		if errors.Is(err, directory.ErrStaffNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, ErrBackendUnavailable
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
	_ = e.sessions.Save(ctx, sess, e.config.Session.TTL)
	return sess, nil
}

// Authorize authenticates the token and checks the caller's fresh
// directory state against the required capability set. Authentication
// is settled before any other request validation so probing callers
// learn nothing from validation errors.
func (e *Engine) Authorize(ctx context.Context, accessToken string, required ...string) (*AdminSession, error) {
	sess, err := e.ValidateAccess(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	held := sess.Permissions
	if !sess.Dev {
		// Re-check the directory so a deactivation or role downgrade
		// takes effect mid-session.
		staff, err := e.directory.GetStaffByUserID(ctx, sess.UserID)
		if err != nil {
			if errors.Is(err, directory.ErrStaffNotFound) {
				return nil, ErrStaffNotFound
			}
			return nil, ErrBackendUnavailable
		}
		if !staff.Active {
			return nil, ErrAccountDeactivated
		}
		if _, perms, err := e.rolePermissions(ctx, staff.RoleID); err == nil {
			held = perms
		}
	}

	if !permission.Allows(held, required) {
		e.metricInc(MetricAuthorizeDenied)
		return nil, ErrInsufficientPermissions
	}
	return sess, nil
}
