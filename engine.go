package backoffice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/omjyotish/backoffice/internal/audit"
	"github.com/omjyotish/backoffice/internal/content"
	"github.com/omjyotish/backoffice/internal/directory"
	"github.com/omjyotish/backoffice/internal/identity"
	"github.com/omjyotish/backoffice/internal/rate"
	"github.com/omjyotish/backoffice/jwt"
	"github.com/omjyotish/backoffice/password"
	"github.com/omjyotish/backoffice/permission"
	"github.com/omjyotish/backoffice/session"
	"github.com/omjyotish/backoffice/storage"
)

// Engine is the back-office core. Construct it with [New] and the
// builder; the zero value is not usable.
//
// All exported methods are safe for concurrent use.
type Engine struct {
	config   Config
	registry *permission.Registry

	sessions   *session.Store
	identities *identity.Store
	directory  *directory.Store
	content    *content.Store
	objects    *storage.Store

	limiter      *rate.Limiter
	jwtManager   *jwt.Manager
	passwordHash *password.Argon2

	audit   *audit.Dispatcher
	metrics *Metrics

	// serviceKey is the elevated service credential. Empty means the
	// engine runs degraded: privileged side effects return
	// ErrServiceCredentialMissing.
	serviceKey string
}

// Close flushes and stops the audit dispatcher. The engine must not be
// used after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// MetricsSnapshot returns a copy of all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}, Histograms: map[MetricID][]uint64{}}
	}
	return e.metrics.Snapshot()
}

// Ping verifies the Redis backend is reachable and returns the
// round-trip latency.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	if e == nil {
		return 0, ErrEngineNotReady
	}
	return e.sessions.Ping(ctx)
}

// Registry exposes the frozen capability tag registry.
func (e *Engine) Registry() *permission.Registry {
	return e.registry
}

// Config returns a defensive copy of the engine configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

// requireServiceKey gates privileged side effects on the elevated
// credential configured at build time.
func (e *Engine) requireServiceKey() error {
	if e.serviceKey == "" {
		return ErrServiceCredentialMissing
	}
	return nil
}

// rolePermissions resolves a role ID into a normalized permission set,
// validating every tag against the frozen registry.
func (e *Engine) rolePermissions(ctx context.Context, roleID string) (*directory.Role, []string, error) {
	role, err := e.directory.GetRole(ctx, roleID)
	if err != nil {
		if errors.Is(err, directory.ErrRoleNotFound) {
			return nil, nil, ErrRoleInvalid
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	perms := permission.Normalize(role.Permissions)
	for _, p := range perms {
		if !e.registry.Has(p) {
			return nil, nil, fmt.Errorf("%w: unregistered tag %q", ErrRoleInvalid, p)
		}
	}
	return role, perms, nil
}

// isPrivileged reports whether a permission set marks an admin session
// at all.
func isPrivileged(perms []string) bool {
	return permission.Allows(perms, permission.PrivilegedTags())
}
