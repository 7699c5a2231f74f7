package backoffice

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/omjyotish/backoffice/internal/directory"
	"github.com/omjyotish/backoffice/internal/identity"
	"github.com/omjyotish/backoffice/permission"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// CreateStaff provisions a credential record and a staff directory row
// as one logical operation. The credential is written first; if the
// directory write fails the credential is deleted again so no orphaned
// login can ever authenticate. A rollback failure is surfaced to the
// audit trail and still reported as a creation failure.
//
// Requires the elevated service credential configured at build time.
func (e *Engine) CreateStaff(ctx context.Context, input CreateStaffInput) (*StaffRecord, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if err := e.requireServiceKey(); err != nil {
		return nil, err
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)

	if input.FirstName == "" {
		return nil, fmt.Errorf("%w: first name required", ErrValidation)
	}
	if !emailPattern.MatchString(input.Email) {
		return nil, fmt.Errorf("%w: malformed email", ErrValidation)
	}
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: password too short", ErrValidation)
	}

	roleID := input.RoleID
	if roleID == "" {
		role, err := e.directory.GetRoleByName(ctx, e.config.Directory.DefaultRole)
		if err != nil {
			return nil, ErrRoleInvalid
		}
		roleID = role.ID
	}
	if _, _, err := e.rolePermissions(ctx, roleID); err != nil {
		return nil, err
	}

	hash, err := e.passwordHash.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := time.Now().Unix()
	userID := uuid.NewString()

	err = e.identities.Create(ctx, identity.Record{
		UserID:       userID,
		Email:        input.Email,
		PasswordHash: hash,
		CreatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			e.metricInc(MetricStaffCreateConflict)
			return nil, ErrDuplicateEmail
		}
		return nil, ErrBackendUnavailable
	}

	rec := directory.StaffRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		RoleID:    roleID,
		Active:    true,
		CreatedAt: now,
	}
	if err := e.directory.InsertStaff(ctx, rec); err != nil {
		e.rollbackStaffCreate(ctx, userID, input.Email)
		if errors.Is(err, directory.ErrEmailTaken) {
			e.metricInc(MetricStaffCreateConflict)
			return nil, ErrDuplicateEmail
		}
		return nil, ErrBackendUnavailable
	}

	e.metricInc(MetricStaffCreated)
	e.emitAudit(ctx, AuditEvent{
		EventType: AuditStaffCreate,
		UserID:    userID,
		Email:     input.Email,
		Success:   true,
		Metadata:  map[string]string{"staff_id": rec.ID, "role_id": roleID},
	})
	return &rec, nil
}

func (e *Engine) rollbackStaffCreate(ctx context.Context, userID, email string) {
	e.metricInc(MetricStaffRollback)
	if err := e.identities.Delete(ctx, userID); err != nil {
		e.metricInc(MetricStaffRollbackFailed)
		e.emitAudit(ctx, AuditEvent{
			EventType: AuditStaffRollbackFailed,
			UserID:    userID,
			Email:     email,
			Error:     err.Error(),
		})
		return
	}
	e.emitAudit(ctx, AuditEvent{
		EventType: AuditStaffCreateRollback,
		UserID:    userID,
		Email:     email,
		Success:   true,
	})
}

// ListStaff returns every staff directory row ordered by creation
// time.
func (e *Engine) ListStaff(ctx context.Context) ([]StaffRecord, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	records, err := e.directory.ListStaff(ctx)
	if err != nil {
		return nil, ErrBackendUnavailable
	}
	return records, nil
}

// SetStaffActive activates or deactivates a staff record. Deactivation
// takes effect on the target's next authorization check.
func (e *Engine) SetStaffActive(ctx context.Context, staffID string, active bool) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if err := e.requireServiceKey(); err != nil {
		return err
	}
	if staffID == "" {
		return fmt.Errorf("%w: staff id required", ErrValidation)
	}

	if err := e.directory.SetActive(ctx, staffID, active); err != nil {
		if errors.Is(err, directory.ErrStaffNotFound) {
			return ErrStaffNotFound
		}
		return ErrBackendUnavailable
	}

	if !active {
		e.emitAudit(ctx, AuditEvent{
			EventType: AuditStaffDeactivate,
			Success:   true,
			Metadata:  map[string]string{"staff_id": staffID},
		})
	}
	return nil
}

// EnsureRole creates a role if no role with that name exists yet and
// returns it. Every tag must be registered; role definitions never
// invent capabilities.
func (e *Engine) EnsureRole(ctx context.Context, name string, perms []string) (*Role, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name required", ErrValidation)
	}

	if existing, err := e.directory.GetRoleByName(ctx, name); err == nil {
		return existing, nil
	}

	normalized := permission.Normalize(perms)
	if len(normalized) == 0 {
		return nil, fmt.Errorf("%w: role needs at least one permission", ErrRoleInvalid)
	}
	for _, p := range normalized {
		if !e.registry.Has(p) {
			return nil, fmt.Errorf("%w: unregistered tag %q", ErrRoleInvalid, p)
		}
	}

	role := directory.Role{
		ID:          uuid.NewString(),
		Name:        name,
		Permissions: normalized,
	}
	if err := e.directory.InsertRole(ctx, role); err != nil {
		// Lost the race to another creator; return theirs.
		if existing, getErr := e.directory.GetRoleByName(ctx, name); getErr == nil {
			return existing, nil
		}
		return nil, ErrBackendUnavailable
	}
	return &role, nil
}

// ListRoles returns the role catalogue ordered by name.
func (e *Engine) ListRoles(ctx context.Context) ([]Role, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	roles, err := e.directory.ListRoles(ctx)
	if err != nil {
		return nil, ErrBackendUnavailable
	}
	return roles, nil
}
