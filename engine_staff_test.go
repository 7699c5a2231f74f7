package backoffice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/omjyotish/backoffice/internal/directory"
	"github.com/omjyotish/backoffice/internal/identity"
	"github.com/omjyotish/backoffice/permission"
)

func TestCreateStaff(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()
	rec := seedAdmin(t, engine)
	ctx := context.Background()

	if rec.ID == "" || rec.UserID == "" {
		t.Fatalf("expected populated record, got %+v", rec)
	}
	if !rec.Active {
		t.Fatal("new staff must start active")
	}

	listed, err := engine.ListStaff(ctx)
	if err != nil {
		t.Fatalf("list staff failed: %v", err)
	}
	if len(listed) != 1 || listed[0].Email != testEmail {
		t.Fatalf("unexpected listing: %+v", listed)
	}
}

func TestCreateStaffDuplicateEmail(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()
	seedAdmin(t, engine)
	ctx := context.Background()

	role, err := engine.EnsureRole(ctx, "administrator", permission.DefaultTags())
	if err != nil {
		t.Fatalf("ensure role failed: %v", err)
	}
	_, err = engine.CreateStaff(ctx, CreateStaffInput{
		FirstName: "Other",
		Email:     testEmail,
		Password:  testPassword,
		RoleID:    role.ID,
	})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestCreateStaffValidation(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateStaffInput
	}{
		{"missing first name", CreateStaffInput{Email: "a@b.co", Password: testPassword}},
		{"malformed email", CreateStaffInput{FirstName: "A", Email: "not-an-email", Password: testPassword}},
		{"short password", CreateStaffInput{FirstName: "A", Email: "a@b.co", Password: "short"}},
	}
	for _, tc := range cases {
		if _, err := engine.CreateStaff(ctx, tc.input); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}
}

func TestCreateStaffUnknownRole(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()

	_, err := engine.CreateStaff(context.Background(), CreateStaffInput{
		FirstName: "A",
		Email:     "a@b.co",
		Password:  testPassword,
		RoleID:    "no-such-role",
	})
	if !errors.Is(err, ErrRoleInvalid) {
		t.Fatalf("expected ErrRoleInvalid, got %v", err)
	}
}

func TestCreateStaffWithoutServiceKey(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, func(b *Builder) {
		b.WithServiceKey("")
	})
	defer done()

	_, err := engine.CreateStaff(context.Background(), CreateStaffInput{
		FirstName: "A",
		Email:     "a@b.co",
		Password:  testPassword,
	})
	if !errors.Is(err, ErrServiceCredentialMissing) {
		t.Fatalf("expected ErrServiceCredentialMissing, got %v", err)
	}
}

// When the directory write fails after the credential was created, the
// credential must be deleted again. The email stays reusable and no
// orphaned login can authenticate.
func TestCreateStaffRollsBackCredential(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()
	ctx := context.Background()

	role, err := engine.EnsureRole(ctx, "administrator", permission.DefaultTags())
	if err != nil {
		t.Fatalf("ensure role failed: %v", err)
	}

	// Occupy the directory email index without a matching credential so
	// the identity write succeeds and the directory write conflicts.
	err = engine.directory.InsertStaff(ctx, directory.StaffRecord{
		ID:        uuid.NewString(),
		UserID:    uuid.NewString(),
		Email:     testEmail,
		FirstName: "Ghost",
		RoleID:    role.ID,
		Active:    true,
		CreatedAt: time.Now().Unix(),
	})
	if err != nil {
		t.Fatalf("seed directory row failed: %v", err)
	}

	_, err = engine.CreateStaff(ctx, CreateStaffInput{
		FirstName: "Asha",
		Email:     testEmail,
		Password:  testPassword,
		RoleID:    role.ID,
	})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	// The compensating delete released the credential.
	if _, err := engine.identities.GetByEmail(ctx, testEmail); !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("expected credential to be rolled back, got %v", err)
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricStaffRollback] != 1 {
		t.Fatalf("expected one rollback, got %d", snap.Counters[MetricStaffRollback])
	}
	if snap.Counters[MetricStaffRollbackFailed] != 0 {
		t.Fatalf("expected no failed rollback, got %d", snap.Counters[MetricStaffRollbackFailed])
	}
}

func TestCreateStaffDefaultRole(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()
	ctx := context.Background()

	if _, err := engine.EnsureRole(ctx, "editor", []string{
		permission.TagContentManagement,
		permission.TagMediaManagement,
	}); err != nil {
		t.Fatalf("ensure role failed: %v", err)
	}

	rec, err := engine.CreateStaff(ctx, CreateStaffInput{
		FirstName: "Asha",
		Email:     testEmail,
		Password:  testPassword,
	})
	if err != nil {
		t.Fatalf("create staff failed: %v", err)
	}

	role, err := engine.directory.GetRole(ctx, rec.RoleID)
	if err != nil {
		t.Fatalf("get role failed: %v", err)
	}
	if role.Name != "editor" {
		t.Fatalf("expected default role editor, got %q", role.Name)
	}
}

func TestSetStaffActive(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()
	rec := seedAdmin(t, engine)
	ctx := context.Background()

	if err := engine.SetStaffActive(ctx, rec.ID, false); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	listed, err := engine.ListStaff(ctx)
	if err != nil {
		t.Fatalf("list staff failed: %v", err)
	}
	if listed[0].Active {
		t.Fatal("expected deactivated record")
	}

	if err := engine.SetStaffActive(ctx, "missing", true); !errors.Is(err, ErrStaffNotFound) {
		t.Fatalf("expected ErrStaffNotFound, got %v", err)
	}
}

func TestEnsureRoleIdempotent(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()
	ctx := context.Background()

	first, err := engine.EnsureRole(ctx, "editor", []string{permission.TagContentManagement})
	if err != nil {
		t.Fatalf("ensure role failed: %v", err)
	}
	second, err := engine.EnsureRole(ctx, "editor", []string{permission.TagAdmin})
	if err != nil {
		t.Fatalf("repeated ensure failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same role, got %q and %q", first.ID, second.ID)
	}

	roles, err := engine.ListRoles(ctx)
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	if len(roles) != 1 {
		t.Fatalf("expected one role, got %d", len(roles))
	}
}

func TestEnsureRoleRejectsUnregisteredTag(t *testing.T) {
	engine, _, done := newTestEngine(t, nil, nil)
	defer done()

	_, err := engine.EnsureRole(context.Background(), "weird", []string{"launch_rockets"})
	if !errors.Is(err, ErrRoleInvalid) {
		t.Fatalf("expected ErrRoleInvalid, got %v", err)
	}
}
