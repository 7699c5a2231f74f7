package permission

import "testing"

func TestAllowsOverlapGrants(t *testing.T) {
	held := []string{TagContentManagement, TagMediaManagement}
	required := []string{TagAdmin, TagContentManagement}

	if !Allows(held, required) {
		t.Fatal("expected overlapping sets to grant")
	}
}

func TestAllowsDisjointDenies(t *testing.T) {
	held := []string{TagBookingManagement}
	required := []string{TagAdmin, TagStaffManagement}

	if Allows(held, required) {
		t.Fatal("expected disjoint sets to deny")
	}
}

func TestAllowsEmptyHeldDenies(t *testing.T) {
	if Allows(nil, []string{TagAdmin}) {
		t.Fatal("empty held set must never grant")
	}
	if Allows([]string{}, []string{TagAdmin}) {
		t.Fatal("empty held set must never grant")
	}
}

func TestAllowsEmptyRequiredFailsClosed(t *testing.T) {
	if Allows([]string{TagAdmin}, nil) {
		t.Fatal("empty required set must fail closed")
	}
}

func TestAllowsCaseAndWhitespaceInsensitive(t *testing.T) {
	if !Allows([]string{" Admin "}, []string{"ADMIN"}) {
		t.Fatal("expected canonicalized comparison to grant")
	}
}

func TestAllowsSymmetricOverOrder(t *testing.T) {
	held := []string{TagStaffManagement, TagAdmin}
	reversed := []string{TagAdmin, TagStaffManagement}
	required := []string{TagStaffManagement}

	if Allows(held, required) != Allows(reversed, required) {
		t.Fatal("element order must not change the outcome")
	}
}

func TestAllowsDeterministic(t *testing.T) {
	held := []string{TagAdmin}
	required := []string{TagAdmin}
	first := Allows(held, required)
	for i := 0; i < 100; i++ {
		if Allows(held, required) != first {
			t.Fatal("same inputs must always produce the same answer")
		}
	}
}

func TestNormalizeDeduplicates(t *testing.T) {
	got := Normalize([]string{"Admin", "admin", " ADMIN ", "", TagStaffManagement})
	if len(got) != 2 {
		t.Fatalf("expected 2 tags after normalization, got %v", got)
	}
	if got[0] != TagAdmin || got[1] != TagStaffManagement {
		t.Fatalf("unexpected normalized order: %v", got)
	}
}

func TestRegistryFreezeRejectsLateRegistration(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(TagAdmin); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	r.Freeze()

	if err := r.Register(TagStaffManagement); err == nil {
		t.Fatal("expected registration after freeze to fail")
	}
	if !r.Has(TagAdmin) || r.Count() != 1 {
		t.Fatal("freeze must not lose registered tags")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(TagAdmin); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := r.Register("ADMIN"); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}
