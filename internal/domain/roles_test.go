package domain

import "testing"

func TestIsValidRole(t *testing.T) {
	cases := []struct {
		role string
		ok   bool
	}{
		{"user", true},
		{"staff", true},
		{"admin", true},
		{"moderator", false},
		{"", false},
		{"Admin", false},
	}

	for _, c := range cases {
		if IsValidRole(c.role) != c.ok {
			t.Fatalf("unexpected IsValidRole(%q)", c.role)
		}
	}
}

func TestRoles_MatchValidator(t *testing.T) {
	if len(Roles) != 3 {
		t.Fatalf("unexpected role set: %v", Roles)
	}
	for _, r := range Roles {
		if !IsValidRole(string(r)) {
			t.Fatalf("%q should be valid", r)
		}
	}
}

func TestUser_HasRole(t *testing.T) {
	u := User{Role: "staff"}
	if !u.HasRole(RoleAdmin, RoleStaff) {
		t.Fatalf("expected staff to match")
	}
	if u.HasRole(RoleAdmin) {
		t.Fatalf("staff should not match admin")
	}
	if u.HasRole() {
		t.Fatalf("empty role list should not match")
	}
}

func TestFAQPatch_Apply_OnlyTouchesSetFields(t *testing.T) {
	cat := "general"
	f := FAQ{Question: "q", Answer: "a", Category: &cat, DisplayOrder: 3, IsActive: true}

	newAnswer := "b"
	inactive := false
	got := FAQPatch{Answer: &newAnswer, IsActive: &inactive}.Apply(f)

	if got.Question != "q" || got.Answer != "b" || got.DisplayOrder != 3 || got.IsActive {
		t.Fatalf("unexpected patch result: %+v", got)
	}
	if got.Category == nil || *got.Category != "general" {
		t.Fatalf("category should be preserved")
	}
}
