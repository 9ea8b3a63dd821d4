package rbac

import "testing"

func TestCan(t *testing.T) {
	cases := []struct {
		name   string
		role   Role
		action Action
		allow  bool
	}{
		{name: "user creates document", role: RoleUser, action: ActionCreateDocument, allow: true},
		{name: "user escalates", role: RoleUser, action: ActionEscalate, allow: true},
		{name: "user lists own documents", role: RoleUser, action: ActionListOwnDocuments, allow: true},
		{name: "user cannot review", role: RoleUser, action: ActionReviewCase, allow: false},
		{name: "user cannot list cases", role: RoleUser, action: ActionListCases, allow: false},
		{name: "lawyer reviews", role: RoleLawyer, action: ActionReviewCase, allow: true},
		{name: "lawyer lists cases", role: RoleLawyer, action: ActionListCases, allow: true},
		{name: "lawyer cannot escalate", role: RoleLawyer, action: ActionEscalate, allow: false},
		{name: "lawyer cannot create documents", role: RoleLawyer, action: ActionCreateDocument, allow: false},
		{name: "unknown role denied", role: Role("admin"), action: ActionListCases, allow: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Can(tc.role, tc.action); got != tc.allow {
				t.Fatalf("Can(%q, %q) = %v, want %v", tc.role, tc.action, got, tc.allow)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if Normalize("lawyer") != RoleLawyer {
		t.Fatalf("expected lawyer to normalize to RoleLawyer")
	}
	if Normalize("user") != RoleUser {
		t.Fatalf("expected user to normalize to RoleUser")
	}
	if Normalize("superadmin") != RoleUser {
		t.Fatalf("expected unknown role to normalize to RoleUser")
	}
}
