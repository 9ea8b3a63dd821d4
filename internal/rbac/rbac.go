// Package rbac models the two application roles as a closed variant.
package rbac

type Role string
type Action string

const (
	RoleUser   Role = "user"
	RoleLawyer Role = "lawyer"
)

const (
	ActionListOwnDocuments      Action = "list_own_documents"
	ActionListAssignedDocuments Action = "list_assigned_documents"
	ActionCreateDocument        Action = "create_document"
	ActionEscalate              Action = "escalate"
	ActionListCases             Action = "list_cases"
	ActionReviewCase            Action = "review_case"
)

// Can reports whether role may perform action. There is no hierarchy and no
// admin override: users upload and escalate, lawyers review.
func Can(role Role, action Action) bool {
	switch role {
	case RoleUser:
		return action == ActionListOwnDocuments || action == ActionCreateDocument || action == ActionEscalate
	case RoleLawyer:
		return action == ActionListAssignedDocuments || action == ActionListCases || action == ActionReviewCase
	default:
		return false
	}
}

// Valid reports whether role is one of the two known roles.
func Valid(role Role) bool {
	return role == RoleUser || role == RoleLawyer
}

// Normalize maps an arbitrary role string to a known role, defaulting to
// the least-privileged user role.
func Normalize(role string) Role {
	switch Role(role) {
	case RoleUser, RoleLawyer:
		return Role(role)
	default:
		return RoleUser
	}
}
