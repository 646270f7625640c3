package rbac

// Role constants
const (
	RoleParticipant = "participant"
	RoleArbiter     = "arbiter"
)

// Permission constants
const (
	PermFileDispute        = "file_dispute"
	PermViewDispute        = "view_dispute"
	PermListDisputes       = "list_disputes"
	PermInvestigateDispute = "investigate_dispute"
	PermResolveDispute     = "resolve_dispute"
	PermDismissDispute     = "dismiss_dispute"
)

// RolePermissions defines what each role can do.
var RolePermissions = map[string][]string{
	RoleParticipant: {
		PermFileDispute, PermViewDispute,
		// Participant CANNOT: arbitration operations
	},
	RoleArbiter: {
		PermFileDispute, PermViewDispute, PermListDisputes,
		PermInvestigateDispute, PermResolveDispute, PermDismissDispute,
	},
}

// RoleFor maps the configured admin flag to an arbitration role.
func RoleFor(isAdmin bool) string {
	if isAdmin {
		return RoleArbiter
	}
	return RoleParticipant
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

// IsArbitrationOperation checks if permission is arbiter-only.
func IsArbitrationOperation(permission string) bool {
	return permission == PermInvestigateDispute ||
		permission == PermResolveDispute ||
		permission == PermDismissDispute ||
		permission == PermListDisputes
}
