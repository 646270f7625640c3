package rbac

import "testing"

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role       string
		permission string
		expected   bool
	}{
		{RoleParticipant, PermFileDispute, true},
		{RoleParticipant, PermViewDispute, true},
		{RoleParticipant, PermResolveDispute, false},
		{RoleParticipant, PermInvestigateDispute, false},
		{RoleParticipant, PermDismissDispute, false},
		{RoleParticipant, PermListDisputes, false},
		{RoleArbiter, PermResolveDispute, true},
		{RoleArbiter, PermInvestigateDispute, true},
		{RoleArbiter, PermDismissDispute, true},
		{RoleArbiter, PermListDisputes, true},
		{RoleArbiter, PermFileDispute, true},
		{"unknown", PermFileDispute, false},
		{RoleParticipant, "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.permission, func(t *testing.T) {
			if got := HasPermission(tt.role, tt.permission); got != tt.expected {
				t.Errorf("HasPermission(%q, %q) = %v, want %v", tt.role, tt.permission, got, tt.expected)
			}
		})
	}
}

func TestRoleFor(t *testing.T) {
	if RoleFor(true) != RoleArbiter {
		t.Error("RoleFor(true) should be arbiter")
	}
	if RoleFor(false) != RoleParticipant {
		t.Error("RoleFor(false) should be participant")
	}
}

func TestArbitrationOperationsAreArbiterOnly(t *testing.T) {
	for _, perm := range RolePermissions[RoleParticipant] {
		if IsArbitrationOperation(perm) {
			t.Errorf("participant holds arbitration permission %q", perm)
		}
	}
}
