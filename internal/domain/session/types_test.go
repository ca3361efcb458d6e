package session

import "testing"

func TestSession_RoleWithoutIdentity(t *testing.T) {
	var s Session
	if got := s.Role(); got != "" {
		t.Errorf("Role() = %q, want empty", got)
	}
}

func TestSession_Authorized(t *testing.T) {
	tests := []struct {
		state      State
		authorized bool
		known      bool
	}{
		{StateUnknown, false, false},
		{StateAuthenticated, true, true},
		{StateAnonymous, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			a, k := Session{State: tt.state}.Authorized()
			if a != tt.authorized || k != tt.known {
				t.Errorf("Authorized() = (%v, %v), want (%v, %v)", a, k, tt.authorized, tt.known)
			}
		})
	}
}

func TestSession_Guard(t *testing.T) {
	user := &Identity{ID: "u1", Role: RoleUser}
	admin := &Identity{ID: "a1", Role: RoleAdmin}

	tests := []struct {
		name      string
		s         Session
		adminOnly bool
		want      Access
	}{
		{"loading", Session{State: StateUnknown}, false, AccessPending},
		{"anonymous", Session{State: StateAnonymous}, false, AccessLogin},
		{"user on user page", Session{Credential: "t", Identity: user, State: StateAuthenticated}, false, AccessGranted},
		{"user on admin page", Session{Credential: "t", Identity: user, State: StateAuthenticated}, true, AccessHome},
		{"admin on admin page", Session{Credential: "t", Identity: admin, State: StateAuthenticated}, true, AccessGranted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Guard(tt.adminOnly); got != tt.want {
				t.Errorf("Guard() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRole_Valid(t *testing.T) {
	if !RoleAdmin.Valid() || !RoleUser.Valid() {
		t.Error("known roles should be valid")
	}
	if Role("root").Valid() {
		t.Error("unknown role should be invalid")
	}
}
