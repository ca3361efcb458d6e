// Package session describes the authenticated user of the storefront.
package session

// Role is the authorization role carried by an identity.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Identity is the profile of the authenticated user.
type Identity struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the identity may use admin-only features.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// State is the readiness of the session store.
type State int

const (
	// StateUnknown means a persisted credential is still being checked.
	// Callers must treat authorization as neither granted nor denied.
	StateUnknown State = iota
	// StateAuthenticated means a credential and identity are held.
	StateAuthenticated
	// StateAnonymous means there is no credential.
	StateAnonymous
)

// String returns a lowercase name for logs.
func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "invalid"
	}
}

// Session is a point-in-time view of the session store.
// Identity is nil whenever Credential is empty.
type Session struct {
	Credential string
	Identity   *Identity
	State      State
}

// Role returns the identity's role, or "" when there is no identity.
func (s Session) Role() Role {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Role
}

// Authorized returns whether a user is signed in and whether that answer
// is known yet.
func (s Session) Authorized() (authorized, known bool) {
	switch s.State {
	case StateAuthenticated:
		return true, true
	case StateAnonymous:
		return false, true
	default:
		return false, false
	}
}

// Access is the outcome of a route guard.
type Access int

const (
	// AccessPending means the session is not ready; show a spinner.
	AccessPending Access = iota
	// AccessGranted lets the caller through.
	AccessGranted
	// AccessLogin sends the caller to the login screen.
	AccessLogin
	// AccessHome sends a non-admin away from an admin screen.
	AccessHome
)

// Guard decides access for a screen, mirroring a protected route.
func (s Session) Guard(adminOnly bool) Access {
	authorized, known := s.Authorized()
	switch {
	case !known:
		return AccessPending
	case !authorized:
		return AccessLogin
	case adminOnly && !s.Identity.IsAdmin():
		return AccessHome
	default:
		return AccessGranted
	}
}
