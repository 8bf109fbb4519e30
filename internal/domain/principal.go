package domain

// Role is the closed set of access levels a principal can hold. Roles are
// resolved once from the bearer credential and passed down; handlers never
// re-derive them from raw strings.
type Role string

const (
	RoleProvider Role = "provider"
	RoleReviewer Role = "reviewer"
)

// ValidRole reports whether s is a known role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleProvider, RoleReviewer:
		return true
	}
	return false
}

// Principal is the authenticated actor behind a request. Identity issuance is
// external; the core consumes only this opaque pair.
type Principal struct {
	UserID string
	Role   Role
}

// IsReviewer reports whether the principal may act on the review queue and
// see profiles it does not own.
func (p Principal) IsReviewer() bool {
	return p.Role == RoleReviewer
}
