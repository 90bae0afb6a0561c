package rbac

import "strings"

// Built-in role names. The catalogue is extensible at runtime; these are
// the seeded ones route declarations refer to.
const (
	RoleAdmin     = "admin"
	RoleDeveloper = "developer"
	RoleClient    = "client"
)

// RoleSet is a normalized set of role names. Route declarations build one
// once at startup; requests only read it.
type RoleSet map[string]struct{}

// NewRoleSet builds a RoleSet from names, trimming and lower-casing each.
func NewRoleSet(names ...string) RoleSet {
	set := make(RoleSet, len(names))
	for _, n := range names {
		n = strings.TrimSpace(strings.ToLower(n))
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}

// Has reports membership of a single role name.
func (s RoleSet) Has(name string) bool {
	_, ok := s[strings.ToLower(name)]
	return ok
}

// IntersectsAny reports whether any of the given role names is in the set.
func (s RoleSet) IntersectsAny(names []string) bool {
	for _, n := range names {
		if s.Has(n) {
			return true
		}
	}
	return false
}

// DenyReason classifies why an access decision denied the request.
type DenyReason int

const (
	DenyNone DenyReason = iota
	DenyUnauthenticated
	DenyForbiddenRole
	DenyRateLimited
)

// Decision is the ephemeral result of one authorization check.
type Decision struct {
	Allow  bool
	Reason DenyReason
}

// Gate is a named boolean capability expressed as an any-of role predicate.
// Gates are plain authorization, not a separate mechanism.
type Gate struct {
	Name     string
	Requires RoleSet
}

// Gates collects the named capabilities the application declares. It is
// constructed once and injected where needed; there is no global registry.
type Gates struct {
	ManageUsers Gate
	ManageRoles Gate
}

// DefaultGates returns the standard gate configuration.
func DefaultGates() Gates {
	return Gates{
		ManageUsers: Gate{Name: "manage-users", Requires: NewRoleSet(RoleAdmin)},
		ManageRoles: Gate{Name: "manage-roles", Requires: NewRoleSet(RoleAdmin)},
	}
}
