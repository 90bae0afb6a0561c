package rbac

import "github.com/devport-app/devport/internal/auth"

// Authorize decides whether a principal may pass a required any-of role
// set. An empty set means "authenticated only". A missing principal always
// denies as unauthenticated, never as forbidden: authentication failure
// takes precedence over authorization failure.
//
// The decision is a pure function of (principal.Roles, required); no I/O.
func Authorize(principal *auth.Principal, required RoleSet) Decision {
	if principal == nil {
		return Decision{Allow: false, Reason: DenyUnauthenticated}
	}
	if len(required) == 0 {
		return Decision{Allow: true}
	}
	if required.IntersectsAny(principal.Roles) {
		return Decision{Allow: true}
	}
	return Decision{Allow: false, Reason: DenyForbiddenRole}
}
