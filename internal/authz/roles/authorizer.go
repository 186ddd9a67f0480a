// Package roles admits identities whose role claim is in a fixed set.
package roles

import (
	"strings"

	"beegate/internal/authz"

	"golang.org/x/exp/slices"
)

// DefaultRoles are the portal staff roles
var DefaultRoles = []string{"moderator", "admin", "super_admin"}

// Authorizer checks the role claim against an allow list
type Authorizer struct {
	roles []string
}

// New creates a roles authorizer. An empty list selects DefaultRoles.
func New(roles []string) *Authorizer {
	if len(roles) == 0 {
		roles = DefaultRoles
	}
	return &Authorizer{roles: slices.Clone(roles)}
}

// Roles returns the admitted roles
func (a *Authorizer) Roles() []string {
	return slices.Clone(a.roles)
}

// Authorize allows identities with an admitted role. Role names are case-sensitive.
func (a *Authorizer) Authorize(req *authz.Request) *authz.Response {
	if req.Identity == nil {
		return &authz.Response{
			Decision: authz.Unauthorized,
			Reason:   "No identity provided",
		}
	}

	if slices.Contains(a.roles, req.Identity.Role) {
		return &authz.Response{
			Decision: authz.Allow,
			Reason:   "Role " + req.Identity.Role + " admitted",
		}
	}

	return &authz.Response{
		Decision: authz.Deny,
		Reason:   "Role " + req.Identity.Role + " not in " + strings.Join(a.roles, ","),
	}
}
