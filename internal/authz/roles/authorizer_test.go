package roles

import (
	"context"
	"testing"

	"beegate/internal/auth"
	"beegate/internal/authz"

	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	a := New(nil)

	tests := []struct {
		name     string
		identity *auth.Identity
		want     authz.Decision
	}{
		{"anonymous", nil, authz.Unauthorized},
		{"moderator", &auth.Identity{ID: "1", Role: "moderator"}, authz.Allow},
		{"admin", &auth.Identity{ID: "1", Role: "admin"}, authz.Allow},
		{"super admin", &auth.Identity{ID: "1", Role: "super_admin"}, authz.Allow},
		{"beekeeper", &auth.Identity{ID: "1", Role: "user"}, authz.Deny},
		{"case sensitive", &auth.Identity{ID: "1", Role: "Admin"}, authz.Deny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := a.Authorize(&authz.Request{Identity: tt.identity, Context: context.Background()})
			assert.Equal(t, tt.want, resp.Decision, resp.Reason)
		})
	}
}

func TestNewCopiesRoles(t *testing.T) {
	roles := []string{"admin"}
	a := New(roles)
	roles[0] = "user"

	assert.Equal(t, []string{"admin"}, a.Roles())
	assert.Equal(t, DefaultRoles, New(nil).Roles())
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "allow", authz.Allow.String())
	assert.Equal(t, "deny", authz.Deny.String())
	assert.Equal(t, "unauthorized", authz.Unauthorized.String())
	assert.Equal(t, "error", authz.Error.String())
}
