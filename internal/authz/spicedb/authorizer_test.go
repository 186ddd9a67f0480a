package spicedb

import (
	"context"
	"errors"
	"testing"

	"beegate/internal/auth"
	"beegate/internal/authz"
	"beegate/internal/observability/logging"

	v1pb "github.com/authzed/authzed-go/proto/authzed/api/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

type fakeChecker struct {
	resp *v1pb.CheckPermissionResponse
	err  error
	got  *v1pb.CheckPermissionRequest
}

func (f *fakeChecker) CheckPermission(_ context.Context, in *v1pb.CheckPermissionRequest, _ ...grpc.CallOption) (*v1pb.CheckPermissionResponse, error) {
	f.got = in
	return f.resp, f.err
}

var testConfig = Config{
	ResourceType: "portal",
	ResourceID:   "admin",
	Permission:   "access",
	SubjectType:  "user",
}

func TestAuthorizeAnonymous(t *testing.T) {
	a := New(testConfig, &fakeChecker{}, logging.Nop())
	resp := a.Authorize(&authz.Request{Context: context.Background()})
	assert.Equal(t, authz.Unauthorized, resp.Decision)
}

func TestAuthorizeBuildsCheck(t *testing.T) {
	checker := &fakeChecker{resp: &v1pb.CheckPermissionResponse{
		Permissionship: v1pb.CheckPermissionResponse_PERMISSIONSHIP_HAS_PERMISSION,
	}}
	a := New(testConfig, checker, logging.Nop())

	resp := a.Authorize(&authz.Request{
		Identity: &auth.Identity{ID: "42", Role: "admin"},
		Context:  context.Background(),
	})
	assert.Equal(t, authz.Allow, resp.Decision)

	require.NotNil(t, checker.got)
	assert.Equal(t, "portal", checker.got.GetResource().GetObjectType())
	assert.Equal(t, "admin", checker.got.GetResource().GetObjectId())
	assert.Equal(t, "access", checker.got.GetPermission())
	assert.Equal(t, "user", checker.got.GetSubject().GetObject().GetObjectType())
	assert.Equal(t, "42", checker.got.GetSubject().GetObject().GetObjectId())
}

func TestAuthorizeDeny(t *testing.T) {
	checker := &fakeChecker{resp: &v1pb.CheckPermissionResponse{
		Permissionship: v1pb.CheckPermissionResponse_PERMISSIONSHIP_NO_PERMISSION,
	}}
	a := New(testConfig, checker, logging.Nop())

	resp := a.Authorize(&authz.Request{Identity: &auth.Identity{ID: "7", Role: "user"}, Context: context.Background()})
	assert.Equal(t, authz.Deny, resp.Decision)
}

func TestAuthorizeError(t *testing.T) {
	a := New(testConfig, &fakeChecker{err: errors.New("unavailable")}, logging.Nop())

	resp := a.Authorize(&authz.Request{Identity: &auth.Identity{ID: "7", Role: "admin"}, Context: context.Background()})
	assert.Equal(t, authz.Error, resp.Decision)
	assert.Error(t, resp.Error)

	a = New(testConfig, nil, logging.Nop())
	resp = a.Authorize(&authz.Request{Identity: &auth.Identity{ID: "7", Role: "admin"}, Context: context.Background()})
	assert.Equal(t, authz.Error, resp.Decision)
}
