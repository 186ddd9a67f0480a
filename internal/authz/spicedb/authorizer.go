// internal/authz/spicedb/authorizer.go
package spicedb

import (
	"context"
	"errors"
	"fmt"

	"beegate/internal/authz"
	"beegate/internal/observability/logging"

	v1pb "github.com/authzed/authzed-go/proto/authzed/api/v1"
	"github.com/authzed/authzed-go/v1"
	"github.com/authzed/grpcutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// PermissionChecker is the part of the SpiceDB client the authorizer uses
type PermissionChecker interface {
	CheckPermission(ctx context.Context, in *v1pb.CheckPermissionRequest, opts ...grpc.CallOption) (*v1pb.CheckPermissionResponse, error)
}

// Authorizer implements authorization using SpiceDB
type Authorizer struct {
	client       PermissionChecker
	resourceType string
	resourceID   string
	permission   string
	subjectType  string
	logger       *logging.Logger
}

// Config holds SpiceDB authorizer configuration
type Config struct {
	// Endpoint is the SpiceDB endpoint
	Endpoint string

	// Insecure indicates whether to use an insecure connection
	Insecure bool

	// Token is the SpiceDB authentication token
	Token string

	// ResourceType is the SpiceDB resource type
	ResourceType string

	// ResourceID is the SpiceDB resource ID
	ResourceID string

	// Permission is checked when the request names none
	Permission string

	// SubjectType is the SpiceDB subject type
	SubjectType string
}

// Dial connects a SpiceDB client. The connection is established lazily by gRPC.
func Dial(config Config) (*authzed.Client, error) {
	var opts []grpc.DialOption
	if config.Insecure {
		opts = append(opts,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpcutil.WithInsecureBearerToken(config.Token),
		)
	} else {
		certs, err := grpcutil.WithSystemCerts(grpcutil.VerifyCA)
		if err != nil {
			return nil, fmt.Errorf("failed to load system certificates: %w", err)
		}
		opts = append(opts, certs, grpcutil.WithBearerToken(config.Token))
	}

	client, err := authzed.NewClient(config.Endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SpiceDB client: %w", err)
	}
	return client, nil
}

// New creates a new SpiceDB authorizer
func New(config Config, client PermissionChecker, logger *logging.Logger) *Authorizer {
	return &Authorizer{
		client:       client,
		resourceType: config.ResourceType,
		resourceID:   config.ResourceID,
		permission:   config.Permission,
		subjectType:  config.SubjectType,
		logger:       logger.WithModule("authz.spicedb"),
	}
}

// Authorize checks if the identity has the specified permission on the resource
func (a *Authorizer) Authorize(req *authz.Request) *authz.Response {
	// If no identity, return Unauthorized
	if req.Identity == nil {
		return &authz.Response{
			Decision: authz.Unauthorized,
			Reason:   "No identity provided",
		}
	}

	if a.client == nil {
		return &authz.Response{
			Decision: authz.Error,
			Reason:   "SpiceDB client not configured",
			Error:    errors.New("spicedb: no client"),
		}
	}

	resourceID := req.Resource
	if resourceID == "" {
		resourceID = a.resourceID
	}
	permission := req.Permission
	if permission == "" {
		permission = a.permission
	}

	ctx := req.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.FromContextOr(ctx, a.logger)

	checkReq := &v1pb.CheckPermissionRequest{
		Resource: &v1pb.ObjectReference{
			ObjectType: a.resourceType,
			ObjectId:   resourceID,
		},
		Permission: permission,
		Subject: &v1pb.SubjectReference{
			Object: &v1pb.ObjectReference{
				ObjectType: a.subjectType,
				ObjectId:   req.Identity.ID,
			},
		},
	}

	resp, err := a.client.CheckPermission(ctx, checkReq)
	if err != nil {
		logger.Error("Error checking permission with SpiceDB",
			logging.Err(err),
			"user_id", req.Identity.ID,
			"resource", resourceID,
			"permission", permission,
		)
		return &authz.Response{
			Decision: authz.Error,
			Reason:   "Error checking permission",
			Error:    err,
		}
	}

	if resp.GetPermissionship() == v1pb.CheckPermissionResponse_PERMISSIONSHIP_HAS_PERMISSION {
		return &authz.Response{
			Decision: authz.Allow,
			Reason:   "Permission granted",
		}
	}

	return &authz.Response{
		Decision: authz.Deny,
		Reason:   "Permission denied",
	}
}
