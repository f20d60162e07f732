package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role names are static reference data; every role assigned to a user must
// appear in the role_permissions map.
const (
	RoleAdmin        = "admin"
	RoleTherapist    = "therapist"
	RoleSocialWorker = "social_worker"
	RoleSecretary    = "secretary"
	RoleVolunteer    = "volunteer"
	RolePatient      = "patient"
	RoleViewer       = "viewer"
)

const (
	PermCreateRequest       = "create_request"
	PermViewOwnRequests     = "view_own_requests"
	PermViewRequests        = "view_requests"
	PermViewAssignedReqs    = "view_assigned_requests"
	PermAssignRequests      = "assign_requests"
	PermEditRequestStatus   = "edit_req_status"
	PermManageAnonRequests  = "manage_anonymous_requests"
	PermViewAnonRequests    = "view_anonymous_requests"
	PermManageUsers         = "manage_users"
	PermUpdateUser          = "update_user"
	PermViewUser            = "view_user"
	PermViewPatientInfo     = "view_patient_info"
)

// Access is the resolved authorization view of one user: the roles they
// hold and the union of the permissions those roles grant.
type Access struct {
	Email       string   `json:"email"`
	UserType    string   `json:"user_type"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

func (a *Access) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (a *Access) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if a.HasRole(role) {
			return true
		}
	}
	return false
}

func (a *Access) HasPermission(permission string) bool {
	for _, p := range a.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (a *Access) HasAnyPermission(permissions ...string) bool {
	for _, permission := range permissions {
		if a.HasPermission(permission) {
			return true
		}
	}
	return false
}

func (a *Access) IsAdmin() bool {
	return a.HasRole(RoleAdmin)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims represents JWT token claims. The subject is the user's email.
type Claims struct {
	Email    string `json:"email"`
	UserType string `json:"user_type"`
	jwt.RegisteredClaims
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(email, userType string) (string, error)
	GenerateRefreshToken(email, userType string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

type accessCtxKey struct{}

func ContextWithAccess(ctx context.Context, access *Access) context.Context {
	return context.WithValue(ctx, accessCtxKey{}, access)
}

// AccessFromContext retrieves the caller's resolved access, stored by the
// auth middleware.
func AccessFromContext(ctx context.Context) (*Access, bool) {
	access, ok := ctx.Value(accessCtxKey{}).(*Access)
	return access, ok
}
