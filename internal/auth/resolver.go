package auth

import (
	"log/slog"

	"github.com/caredesk/case-management/internal"
)

// ResolverRepository is the read-side lookup the resolver needs. ListRoles
// and ListPermissions return empty slices for users with no roles; only a
// missing user is an error.
type ResolverRepository interface {
	GetUserType(email string) (string, error)
	ListRoles(email string) ([]string, error)
	ListPermissions(email string) ([]string, error)
}

// Resolver computes the role and permission sets for a user identity.
// Callers never query the role or permission tables directly.
type Resolver struct {
	repo   ResolverRepository
	logger *slog.Logger
}

func NewResolver(repo ResolverRepository, logger *slog.Logger) *Resolver {
	return &Resolver{repo: repo, logger: logger}
}

// Resolve returns the user's roles and the deduplicated union of the
// permissions those roles grant. A user with zero roles resolves to empty
// sets, not an error.
func (r *Resolver) Resolve(email string) (*Access, error) {
	userType, err := r.repo.GetUserType(email)
	if err != nil {
		r.logger.Warn("resolve: user lookup failed", "email", email, "error", err)
		return nil, internal.ErrUserNotFound
	}

	roles, err := r.repo.ListRoles(email)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user roles", err)
	}

	permissions, err := r.repo.ListPermissions(email)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user permissions", err)
	}

	return &Access{
		Email:       email,
		UserType:    userType,
		Roles:       dedupe(roles),
		Permissions: dedupe(permissions),
	}, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
