// Package auth is the authentication collaborator boundary. The
// pipeline only consumes the resolved Identity; token validation is
// external to this service's core.
package auth

import (
	"context"
	"net/http"

	"sylo-assistant/internal/common/errors"
)

// Identity is the authenticated caller. FirmID is the tenant-isolation
// boundary for every repository operation.
type Identity struct {
	UserID string
	FirmID string
	Email  string
	Role   string
}

// Authenticator resolves the caller identity from an inbound request.
type Authenticator interface {
	Authenticate(r *http.Request) (*Identity, error)
}

// StaticAuthenticator returns a fixed identity. It stands in for the
// real session layer in development and tests.
type StaticAuthenticator struct {
	Identity Identity
}

func (a *StaticAuthenticator) Authenticate(_ *http.Request) (*Identity, error) {
	id := a.Identity
	if id.UserID == "" || id.FirmID == "" {
		return nil, errors.NewUnauthenticatedError("no identity configured")
	}
	return &id, nil
}

// DefaultDevelopmentIdentity mirrors the seeded studio owner.
func DefaultDevelopmentIdentity() Identity {
	return Identity{
		UserID: "user_1",
		FirmID: "firm_1",
		Email:  "dean@sylo-max.com",
		Role:   "owner",
	}
}

type contextKey struct{}

// WithIdentity stores the identity on the request context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext retrieves the identity placed by the auth middleware.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(*Identity)
	return id, ok
}
