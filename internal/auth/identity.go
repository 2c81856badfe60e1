package auth

import (
	"context"
	"errors"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the verified caller of a request.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

// TokenVerifier turns a bearer token into an Identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity placed by WithIdentity.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil && id.UserID != ""
}
