package testutil

import (
	"testing"
	"time"

	"truvamate/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// Identity is the subject of a signed test token.
type Identity struct {
	UserID, Email, Name, Role string
}

// AccessToken signs an HS256 access token for id the way the marketplace
// identity service does.
func AccessToken(t *testing.T, cfg *config.JWTConfig, id Identity) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": id.UserID,
		"email":   id.Email,
		"role":    id.Role,
		"sub":     id.UserID,
		"iss":     cfg.Issuer,
		"iat":     now.Unix(),
		"exp":     now.Add(cfg.AccessExpiry).Unix(),
	}
	if id.Name != "" {
		claims["name"] = id.Name
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.AccessSecret))
	require.NoError(t, err)
	return tok
}
