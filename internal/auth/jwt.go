package auth

import (
	"context"

	"truvamate/config"
	"truvamate/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are issued by the marketplace identity service; the ledger only
// verifies them.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func ParseAccessToken(cfg *config.JWTConfig, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.AccessSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// JWTVerifier verifies HS256 tokens signed with the shared access secret.
type JWTVerifier struct {
	cfg *config.JWTConfig
}

func NewJWTVerifier(cfg *config.JWTConfig) *JWTVerifier {
	return &JWTVerifier{cfg: cfg}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	claims, err := ParseAccessToken(v.cfg, token)
	if err != nil {
		return nil, err
	}
	role := claims.Role
	if role == "" {
		role = domain.RoleUser
	}
	return &Identity{UserID: claims.UserID, Email: claims.Email, Name: claims.Name, Role: role}, nil
}
