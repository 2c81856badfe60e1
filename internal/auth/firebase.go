package auth

import (
	"context"

	"truvamate/internal/domain"

	firebaseauth "firebase.google.com/go/v4/auth"
)

// FirebaseVerifier verifies Firebase ID tokens. The role comes from the
// "role" custom claim.
type FirebaseVerifier struct {
	client *firebaseauth.Client
}

func NewFirebaseVerifier(client *firebaseauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	tok, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return identityFromClaims(tok.UID, tok.Claims), nil
}

func identityFromClaims(uid string, claims map[string]interface{}) *Identity {
	id := &Identity{UserID: uid, Role: domain.RoleUser}
	if v, ok := claims["email"].(string); ok {
		id.Email = v
	}
	if v, ok := claims["name"].(string); ok {
		id.Name = v
	}
	switch v, _ := claims["role"].(string); v {
	case domain.RoleAdmin, domain.RoleSeller, domain.RoleUser:
		id.Role = v
	}
	return id
}
