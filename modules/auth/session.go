package auth

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kavach-security/kavach/pkg/jwt"
)

// SessionClaims are the JWT claims carried by a session token. Subject
// is the account ID.
type SessionClaims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
}

// AccountID parses the subject claim.
func (c SessionClaims) AccountID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// issueSession signs a session token for the account. Called only after
// every required factor has passed.
func (s *Service) issueSession(account *Account) (string, error) {
	now := s.now()

	token, err := s.tokens.Generate(SessionClaims{
		StandardClaims: jwt.StandardClaims{
			ID:        uuid.NewString(),
			Subject:   account.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.sessionTTL).Unix(),
		},
		Email: account.Email,
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}
