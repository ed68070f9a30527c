package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/estatehub/backend/internal/domain/entities"
	apperrors "github.com/estatehub/backend/pkg/errors"
)

// TokenManager mints and verifies the bearer tokens used as identity
// assertions. Verification yields {userId, role} or an unauthorized error;
// nothing downstream ever sees the raw credential.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a token manager from the shared signing secret.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Issue mints a signed token for the given user.
func (m *TokenManager) Issue(user *entities.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: user.Email,
		Role:  string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", apperrors.NewInternalError("failed to sign token", err)
	}
	return signed, nil
}

// Verify validates a bearer token and resolves the acting identity.
func (m *TokenManager) Verify(tokenString string) (entities.Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.NewUnauthorizedError("unexpected token signing method")
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return entities.Identity{}, apperrors.NewUnauthorizedError("invalid or expired token")
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || c.Subject == "" {
		return entities.Identity{}, apperrors.NewUnauthorizedError("invalid token claims")
	}

	role := entities.Role(c.Role)
	if role != entities.RoleAdmin {
		role = entities.RoleUser
	}

	return entities.Identity{UserID: c.Subject, Role: role}, nil
}
