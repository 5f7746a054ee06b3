package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrUnauthorized is returned for any token that does not verify.
var ErrUnauthorized = errors.New("unauthorized")

// Identity is the verified subject of a bearer token.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// Verifier checks bearer tokens minted by the identity platform.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// VerifyBearer validates an Authorization header value and returns the
// identity carried in its claims. A "Bearer " prefix is tolerated.
func (v *Verifier) VerifyBearer(header string) (*Identity, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if raw == "" {
		return nil, ErrUnauthorized
	}
	if len(v.secret) == 0 {
		return nil, errors.New("token secret not configured")
	}
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrUnauthorized
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrUnauthorized
	}
	email, _ := claims["email"].(string)
	return &Identity{UserID: userID, Email: email}, nil
}

// Sign mints a token for the given identity. The server never mints tokens
// in production; this exists for local tooling and tests.
func Sign(userID uuid.UUID, email, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"email": email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(ttl).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// AdminAllowed reports whether the presented admin secret grants access.
// An empty configured secret leaves admin routes open, which is acceptable
// only on trusted internal deployments.
func AdminAllowed(configured, presented string) bool {
	if configured == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(presented)) == 1
}
