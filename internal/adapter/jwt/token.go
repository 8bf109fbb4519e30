package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tripfolio/providerhub/internal/domain"
)

// Claims carries the principal inside an access token. Subject is the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ErrInvalidToken covers every verification failure. Callers answer 401; the
// reason stays in the logs.
var ErrInvalidToken = errors.New("invalid or expired token")

// Service verifies bearer tokens issued by the identity system and, for
// local development and tests, mints them. HS256 with a shared key.
type Service struct {
	signingKey []byte
	issuer     string
}

// New creates a token service with the given signing key.
func New(signingKey, issuer string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// Generate mints an access token for the given user and role.
func (s *Service) Generate(userID string, role domain.Role, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token and resolves the principal. The role
// claim must be one of the closed role set; anything else is rejected here,
// never re-derived downstream.
func (s *Service) Verify(tokenString string) (domain.Principal, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil || !parsed.Valid {
		return domain.Principal{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return domain.Principal{}, ErrInvalidToken
	}
	if !domain.ValidRole(claims.Role) {
		return domain.Principal{}, ErrInvalidToken
	}

	return domain.Principal{
		UserID: claims.Subject,
		Role:   domain.Role(claims.Role),
	}, nil
}
