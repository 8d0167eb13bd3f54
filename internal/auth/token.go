package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pressroom/pressroom/internal/model"
)

// DefaultTokenTTL is the identity token lifetime when none is configured.
const DefaultTokenTTL = 30 * 24 * time.Hour

// Token errors. Every verification failure wraps ErrInvalidToken.
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrTokenSignature = fmt.Errorf("%w: bad signature", ErrInvalidToken)
)

// Claims is the signed payload of an identity token.
type Claims struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Verifier resolves an identity token into the identity it carries.
type Verifier interface {
	Verify(token string) (*model.Identity, error)
}

// TokenService issues and verifies HS256 identity tokens.
// Tokens are never stored server-side.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. A non-positive ttl uses DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token embedding the identity and an expiry.
func (s *TokenService) Issue(identity model.Identity) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := &Claims{
		ID:       identity.ID,
		Name:     identity.Name,
		Username: identity.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify checks signature and expiry and returns the embedded identity.
func (s *TokenService) Verify(tokenString string) (*model.Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenSignature
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}

	if !token.Valid || claims.ID == "" {
		return nil, ErrTokenMalformed
	}

	return &model.Identity{
		ID:       claims.ID,
		Name:     claims.Name,
		Username: claims.Username,
	}, nil
}

// mapJWTError maps JWT library errors to our error types.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrTokenSignature):
		return ErrTokenSignature
	default:
		return ErrTokenMalformed
	}
}
