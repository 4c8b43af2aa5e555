package service

import (
	"errors"
	"time"

	"bingohall/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// AuthService validates the tokens issued by the identity provider. Players
// are registered and logged in elsewhere; a token is the only identity the
// engine sees.
type AuthService struct {
	jwtSecret []byte
}

// NewAuthService creates a new auth service
func NewAuthService(secret string) *AuthService {
	return &AuthService{
		jwtSecret: []byte(secret),
	}
}

// GenerateUserToken signs a token for identity. Used by dev tooling and tests.
func (s *AuthService) GenerateUserToken(identity model.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &model.UserClaims{
		UserID: identity.ID,
		Name:   identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  identity.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateUserToken validates a user JWT and returns claims
func (s *AuthService) ValidateUserToken(tokenString string) (*model.UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.UserClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
