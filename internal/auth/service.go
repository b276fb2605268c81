package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongScope   = errors.New("token does not grant access to this construction")
)

// DefaultTokenTTL is how long an edit token stays valid.
const DefaultTokenTTL = 24 * time.Hour

const editScope = "edit"

// Service issues and checks edit tokens. A token names exactly one
// construction; holding it is what allows edits to that construction.
type Service struct {
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewService(jwtSecret string) *Service {
	return &Service{
		jwtSecret: []byte(jwtSecret),
		ttl:       DefaultTokenTTL,
		now:       time.Now,
	}
}

// WithTTL returns a copy of s whose tokens expire after ttl.
func (s *Service) WithTTL(ttl time.Duration) *Service {
	out := *s
	out.ttl = ttl
	return &out
}

type editClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// IssueToken returns a signed token granting edit access to constructionID.
func (s *Service) IssueToken(constructionID string) (string, error) {
	now := s.now()
	claims := editClaims{
		Scope: editScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   constructionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ValidateToken checks the signature and expiry of tokenString and returns
// the construction id it was issued for.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	var claims editClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("parse token: %w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Scope != editScope || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

// Authorize checks that tokenString grants edit access to constructionID.
func (s *Service) Authorize(tokenString, constructionID string) error {
	subject, err := s.ValidateToken(tokenString)
	if err != nil {
		return err
	}
	if subject != constructionID {
		return ErrWrongScope
	}
	return nil
}
