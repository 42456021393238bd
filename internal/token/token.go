// Package token issues and verifies the HS256 bearer tokens handed out by
// POST /jwt.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const Scheme = "Bearer"

var (
	ErrMissing       = errors.New("jwt must be provided")
	ErrPayloadHasExp = errors.New(`bad "expiresIn" option: the payload already has an "exp" property`)
)

type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func New(secret []byte, ttl time.Duration) *Service {
	return &Service{secret: secret, ttl: ttl, now: time.Now}
}

// WithClock replaces the time source. Used by tests to issue or verify
// tokens at a fixed instant.
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

// Issue embeds payload as claims, stamps iat and exp and returns the token
// prefixed with the "Bearer " scheme label. Beyond refusing a caller-set
// exp, the payload is not inspected.
func (s *Service) Issue(payload map[string]any) (string, error) {
	if _, ok := payload["exp"]; ok {
		return "", ErrPayloadHasExp
	}
	now := s.now()
	claims := jwt.MapClaims{}
	for k, v := range payload {
		claims[k] = v
	}
	if _, ok := claims["iat"]; !ok {
		claims["iat"] = now.Unix()
	}
	claims["exp"] = now.Add(s.ttl).Unix()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return Scheme + " " + signed, nil
}

// Verify checks the signature and expiry of raw and returns its claims.
func (s *Service) Verify(raw string) (jwt.MapClaims, error) {
	if raw == "" {
		return nil, ErrMissing
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Reason turns a verification error into the short message returned to
// callers in the 401 envelope.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissing):
		return ErrMissing.Error()
	case errors.Is(err, jwt.ErrTokenExpired):
		return "jwt expired"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "jwt malformed"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "invalid signature"
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return "jwt not active"
	default:
		return "invalid token"
	}
}

// Email returns the email claim when it is a string.
func Email(claims jwt.MapClaims) (string, bool) {
	v, ok := claims["email"].(string)
	return v, ok
}
