package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed covers structural problems: segment count, encoding, JSON, missing exp.
	ErrMalformed = errors.New("token: malformed")
	// ErrBadSignature is returned when the signature does not match the signing input.
	ErrBadSignature = errors.New("token: bad signature")
	// ErrExpired is returned when exp is at or before the current time.
	ErrExpired = errors.New("token: expired")
)

// Claims is the caller-supplied claim set carried in a token body.
type Claims map[string]interface{}

// Service signs and verifies HS256 bearer tokens with a shared secret.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source used for exp.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithDefaultTTL sets the lifetime applied when Sign is called with ttl <= 0.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// NewService creates a token Service
func NewService(secret string, opts ...Option) *Service {
	s := &Service{
		secret: []byte(secret),
		ttl:    24 * time.Hour,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign returns header.body.signature where body is claims plus exp = now + ttl.
func (s *Service) Sign(claims Claims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}

	body := jwt.MapClaims{}
	for k, v := range claims {
		body[k] = v
	}
	body["exp"] = s.now().Add(ttl).Unix()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, body).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature before decoding the body, then enforces exp.
// Segments must be canonical base64url, so unused trailing bits cannot vary.
func (s *Service) Verify(raw string) (Claims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, ErrMalformed
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
		jwt.WithStrictDecoding(),
	)

	sig, err := parser.DecodeSegment(parts[2])
	if err != nil {
		return nil, ErrBadSignature
	}
	if err := jwt.SigningMethodHS256.Verify(parts[0]+"."+parts[1], sig, s.secret); err != nil {
		return nil, ErrBadSignature
	}

	body := jwt.MapClaims{}
	_, err = parser.ParseWithClaims(raw, body, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrMalformed
	}

	return Claims(body), nil
}

// String returns the claim value for key, or "" when absent or not a string.
func (c Claims) String(key string) string {
	v, _ := c[key].(string)
	return v
}

// Bool returns the claim value for key, or false when absent or not a bool.
func (c Claims) Bool(key string) bool {
	v, _ := c[key].(bool)
	return v
}
