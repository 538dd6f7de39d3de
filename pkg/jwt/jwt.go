package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// MinKeyLength is the shortest accepted signing key in bytes.
const MinKeyLength = 32

var (
	ErrInvalidSigningKey = errors.New("jwt: signing key must be at least 32 bytes")
	ErrInvalidToken      = errors.New("jwt: invalid token")
	ErrMissingSubject    = errors.New("jwt: token has no subject")
)

// StandardClaims is the subset of registered claims the service issues.
type StandardClaims struct {
	Subject   string
	Issuer    string
	Audience  []string
	IssuedAt  time.Time
	ExpiresAt time.Time

	// TTL sets ExpiresAt relative to IssuedAt when ExpiresAt is zero.
	TTL time.Duration
}

// Service signs and verifies tokens with one HMAC key.
type Service struct {
	key    []byte
	issuer string
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithIssuer requires and stamps the iss claim.
func WithIssuer(issuer string) Option {
	return func(s *Service) { s.issuer = issuer }
}

// WithClock overrides the clock used for issuing and validation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a service from a raw key.
func New(key []byte, opts ...Option) (*Service, error) {
	if len(key) < MinKeyLength {
		return nil, ErrInvalidSigningKey
	}
	s := &Service{key: key, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewFromString creates a service from a string key.
func NewFromString(key string, opts ...Option) (*Service, error) {
	return New([]byte(key), opts...)
}

// Generate returns a signed compact token.
func (s *Service) Generate(c StandardClaims) (string, error) {
	if c.Subject == "" {
		return "", ErrMissingSubject
	}

	iat := c.IssuedAt
	if iat.IsZero() {
		iat = s.now()
	}
	exp := c.ExpiresAt
	if exp.IsZero() && c.TTL > 0 {
		exp = iat.Add(c.TTL)
	}
	issuer := c.Issuer
	if issuer == "" {
		issuer = s.issuer
	}

	b := jwt.NewBuilder().Subject(c.Subject).IssuedAt(iat)
	if !exp.IsZero() {
		b = b.Expiration(exp)
	}
	if issuer != "" {
		b = b.Issuer(issuer)
	}
	if len(c.Audience) > 0 {
		b = b.Audience(c.Audience)
	}

	tok, err := b.Build()
	if err != nil {
		return "", fmt.Errorf("jwt: build: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, s.key))
	if err != nil {
		return "", fmt.Errorf("jwt: sign: %w", err)
	}
	return string(signed), nil
}

// Parse verifies the signature and temporal claims and returns the claims.
func (s *Service) Parse(token string) (StandardClaims, error) {
	opts := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, s.key),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(s.now)),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	tok, err := jwt.Parse([]byte(token), opts...)
	if err != nil {
		return StandardClaims{}, errors.Join(ErrInvalidToken, err)
	}
	if tok.Subject() == "" {
		return StandardClaims{}, ErrMissingSubject
	}

	return StandardClaims{
		Subject:   tok.Subject(),
		Issuer:    tok.Issuer(),
		Audience:  tok.Audience(),
		IssuedAt:  tok.IssuedAt(),
		ExpiresAt: tok.Expiration(),
	}, nil
}
