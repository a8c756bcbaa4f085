// Package auth issues and resolves the compact HS256 bearer tokens used by
// the server.
//
// A token is three base64url (unpadded) segments joined by dots:
//
//	base64url({"alg":"HS256","typ":"JWT"}) . base64url(claims) . base64url(HMAC-SHA256)
//
// Tokens are stateless. They are valid until their exp claim and are never
// stored or revoked. Resolve answers with the subject or one of the
// rejections declared in errors.go.
package auth

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultIssuer is written to the iss claim of every token.
	DefaultIssuer = "E-eye API"

	// DefaultLifetime is used when no positive lifetime is configured.
	DefaultLifetime = 120 * time.Minute
)

var signingMethod = jwt.SigningMethodHS256

// Codec issues and resolves tokens. It is immutable after NewCodec and safe
// for concurrent use.
type Codec struct {
	secret   []byte
	issuer   string
	lifetime time.Duration
	now      func() time.Time
	parser   *jwt.Parser
}

// Option customizes a Codec.
type Option func(*Codec)

// WithIssuer overrides DefaultIssuer.
func WithIssuer(issuer string) Option {
	return func(c *Codec) {
		if issuer != "" {
			c.issuer = issuer
		}
	}
}

// WithLifetime sets the lifetime used by Issue. Non-positive values keep
// DefaultLifetime.
func WithLifetime(d time.Duration) Option {
	return func(c *Codec) {
		if d > 0 {
			c.lifetime = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec returns a Codec signing with secret. The secret is copied.
func NewCodec(secret []byte, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	c := &Codec{
		secret:   append([]byte(nil), secret...),
		issuer:   DefaultIssuer,
		lifetime: DefaultLifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Claims are validated by hand in ResolveClaims so the checks run in a
	// fixed order after the signature.
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithPaddingAllowed(),
		jwt.WithoutClaimsValidation(),
	)

	return c, nil
}

// Issuer returns the iss value written into tokens.
func (c *Codec) Issuer() string {
	return c.issuer
}

// Lifetime returns the lifetime used by Issue.
func (c *Codec) Lifetime() time.Duration {
	return c.lifetime
}

// Issue returns a signed token for s, valid for the configured lifetime.
func (c *Codec) Issue(s Subject) (string, error) {
	return c.issue(s, c.lifetime)
}

// IssueWithLifetime returns a signed token for s, valid for the given number
// of minutes. A non-positive value is clamped to DefaultLifetime.
func (c *Codec) IssueWithLifetime(s Subject, minutes int) (string, error) {
	lifetime := time.Duration(minutes) * time.Minute
	if minutes <= 0 {
		lifetime = DefaultLifetime
	}
	return c.issue(s, lifetime)
}

func (c *Codec) issue(s Subject, lifetime time.Duration) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(signingMethod, s.tokenClaims(c.issuer, now, now.Add(lifetime)))
	return token.SignedString(c.secret)
}

// Resolve verifies tokenString and returns its subject. Every failure is one
// of the rejection errors and matches ErrTokenRejected.
func (c *Codec) Resolve(tokenString string) (string, error) {
	claims, err := c.ResolveClaims(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

type header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// ResolveClaims is Resolve returning the whole verified claim set.
func (c *Codec) ResolveClaims(tokenString string) (*Claims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, ErrMalformedToken
	}

	var h header
	if err := c.decodeSegment(parts[0], &h); err != nil {
		return nil, ErrMalformedToken
	}
	var payload map[string]json.RawMessage
	if err := c.decodeSegment(parts[1], &payload); err != nil {
		return nil, ErrMalformedToken
	}

	if h.Alg != signingMethod.Alg() {
		return nil, ErrUnsupportedAlgorithm
	}

	sig, err := c.parser.DecodeSegment(parts[2])
	if err != nil {
		return nil, ErrMalformedToken
	}
	if err := signingMethod.Verify(parts[0]+"."+parts[1], sig, c.secret); err != nil {
		return nil, ErrBadSignature
	}

	claims := &Claims{}
	if _, err := c.parser.ParseWithClaims(tokenString, claims, c.key); err != nil {
		return nil, classify(err)
	}

	if claims.ExpiresAt == nil {
		return nil, ErrMalformedToken
	}
	if c.now().After(claims.ExpiresAt.Time) {
		return nil, ErrExpired
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	return claims, nil
}

func (c *Codec) key(*jwt.Token) (any, error) {
	return c.secret, nil
}

// decodeSegment restores padding, base64url-decodes seg and unmarshals the
// JSON into v.
func (c *Codec) decodeSegment(seg string, v any) error {
	raw, err := c.parser.DecodeSegment(seg)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrMalformedToken
	}
}
