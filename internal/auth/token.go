// Package auth verifies and issues the bearer tokens that carry an EHMS identity.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sirosfoundation/go-ehms-backend/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrNoSecret     = errors.New("signing secret is empty")
)

// Claims is the JWT payload for an EHMS identity.
// The subject lives in "sub"; UserID is read for tokens minted before
// "sub" was used.
type Claims struct {
	Role   string `json:"role"`
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens against the server-held secret.
// It performs no I/O and is safe for concurrent use.
type Verifier struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewVerifier creates a verifier. An empty issuer disables the iss check.
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// WithLeeway allows clock skew when checking exp/iat/nbf
func (v *Verifier) WithLeeway(d time.Duration) *Verifier {
	cp := *v
	cp.leeway = d
	return &cp
}

// Verify checks signature and expiry and returns the decoded identity.
// An unknown role string is returned as-is; rejecting it is the role gate's job.
func (v *Verifier) Verify(tokenString string) (*domain.Identity, error) {
	// An empty key would accept tokens signed with an empty HMAC key.
	if len(v.secret) == 0 {
		return nil, ErrNoSecret
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpiredToken, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	subject := claims.Subject
	if subject == "" {
		subject = claims.UserID
	}
	if subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if strings.TrimSpace(claims.Role) == "" {
		return nil, fmt.Errorf("%w: missing role", ErrInvalidToken)
	}

	identity := &domain.Identity{
		Subject: subject,
		Role:    domain.Role(claims.Role),
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

// Issuer mints HS256 tokens for an identity
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates a token issuer
func NewIssuer(secret, issuer string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for subject with the given role.
// It refuses roles outside the enumeration.
func (i *Issuer) Issue(subject string, role domain.Role) (string, time.Time, error) {
	if len(i.secret) == 0 {
		return "", time.Time{}, ErrNoSecret
	}
	if subject == "" {
		return "", time.Time{}, fmt.Errorf("subject is required")
	}
	if !role.IsValid() {
		return "", time.Time{}, fmt.Errorf("cannot issue token for role %q", role)
	}

	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}
