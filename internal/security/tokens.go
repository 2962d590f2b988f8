package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is malformed, expired, or signed
// with the wrong secret.
var ErrInvalidToken = errors.New("invalid token")

// Claims holds the JWT claims carried by both access and refresh tokens.
// The same identity payload is signed with two different secrets so that a
// refresh token is never accepted where an access token is required.
type Claims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	Role    string `json:"role"`
	IsGuest bool   `json:"isGuest"`
}

// Identity is the token payload handed back to callers after validation.
type Identity struct {
	UserID  string
	Email   string
	Role    string
	IsGuest bool
}

// TokenProvider issues and validates HS256 access and refresh tokens.
type TokenProvider struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenProvider returns a TokenProvider signing access tokens with
// accessSecret and refresh tokens with refreshSecret.
func NewTokenProvider(accessSecret, refreshSecret, issuer string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		issuer:        issuer,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// IssueAccess signs an access token for the identity. Returns the token and its expiry.
func (p *TokenProvider) IssueAccess(id Identity) (string, time.Time, error) {
	return p.issue(id, p.accessSecret, p.accessTTL)
}

// IssueRefresh signs a refresh token for the identity. Returns the token and its expiry.
func (p *TokenProvider) IssueRefresh(id Identity) (string, time.Time, error) {
	return p.issue(id, p.refreshSecret, p.refreshTTL)
}

func (p *TokenProvider) issue(id Identity, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email:   id.Email,
		Role:    id.Role,
		IsGuest: id.IsGuest,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ValidateAccess parses and validates an access token and returns its identity.
func (p *TokenProvider) ValidateAccess(token string) (Identity, error) {
	return p.validate(token, p.accessSecret)
}

// ValidateRefresh parses and validates a refresh token and returns its identity.
func (p *TokenProvider) ValidateRefresh(token string) (Identity, error) {
	return p.validate(token, p.refreshSecret)
}

func (p *TokenProvider) validate(token string, secret []byte) (Identity, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithIssuer(p.issuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{
		UserID:  claims.Subject,
		Email:   claims.Email,
		Role:    claims.Role,
		IsGuest: claims.IsGuest,
	}, nil
}
