package gotrue

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims are the claims GoTrue puts in an access token.
type AccessClaims struct {
	Email        string         `json:"email,omitempty"`
	Phone        string         `json:"phone,omitempty"`
	Role         string         `json:"role,omitempty"`
	SessionID    string         `json:"session_id,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier checks HS256 access tokens signed with the project's JWT
// secret.
type TokenVerifier struct {
	secret   []byte
	audience string
	issuer   string
	leeway   time.Duration
}

// NewTokenVerifier returns a verifier for secret. An empty audience or
// issuer is not checked.
func NewTokenVerifier(secret []byte, audience, issuer string, leeway time.Duration) (*TokenVerifier, error) {
	if len(secret) == 0 {
		return nil, errors.New("hs256 requires a secret")
	}
	if leeway < 0 || leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &TokenVerifier{
		secret:   secret,
		audience: audience,
		issuer:   issuer,
		leeway:   leeway,
	}, nil
}

// Verify parses token and checks its signature, expiry, audience and
// issuer.
func (v *TokenVerifier) Verify(token string) (*AccessClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.leeway > 0 {
		options = append(options, jwt.WithLeeway(v.leeway))
	}
	if v.audience != "" {
		options = append(options, jwt.WithAudience(v.audience))
	}
	if v.issuer != "" {
		options = append(options, jwt.WithIssuer(v.issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(token, &AccessClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// VerifySubject returns the user id of a valid token.
func (v *TokenVerifier) VerifySubject(token string) (string, error) {
	claims, err := v.Verify(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// tokenExpiry reads the exp claim without verifying the signature. It is
// only used to schedule refreshes for responses that omit expires_at.
func tokenExpiry(token string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
