package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Subject carries the principal fields that end up in access-token claims.
type Subject struct {
	ID       string
	Username string
	Email    string
	Name     string
	Surname  string
	Kind     string
}

// Claims is the access-token claim set.
type Claims struct {
	jwt.RegisteredClaims
	Username   string `json:"username"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Kind       string `json:"kind"`
}

// Config holds the signing parameters. ClockOffset is a deployment-wide
// wall-clock normalization applied identically when stamping and when
// validating token windows; set it to zero for plain UTC.
type Config struct {
	SigningKey  string
	Issuer      string
	Audience    string
	ClockOffset time.Duration
}

// Issuer signs and validates HMAC-SHA256 access tokens. It is stateless;
// configuration is read once at construction.
type Issuer struct {
	cfg Config
}

func NewIssuer(cfg Config) *Issuer {
	return &Issuer{cfg: cfg}
}

// Now returns the current time shifted by the configured clock offset.
func (i *Issuer) Now() time.Time {
	return time.Now().UTC().Add(i.cfg.ClockOffset)
}

// IssueAccessToken signs a token valid from Now() for the given lifetime.
func (i *Issuer) IssueAccessToken(sub Subject, lifetime time.Duration) (string, time.Time, error) {
	notBefore := i.Now()
	expiresAt := notBefore.Add(lifetime)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Audience:  jwt.ClaimStrings{i.cfg.Audience},
			Subject:   sub.ID,
			NotBefore: jwt.NewNumericDate(notBefore),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(notBefore),
		},
		Username:   sub.Username,
		Email:      sub.Email,
		GivenName:  sub.Name,
		FamilyName: sub.Surname,
		Kind:       sub.Kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(i.cfg.SigningKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// ValidateAccessToken parses and verifies a signed token, evaluating its
// validity window against the same shifted clock used at issuance.
func (i *Issuer) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(i.cfg.SigningKey), nil
	},
		jwt.WithIssuer(i.cfg.Issuer),
		jwt.WithAudience(i.cfg.Audience),
		jwt.WithTimeFunc(i.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
