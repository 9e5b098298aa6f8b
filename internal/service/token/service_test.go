package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medhaven/hospital-api/internal/config"
	"github.com/medhaven/hospital-api/internal/model"
)

func testConfig(offsetHours int) config.JWTConfig {
	return config.JWTConfig{
		SigningKey:         "test-signing-key",
		Issuer:             "hospital-api",
		Audience:           "hospital-clients",
		AccessTokenMinutes: 60,
		RefreshExpiryHours: 168,
		ClockOffsetHours:   offsetHours,
	}
}

func testPrincipal() *model.Principal {
	p := &model.Principal{
		Kind:     model.KindDoctor,
		Username: "gregory",
		Email:    "gregory@example.com",
		Name:     "Gregory",
		Surname:  "House",
	}
	p.ID = uuid.New()
	return p
}

func TestNowAppliesClockOffset(t *testing.T) {
	svc := NewService(testConfig(4))

	diff := svc.Now().Sub(time.Now().UTC())
	assert.InDelta(t, (4 * time.Hour).Seconds(), diff.Seconds(), 5)

	plain := NewService(testConfig(0))
	diff = plain.Now().Sub(time.Now().UTC())
	assert.InDelta(t, 0, diff.Seconds(), 5)
}

func TestIssueAndValidate(t *testing.T) {
	svc := NewService(testConfig(4))
	principal := testPrincipal()

	signed, expiresAt, err := svc.IssueAccessToken(principal)
	require.NoError(t, err)
	assert.NotEmpty(t, signed)

	// Expiry tracks the shifted clock plus the access lifetime.
	wantExpiry := svc.Now().Add(time.Hour)
	assert.WithinDuration(t, wantExpiry, expiresAt, 5*time.Second)

	claims, err := svc.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, principal.ID.String(), claims.Subject)
	assert.Equal(t, "gregory", claims.Username)
	assert.Equal(t, "gregory@example.com", claims.Email)
	assert.Equal(t, "Gregory", claims.GivenName)
	assert.Equal(t, "House", claims.FamilyName)
	assert.Equal(t, "doctor", claims.Kind)
}

func TestValidateRejectsForeignKey(t *testing.T) {
	svc := NewService(testConfig(4))
	other := NewService(config.JWTConfig{
		SigningKey:         "different-key",
		Issuer:             "hospital-api",
		Audience:           "hospital-clients",
		AccessTokenMinutes: 60,
		ClockOffsetHours:   4,
	})

	signed, _, err := svc.IssueAccessToken(testPrincipal())
	require.NoError(t, err)

	_, err = other.Validate(signed)
	assert.Error(t, err)
}

func TestValidateRejectsWrongIssuer(t *testing.T) {
	issuing := NewService(config.JWTConfig{
		SigningKey:         "test-signing-key",
		Issuer:             "someone-else",
		Audience:           "hospital-clients",
		AccessTokenMinutes: 60,
		ClockOffsetHours:   4,
	})
	validating := NewService(testConfig(4))

	signed, _, err := issuing.IssueAccessToken(testPrincipal())
	require.NoError(t, err)

	_, err = validating.Validate(signed)
	assert.Error(t, err)
}

func TestOffsetTokenValidatesUnderSameOffset(t *testing.T) {
	// A token stamped with a shifted notBefore does not validate under a
	// plain-UTC clock, but does under the clock that issued it.
	shifted := NewService(testConfig(4))
	plain := NewService(testConfig(0))

	signed, _, err := shifted.IssueAccessToken(testPrincipal())
	require.NoError(t, err)

	_, err = plain.Validate(signed)
	assert.Error(t, err)

	_, err = shifted.Validate(signed)
	assert.NoError(t, err)
}

func TestNewRefreshToken(t *testing.T) {
	svc := NewService(testConfig(4))

	token1, expiry := svc.NewRefreshToken()
	token2, _ := svc.NewRefreshToken()

	_, err := uuid.Parse(token1)
	assert.NoError(t, err)
	assert.NotEqual(t, token1, token2)
	assert.WithinDuration(t, svc.Now().Add(168*time.Hour), expiry, 5*time.Second)
}
