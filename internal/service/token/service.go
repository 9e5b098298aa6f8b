package token

import (
	"time"

	"github.com/google/uuid"

	"github.com/medhaven/hospital-api/internal/config"
	"github.com/medhaven/hospital-api/internal/model"
	"github.com/medhaven/hospital-api/pkg/auth"
)

const defaultAccessLifetime = 60 * time.Minute

// Service is the token issuer: it turns a validated principal into a signed
// access token. Refresh-token persistence is the account service's job; this
// service only mints the opaque value and its expiry.
type Service struct {
	issuer          *auth.Issuer
	accessLifetime  time.Duration
	refreshLifetime time.Duration
}

func NewService(cfg config.JWTConfig) *Service {
	accessLifetime := time.Duration(cfg.AccessTokenMinutes) * time.Minute
	if accessLifetime <= 0 {
		accessLifetime = defaultAccessLifetime
	}

	return &Service{
		issuer: auth.NewIssuer(auth.Config{
			SigningKey:  cfg.SigningKey,
			Issuer:      cfg.Issuer,
			Audience:    cfg.Audience,
			ClockOffset: cfg.ClockOffset(),
		}),
		accessLifetime:  accessLifetime,
		refreshLifetime: time.Duration(cfg.RefreshExpiryHours) * time.Hour,
	}
}

// Now returns the current time under the deployment clock offset. Lifecycle
// timestamps and refresh-expiry comparisons all go through this single clock.
func (s *Service) Now() time.Time {
	return s.issuer.Now()
}

// IssueAccessToken signs an access token for the principal.
func (s *Service) IssueAccessToken(principal *model.Principal) (string, time.Time, error) {
	return s.issuer.IssueAccessToken(auth.Subject{
		ID:       principal.ID.String(),
		Username: principal.Username,
		Email:    principal.Email,
		Name:     principal.Name,
		Surname:  principal.Surname,
		Kind:     string(principal.Kind),
	}, s.accessLifetime)
}

// NewRefreshToken mints an opaque refresh token and its expiry.
func (s *Service) NewRefreshToken() (string, time.Time) {
	return uuid.New().String(), s.Now().Add(s.refreshLifetime)
}

// Validate parses and verifies an access token.
func (s *Service) Validate(token string) (*auth.Claims, error) {
	return s.issuer.ValidateAccessToken(token)
}
