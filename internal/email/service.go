package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/medhaven/hospital-api/internal/config"
)

// Service sends transactional mail over SMTP.
type Service struct {
	dialer *gomail.Dialer
	from   string
}

func NewService(cfg config.SMTPConfig) *Service {
	return &Service{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// SendWelcome delivers the post-registration greeting. Callers treat failures
// as non-fatal.
func (s *Service) SendWelcome(ctx context.Context, to, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Welcome to MedHaven")
	m.SetBody("text/html", fmt.Sprintf(
		"<h2>Welcome, %s!</h2><p>Your account has been created. You can now sign in with your username and password.</p>",
		name,
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}
