package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/medrelay/telemed-api/internal/config"
	"github.com/medrelay/telemed-api/internal/model"
)

type Service interface {
	SendSessionInvite(ctx context.Context, to string, session *model.Session) error
	SendCancellationNotice(ctx context.Context, to string, session *model.Session, reason string) error
}

type gomailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewService(cfg config.SMTPConfig) Service {
	if cfg.Host == "" {
		return &noopService{}
	}
	return &gomailService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *gomailService) SendSessionInvite(_ context.Context, to string, session *model.Session) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your telemedicine appointment")
	m.SetBody("text/plain", fmt.Sprintf(
		"Your video consultation is scheduled for %s.\nSession reference: %s\n",
		session.ScheduledStart.Format("Mon, 02 Jan 2006 15:04 MST"),
		session.ID,
	))
	return s.dialer.DialAndSend(m)
}

func (s *gomailService) SendCancellationNotice(_ context.Context, to string, session *model.Session, reason string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Telemedicine appointment cancelled")
	body := fmt.Sprintf(
		"Your video consultation scheduled for %s has been cancelled.\n",
		session.ScheduledStart.Format("Mon, 02 Jan 2006 15:04 MST"),
	)
	if reason != "" {
		body += "Reason: " + reason + "\n"
	}
	m.SetBody("text/plain", body)
	return s.dialer.DialAndSend(m)
}

// noopService is used when SMTP is not configured.
type noopService struct{}

func (n *noopService) SendSessionInvite(context.Context, string, *model.Session) error {
	return nil
}

func (n *noopService) SendCancellationNotice(context.Context, string, *model.Session, string) error {
	return nil
}
