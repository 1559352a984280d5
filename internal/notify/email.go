package notify

import (
	"context"
	"fmt"
	"leadchat-backend/internal/models"

	"gopkg.in/gomail.v2"
)

// Sender delivers a composed message. gomail's Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailConfig holds the SMTP settings for lead notifications.
type EmailConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	From         string
	To           []string
	DashboardURL string
}

// EmailNotifier sends lead notifications over SMTP.
type EmailNotifier struct {
	cfg    EmailConfig
	sender Sender
}

func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	return &EmailNotifier{
		cfg:    cfg,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
	}
}

// NewEmailNotifierWithSender is used by tests to capture outgoing mail.
func NewEmailNotifierWithSender(cfg EmailConfig, sender Sender) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, sender: sender}
}

func (n *EmailNotifier) Notify(ctx context.Context, lead *models.Lead) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: email: %v", ErrNotification, err)
	}

	summary, err := FormatLeadSummary(lead, n.cfg.DashboardURL)
	if err != nil {
		return fmt.Errorf("%w: email: %v", ErrNotification, err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", n.cfg.To...)
	m.SetHeader("Reply-To", lead.Email)
	m.SetHeader("Subject", summary.Subject)
	m.SetBody("text/plain", summary.Text)
	m.AddAlternative("text/html", summary.HTML)

	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("%w: email SMTP send: %v", ErrNotification, err)
	}
	return nil
}
