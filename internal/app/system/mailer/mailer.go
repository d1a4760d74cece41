// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Email is a single outgoing message.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers email. Handlers depend on this, not on SMTP.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// Config holds SMTP settings. An empty Host selects the log-only sender.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// New returns an SMTP Mailer when cfg.Host is set and a LogSender otherwise.
func New(cfg Config, log *zap.Logger) Sender {
	if cfg.Host == "" {
		log.Warn("smtp host not configured; emails will be logged, not sent")
		return LogSender{Log: log}
	}
	return &Mailer{
		from:   (&mail.Address{Name: cfg.FromName, Address: cfg.From}).String(),
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		log:    log,
	}
}

// Mailer sends email over SMTP.
type Mailer struct {
	from   string
	dialer *gomail.Dialer
	log    *zap.Logger
}

// Send delivers email, giving up when ctx ends. The SMTP exchange itself is
// not interruptible and finishes in the background.
func (m *Mailer) Send(ctx context.Context, email Email) error {
	if email.To == "" {
		return errors.New("no recipient specified")
	}
	msg := gomail.NewMessage()
	m.setEmailMessage(msg, email)

	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(msg) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send email to %s: %w", email.To, err)
		}
		m.log.Info("email sent", zap.String("to", email.To), zap.String("subject", email.Subject))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send email to %s: %w", email.To, ctx.Err())
	}
}

func (m *Mailer) setEmailMessage(msg *gomail.Message, email Email) {
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To)
	msg.SetHeader("Subject", email.Subject)

	if email.HTMLBody != "" {
		msg.SetBody("text/plain", email.TextBody)
		msg.AddAlternative("text/html", email.HTMLBody)
	} else {
		msg.SetBody("text/plain", email.TextBody)
	}
}

// LogSender writes emails to the log. Used in development.
type LogSender struct {
	Log *zap.Logger
}

func (s LogSender) Send(_ context.Context, email Email) error {
	s.Log.Info("email (not sent)",
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
		zap.String("body", email.TextBody))
	return nil
}
