package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"portfolio-site/internal/config"
	"portfolio-site/internal/models"
)

// Mailer delivers contact form messages to the site owner.
type Mailer interface {
	Send(ctx context.Context, msg models.ContactForm) error
}

// NewMailer returns an SMTP mailer when SMTP is configured and a logging
// mailer otherwise.
func NewMailer(cfg *config.Config) Mailer {
	if cfg.MailEnabled() {
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.ContactEmail)
	}
	return NewLogMailer()
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPMailer struct {
	host string
	port string
	user string
	pass string
	to   string
	send sendFunc
}

func NewSMTPMailer(host, port, user, pass, to string) *SMTPMailer {
	return &SMTPMailer{
		host: host,
		port: port,
		user: user,
		pass: pass,
		to:   to,
		send: smtp.SendMail,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg models.ContactForm) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	if err := m.send(m.host+":"+m.port, auth, m.user, []string{m.to}, composeMessage(m.user, m.to, msg)); err != nil {
		return fmt.Errorf("failed to send contact email: %w", err)
	}
	log.Info().Str("from", msg.Email).Msg("contact email sent")
	return nil
}

func composeMessage(from, to string, msg models.ContactForm) []byte {
	subject := fmt.Sprintf("Portfolio contact: %s", headerSafe(msg.Name))
	body := fmt.Sprintf("New message from the portfolio contact form\r\n\r\nName: %s\r\nEmail: %s\r\n\r\n%s\r\n",
		msg.Name, msg.Email, msg.Message)

	var b strings.Builder
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("Reply-To: " + headerSafe(msg.Email) + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// headerSafe strips line breaks so form input cannot add headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

// LogMailer writes contact messages to the log. Used when SMTP is not
// configured.
type LogMailer struct {
	logger zerolog.Logger
}

func NewLogMailer() *LogMailer {
	return &LogMailer{logger: log.With().Str("component", "mailer").Logger()}
}

func (m *LogMailer) Send(ctx context.Context, msg models.ContactForm) error {
	m.logger.Info().
		Str("name", msg.Name).
		Str("email", msg.Email).
		Str("message", msg.Message).
		Msg("contact message received (SMTP not configured)")
	return nil
}
