package services

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"portfolio-site/internal/config"
	"portfolio-site/internal/models"
)

func TestSMTPMailer_Send(t *testing.T) {
	m := NewSMTPMailer("smtp.example.com", "587", "site@example.com", "pw", "owner@example.com")
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := m.Send(context.Background(), models.ContactForm{
		Name:    "Jan\r\nBcc: evil@example.com",
		Email:   "jan@example.com",
		Message: "Hello!",
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "site@example.com", gotFrom)
	assert.Equal(t, []string{"owner@example.com"}, gotTo)
	body := string(gotMsg)
	assert.Contains(t, body, "Reply-To: jan@example.com\r\n")
	assert.Contains(t, body, "Subject: Portfolio contact: Jan  Bcc: evil@example.com\r\n")
	headers := strings.SplitN(body, "\r\n\r\n", 2)[0]
	assert.NotContains(t, headers, "\r\nBcc:")
	assert.Contains(t, body, "Hello!")
}

func TestSMTPMailer_SendError(t *testing.T) {
	m := NewSMTPMailer("smtp.example.com", "587", "u", "p", "owner@example.com")
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("535 authentication failed")
	}

	err := m.Send(context.Background(), models.ContactForm{Name: "a", Email: "a@example.com", Message: "m"})
	assert.ErrorContains(t, err, "535 authentication failed")
}

func TestNewMailer(t *testing.T) {
	assert.IsType(t, &LogMailer{}, NewMailer(&config.Config{}))
	assert.IsType(t, &SMTPMailer{}, NewMailer(&config.Config{SMTPHost: "h", SMTPUser: "u", SMTPPass: "p"}))
	assert.NoError(t, NewLogMailer().Send(context.Background(), models.ContactForm{Name: "a"}))
}
