package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/krishkalaria12/recipe-serve/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationLink(t *testing.T) {
	m := New(SMTPConfig{}, "https://recipes.example.com/", logging.Discard())
	assert.Equal(t, "https://recipes.example.com/api/verify/abc123", m.VerificationLink("abc123"))
}

func TestSendVerificationWithoutSMTPOnlyLogs(t *testing.T) {
	m := New(SMTPConfig{}, "http://localhost:3000", logging.Discard())
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called without an SMTP host")
		return nil
	}
	assert.NoError(t, m.SendVerification(context.Background(), "ada@example.com", "abc"))
}

func TestSendVerification(t *testing.T) {
	m := New(SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "mailer",
		Password: "pw",
		From:     "noreply@example.com",
	}, "http://localhost:3000", logging.Discard())

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		assert.NotNil(t, a)
		return nil
	}

	require.NoError(t, m.SendVerification(context.Background(), "ada@example.com", "abc"))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"ada@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Recipes Email Verification")
	assert.Contains(t, string(gotMsg), `href="http://localhost:3000/api/verify/abc"`)
}

func TestSendVerificationWrapsError(t *testing.T) {
	m := New(SMTPConfig{Host: "smtp.example.com", Port: 25}, "http://localhost:3000", logging.Discard())
	boom := errors.New("connection refused")
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return boom }

	err := m.SendVerification(context.Background(), "ada@example.com", "abc")
	assert.ErrorIs(t, err, boom)
}
