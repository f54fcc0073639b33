// Package mailer sends account verification emails.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

const verificationSubject = "Recipes Email Verification"

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer delivers verification links. With no SMTP host configured it only
// logs the link.
type Mailer struct {
	smtp      SMTPConfig
	publicURL string
	logger    *slog.Logger
	send      func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func New(cfg SMTPConfig, publicURL string, logger *slog.Logger) *Mailer {
	return &Mailer{
		smtp:      cfg,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
		send:      smtp.SendMail,
	}
}

// VerificationLink is the URL a user opens to verify their email.
func (m *Mailer) VerificationLink(token string) string {
	return m.publicURL + "/api/verify/" + token
}

func (m *Mailer) SendVerification(ctx context.Context, email, token string) error {
	link := m.VerificationLink(token)
	if m.smtp.Host == "" {
		m.logger.Info("smtp not configured, verification email not sent", "email", email, "link", link)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.smtp.Username != "" {
		auth = smtp.PlainAuth("", m.smtp.Username, m.smtp.Password, m.smtp.Host)
	}
	addr := net.JoinHostPort(m.smtp.Host, strconv.Itoa(m.smtp.Port))
	msg := buildMessage(m.smtp.From, email, link)

	if err := m.send(addr, auth, m.smtp.From, []string{email}, msg); err != nil {
		return fmt.Errorf("send verification email to %s: %w", email, err)
	}
	m.logger.Info("verification email sent", "email", email)
	return nil
}

func buildMessage(from, to, link string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + verificationSubject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(`<p>Please click on the following link to verify your email for Recipes App: </p> <a href="` + link + `">Verify</a>`)
	b.WriteString("\r\n")
	return []byte(b.String())
}
