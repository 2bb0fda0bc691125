// Package mailer sends transactional email notifications over SMTP.
package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Message is one outgoing email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends email through an authenticated SMTP relay.
type SMTPMailer struct {
	cfg    Config
	send   sendFunc
	logger *zap.Logger
}

// NewSMTPMailer creates a mailer for the given relay.
func NewSMTPMailer(cfg Config, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail, logger: logger}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := buildMessage(m.cfg.From, msg)
	if err != nil {
		return err
	}
	if m.cfg.Username == "" || m.cfg.Password == "" {
		return fmt.Errorf("SMTP username and password must be provided")
	}

	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := m.send(addr, auth, m.cfg.From, []string{msg.To}, raw); err != nil {
		m.logger.Error("failed to send email", zap.String("to", msg.To), zap.String("subject", msg.Subject), zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}
	m.logger.Info("email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// buildMessage renders headers and body. HTML bodies are detected by their tags.
func buildMessage(from string, msg Message) ([]byte, error) {
	if msg.To == "" {
		return nil, fmt.Errorf("recipient email address cannot be empty")
	}
	if from == "" {
		return nil, fmt.Errorf("sender email address cannot be empty")
	}
	if msg.Subject == "" {
		return nil, fmt.Errorf("email subject cannot be empty")
	}
	if strings.ContainsAny(msg.To+msg.Subject, "\r\n") {
		return nil, fmt.Errorf("email headers cannot contain line breaks")
	}

	contentType := "text/plain; charset=UTF-8"
	lower := strings.ToLower(msg.Body)
	if strings.Contains(lower, "<html>") || strings.Contains(lower, "<p>") {
		contentType = "text/html; charset=UTF-8"
	}

	return []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: %s\r\n"+
		"\r\n"+
		"%s\r\n", msg.To, from, msg.Subject, contentType, msg.Body)), nil
}

// NopMailer drops every message. Used when SMTP is not configured.
type NopMailer struct{}

func (NopMailer) Send(context.Context, Message) error { return nil }
