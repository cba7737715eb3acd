// Package mailer sends verification codes over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/nicole/internal/models"
	"gopkg.in/gomail.v2"
)

// ErrNotConfigured is returned when the SMTP settings are incomplete.
var ErrNotConfigured = errors.New("email settings are incomplete")

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Sender   string
}

func (c Config) complete() bool {
	return c.Host != "" && c.Port != 0 && c.User != "" && c.Password != "" && c.Sender != ""
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPMailer struct {
	cfg    Config
	dialer sender
	ttl    time.Duration
}

// New builds a mailer. Port 465 uses implicit TLS, other ports STARTTLS when
// offered. Spaces in the password are dropped, as app passwords are often
// pasted in groups.
func New(cfg Config, codeTTL time.Duration) *SMTPMailer {
	m := &SMTPMailer{cfg: cfg, ttl: codeTTL}
	if cfg.complete() {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, strings.ReplaceAll(cfg.Password, " ", ""))
	}
	return m
}

// Configured reports whether all SMTP settings were provided.
func (m *SMTPMailer) Configured() bool {
	return m.dialer != nil
}

func (m *SMTPMailer) Send(ctx context.Context, purpose models.Purpose, to, code string) error {
	if m.dialer == nil {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := m.compose(purpose, to, code)
	if err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send %s email: %w", purpose, err)
	}
	return nil
}

func (m *SMTPMailer) compose(purpose models.Purpose, to, code string) (*gomail.Message, error) {
	tpl, ok := templates[purpose]
	if !ok {
		return nil, fmt.Errorf("no email template for %q", purpose)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.Sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", tpl.subject)
	msg.SetBody("text/plain", fmt.Sprintf(tpl.body, code, int(m.ttl.Minutes())))
	return msg, nil
}
