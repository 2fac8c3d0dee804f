// Package mail delivers outgoing email over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

var ErrNotConfigured = errors.New("mail sender not configured")

// Message is a single HTML email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the connection settings for SMTPSender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// SMTPSender dials the server for every message. Port 465 uses implicit TLS.
type SMTPSender struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.Username == "" {
		return nil, ErrNotConfigured
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.Port == 465

	return &SMTPSender{cfg: cfg, dialer: d}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := s.build(msg)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("sending mail to %s: %w", msg.To, err)
	}
	return nil
}

func (s *SMTPSender) build(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	if s.cfg.FromName != "" {
		m.SetAddressHeader("From", s.cfg.From, s.cfg.FromName)
	} else {
		m.SetHeader("From", s.cfg.From)
	}
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)
	return m
}

const VerificationSubject = "Verify your email!"

// VerificationLink points at the verify_email endpoint for userID.
func VerificationLink(baseURL string, userID uuid.UUID) string {
	q := url.Values{}
	q.Set("token", userID.String())
	return strings.TrimRight(baseURL, "/") + "/verify_email?" + q.Encode()
}

func VerificationMessage(to, link string) Message {
	escaped := html.EscapeString(link)
	return Message{
		To:      to,
		Subject: VerificationSubject,
		HTMLBody: fmt.Sprintf(
			`<p>Verify your email here <a href="%s">%s</a></p>`,
			escaped, escaped,
		),
	}
}
