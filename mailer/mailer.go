// Package mailer delivers activation emails over SMTP. Bodies are
// rendered from a pongo2 template.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"
	account "github.com/nightcatsama/go-account"
)

const DefaultActivationTemplate = `Hello {{ account }},

Thank you for registering at {{ site_name|safe }}.

Follow the link below to activate your account:

{{ link|safe }}

If you did not register at {{ site_name|safe }}, ignore this email.
`

const DefaultSubject = "{{ site_name|safe }} account activation"

var _ account.Notifier = (*SMTPMailer)(nil)

// Config holds SMTP settings
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// SiteName and PublicURL are used to render the message
	SiteName  string
	PublicURL string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPMailer struct {
	cfg     Config
	body    *pongo2.Template
	subject *pongo2.Template
	send    sendFunc
	now     func() time.Time
}

type Option func(*SMTPMailer) error

// WithBodyTemplate replaces the activation email body
func WithBodyTemplate(src string) Option {
	return func(m *SMTPMailer) error {
		tpl, err := pongo2.FromString(src)
		if err != nil {
			return fmt.Errorf("parse body template: %w", err)
		}
		m.body = tpl
		return nil
	}
}

func WithSubjectTemplate(src string) Option {
	return func(m *SMTPMailer) error {
		tpl, err := pongo2.FromString(src)
		if err != nil {
			return fmt.Errorf("parse subject template: %w", err)
		}
		m.subject = tpl
		return nil
	}
}

func withSendFunc(fn sendFunc) Option {
	return func(m *SMTPMailer) error {
		m.send = fn
		return nil
	}
}

func New(cfg Config, opts ...Option) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("mailer: missing smtp host")
	}
	if cfg.Port == 0 {
		cfg.Port = 25
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}

	m := &SMTPMailer{
		cfg:     cfg,
		body:    pongo2.Must(pongo2.FromString(DefaultActivationTemplate)),
		subject: pongo2.Must(pongo2.FromString(DefaultSubject)),
		send:    smtp.SendMail,
		now:     time.Now,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// SendActivationEmail renders and sends the activation email for account.
func (m *SMTPMailer) SendActivationEmail(ctx context.Context, to, activationKey, accountName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := m.Compose(to, activationKey, accountName)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- m.send(addr, auth, m.cfg.From, []string{to}, msg)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send activation email: %w", err)
		}
		return nil
	}
}

// Compose builds the full RFC 5322 message
func (m *SMTPMailer) Compose(to, activationKey, accountName string) ([]byte, error) {
	data := pongo2.Context{
		"account":   accountName,
		"site_name": m.cfg.SiteName,
		"link":      account.ActivationLink(m.cfg.PublicURL, accountName, activationKey),
	}

	subject, err := m.subject.Execute(data)
	if err != nil {
		return nil, fmt.Errorf("render subject: %w", err)
	}

	body, err := m.body.Execute(data)
	if err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", strings.TrimSpace(subject)))
	fmt.Fprintf(&buf, "Date: %s\r\n", m.now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))

	return buf.Bytes(), nil
}
