package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func newTestMailer(t *testing.T, fn sendFunc, opts ...Option) *SMTPMailer {
	t.Helper()
	opts = append([]Option{withSendFunc(fn)}, opts...)
	m, err := New(Config{
		Host:      "smtp.example.com",
		Port:      587,
		Username:  "noreply@example.com",
		Password:  "secret",
		SiteName:  "Arena",
		PublicURL: "http://localhost:3000",
	}, opts...)
	require.NoError(t, err)
	m.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return m
}

func TestNewRequiresHost(t *testing.T) {
	m, err := New(Config{})
	assert.Error(t, err)
	assert.Nil(t, m)
}

func TestNewDefaults(t *testing.T) {
	m, err := New(Config{Host: "localhost", Username: "me@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 25, m.cfg.Port)
	assert.Equal(t, "me@example.com", m.cfg.From)
}

func TestSendActivationEmail(t *testing.T) {
	var got sent
	m := newTestMailer(t, func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		got = sent{addr: addr, auth: a, from: from, to: to, msg: string(msg)}
		return nil
	})

	err := m.SendActivationEmail(context.Background(), "player@example.com", "abc123", "player01")
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", got.addr)
	assert.NotNil(t, got.auth)
	assert.Equal(t, "noreply@example.com", got.from)
	assert.Equal(t, []string{"player@example.com"}, got.to)
	assert.Contains(t, got.msg, "Subject: Arena account activation\r\n")
	assert.Contains(t, got.msg, "To: player@example.com\r\n")
	assert.Contains(t, got.msg, "http://localhost:3000/api/active_account?account=player01&key=abc123")
	assert.Contains(t, got.msg, "Hello player01,")
}

func TestSendActivationEmailWrapsTransportError(t *testing.T) {
	m := newTestMailer(t, func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	})

	err := m.SendActivationEmail(context.Background(), "player@example.com", "abc123", "player01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSendActivationEmailHonorsCancelledContext(t *testing.T) {
	called := false
	m := newTestMailer(t, func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.SendActivationEmail(ctx, "player@example.com", "abc123", "player01")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestCustomTemplates(t *testing.T) {
	m := newTestMailer(t, nil,
		WithBodyTemplate("activate {{ account }} at {{ link|safe }}"),
		WithSubjectTemplate("welcome to {{ site_name }}"),
	)

	msg, err := m.Compose("player@example.com", "k", "player01")
	require.NoError(t, err)
	assert.Contains(t, string(msg), "Subject: welcome to Arena\r\n")
	assert.Contains(t, string(msg), "activate player01 at http://localhost:3000/api/active_account?account=player01&key=k")
}

func TestInvalidTemplate(t *testing.T) {
	_, err := New(Config{Host: "localhost"}, WithBodyTemplate("{% if %}"))
	assert.Error(t, err)
}
