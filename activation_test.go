package account_test

import (
	"testing"

	account "github.com/nightcatsama/go-account"
	"github.com/stretchr/testify/assert"
)

func TestActivationKeyDerive(t *testing.T) {
	h := account.NewMD5Hasher()
	d := account.NewActivationKeyDeriver(newTestConfig(), h)

	digest := h.HashTwice("secret123")
	assert.Equal(t, "3c705d1a3abbb2987b4aab61dbe10715", digest)

	key := d.Derive("player@example.com", digest)
	assert.Equal(t, "3b7caf91b74990bb595cd7e480b81e4a", key)
	assert.Equal(t, key, d.Derive("player@example.com", digest), "derivation is deterministic")
}

func TestActivationKeyVerify(t *testing.T) {
	h := account.NewMD5Hasher()
	d := account.NewActivationKeyDeriver(newTestConfig(), h)
	digest := h.HashTwice("secret123")
	key := d.Derive("player@example.com", digest)

	assert.True(t, d.Verify("player@example.com", digest, key))
	assert.False(t, d.Verify("other@example.com", digest, key))
	assert.False(t, d.Verify("player@example.com", h.HashTwice("changed1"), key))
	assert.False(t, d.Verify("player@example.com", digest, ""))
}

func TestActivationKeyDependsOnSecret(t *testing.T) {
	h := account.NewMD5Hasher()
	digest := h.HashTwice("secret123")

	cfgA := newTestConfig()
	cfgB := newTestConfig()
	cfgB.secret = "another-secret"

	keyA := account.NewActivationKeyDeriver(cfgA, h).Derive("player@example.com", digest)
	keyB := account.NewActivationKeyDeriver(cfgB, h).Derive("player@example.com", digest)
	assert.NotEqual(t, keyA, keyB)
}

func TestActivationLink(t *testing.T) {
	link := account.ActivationLink("http://localhost:8080", "player01", "abc123")
	assert.Equal(t, "http://localhost:8080/api/active_account?account=player01&key=abc123", link)
}
