// internal/whatsapp/signature_test.go
package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckToken(t *testing.T) {
	assert.NoError(t, CheckToken("", "", false), "unconfigured token is a no-op outside production")
	assert.ErrorIs(t, CheckToken("", "", true), ErrNotConfigured)
	assert.NoError(t, CheckToken("secret", "secret", true))
	assert.ErrorIs(t, CheckToken("secret", "wrong", true), ErrBadToken)
	assert.ErrorIs(t, CheckToken("secret", "", false), ErrBadToken)
}

func sign(secret string, ts int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.", ts)))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "hmac-secret"
	body := []byte(`{"client_id":"abc"}`)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ts := now.Unix()
	sig := sign(secret, ts, body)

	assert.NoError(t, VerifySignature(secret, sig, fmt.Sprint(ts), body, 5*time.Minute, now))
	assert.NoError(t, VerifySignature("", "", "", body, 5*time.Minute, now), "empty secret disables the check")

	t.Run("missing headers", func(t *testing.T) {
		assert.ErrorIs(t, VerifySignature(secret, "", fmt.Sprint(ts), body, 5*time.Minute, now), ErrBadSignature)
		assert.ErrorIs(t, VerifySignature(secret, sig, "", body, 5*time.Minute, now), ErrBadSignature)
	})

	t.Run("malformed timestamp", func(t *testing.T) {
		assert.ErrorIs(t, VerifySignature(secret, sig, "not-a-number", body, 5*time.Minute, now), ErrBadSignature)
	})

	t.Run("stale timestamp outside ttl", func(t *testing.T) {
		stale := now.Add(-10 * time.Minute).Unix()
		staleSig := sign(secret, stale, body)
		assert.ErrorIs(t, VerifySignature(secret, staleSig, fmt.Sprint(stale), body, 5*time.Minute, now), ErrBadSignature)
	})

	t.Run("tampered body", func(t *testing.T) {
		assert.ErrorIs(t, VerifySignature(secret, sig, fmt.Sprint(ts), []byte(`{"client_id":"tampered"}`), 5*time.Minute, now), ErrBadSignature)
	})

	t.Run("wrong secret", func(t *testing.T) {
		assert.ErrorIs(t, VerifySignature("other-secret", sig, fmt.Sprint(ts), body, 5*time.Minute, now), ErrBadSignature)
	})
}
