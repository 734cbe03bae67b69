// internal/whatsapp/signature.go
package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	// ErrBadToken is returned when X-Ingest-Token doesn't match the
	// configured token, per spec §4.8 step 1.
	ErrBadToken = errors.New("whatsapp: bad or missing ingest token")
	// ErrNotConfigured is returned when the endpoint is mounted without a
	// configured ingest token, per spec §4.8 step 1's production 503 rule.
	ErrNotConfigured = errors.New("whatsapp: ingest endpoint not configured")
	// ErrBadSignature covers a missing/malformed/mismatched HMAC signature
	// or a timestamp outside the configured TTL, per spec §4.8 step 2.
	ErrBadSignature = errors.New("whatsapp: bad or stale signature")
)

// CheckToken enforces spec §4.8 step 1.
func CheckToken(configuredToken, presentedToken string, inProduction bool) error {
	if configuredToken == "" {
		if inProduction {
			return ErrNotConfigured
		}
		return nil
	}
	if presentedToken == "" || presentedToken != configuredToken {
		return ErrBadToken
	}
	return nil
}

// VerifySignature implements spec §4.8 step 2: the signature is
// hex(HMAC-SHA256(secret, timestamp + "." + raw_body)), and the timestamp
// must fall within ±ttl of now. An empty secret disables the check
// entirely (the token check is then the only gate).
func VerifySignature(secret, signatureHeader, timestampHeader string, rawBody []byte, ttl time.Duration, now time.Time) error {
	if secret == "" {
		return nil
	}
	if signatureHeader == "" || timestampHeader == "" {
		return ErrBadSignature
	}

	tsSeconds, err := strconv.ParseInt(timestampHeader, 10, 64)
	if err != nil {
		return ErrBadSignature
	}
	ts := time.Unix(tsSeconds, 0)
	if diff := now.Sub(ts); diff > ttl || diff < -ttl {
		return ErrBadSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.", tsSeconds)))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signatureHeader)) {
		return ErrBadSignature
	}
	return nil
}
