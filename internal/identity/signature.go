package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Webhook deliveries are signed svix-style: HMAC-SHA256 over
// "<id>.<timestamp>.<payload>" with the shared secret, carried as
// "v1,<base64>" in the webhook-signature header.

const signatureTolerance = 5 * time.Minute

var (
	ErrMissingSignature = errors.New("missing webhook signature headers")
	ErrBadSignature     = errors.New("webhook signature mismatch")
	ErrStaleTimestamp   = errors.New("webhook timestamp outside tolerance")
)

// VerifySignature checks the HMAC signature of a webhook delivery.
func VerifySignature(secret, msgID, timestamp, sigHeader string, payload []byte, now time.Time) error {
	if msgID == "" || timestamp == "" || sigHeader == "" {
		return ErrMissingSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp", ErrMissingSignature)
	}
	sent := time.Unix(ts, 0)
	if now.Sub(sent) > signatureTolerance || sent.Sub(now) > signatureTolerance {
		return ErrStaleTimestamp
	}

	expected := computeSignature(secret, msgID, timestamp, payload)

	// The header may carry multiple space-separated versioned signatures.
	for _, part := range strings.Fields(sigHeader) {
		candidate := strings.TrimPrefix(part, "v1,")
		if candidate == part {
			continue
		}
		if hmac.Equal([]byte(candidate), []byte(expected)) {
			return nil
		}
	}
	return ErrBadSignature
}

func computeSignature(secret, msgID, timestamp string, payload []byte) string {
	key := secretBytes(secret)
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msgID))
	mac.Write([]byte("."))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func secretBytes(secret string) []byte {
	trimmed := strings.TrimPrefix(strings.TrimSpace(secret), "whsec_")
	if decoded, err := base64.StdEncoding.DecodeString(trimmed); err == nil && len(decoded) > 0 {
		return decoded
	}
	return []byte(trimmed)
}
