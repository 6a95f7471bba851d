package video

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Webhook signature errors.
var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrBadSignature     = errors.New("invalid webhook signature")
	ErrStaleSignature   = errors.New("webhook signature timestamp outside tolerance")
)

// DefaultSignatureTolerance bounds how old a signed timestamp may be.
const DefaultSignatureTolerance = 5 * time.Minute

// WebhookVerifier checks the provider's "t=<unix>,v1=<hex>" signature
// header, where v1 is HMAC-SHA256 over "<t>.<raw body>" with the shared
// webhook secret.
type WebhookVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewWebhookVerifier creates a verifier for the given shared secret.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{
		secret:    []byte(secret),
		tolerance: DefaultSignatureTolerance,
		now:       time.Now,
	}
}

// VerifyWebhookSignature validates header against payload. Any failure
// means the payload must not be trusted.
func (v *WebhookVerifier) VerifyWebhookSignature(payload []byte, header string) error {
	if header == "" {
		return ErrMissingSignature
	}
	var ts, sig string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts = kv[1]
		case "v1":
			sig = kv[1]
		}
	}
	if ts == "" || sig == "" {
		return ErrBadSignature
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrBadSignature
	}
	if v.tolerance > 0 {
		age := v.now().Sub(time.Unix(unix, 0))
		if age > v.tolerance || age < -v.tolerance {
			return ErrStaleSignature
		}
	}
	expected := ComputeSignature(v.secret, payload, ts)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return ErrBadSignature
	}
	return nil
}

// ComputeSignature returns the hex HMAC-SHA256 of "<ts>.<payload>".
func ComputeSignature(secret, payload []byte, ts string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignPayload builds a full signature header for payload at t. Used by
// tests and local webhook replay tooling.
func SignPayload(secret, payload []byte, t time.Time) string {
	ts := strconv.FormatInt(t.Unix(), 10)
	return fmt.Sprintf("t=%s,v1=%s", ts, ComputeSignature(secret, payload, ts))
}
