package video

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"type":"video.asset.ready","data":{"id":"as_1"}}`)
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	newVerifier := func() *WebhookVerifier {
		v := NewWebhookVerifier(secret)
		v.now = func() time.Time { return now }
		return v
	}

	t.Run("valid signature", func(t *testing.T) {
		header := SignPayload([]byte(secret), payload, now)
		require.NoError(t, newVerifier().VerifyWebhookSignature(payload, header))
	})

	t.Run("missing header", func(t *testing.T) {
		err := newVerifier().VerifyWebhookSignature(payload, "")
		assert.ErrorIs(t, err, ErrMissingSignature)
	})

	t.Run("wrong secret", func(t *testing.T) {
		header := SignPayload([]byte("other-secret"), payload, now)
		err := newVerifier().VerifyWebhookSignature(payload, header)
		assert.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("tampered payload", func(t *testing.T) {
		header := SignPayload([]byte(secret), payload, now)
		tampered := []byte(`{"type":"video.asset.ready","data":{"id":"as_2"}}`)
		err := newVerifier().VerifyWebhookSignature(tampered, header)
		assert.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("malformed header", func(t *testing.T) {
		err := newVerifier().VerifyWebhookSignature(payload, "v1=deadbeef")
		assert.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		header := SignPayload([]byte(secret), payload, now.Add(-10*time.Minute))
		err := newVerifier().VerifyWebhookSignature(payload, header)
		assert.ErrorIs(t, err, ErrStaleSignature)
	})

	t.Run("future timestamp outside tolerance", func(t *testing.T) {
		header := SignPayload([]byte(secret), payload, now.Add(10*time.Minute))
		err := newVerifier().VerifyWebhookSignature(payload, header)
		assert.ErrorIs(t, err, ErrStaleSignature)
	})
}
