package video

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pranaflow/backend/internal/models"
	"github.com/pranaflow/backend/pkg/queue"
)

// fakeClass mirrors the video columns of one class row.
type fakeClass struct {
	uploadID    string
	assetID     string
	playbackID  string
	status      string
	durationMin int
}

// fakeStore applies the same match-key and guard semantics as the SQL
// repository against an in-memory row set.
type fakeStore struct {
	classes []*fakeClass
	err     error
}

func (s *fakeStore) AttachAsset(_ context.Context, uploadID, assetID string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	var rows int64
	for _, cl := range s.classes {
		if cl.uploadID == uploadID && cl.status != models.VideoStatusReady {
			cl.assetID = assetID
			cl.status = models.VideoStatusPreparing
			rows++
		}
	}
	return rows, nil
}

func (s *fakeStore) MarkUploadErrored(_ context.Context, uploadID string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	var rows int64
	for _, cl := range s.classes {
		if cl.uploadID == uploadID && cl.status != models.VideoStatusReady {
			cl.status = models.VideoStatusErrored
			rows++
		}
	}
	return rows, nil
}

func (s *fakeStore) MarkAssetReady(_ context.Context, assetID, playbackID string, durationMin int) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	var rows int64
	for _, cl := range s.classes {
		if cl.assetID == assetID && cl.status != models.VideoStatusReady {
			cl.status = models.VideoStatusReady
			if playbackID != "" {
				cl.playbackID = playbackID
			}
			if durationMin > 0 {
				cl.durationMin = durationMin
			}
			rows++
		}
	}
	return rows, nil
}

func (s *fakeStore) MarkAssetErrored(_ context.Context, assetID string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	var rows int64
	for _, cl := range s.classes {
		if cl.assetID == assetID && cl.status != models.VideoStatusReady {
			cl.status = models.VideoStatusErrored
			rows++
		}
	}
	return rows, nil
}

// fakeVerifier accepts exactly one header value.
type fakeVerifier struct {
	accept string
}

func (v *fakeVerifier) VerifyWebhookSignature(_ []byte, header string) error {
	if header != v.accept {
		return ErrBadSignature
	}
	return nil
}

// fakeNotifier records enqueued email payloads.
type fakeNotifier struct {
	enqueued []queue.VideoEmailPayload
}

func (n *fakeNotifier) EnqueueVideoEmail(_ context.Context, p queue.VideoEmailPayload) error {
	n.enqueued = append(n.enqueued, p)
	return nil
}

func postWebhook(t *testing.T, h *WebhookHandler, body, signature string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/video", strings.NewReader(body))
	if signature != "" {
		req.Header.Set("Mux-Signature", signature)
	}
	c.Request = req
	h.Handle(c)
	return w
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	store := &fakeStore{classes: []*fakeClass{{uploadID: "up_1", status: models.VideoStatusPreparing}}}
	h := NewWebhookHandler(store, &fakeVerifier{accept: "good"}, nil, zap.NewNop())

	body := `{"type":"video.upload.asset_created","data":{"id":"up_1","asset_id":"as_1"}}`

	w := postWebhook(t, h, body, "bad")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, store.classes[0].assetID, "no mutation on rejected signature")

	w = postWebhook(t, h, body, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, store.classes[0].assetID)
}

func TestWebhookUploadAssetCreated(t *testing.T) {
	store := &fakeStore{classes: []*fakeClass{{uploadID: "up_1", status: models.VideoStatusPreparing}}}
	h := NewWebhookHandler(store, &fakeVerifier{accept: "good"}, nil, zap.NewNop())

	body := `{"type":"video.upload.asset_created","data":{"id":"up_1","asset_id":"as_1"}}`
	w := postWebhook(t, h, body, "good")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
	assert.Equal(t, "as_1", store.classes[0].assetID)
	assert.Equal(t, models.VideoStatusPreparing, store.classes[0].status)
}

func TestWebhookAssetReady(t *testing.T) {
	store := &fakeStore{classes: []*fakeClass{{uploadID: "up_1", assetID: "as_1", status: models.VideoStatusPreparing}}}
	notifier := &fakeNotifier{}
	h := NewWebhookHandler(store, &fakeVerifier{accept: "good"}, notifier, zap.NewNop())

	body := `{"type":"video.asset.ready","data":{"id":"as_1","duration":642,"playback_ids":[{"id":"pb_1","policy":"public"}]}}`
	w := postWebhook(t, h, body, "good")

	require.Equal(t, http.StatusOK, w.Code)
	cl := store.classes[0]
	assert.Equal(t, models.VideoStatusReady, cl.status)
	assert.Equal(t, "pb_1", cl.playbackID)
	assert.Equal(t, 11, cl.durationMin, "642s rounds to 11 minutes")

	require.Len(t, notifier.enqueued, 1)
	assert.Equal(t, EventAssetReady, notifier.enqueued[0].Event)
	assert.Equal(t, "as_1", notifier.enqueued[0].AssetID)
}

func TestWebhookAssetReadyIdempotent(t *testing.T) {
	store := &fakeStore{classes: []*fakeClass{{assetID: "as_1", status: models.VideoStatusPreparing}}}
	notifier := &fakeNotifier{}
	h := NewWebhookHandler(store, &fakeVerifier{accept: "good"}, notifier, zap.NewNop())

	body := `{"type":"video.asset.ready","data":{"id":"as_1","duration":642,"playback_ids":[{"id":"pb_1"}]}}`

	w := postWebhook(t, h, body, "good")
	require.Equal(t, http.StatusOK, w.Code)
	first := *store.classes[0]

	// Redelivery: same event again must leave state unchanged and still ack.
	w = postWebhook(t, h, body, "good")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first, *store.classes[0])
	assert.Len(t, notifier.enqueued, 1, "redelivery must not enqueue a second email")
}

func TestWebhookAssetErrored(t *testing.T) {
	store := &fakeStore{classes: []*fakeClass{{assetID: "as_1", status: models.VideoStatusPreparing}}}
	h := NewWebhookHandler(store, &fakeVerifier{accept: "good"}, nil, zap.NewNop())

	w := postWebhook(t, h, `{"type":"video.asset.errored","data":{"id":"as_1"}}`, "good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.VideoStatusErrored, store.classes[0].status)
}

func TestWebhookErroredDoesNotDowngradeReady(t *testing.T) {
	store := &fakeStore{classes: []*fakeClass{{assetID: "as_1", playbackID: "pb_1", status: models.VideoStatusReady}}}
	h := NewWebhookHandler(store, &fakeVerifier{accept: "good"}, nil, zap.NewNop())

	w := postWebhook(t, h, `{"type":"video.asset.errored","data":{"id":"as_1"}}`, "good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.VideoStatusReady, store.classes[0].status)
}

func TestWebhookLateAssetCreatedDoesNotDowngradeReady(t *testing.T) {
	store := &fakeStore{classes: []*fakeClass{{
		uploadID:    "up_1",
		assetID:     "as_1",
		playbackID:  "pb_1",
		status:      models.VideoStatusReady,
		durationMin: 11,
	}}}
	h := NewWebhookHandler(store, &fakeVerifier{accept: "good"}, nil, zap.NewNop())

	// asset_created arriving after ready (delivery order is not guaranteed)
	// must not push the class back to preparing.
	w := postWebhook(t, h, `{"type":"video.upload.asset_created","data":{"id":"up_1","asset_id":"as_1"}}`, "good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.VideoStatusReady, store.classes[0].status)
	assert.Equal(t, "pb_1", store.classes[0].playbackID)
}

func TestWebhookUploadErrored(t *testing.T) {
	store := &fakeStore{classes: []*fakeClass{{uploadID: "up_1", status: models.VideoStatusPreparing}}}
	h := NewWebhookHandler(store, &fakeVerifier{accept: "good"}, nil, zap.NewNop())

	w := postWebhook(t, h, `{"type":"video.upload.errored","data":{"id":"up_1"}}`, "good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.VideoStatusErrored, store.classes[0].status)
}

func TestWebhookUnknownEventIsNoOp(t *testing.T) {
	store := &fakeStore{classes: []*fakeClass{{assetID: "as_1", status: models.VideoStatusPreparing}}}
	h := NewWebhookHandler(store, &fakeVerifier{accept: "good"}, nil, zap.NewNop())

	w := postWebhook(t, h, `{"type":"video.asset.track.created","data":{"id":"as_1"}}`, "good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.VideoStatusPreparing, store.classes[0].status)
}

func TestWebhookZeroMatchesStillAcks(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	h := NewWebhookHandler(store, &fakeVerifier{accept: "good"}, notifier, zap.NewNop())

	w := postWebhook(t, h, `{"type":"video.asset.ready","data":{"id":"as_unknown"}}`, "good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, notifier.enqueued)
}

func TestWebhookStoreFailureStillAcks(t *testing.T) {
	store := &fakeStore{err: errors.New("connection reset")}
	h := NewWebhookHandler(store, &fakeVerifier{accept: "good"}, nil, zap.NewNop())

	w := postWebhook(t, h, `{"type":"video.asset.ready","data":{"id":"as_1"}}`, "good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
}

func TestWebhookUnparseableBody(t *testing.T) {
	h := NewWebhookHandler(&fakeStore{}, &fakeVerifier{accept: "good"}, nil, zap.NewNop())

	w := postWebhook(t, h, `{not json`, "good")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMinutesFromSeconds(t *testing.T) {
	cases := []struct {
		sec  float64
		want int
	}{
		{0, 0},
		{-5, 0},
		{29, 0},
		{31, 1},
		{60, 1},
		{642, 11},
		{3599.4, 60},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MinutesFromSeconds(tc.sec), "sec=%v", tc.sec)
	}
}
