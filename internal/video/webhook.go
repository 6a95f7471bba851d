package video

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pranaflow/backend/pkg/queue"
	"github.com/pranaflow/backend/pkg/response"
)

// Provider webhook event types this receiver dispatches on.
const (
	EventAssetReady         = "video.asset.ready"
	EventAssetErrored       = "video.asset.errored"
	EventUploadAssetCreated = "video.upload.asset_created"
	EventUploadErrored      = "video.upload.errored"
	signatureHeader         = "Mux-Signature"
)

// Store is the asset reference store as seen by the webhook receiver. Each
// method is a single idempotent update keyed by provider upload or asset id
// (never by class primary key) and returns the number of matched rows; zero
// rows is a valid outcome, not an error.
type Store interface {
	AttachAsset(ctx context.Context, uploadID, assetID string) (int64, error)
	MarkUploadErrored(ctx context.Context, uploadID string) (int64, error)
	MarkAssetReady(ctx context.Context, assetID, playbackID string, durationMin int) (int64, error)
	MarkAssetErrored(ctx context.Context, assetID string) (int64, error)
}

// Notifier enqueues teacher notification emails for terminal asset events.
// Optional; nil disables notifications.
type Notifier interface {
	EnqueueVideoEmail(ctx context.Context, payload queue.VideoEmailPayload) error
}

// webhookEvent is the inbound envelope. Field meaning depends on type:
// for upload events data.id is the upload id, for asset events the asset id.
type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		ID          string       `json:"id"`
		AssetID     string       `json:"asset_id"`
		Duration    float64      `json:"duration"`
		PlaybackIDs []PlaybackID `json:"playback_ids"`
	} `json:"data"`
}

// WebhookHandler receives signed provider events and propagates status into
// the asset reference store.
type WebhookHandler struct {
	store    Store
	verifier SignatureVerifier
	notifier Notifier
	logger   *zap.Logger
}

// NewWebhookHandler creates a webhook receiver.
func NewWebhookHandler(store Store, verifier SignatureVerifier, notifier Notifier, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{store: store, verifier: verifier, notifier: notifier, logger: logger}
}

// Handle handles POST /webhooks/video. Signature verification happens on
// the raw body before any field is trusted; an unverifiable payload is a
// hard 401 with no state mutation. Once verified, the delivery is always
// acknowledged with 200 so the provider does not storm us with redeliveries;
// per-event handler failures are logged, never surfaced.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "unreadable body")
		return
	}

	if err := h.verifier.VerifyWebhookSignature(body, c.GetHeader(signatureHeader)); err != nil {
		h.logger.Warn("webhook signature rejected", zap.Error(err))
		response.Unauthorized(c, "invalid signature")
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Warn("webhook payload unparseable", zap.Error(err))
		response.BadRequest(c, "invalid payload")
		return
	}

	if err := h.dispatch(c.Request.Context(), &event); err != nil {
		// Acknowledged anyway; the provider's retry policy is not ours to trigger.
		h.logger.Error("webhook handler failed",
			zap.String("type", event.Type),
			zap.String("object_id", event.Data.ID),
			zap.Error(err),
		)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// dispatch routes one verified event to its store update.
func (h *WebhookHandler) dispatch(ctx context.Context, event *webhookEvent) error {
	var (
		rows int64
		err  error
	)
	switch event.Type {
	case EventAssetReady:
		playbackID := ""
		if len(event.Data.PlaybackIDs) > 0 {
			playbackID = event.Data.PlaybackIDs[0].ID
		}
		rows, err = h.store.MarkAssetReady(ctx, event.Data.ID, playbackID, MinutesFromSeconds(event.Data.Duration))
	case EventAssetErrored:
		rows, err = h.store.MarkAssetErrored(ctx, event.Data.ID)
	case EventUploadAssetCreated:
		rows, err = h.store.AttachAsset(ctx, event.Data.ID, event.Data.AssetID)
	case EventUploadErrored:
		rows, err = h.store.MarkUploadErrored(ctx, event.Data.ID)
	default:
		h.logger.Info("webhook event ignored", zap.String("type", event.Type))
		return nil
	}
	if err != nil {
		return err
	}
	if rows == 0 {
		// Asset may belong to another environment or its class was deleted.
		h.logger.Info("webhook event matched no class",
			zap.String("type", event.Type),
			zap.String("object_id", event.Data.ID),
		)
		return nil
	}

	if h.notifier != nil && (event.Type == EventAssetReady || event.Type == EventAssetErrored) {
		if nErr := h.notifier.EnqueueVideoEmail(ctx, queue.VideoEmailPayload{
			Event:   event.Type,
			AssetID: event.Data.ID,
		}); nErr != nil {
			h.logger.Error("enqueue video email failed", zap.Error(nErr), zap.String("asset_id", event.Data.ID))
		}
	}
	return nil
}

// MinutesFromSeconds converts a provider duration in seconds to whole
// minutes, rounded to nearest (642s -> 11).
func MinutesFromSeconds(sec float64) int {
	if sec <= 0 {
		return 0
	}
	return int(math.Round(sec / 60))
}
