package video

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pranaflow/backend/pkg/response"
)

// CreateUploadRequest is the body for POST /videos/uploads.
type CreateUploadRequest struct {
	CORSOrigin string `json:"cors_origin"`
}

// Handler handles the direct-upload and asset query/delete endpoints.
// Authorization (teacher role for uploads and deletes) is enforced at the
// route level, so no provider call is ever made for an unauthorized caller.
type Handler struct {
	client Client
	logger *zap.Logger
}

// NewHandler creates a video handler.
func NewHandler(client Client, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{client: client, logger: logger}
}

// CreateUpload handles POST /videos/uploads. Requests a one-time upload URL
// bound to the fixed encoding policy and returns {upload_id, upload_url}.
func (h *Handler) CreateUpload(c *gin.Context) {
	var req CreateUploadRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}

	upload, err := h.client.CreateDirectUpload(c.Request.Context(), req.CORSOrigin)
	if err != nil {
		h.logger.Error("create direct upload failed", zap.Error(err))
		response.Internal(c, "failed to create upload")
		return
	}
	response.Created(c, gin.H{"upload_id": upload.ID, "upload_url": upload.URL})
}

// GetUpload handles GET /videos/uploads/:id. Proxies current upload state
// from the provider, which stays the source of truth pre-ingest.
func (h *Handler) GetUpload(c *gin.Context) {
	uploadID := c.Param("id")
	if uploadID == "" {
		response.BadRequest(c, "upload id required")
		return
	}
	upload, err := h.client.GetUpload(c.Request.Context(), uploadID)
	if err != nil {
		h.logger.Error("get upload failed", zap.Error(err), zap.String("upload_id", uploadID))
		response.Internal(c, "failed to fetch upload")
		return
	}
	response.OK(c, gin.H{
		"id":       upload.ID,
		"status":   upload.Status,
		"asset_id": upload.AssetID,
		"error":    upload.Error,
	})
}

// GetAsset handles GET /videos/assets/:id. Any authenticated caller may
// query; playback URLs are derived from the first playback id.
func (h *Handler) GetAsset(c *gin.Context) {
	assetID := c.Param("id")
	if assetID == "" {
		response.BadRequest(c, "asset id required")
		return
	}
	asset, err := h.client.GetAsset(c.Request.Context(), assetID)
	if err != nil {
		h.logger.Error("get asset failed", zap.Error(err), zap.String("asset_id", assetID))
		response.Internal(c, "failed to fetch asset")
		return
	}

	var thumbnailURL, streamingURL string
	if len(asset.PlaybackIDs) > 0 {
		thumbnailURL = h.client.ThumbnailURL(asset.PlaybackIDs[0].ID)
		streamingURL = h.client.StreamURL(asset.PlaybackIDs[0].ID)
	}
	response.OK(c, gin.H{
		"id":            asset.ID,
		"status":        asset.Status,
		"duration":      asset.DurationSec,
		"aspect_ratio":  asset.AspectRatio,
		"playback_ids":  asset.PlaybackIDs,
		"thumbnail_url": thumbnailURL,
		"streaming_url": streamingURL,
	})
}

// DeleteAsset handles DELETE /videos/assets/:id. Removes the provider-side
// asset only; the local class row follows the generic record lifecycle.
func (h *Handler) DeleteAsset(c *gin.Context) {
	assetID := c.Param("id")
	if assetID == "" {
		response.BadRequest(c, "asset id required")
		return
	}
	if err := h.client.DeleteAsset(c.Request.Context(), assetID); err != nil {
		h.logger.Error("delete asset failed", zap.Error(err), zap.String("asset_id", assetID))
		response.Internal(c, "failed to delete asset")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}
