package video

import "context"

// DirectUpload is a provider direct-upload session. The client uploads the
// file straight to URL; the server only ever sees the id.
type DirectUpload struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Status  string `json:"status"`
	AssetID string `json:"asset_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PlaybackID is a provider playback handle for a ready asset.
type PlaybackID struct {
	ID     string `json:"id"`
	Policy string `json:"policy"`
}

// Asset is the provider-side processed representation of an upload.
type Asset struct {
	ID          string       `json:"id"`
	Status      string       `json:"status"`
	DurationSec float64      `json:"duration"`
	AspectRatio string       `json:"aspect_ratio,omitempty"`
	PlaybackIDs []PlaybackID `json:"playback_ids,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// Client is the narrow capability interface over the external video
// provider. One concrete adapter (MuxClient) exists; handlers and tests
// depend on this interface only.
type Client interface {
	CreateDirectUpload(ctx context.Context, corsOrigin string) (*DirectUpload, error)
	GetUpload(ctx context.Context, uploadID string) (*DirectUpload, error)
	GetAsset(ctx context.Context, assetID string) (*Asset, error)
	DeleteAsset(ctx context.Context, assetID string) error
	ThumbnailURL(playbackID string) string
	StreamURL(playbackID string) string
}

// SignatureVerifier authenticates inbound webhook payloads. Kept separate
// from Client so the webhook receiver is testable with a fake verifier.
type SignatureVerifier interface {
	VerifyWebhookSignature(payload []byte, header string) error
}
