package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultMuxBaseURL = "https://api.mux.com"

// Config holds provider credentials and upload policy. Passed explicitly to
// the constructor; nothing is read from the environment here.
type Config struct {
	TokenID       string
	TokenSecret   string
	WebhookSecret string
	TestMode      bool   // mark new uploads as provider test assets
	BaseURL       string // override for tests; defaults to the Mux API
}

// MuxClient is the concrete Client adapter over the Mux Video REST API.
type MuxClient struct {
	cfg      Config
	http     *http.Client
	verifier *WebhookVerifier
	logger   *zap.Logger
}

// NewMuxClient creates a Mux adapter.
func NewMuxClient(cfg Config, logger *zap.Logger) *MuxClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultMuxBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MuxClient{
		cfg:      cfg,
		http:     &http.Client{Timeout: 30 * time.Second},
		verifier: NewWebhookVerifier(cfg.WebhookSecret),
		logger:   logger,
	}
}

// Wire shapes of the Mux API. Responses wrap the object in "data".
type muxUpload struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Status  string `json:"status"`
	AssetID string `json:"asset_id"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type muxAsset struct {
	ID          string       `json:"id"`
	Status      string       `json:"status"`
	Duration    float64      `json:"duration"`
	AspectRatio string       `json:"aspect_ratio"`
	PlaybackIDs []PlaybackID `json:"playback_ids"`
	Errors      *struct {
		Messages []string `json:"messages"`
	} `json:"errors"`
}

type createUploadRequest struct {
	CORSOrigin       string           `json:"cors_origin,omitempty"`
	Test             bool             `json:"test,omitempty"`
	NewAssetSettings newAssetSettings `json:"new_asset_settings"`
}

type newAssetSettings struct {
	PlaybackPolicy    []string `json:"playback_policy"`
	EncodingTier      string   `json:"encoding_tier"`
	MaxResolutionTier string   `json:"max_resolution_tier"`
}

// CreateDirectUpload requests a one-time direct upload URL with the fixed
// encoding policy (public playback, baseline tier, capped resolution).
func (m *MuxClient) CreateDirectUpload(ctx context.Context, corsOrigin string) (*DirectUpload, error) {
	body := createUploadRequest{
		CORSOrigin: corsOrigin,
		Test:       m.cfg.TestMode,
		NewAssetSettings: newAssetSettings{
			PlaybackPolicy:    []string{"public"},
			EncodingTier:      "baseline",
			MaxResolutionTier: "1080p",
		},
	}
	var out muxUpload
	if err := m.do(ctx, http.MethodPost, "/video/v1/uploads", body, &out); err != nil {
		return nil, err
	}
	return uploadFromWire(out), nil
}

// GetUpload fetches current upload session state from the provider.
func (m *MuxClient) GetUpload(ctx context.Context, uploadID string) (*DirectUpload, error) {
	var out muxUpload
	if err := m.do(ctx, http.MethodGet, "/video/v1/uploads/"+uploadID, nil, &out); err != nil {
		return nil, err
	}
	return uploadFromWire(out), nil
}

// GetAsset fetches current asset state from the provider.
func (m *MuxClient) GetAsset(ctx context.Context, assetID string) (*Asset, error) {
	var out muxAsset
	if err := m.do(ctx, http.MethodGet, "/video/v1/assets/"+assetID, nil, &out); err != nil {
		return nil, err
	}
	a := &Asset{
		ID:          out.ID,
		Status:      out.Status,
		DurationSec: out.Duration,
		AspectRatio: out.AspectRatio,
		PlaybackIDs: out.PlaybackIDs,
	}
	if out.Errors != nil && len(out.Errors.Messages) > 0 {
		a.Error = out.Errors.Messages[0]
	}
	return a, nil
}

// DeleteAsset removes the asset at the provider.
func (m *MuxClient) DeleteAsset(ctx context.Context, assetID string) error {
	return m.do(ctx, http.MethodDelete, "/video/v1/assets/"+assetID, nil, nil)
}

// VerifyWebhookSignature implements SignatureVerifier using the shared
// webhook secret from Config.
func (m *MuxClient) VerifyWebhookSignature(payload []byte, header string) error {
	return m.verifier.VerifyWebhookSignature(payload, header)
}

// ThumbnailURL builds the public thumbnail URL for a playback id.
func (m *MuxClient) ThumbnailURL(playbackID string) string {
	return fmt.Sprintf("https://image.mux.com/%s/thumbnail.jpg", playbackID)
}

// StreamURL builds the HLS streaming URL for a playback id.
func (m *MuxClient) StreamURL(playbackID string) string {
	return fmt.Sprintf("https://stream.mux.com/%s.m3u8", playbackID)
}

func uploadFromWire(u muxUpload) *DirectUpload {
	out := &DirectUpload{
		ID:      u.ID,
		URL:     u.URL,
		Status:  u.Status,
		AssetID: u.AssetID,
	}
	if u.Error != nil {
		out.Error = u.Error.Message
	}
	return out
}

// do performs one authenticated API call and decodes the "data" envelope.
func (m *MuxClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, m.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(m.cfg.TokenID, m.cfg.TokenSecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		m.logger.Error("provider API error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw),
		)
		return fmt.Errorf("provider API status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
