package video

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMux(t *testing.T, handler http.HandlerFunc, testMode bool) *MuxClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewMuxClient(Config{
		TokenID:     "token-id",
		TokenSecret: "token-secret",
		TestMode:    testMode,
		BaseURL:     srv.URL,
	}, zap.NewNop())
}

func TestCreateDirectUpload(t *testing.T) {
	var gotReq createUploadRequest
	client := newTestMux(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/video/v1/uploads", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "token-id", user)
		assert.Equal(t, "token-secret", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":"up_1","url":"https://storage.example.com/up_1","status":"waiting"}}`))
	}, true)

	upload, err := client.CreateDirectUpload(context.Background(), "https://app.example.com")
	require.NoError(t, err)
	assert.Equal(t, "up_1", upload.ID)
	assert.Equal(t, "https://storage.example.com/up_1", upload.URL)

	// Fixed encoding policy plus the environment-dependent test flag.
	assert.Equal(t, "https://app.example.com", gotReq.CORSOrigin)
	assert.True(t, gotReq.Test)
	assert.Equal(t, []string{"public"}, gotReq.NewAssetSettings.PlaybackPolicy)
	assert.Equal(t, "baseline", gotReq.NewAssetSettings.EncodingTier)
	assert.Equal(t, "1080p", gotReq.NewAssetSettings.MaxResolutionTier)
}

func TestGetUpload(t *testing.T) {
	client := newTestMux(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/video/v1/uploads/up_1", r.URL.Path)
		w.Write([]byte(`{"data":{"id":"up_1","status":"asset_created","asset_id":"as_1"}}`))
	}, false)

	upload, err := client.GetUpload(context.Background(), "up_1")
	require.NoError(t, err)
	assert.Equal(t, "asset_created", upload.Status)
	assert.Equal(t, "as_1", upload.AssetID)
}

func TestGetAsset(t *testing.T) {
	client := newTestMux(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/video/v1/assets/as_1", r.URL.Path)
		w.Write([]byte(`{"data":{"id":"as_1","status":"ready","duration":642.25,"aspect_ratio":"16:9","playback_ids":[{"id":"pb_1","policy":"public"}]}}`))
	}, false)

	asset, err := client.GetAsset(context.Background(), "as_1")
	require.NoError(t, err)
	assert.Equal(t, "ready", asset.Status)
	assert.Equal(t, 642.25, asset.DurationSec)
	assert.Equal(t, "16:9", asset.AspectRatio)
	require.Len(t, asset.PlaybackIDs, 1)
	assert.Equal(t, "pb_1", asset.PlaybackIDs[0].ID)
}

func TestDeleteAsset(t *testing.T) {
	client := newTestMux(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/video/v1/assets/as_1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}, false)

	require.NoError(t, client.DeleteAsset(context.Background(), "as_1"))
}

func TestProviderErrorSurfaces(t *testing.T) {
	client := newTestMux(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"messages":["bad credentials"]}}`))
	}, false)

	_, err := client.GetAsset(context.Background(), "as_1")
	assert.ErrorContains(t, err, "provider API status 401")
}

func TestPlaybackURLs(t *testing.T) {
	client := NewMuxClient(Config{}, nil)
	assert.Equal(t, "https://image.mux.com/pb_1/thumbnail.jpg", client.ThumbnailURL("pb_1"))
	assert.Equal(t, "https://stream.mux.com/pb_1.m3u8", client.StreamURL("pb_1"))
}
