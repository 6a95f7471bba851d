package video

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeClient serves canned provider responses to the handler.
type fakeClient struct {
	upload *DirectUpload
	asset  *Asset
	err    error

	deletedAssetID string
}

func (f *fakeClient) CreateDirectUpload(_ context.Context, _ string) (*DirectUpload, error) {
	return f.upload, f.err
}

func (f *fakeClient) GetUpload(_ context.Context, _ string) (*DirectUpload, error) {
	return f.upload, f.err
}

func (f *fakeClient) GetAsset(_ context.Context, _ string) (*Asset, error) {
	return f.asset, f.err
}

func (f *fakeClient) DeleteAsset(_ context.Context, assetID string) error {
	f.deletedAssetID = assetID
	return f.err
}

func (f *fakeClient) ThumbnailURL(playbackID string) string {
	return "https://image.example.com/" + playbackID + "/thumbnail.jpg"
}

func (f *fakeClient) StreamURL(playbackID string) string {
	return "https://stream.example.com/" + playbackID + ".m3u8"
}

func callHandler(t *testing.T, fn gin.HandlerFunc, method, body, paramID string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, "/", strings.NewReader(body))
	if paramID != "" {
		c.Params = gin.Params{{Key: "id", Value: paramID}}
	}
	fn(c)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	return envelope.Data
}

func TestCreateUploadEndpoint(t *testing.T) {
	client := &fakeClient{upload: &DirectUpload{ID: "up_1", URL: "https://storage.example.com/up_1"}}
	h := NewHandler(client, zap.NewNop())

	w := callHandler(t, h.CreateUpload, http.MethodPost, `{"cors_origin":"https://app.example.com"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)

	data := decodeData(t, w)
	assert.Equal(t, "up_1", data["upload_id"])
	assert.Equal(t, "https://storage.example.com/up_1", data["upload_url"])
}

func TestCreateUploadProviderFailure(t *testing.T) {
	h := NewHandler(&fakeClient{err: errors.New("provider down")}, zap.NewNop())

	w := callHandler(t, h.CreateUpload, http.MethodPost, "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "provider down", "provider errors stay out of responses")
}

func TestGetAssetEndpoint(t *testing.T) {
	client := &fakeClient{asset: &Asset{
		ID:          "as_1",
		Status:      "ready",
		DurationSec: 642,
		AspectRatio: "16:9",
		PlaybackIDs: []PlaybackID{{ID: "pb_1", Policy: "public"}, {ID: "pb_2", Policy: "signed"}},
	}}
	h := NewHandler(client, zap.NewNop())

	w := callHandler(t, h.GetAsset, http.MethodGet, "", "as_1")
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeData(t, w)
	assert.Equal(t, "as_1", data["id"])
	assert.Equal(t, "ready", data["status"])
	assert.Equal(t, 642.0, data["duration"])
	assert.Equal(t, "16:9", data["aspect_ratio"])
	// Playback URLs derive from the first playback id.
	assert.Equal(t, "https://image.example.com/pb_1/thumbnail.jpg", data["thumbnail_url"])
	assert.Equal(t, "https://stream.example.com/pb_1.m3u8", data["streaming_url"])
}

func TestGetAssetNoPlaybackIDs(t *testing.T) {
	client := &fakeClient{asset: &Asset{ID: "as_1", Status: "preparing"}}
	h := NewHandler(client, zap.NewNop())

	w := callHandler(t, h.GetAsset, http.MethodGet, "", "as_1")
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeData(t, w)
	assert.Equal(t, "", data["thumbnail_url"])
	assert.Equal(t, "", data["streaming_url"])
}

func TestDeleteAssetEndpoint(t *testing.T) {
	client := &fakeClient{}
	h := NewHandler(client, zap.NewNop())

	w := callHandler(t, h.DeleteAsset, http.MethodDelete, "", "as_1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "as_1", client.deletedAssetID)

	data := decodeData(t, w)
	assert.Equal(t, true, data["deleted"])
}
