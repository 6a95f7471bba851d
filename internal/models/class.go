package models

import (
	"time"

	"github.com/google/uuid"
)

// VideoStatus is the lifecycle of a class video at the provider.
// Happy path: none -> preparing -> ready. Errored is reachable from the
// upload stage or from preparing. Ready and errored are terminal; a new
// upload attempt issues a new upload id rather than reviving an old one.
const (
	VideoStatusNone      = "none"
	VideoStatusPreparing = "preparing"
	VideoStatusReady     = "ready"
	VideoStatusErrored   = "errored"
)

// Class is a single video lesson inside a course. The video_* columns
// reference the provider-side asset; they are written only by the webhook
// receiver, keyed by upload id or asset id (the provider does not know
// our class id).
type Class struct {
	ID              uuid.UUID `json:"id"`
	CourseID        uuid.UUID `json:"course_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Position        int       `json:"position"`
	VideoUploadID   string    `json:"video_upload_id,omitempty"`
	VideoAssetID    string    `json:"video_asset_id,omitempty"`
	VideoPlaybackID string    `json:"video_playback_id,omitempty"`
	VideoStatus     string    `json:"video_status"`
	DurationMin     int       `json:"duration_min"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Playable reports whether the class video can be streamed.
func (c *Class) Playable() bool {
	return c.VideoStatus == VideoStatusReady && c.VideoPlaybackID != ""
}
