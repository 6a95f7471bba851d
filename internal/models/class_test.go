package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassPlayable(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		playbackID string
		want       bool
	}{
		{"ready with playback id", VideoStatusReady, "pb_1", true},
		{"ready without playback id", VideoStatusReady, "", false},
		{"preparing", VideoStatusPreparing, "pb_1", false},
		{"errored", VideoStatusErrored, "", false},
		{"no video", VideoStatusNone, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl := &Class{VideoStatus: tt.status, VideoPlaybackID: tt.playbackID}
			assert.Equal(t, tt.want, cl.Playable())
		})
	}
}
