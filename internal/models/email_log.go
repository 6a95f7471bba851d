package models

import (
	"time"

	"github.com/google/uuid"
)

// Email log statuses.
const (
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)

// EmailLog records one notification email attempt (audit trail for admins).
type EmailLog struct {
	ID             uuid.UUID `json:"id"`
	EmailType      string    `json:"email_type"` // e.g. video_ready, video_errored
	RecipientEmail string    `json:"recipient_email"`
	Subject        string    `json:"subject"`
	Status         string    `json:"status"`
	ErrorDetail    string    `json:"error_detail,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
