package models

import (
	"time"

	"github.com/google/uuid"
)

// Course is a sequence of classes published by a teacher.
type Course struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Level       string    `json:"level"` // beginner, intermediate, advanced
	Style       string    `json:"style"` // e.g. vinyasa, hatha, yin
	TeacherID   uuid.UUID `json:"teacher_id"`
	CoverKey    string    `json:"-"`
	CoverURL    string    `json:"cover_url,omitempty"` // presigned, filled on read when a cover exists
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
