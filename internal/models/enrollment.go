package models

import (
	"time"

	"github.com/google/uuid"
)

// Enrollment links a student to a course.
type Enrollment struct {
	ID        uuid.UUID `json:"id"`
	CourseID  uuid.UUID `json:"course_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// EnrollmentWithCourse is an enrollment joined with its course for listings.
type EnrollmentWithCourse struct {
	Enrollment
	Course Course `json:"course"`
}
