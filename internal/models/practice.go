package models

import (
	"time"

	"github.com/google/uuid"
)

// PracticeLog records one completed practice session of a class.
type PracticeLog struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	ClassID     uuid.UUID `json:"class_id"`
	DurationMin int       `json:"duration_min"`
	PracticedAt time.Time `json:"practiced_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// WeekBucket is one week of aggregated practice for the stats endpoint.
type WeekBucket struct {
	WeekStart time.Time `json:"week_start"`
	Sessions  int       `json:"sessions"`
	Minutes   int       `json:"minutes"`
}

// PracticeStats is the aggregated practice summary for a user.
type PracticeStats struct {
	TotalSessions int          `json:"total_sessions"`
	TotalMinutes  int          `json:"total_minutes"`
	Last7Minutes  int          `json:"last_7_days_minutes"`
	Last30Minutes int          `json:"last_30_days_minutes"`
	StreakDays    int          `json:"streak_days"`
	Weekly        []WeekBucket `json:"weekly"`
}
