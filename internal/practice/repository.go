package practice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pranaflow/backend/internal/models"
)

// Repository handles practice log persistence and aggregation.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a practice repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Log inserts a practice session.
func (r *Repository) Log(ctx context.Context, log *models.PracticeLog) error {
	const q = `INSERT INTO practice_logs (id, user_id, class_id, duration_min, practiced_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, log.UserID, log.ClassID, log.DurationMin, log.PracticedAt).
		Scan(&log.ID, &log.CreatedAt)
}

// ListByUser returns the user's practice log, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.PracticeLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const q = `SELECT id, user_id, class_id, duration_min, practiced_at, created_at
		FROM practice_logs WHERE user_id = $1 ORDER BY practiced_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.PracticeLog
	for rows.Next() {
		var l models.PracticeLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.ClassID, &l.DurationMin, &l.PracticedAt, &l.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// Stats aggregates the user's practice history: lifetime totals, recent
// windows, weekly buckets for the last 12 weeks, and the current daily
// streak.
func (r *Repository) Stats(ctx context.Context, userID uuid.UUID) (*models.PracticeStats, error) {
	var stats models.PracticeStats

	const totalsQ = `SELECT COUNT(*), COALESCE(SUM(duration_min),0),
		COALESCE(SUM(duration_min) FILTER (WHERE practiced_at >= NOW() - INTERVAL '7 days'),0),
		COALESCE(SUM(duration_min) FILTER (WHERE practiced_at >= NOW() - INTERVAL '30 days'),0)
		FROM practice_logs WHERE user_id = $1`
	if err := r.pool.QueryRow(ctx, totalsQ, userID).
		Scan(&stats.TotalSessions, &stats.TotalMinutes, &stats.Last7Minutes, &stats.Last30Minutes); err != nil {
		return nil, err
	}

	const weeklyQ = `SELECT date_trunc('week', practiced_at)::date AS week_start,
		COUNT(*), COALESCE(SUM(duration_min),0)
		FROM practice_logs
		WHERE user_id = $1 AND practiced_at >= NOW() - INTERVAL '12 weeks'
		GROUP BY week_start ORDER BY week_start`
	rows, err := r.pool.Query(ctx, weeklyQ, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var b models.WeekBucket
		if err := rows.Scan(&b.WeekStart, &b.Sessions, &b.Minutes); err != nil {
			return nil, err
		}
		stats.Weekly = append(stats.Weekly, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	days, err := r.recentPracticeDays(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.StreakDays = CurrentStreak(days, time.Now().UTC())

	return &stats, nil
}

// recentPracticeDays returns distinct practice dates, newest first, capped
// at a year (a streak cannot usefully exceed that window).
func (r *Repository) recentPracticeDays(ctx context.Context, userID uuid.UUID) ([]time.Time, error) {
	const q = `SELECT DISTINCT practiced_at::date AS day
		FROM practice_logs WHERE user_id = $1
		ORDER BY day DESC LIMIT 366`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// CurrentStreak counts consecutive practice days ending today or yesterday.
// days must be distinct dates sorted newest first.
func CurrentStreak(days []time.Time, now time.Time) int {
	if len(days) == 0 {
		return 0
	}
	today := now.Truncate(24 * time.Hour)
	head := days[0].Truncate(24 * time.Hour)
	gap := int(today.Sub(head).Hours() / 24)
	if gap > 1 {
		// Last practice was before yesterday; no active streak.
		return 0
	}
	streak := 1
	prev := head
	for _, d := range days[1:] {
		d = d.Truncate(24 * time.Hour)
		if int(prev.Sub(d).Hours()/24) != 1 {
			break
		}
		streak++
		prev = d
	}
	return streak
}
