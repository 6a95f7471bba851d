package enrollments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pranaflow/backend/internal/models"
)

// Repository handles enrollment persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an enrollments repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Enroll inserts an enrollment. Returns false when the user was already
// enrolled (conflict on the unique course/user pair).
func (r *Repository) Enroll(ctx context.Context, courseID, userID uuid.UUID) (*models.Enrollment, bool, error) {
	const q = `INSERT INTO enrollments (id, course_id, user_id)
		VALUES (gen_random_uuid(), $1, $2)
		ON CONFLICT (course_id, user_id) DO NOTHING
		RETURNING id, created_at`
	e := &models.Enrollment{CourseID: courseID, UserID: userID}
	err := r.pool.QueryRow(ctx, q, courseID, userID).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return e, true, nil
}

// IsEnrolled reports whether the user is enrolled in the course.
func (r *Repository) IsEnrolled(ctx context.Context, courseID, userID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM enrollments WHERE course_id = $1 AND user_id = $2)`
	var enrolled bool
	err := r.pool.QueryRow(ctx, q, courseID, userID).Scan(&enrolled)
	return enrolled, err
}

// ListByUser returns the user's enrollments joined with their courses.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.EnrollmentWithCourse, error) {
	const q = `SELECT e.id, e.course_id, e.user_id, e.created_at,
		c.id, c.title, c.description, c.level, c.style, c.teacher_id, COALESCE(c.cover_key,''), c.published, c.created_at, c.updated_at
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1
		ORDER BY e.created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.EnrollmentWithCourse
	for rows.Next() {
		var e models.EnrollmentWithCourse
		if err := rows.Scan(&e.ID, &e.CourseID, &e.UserID, &e.CreatedAt,
			&e.Course.ID, &e.Course.Title, &e.Course.Description, &e.Course.Level, &e.Course.Style,
			&e.Course.TeacherID, &e.Course.CoverKey, &e.Course.Published, &e.Course.CreatedAt, &e.Course.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// CountByCourse returns the number of students enrolled in a course.
func (r *Repository) CountByCourse(ctx context.Context, courseID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM enrollments WHERE course_id = $1`, courseID).Scan(&n)
	return n, err
}
