package courses

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pranaflow/backend/internal/models"
)

// Repository handles course and class persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a courses repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const courseColumns = `id, title, description, level, style, teacher_id, COALESCE(cover_key,''), published, created_at, updated_at`

func scanCourse(row pgx.Row) (*models.Course, error) {
	var co models.Course
	err := row.Scan(&co.ID, &co.Title, &co.Description, &co.Level, &co.Style, &co.TeacherID, &co.CoverKey, &co.Published, &co.CreatedAt, &co.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &co, nil
}

// Create inserts a new course.
func (r *Repository) Create(ctx context.Context, co *models.Course) error {
	const q = `INSERT INTO courses (id, title, description, level, style, teacher_id)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, co.Title, co.Description, co.Level, co.Style, co.TeacherID).
		Scan(&co.ID, &co.CreatedAt, &co.UpdatedAt)
}

// GetByID returns a course by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	return scanCourse(r.pool.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id))
}

// List returns courses. When teacherID is set, only that teacher's courses;
// when publishedOnly, only published ones (the student catalog view).
func (r *Repository) List(ctx context.Context, teacherID *uuid.UUID, publishedOnly bool) ([]models.Course, error) {
	base := `SELECT ` + courseColumns + ` FROM courses`
	var args []interface{}
	var cond string
	if teacherID != nil {
		cond = ` WHERE teacher_id = $1`
		args = append(args, *teacherID)
	}
	if publishedOnly {
		if cond == "" {
			cond = ` WHERE published`
		} else {
			cond += ` AND published`
		}
	}
	rows, err := r.pool.Query(ctx, base+cond+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Course
	for rows.Next() {
		co, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *co)
	}
	return list, rows.Err()
}

// Update rewrites the editable course fields.
func (r *Repository) Update(ctx context.Context, co *models.Course) error {
	const q = `UPDATE courses SET title = $1, description = $2, level = $3, style = $4, published = $5, updated_at = NOW()
		WHERE id = $6 RETURNING updated_at`
	return r.pool.QueryRow(ctx, q, co.Title, co.Description, co.Level, co.Style, co.Published, co.ID).Scan(&co.UpdatedAt)
}

// SetCover stores the S3 object key of the uploaded cover image.
func (r *Repository) SetCover(ctx context.Context, id uuid.UUID, coverKey string) error {
	const q = `UPDATE courses SET cover_key = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, coverKey, id)
	return err
}

// Delete removes a course and, via FK cascade, its classes and enrollments.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const classColumns = `id, course_id, title, description, position,
	COALESCE(video_upload_id,''), COALESCE(video_asset_id,''), COALESCE(video_playback_id,''),
	video_status, duration_min, created_at, updated_at`

func scanClass(row pgx.Row) (*models.Class, error) {
	var cl models.Class
	err := row.Scan(&cl.ID, &cl.CourseID, &cl.Title, &cl.Description, &cl.Position,
		&cl.VideoUploadID, &cl.VideoAssetID, &cl.VideoPlaybackID,
		&cl.VideoStatus, &cl.DurationMin, &cl.CreatedAt, &cl.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cl, nil
}

// CreateClass inserts a class. A pending upload id may be attached at
// creation; the webhook receiver fills in the rest of the video fields.
func (r *Repository) CreateClass(ctx context.Context, cl *models.Class) error {
	const q = `INSERT INTO classes (id, course_id, title, description, position, video_upload_id, video_status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, NULLIF($5,''), $6)
		RETURNING id, created_at, updated_at`
	status := models.VideoStatusNone
	if cl.VideoUploadID != "" {
		status = models.VideoStatusPreparing
	}
	cl.VideoStatus = status
	return r.pool.QueryRow(ctx, q, cl.CourseID, cl.Title, cl.Description, cl.Position, cl.VideoUploadID, status).
		Scan(&cl.ID, &cl.CreatedAt, &cl.UpdatedAt)
}

// GetClassByID returns a class by ID.
func (r *Repository) GetClassByID(ctx context.Context, id uuid.UUID) (*models.Class, error) {
	return scanClass(r.pool.QueryRow(ctx, `SELECT `+classColumns+` FROM classes WHERE id = $1`, id))
}

// ListClasses returns the classes of a course in position order.
func (r *Repository) ListClasses(ctx context.Context, courseID uuid.UUID) ([]models.Class, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+classColumns+` FROM classes WHERE course_id = $1 ORDER BY position, created_at`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Class
	for rows.Next() {
		cl, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *cl)
	}
	return list, rows.Err()
}

// UpdateClass rewrites the editable class fields. Video fields are owned by
// the webhook receiver and are not touched here.
func (r *Repository) UpdateClass(ctx context.Context, cl *models.Class) error {
	const q = `UPDATE classes SET title = $1, description = $2, position = $3, updated_at = NOW()
		WHERE id = $4 RETURNING updated_at`
	return r.pool.QueryRow(ctx, q, cl.Title, cl.Description, cl.Position, cl.ID).Scan(&cl.UpdatedAt)
}

// DeleteClass removes a class.
func (r *Repository) DeleteClass(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
