package video

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pranaflow/backend/internal/models"
)

// Repository implements Store against the classes table. All updates are
// keyed by provider upload/asset id; the provider never knows our class ids.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a video asset reference repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// AttachAsset records the provider asset id for a pending upload and moves
// the class to preparing. A class that already reached ready keeps its
// state; delivery order is not guaranteed, so an asset_created event can
// land after the asset's ready event.
func (r *Repository) AttachAsset(ctx context.Context, uploadID, assetID string) (int64, error) {
	const q = `UPDATE classes
		SET video_asset_id = $1, video_status = $2, updated_at = NOW()
		WHERE video_upload_id = $3 AND video_status <> $4`
	tag, err := r.pool.Exec(ctx, q, assetID, models.VideoStatusPreparing, uploadID, models.VideoStatusReady)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// MarkUploadErrored flags a failed upload. Classes that already reached
// ready are not downgraded by a late or redelivered errored event.
func (r *Repository) MarkUploadErrored(ctx context.Context, uploadID string) (int64, error) {
	const q = `UPDATE classes
		SET video_status = $1, updated_at = NOW()
		WHERE video_upload_id = $2 AND video_status <> $3`
	tag, err := r.pool.Exec(ctx, q, models.VideoStatusErrored, uploadID, models.VideoStatusReady)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// MarkAssetReady moves a class to ready with playback id and duration. The
// playback id is only written when the event supplied one; redelivery after
// ready matches zero rows and leaves state unchanged.
func (r *Repository) MarkAssetReady(ctx context.Context, assetID, playbackID string, durationMin int) (int64, error) {
	const q = `UPDATE classes
		SET video_status = $1,
		    video_playback_id = CASE WHEN $2 <> '' THEN $2 ELSE video_playback_id END,
		    duration_min = CASE WHEN $3 > 0 THEN $3 ELSE duration_min END,
		    updated_at = NOW()
		WHERE video_asset_id = $4 AND video_status <> $1`
	tag, err := r.pool.Exec(ctx, q, models.VideoStatusReady, playbackID, durationMin, assetID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// MarkAssetErrored flags a failed asset, with the same ready guard as
// MarkUploadErrored.
func (r *Repository) MarkAssetErrored(ctx context.Context, assetID string) (int64, error) {
	const q = `UPDATE classes
		SET video_status = $1, updated_at = NOW()
		WHERE video_asset_id = $2 AND video_status <> $3`
	tag, err := r.pool.Exec(ctx, q, models.VideoStatusErrored, assetID, models.VideoStatusReady)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ClassNotification is what the email worker needs to notify a teacher
// about an asset event.
type ClassNotification struct {
	ClassTitle   string
	CourseTitle  string
	TeacherName  string
	TeacherEmail string
}

// FindNotificationByAssetID resolves the owning teacher for an asset id.
// Returns nil when no class references the asset.
func (r *Repository) FindNotificationByAssetID(ctx context.Context, assetID string) (*ClassNotification, error) {
	const q = `SELECT cl.title, co.title, u.full_name, u.email
		FROM classes cl
		JOIN courses co ON co.id = cl.course_id
		JOIN users u ON u.id = co.teacher_id
		WHERE cl.video_asset_id = $1`
	var n ClassNotification
	err := r.pool.QueryRow(ctx, q, assetID).Scan(&n.ClassTitle, &n.CourseTitle, &n.TeacherName, &n.TeacherEmail)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}
