package emaillogs

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pranaflow/backend/internal/models"
)

// Repository handles email_logs persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record inserts one email attempt (sent or failed).
func (r *Repository) Record(ctx context.Context, log *models.EmailLog) error {
	const q = `INSERT INTO email_logs (id, email_type, recipient_email, subject, status, error_detail)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, NULLIF($5,''))
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, log.EmailType, log.RecipientEmail, log.Subject, log.Status, log.ErrorDetail).
		Scan(&log.ID, &log.CreatedAt)
}

// List returns email logs, newest first.
func (r *Repository) List(ctx context.Context, limit int) ([]models.EmailLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const q = `SELECT id, email_type, recipient_email, COALESCE(subject,''), status, COALESCE(error_detail,''), created_at
		FROM email_logs ORDER BY created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.EmailLog
	for rows.Next() {
		var el models.EmailLog
		if err := rows.Scan(&el.ID, &el.EmailType, &el.RecipientEmail, &el.Subject, &el.Status, &el.ErrorDetail, &el.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, el)
	}
	return list, rows.Err()
}
