package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/finityo/internal/models"
)

type DeliveryAttemptRepository interface {
	Create(ctx context.Context, attempt *models.DeliveryAttempt) (int64, error)
	ListByPostID(ctx context.Context, postID, userID int64) ([]*models.DeliveryAttempt, error)
}

type deliveryAttemptRepository struct {
	db *sql.DB
}

func NewDeliveryAttemptRepository(db *sql.DB) DeliveryAttemptRepository {
	return &deliveryAttemptRepository{db: db}
}

func (r *deliveryAttemptRepository) Create(ctx context.Context, attempt *models.DeliveryAttempt) (int64, error) {
	query := `
		INSERT INTO delivery_attempts (user_id, post_id, platform, ok, external_id, error_message, attempted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		attempt.UserID, attempt.PostID, attempt.Platform, attempt.OK,
		attempt.ExternalID, attempt.ErrorMessage, attempt.AttemptedAt,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *deliveryAttemptRepository) ListByPostID(ctx context.Context, postID, userID int64) ([]*models.DeliveryAttempt, error) {
	query := `
		SELECT id, user_id, post_id, platform, ok, external_id, error_message, attempted_at
		FROM delivery_attempts
		WHERE post_id = $1 AND user_id = $2
		ORDER BY attempted_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, postID, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var attempts []*models.DeliveryAttempt
	for rows.Next() {
		var a models.DeliveryAttempt
		err := rows.Scan(&a.ID, &a.UserID, &a.PostID, &a.Platform, &a.OK, &a.ExternalID, &a.ErrorMessage, &a.AttemptedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		attempts = append(attempts, &a)
	}
	return attempts, rows.Err()
}
