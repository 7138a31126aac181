package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/finityo/internal/models"
)

type AnalyticsRepository interface {
	Create(ctx context.Context, snapshot *models.AnalyticsSnapshot) (int64, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.AnalyticsSnapshot, error)
}

type analyticsRepository struct {
	db *sql.DB
}

func NewAnalyticsRepository(db *sql.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) Create(ctx context.Context, snapshot *models.AnalyticsSnapshot) (int64, error) {
	query := `
		INSERT INTO analytics_snapshots (user_id, platform, taken_at, engagement, impressions)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		snapshot.UserID, snapshot.Platform, snapshot.TakenAt, snapshot.Engagement, snapshot.Impressions,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *analyticsRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.AnalyticsSnapshot, error) {
	query := `
		SELECT id, user_id, platform, taken_at, engagement, impressions
		FROM analytics_snapshots
		WHERE user_id = $1
		ORDER BY taken_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var snapshots []*models.AnalyticsSnapshot
	for rows.Next() {
		var s models.AnalyticsSnapshot
		err := rows.Scan(&s.ID, &s.UserID, &s.Platform, &s.TakenAt, &s.Engagement, &s.Impressions)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		snapshots = append(snapshots, &s)
	}
	return snapshots, rows.Err()
}
