package models

import "time"

type AnalyticsSnapshot struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Platform    Platform  `db:"platform" json:"platform"`
	TakenAt     time.Time `db:"taken_at" json:"taken_at"`
	Engagement  float64   `db:"engagement" json:"engagement"`
	Impressions float64   `db:"impressions" json:"impressions"`
}
