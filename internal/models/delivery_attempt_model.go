package models

import "time"

// DeliveryAttempt is one append-only record of a delivery try for a post.
type DeliveryAttempt struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	PostID       int64     `db:"post_id" json:"post_id"`
	Platform     Platform  `db:"platform" json:"platform"`
	OK           bool      `db:"ok" json:"ok"`
	ExternalID   string    `db:"external_id" json:"external_id"`
	ErrorMessage string    `db:"error_message" json:"error_message"`
	AttemptedAt  time.Time `db:"attempted_at" json:"attempted_at"`
}
