package transfer

import "time"

type PostCreation struct {
	Platform          string     `json:"platform"`
	Content           string     `json:"content"`
	MediaURL          string     `json:"media_url"`
	ScheduledAt       *time.Time `json:"scheduled_at"`
	Status            string     `json:"status"`
	RecurrenceType    string     `json:"recurrence_type"`
	RecurrenceEndDate *time.Time `json:"recurrence_end_date"`
	RequiresApproval  bool       `json:"requires_approval"`
	QueueOrder        *int       `json:"queue_order"`
}

type PostUpdate struct {
	Content           *string    `json:"content"`
	MediaURL          *string    `json:"media_url"`
	ScheduledAt       *time.Time `json:"scheduled_at"`
	RecurrenceType    *string    `json:"recurrence_type"`
	RecurrenceEndDate *time.Time `json:"recurrence_end_date"`
}

type ScheduleRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
}

type ReorderRequest struct {
	PostIDs []int64 `json:"post_ids"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

type AnalyticsRecord struct {
	Platform    string    `json:"platform"`
	TakenAt     time.Time `json:"taken_at"`
	Engagement  float64   `json:"engagement"`
	Impressions float64   `json:"impressions"`
}

type SettingsUpdate struct {
	RequireApproval bool `json:"require_approval"`
	NotifyOnFailure bool `json:"notify_on_failure"`
	NotifyOnSuccess bool `json:"notify_on_success"`
}
