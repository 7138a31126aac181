package models

import "time"

type Platform string

const (
	PlatformX         Platform = "x"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformOnlyFans  Platform = "onlyfans"
)

// Platforms lists every supported delivery target.
var Platforms = []Platform{PlatformX, PlatformInstagram, PlatformFacebook, PlatformOnlyFans}

func (p Platform) Valid() bool {
	switch p {
	case PlatformX, PlatformInstagram, PlatformFacebook, PlatformOnlyFans:
		return true
	}
	return false
}

// MaxContentLength is the longest post body the platform accepts, in characters.
func (p Platform) MaxContentLength() int {
	switch p {
	case PlatformX:
		return 280
	case PlatformInstagram:
		return 2200
	case PlatformFacebook:
		return 63206
	case PlatformOnlyFans:
		return 1000
	}
	return 0
}

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusSent      PostStatus = "sent"
	PostStatusFailed    PostStatus = "failed"
)

func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusDraft, PostStatusScheduled, PostStatusSent, PostStatusFailed:
		return true
	}
	return false
}

type ApprovalStatus string

const (
	ApprovalPending     ApprovalStatus = "pending"
	ApprovalApproved    ApprovalStatus = "approved"
	ApprovalRejected    ApprovalStatus = "rejected"
	ApprovalNotRequired ApprovalStatus = "not_required"
)

// Deliverable reports whether a post in this approval state may be sent.
func (a ApprovalStatus) Deliverable() bool {
	return a == ApprovalApproved || a == ApprovalNotRequired
}

type RecurrenceType string

const (
	RecurrenceNone    RecurrenceType = "none"
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
)

func (r RecurrenceType) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// Next returns the occurrence following t, or false for RecurrenceNone.
func (r RecurrenceType) Next(t time.Time) (time.Time, bool) {
	switch r {
	case RecurrenceDaily:
		return t.AddDate(0, 0, 1), true
	case RecurrenceWeekly:
		return t.AddDate(0, 0, 7), true
	case RecurrenceMonthly:
		return t.AddDate(0, 1, 0), true
	}
	return time.Time{}, false
}

type Post struct {
	ID                int64          `db:"id" json:"id"`
	UserID            int64          `db:"user_id" json:"user_id"`
	Platform          Platform       `db:"platform" json:"platform"`
	Content           string         `db:"content" json:"content"`
	MediaURL          *string        `db:"media_url" json:"media_url"`
	ScheduledAt       *time.Time     `db:"scheduled_at" json:"scheduled_at"`
	Status            PostStatus     `db:"status" json:"status"`
	ErrorMessage      *string        `db:"error_message" json:"error_message"`
	ExternalID        *string        `db:"external_id" json:"external_id"`
	ApprovalStatus    ApprovalStatus `db:"approval_status" json:"approval_status"`
	ApprovedBy        *int64         `db:"approved_by" json:"approved_by"`
	ApprovedAt        *time.Time     `db:"approved_at" json:"approved_at"`
	RejectionReason   *string        `db:"rejection_reason" json:"rejection_reason"`
	QueueOrder        *int           `db:"queue_order" json:"queue_order"`
	RecurrenceType    RecurrenceType `db:"recurrence_type" json:"recurrence_type"`
	RecurrenceEndDate *time.Time     `db:"recurrence_end_date" json:"recurrence_end_date"`
	ParentPostID      *int64         `db:"parent_post_id" json:"parent_post_id"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// IsRecurringParent reports whether the post spawns child occurrences.
func (p *Post) IsRecurringParent() bool {
	return p.ParentPostID == nil && p.RecurrenceType != "" && p.RecurrenceType != RecurrenceNone
}
