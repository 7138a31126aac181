package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/finityo/internal/models"
)

// ErrNoRowsAffected means a guarded write matched nothing: the row is gone,
// belongs to another owner, or was already moved out of the expected state.
var ErrNoRowsAffected = errors.New("no rows affected")

type PostOrder int

const (
	OrderByScheduledAt PostOrder = iota
	OrderByScheduledAtDesc
	OrderByQueue
	OrderByCreatedAtDesc
)

// PostFilter narrows Find. Zero values mean "no constraint".
type PostFilter struct {
	UserID           int64
	Statuses         []models.PostStatus
	Platform         models.Platform
	ApprovalStatuses []models.ApprovalStatus
	RecurrenceTypes  []models.RecurrenceType
	ScheduledBefore  *time.Time
	ScheduledAt      *time.Time
	ParentPostID     int64
	RootOnly         bool
	OrderBy          PostOrder
	Limit            int
}

type PostRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	Find(ctx context.Context, filter PostFilter) ([]*models.Post, error)
	Create(ctx context.Context, post *models.Post) (int64, error)
	CreateOccurrence(ctx context.Context, post *models.Post) (int64, bool, error)
	CheckByUserID(ctx context.Context, postID, userID int64) (bool, error)
	Update(ctx context.Context, post *models.Post) error
	Transition(ctx context.Context, id, userID int64, from, to models.PostStatus, scheduledAt *time.Time) error
	MarkSent(ctx context.Context, id, userID int64, externalID string) error
	MarkFailed(ctx context.Context, id, userID int64, errorMessage string) error
	Requeue(ctx context.Context, id, userID int64, at time.Time) error
	SetApproval(ctx context.Context, id, userID int64, status models.ApprovalStatus, approverID int64, at time.Time, reason *string) error
	ResetApproval(ctx context.Context, id, userID int64, from, to models.ApprovalStatus) error
	SetQueueOrder(ctx context.Context, id, userID int64, order int) error
	Remove(ctx context.Context, id, userID int64) error
	Discard(ctx context.Context, id, userID int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, platform, content, media_url, scheduled_at, status, error_message,
	external_id, approval_status, approved_by, approved_at, rejection_reason, queue_order,
	recurrence_type, recurrence_end_date, parent_post_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	err := row.Scan(
		&post.ID, &post.UserID, &post.Platform, &post.Content, &post.MediaURL, &post.ScheduledAt,
		&post.Status, &post.ErrorMessage, &post.ExternalID, &post.ApprovalStatus, &post.ApprovedBy,
		&post.ApprovedAt, &post.RejectionReason, &post.QueueOrder, &post.RecurrenceType,
		&post.RecurrenceEndDate, &post.ParentPostID, &post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (user_id, platform, content, media_url, scheduled_at, status,
			approval_status, queue_order, recurrence_type, recurrence_end_date, parent_post_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		post.UserID, post.Platform, post.Content, post.MediaURL, post.ScheduledAt, post.Status,
		post.ApprovalStatus, post.QueueOrder, post.RecurrenceType, post.RecurrenceEndDate, post.ParentPostID,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

// CreateOccurrence inserts a recurrence child unless one already exists for
// the same parent and scheduled time. The bool reports whether a row was written.
func (r *postRepository) CreateOccurrence(ctx context.Context, post *models.Post) (int64, bool, error) {
	query := `
		INSERT INTO posts (user_id, platform, content, media_url, scheduled_at, status,
			approval_status, queue_order, recurrence_type, parent_post_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (parent_post_id, scheduled_at) DO NOTHING
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		post.UserID, post.Platform, post.Content, post.MediaURL, post.ScheduledAt, post.Status,
		post.ApprovalStatus, post.QueueOrder, models.RecurrenceNone, post.ParentPostID,
	).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		slog.Info(err.Error())
		return 0, false, err
	}

	return id, true, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) Find(ctx context.Context, filter PostFilter) ([]*models.Post, error) {
	query, args := buildFindQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return posts, nil
}

func buildFindQuery(filter PostFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.UserID != 0 {
		conditions = append(conditions, "user_id = "+arg(filter.UserID))
	}
	if len(filter.Statuses) > 0 {
		conditions = append(conditions, "status = ANY("+arg(pq.Array(stringsOf(filter.Statuses)))+")")
	}
	if filter.Platform != "" {
		conditions = append(conditions, "platform = "+arg(filter.Platform))
	}
	if len(filter.ApprovalStatuses) > 0 {
		conditions = append(conditions, "approval_status = ANY("+arg(pq.Array(stringsOf(filter.ApprovalStatuses)))+")")
	}
	if len(filter.RecurrenceTypes) > 0 {
		conditions = append(conditions, "recurrence_type = ANY("+arg(pq.Array(stringsOf(filter.RecurrenceTypes)))+")")
	}
	if filter.ScheduledBefore != nil {
		conditions = append(conditions, "scheduled_at <= "+arg(*filter.ScheduledBefore))
	}
	if filter.ScheduledAt != nil {
		conditions = append(conditions, "scheduled_at = "+arg(*filter.ScheduledAt))
	}
	if filter.ParentPostID != 0 {
		conditions = append(conditions, "parent_post_id = "+arg(filter.ParentPostID))
	}
	if filter.RootOnly {
		conditions = append(conditions, "parent_post_id IS NULL")
	}

	query := `SELECT ` + postColumns + ` FROM posts`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	switch filter.OrderBy {
	case OrderByScheduledAtDesc:
		query += " ORDER BY scheduled_at DESC NULLS LAST, id DESC"
	case OrderByQueue:
		query += " ORDER BY queue_order ASC NULLS LAST, scheduled_at ASC NULLS LAST, id ASC"
	case OrderByCreatedAtDesc:
		query += " ORDER BY created_at DESC, id DESC"
	default:
		query += " ORDER BY scheduled_at ASC NULLS LAST, id ASC"
	}

	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	return query, args
}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func (r *postRepository) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	query := "SELECT 1 FROM posts WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

// Update writes the owner-editable fields of a post that has not been delivered yet.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET content = $1,
			media_url = $2,
			scheduled_at = $3,
			recurrence_type = $4,
			recurrence_end_date = $5,
			approval_status = $6,
			rejection_reason = $7,
			updated_at = $8
		WHERE id = $9 AND user_id = $10 AND status IN ('draft', 'scheduled')
	`
	return r.exec(ctx, query,
		post.Content, post.MediaURL, post.ScheduledAt, post.RecurrenceType, post.RecurrenceEndDate,
		post.ApprovalStatus, post.RejectionReason, time.Now(), post.ID, post.UserID,
	)
}

func (r *postRepository) Transition(ctx context.Context, id, userID int64, from, to models.PostStatus, scheduledAt *time.Time) error {
	query := `
		UPDATE posts
		SET status = $1,
			scheduled_at = COALESCE($2, scheduled_at),
			updated_at = $3
		WHERE id = $4 AND user_id = $5 AND status = $6
	`
	return r.exec(ctx, query, to, scheduledAt, time.Now(), id, userID, from)
}

func (r *postRepository) MarkSent(ctx context.Context, id, userID int64, externalID string) error {
	query := `
		UPDATE posts
		SET status = 'sent',
			error_message = NULL,
			external_id = NULLIF($1, ''),
			updated_at = $2
		WHERE id = $3 AND user_id = $4 AND status = 'scheduled'
	`
	return r.exec(ctx, query, externalID, time.Now(), id, userID)
}

func (r *postRepository) MarkFailed(ctx context.Context, id, userID int64, errorMessage string) error {
	query := `
		UPDATE posts
		SET status = 'failed',
			error_message = $1,
			updated_at = $2
		WHERE id = $3 AND user_id = $4 AND status = 'scheduled'
	`
	return r.exec(ctx, query, errorMessage, time.Now(), id, userID)
}

func (r *postRepository) Requeue(ctx context.Context, id, userID int64, at time.Time) error {
	query := `
		UPDATE posts
		SET status = 'scheduled',
			error_message = NULL,
			scheduled_at = $1,
			updated_at = $2
		WHERE id = $3 AND user_id = $4 AND status = 'failed'
	`
	return r.exec(ctx, query, at, time.Now(), id, userID)
}

func (r *postRepository) SetApproval(ctx context.Context, id, userID int64, status models.ApprovalStatus, approverID int64, at time.Time, reason *string) error {
	query := `
		UPDATE posts
		SET approval_status = $1,
			approved_by = $2,
			approved_at = $3,
			rejection_reason = $4,
			updated_at = $5
		WHERE id = $6 AND user_id = $7 AND approval_status = 'pending'
	`
	return r.exec(ctx, query, status, approverID, at, reason, time.Now(), id, userID)
}

func (r *postRepository) ResetApproval(ctx context.Context, id, userID int64, from, to models.ApprovalStatus) error {
	query := `
		UPDATE posts
		SET approval_status = $1,
			approved_by = NULL,
			approved_at = NULL,
			rejection_reason = NULL,
			updated_at = $2
		WHERE id = $3 AND user_id = $4 AND approval_status = $5
	`
	return r.exec(ctx, query, to, time.Now(), id, userID, from)
}

func (r *postRepository) SetQueueOrder(ctx context.Context, id, userID int64, order int) error {
	query := `
		UPDATE posts
		SET queue_order = $1,
			updated_at = $2
		WHERE id = $3 AND user_id = $4 AND status IN ('draft', 'scheduled')
	`
	return r.exec(ctx, query, order, time.Now(), id, userID)
}

func (r *postRepository) Remove(ctx context.Context, id, userID int64) error {
	query := `DELETE FROM posts WHERE id = $1 AND user_id = $2`
	return r.exec(ctx, query, id, userID)
}

// Discard deletes a post only while it is still failed.
func (r *postRepository) Discard(ctx context.Context, id, userID int64) error {
	query := `DELETE FROM posts WHERE id = $1 AND user_id = $2 AND status = 'failed'`
	return r.exec(ctx, query, id, userID)
}

func (r *postRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
