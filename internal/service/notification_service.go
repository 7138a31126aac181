package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/finityo/internal/repository"
	"github.com/maheshrc27/finityo/internal/transfer"
)

// Mailer is the outbound email trigger.
type Mailer interface {
	Send(ctx context.Context, userID int64, subject, body string) error
}

// LogMailer records emails in the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, userID int64, subject, body string) error {
	slog.Info("email queued", "user_id", userID, "subject", subject, "body", body)
	return nil
}

type NotificationService interface {
	NotifyDelivery(ctx context.Context, n *transfer.DeliveryNotification) (bool, error)
}

type notificationService struct {
	sr     repository.SettingsRepository
	mailer Mailer
}

func NewNotificationService(sr repository.SettingsRepository, mailer Mailer) NotificationService {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &notificationService{
		sr:     sr,
		mailer: mailer,
	}
}

// NotifyDelivery emails the owner when their settings ask for it.
// The bool reports whether a message was sent.
func (s *notificationService) NotifyDelivery(ctx context.Context, n *transfer.DeliveryNotification) (bool, error) {
	if n == nil || n.UserID == 0 {
		return false, validationError("notification has no owner")
	}

	settings, isExist, err := s.sr.GetByUserID(ctx, n.UserID)
	if err != nil {
		return false, err
	}
	if !isExist {
		settings = DefaultSettings(n.UserID)
	}

	var subject, body string
	switch {
	case n.OK && settings.NotifyOnSuccess:
		subject = fmt.Sprintf("Your %s post was published", n.Platform)
		body = fmt.Sprintf("Post %d was published on %s (id %s).", n.PostID, n.Platform, n.ExternalID)
	case !n.OK && settings.NotifyOnFailure:
		subject = fmt.Sprintf("Your %s post failed", n.Platform)
		body = fmt.Sprintf("Post %d could not be published on %s: %s. You can retry it from the failed posts list.", n.PostID, n.Platform, n.Error)
	default:
		return false, nil
	}

	if err := s.mailer.Send(ctx, n.UserID, subject, body); err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return true, nil
}
