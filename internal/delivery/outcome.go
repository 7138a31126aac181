package delivery

import (
	"context"
	"strings"
	"time"

	"github.com/maheshrc27/finityo/internal/models"
)

// ErrUnsupportedPlatform is reported for any platform outside the closed set.
const ErrUnsupportedPlatform = "Unsupported platform"

// Outcome is the uniform result of one delivery attempt.
type Outcome struct {
	OK         bool   `json:"ok"`
	ExternalID string `json:"external_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

func Succeeded(externalID string) Outcome {
	return Outcome{OK: true, ExternalID: externalID}
}

// Failed builds a failed outcome. The message is stored as TEXT, so invalid
// UTF-8 and NUL bytes are dropped.
func Failed(message string) Outcome {
	message = cleanMessage(message)
	if message == "" {
		message = "delivery failed"
	}
	return Outcome{OK: false, Error: message}
}

type Request struct {
	Platform    models.Platform
	PostID      int64
	UserID      int64
	Content     string
	MediaURL    string
	ScheduledAt time.Time
}

func RequestFor(p *models.Post) Request {
	req := Request{
		Platform: p.Platform,
		PostID:   p.ID,
		UserID:   p.UserID,
		Content:  p.Content,
	}
	if p.MediaURL != nil {
		req.MediaURL = *p.MediaURL
	}
	if p.ScheduledAt != nil {
		req.ScheduledAt = *p.ScheduledAt
	}
	return req
}

// Adapter publishes to a single platform. Implementations never return errors
// or panic past Publish; every failure is folded into the Outcome.
type Adapter interface {
	Publish(ctx context.Context, req Request) Outcome
}

// AdapterFunc lets a plain function serve as an Adapter.
type AdapterFunc func(ctx context.Context, req Request) Outcome

func (f AdapterFunc) Publish(ctx context.Context, req Request) Outcome {
	return f(ctx, req)
}

func cleanMessage(s string) string {
	return strings.ReplaceAll(strings.ToValidUTF8(s, ""), "\x00", "")
}
