package delivery

import (
	"context"
	"net/http"
	"strings"
	"time"

	config "github.com/maheshrc27/finityo/configs"
	"github.com/maheshrc27/finityo/internal/transfer"
	"golang.org/x/time/rate"
)

// scheduleThreshold is how far ahead a target time must be before the post is
// handed to OnlyFans as scheduled instead of being published immediately.
const scheduleThreshold = time.Minute

type onlyFansAdapter struct {
	cfg     config.OnlyFans
	client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

func NewOnlyFansAdapter(cfg config.OnlyFans, client *http.Client, perMin int, now func() time.Time) Adapter {
	if now == nil {
		now = time.Now
	}
	return &onlyFansAdapter{
		cfg:     cfg,
		client:  client,
		limiter: newLimiter(perMin),
		now:     now,
	}
}

func (a *onlyFansAdapter) Publish(ctx context.Context, req Request) Outcome {
	if a.cfg.APIKey == "" {
		return Failed("OnlyFans API key not configured")
	}
	if a.cfg.AccountID == "" {
		return Failed("OnlyFans account id not configured")
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return Failed(err.Error())
	}

	payload := transfer.OnlyFansPostRequest{Text: req.Content}
	if req.MediaURL != "" {
		payload.MediaURLs = []string{req.MediaURL}
	}
	if !req.ScheduledAt.IsZero() && req.ScheduledAt.After(a.now().Add(scheduleThreshold)) {
		payload.ScheduledDate = req.ScheduledAt.UTC().Format(time.RFC3339)
	}

	client := bearerClient(ctx, a.client, a.cfg.APIKey)
	endpoint := strings.TrimRight(a.cfg.BaseURL, "/") + "/" + a.cfg.AccountID + "/posts"

	var resp transfer.OnlyFansPostResponse
	if err := postJSON(ctx, client, endpoint, payload, &resp); err != nil {
		return Failed(err.Error())
	}

	if resp.Data.ID != "" {
		return Succeeded(string(resp.Data.ID))
	}
	return Succeeded(string(resp.ID))
}
