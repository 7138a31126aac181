package delivery

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/maheshrc27/finityo/configs"
	"github.com/maheshrc27/finityo/internal/transfer"
	"golang.org/x/time/rate"
)

type instagramAdapter struct {
	cfg     config.Instagram
	client  *http.Client
	limiter *rate.Limiter
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewInstagramAdapter(cfg config.Instagram, client *http.Client, perMin int) Adapter {
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 1
	}
	return &instagramAdapter{
		cfg:     cfg,
		client:  client,
		limiter: newLimiter(perMin),
		sleep:   sleepContext,
	}
}

func (a *instagramAdapter) Publish(ctx context.Context, req Request) Outcome {
	if a.cfg.AccessToken == "" {
		return Failed("Instagram access token not configured")
	}
	if a.cfg.AccountID == "" {
		return Failed("Instagram account id not configured")
	}
	if req.MediaURL == "" {
		return Failed("Instagram posts require an image or video")
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return Failed(err.Error())
	}

	containerID, err := a.createContainer(ctx, req)
	if err != nil {
		return Failed(err.Error())
	}

	if err := a.waitForContainer(ctx, containerID); err != nil {
		return Failed(err.Error())
	}

	var published transfer.InstagramMediaResponse
	err = postJSON(ctx, a.client, a.endpoint(a.cfg.AccountID, "media_publish"), transfer.InstagramPublishRequest{
		CreationID:  containerID,
		AccessToken: a.cfg.AccessToken,
	}, &published)
	if err != nil {
		return Failed(err.Error())
	}

	return Succeeded(published.ID)
}

func (a *instagramAdapter) createContainer(ctx context.Context, req Request) (string, error) {
	payload := transfer.InstagramContainerRequest{
		Caption:     req.Content,
		AccessToken: a.cfg.AccessToken,
	}
	if mediaKind(req.MediaURL) == "video" {
		payload.MediaType = "REELS"
		payload.VideoURL = req.MediaURL
	} else {
		payload.ImageURL = req.MediaURL
	}

	var result transfer.InstagramMediaResponse
	if err := postJSON(ctx, a.client, a.endpoint(a.cfg.AccountID, "media"), payload, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("no media ID returned from Instagram")
	}
	return result.ID, nil
}

// waitForContainer polls the container until Instagram finishes processing it.
// It gives up after PollAttempts checks spaced PollDelay apart.
func (a *instagramAdapter) waitForContainer(ctx context.Context, containerID string) error {
	query := url.Values{}
	query.Set("fields", "status_code")
	query.Set("access_token", a.cfg.AccessToken)

	for attempt := 1; attempt <= a.cfg.PollAttempts; attempt++ {
		var status transfer.InstagramContainerStatus
		if err := getJSON(ctx, a.client, a.endpoint(containerID), query, &status); err != nil {
			return err
		}

		switch status.StatusCode {
		case "FINISHED", "PUBLISHED":
			return nil
		case "ERROR", "EXPIRED":
			return fmt.Errorf("Instagram container %s failed with status %s", containerID, status.StatusCode)
		}

		if attempt < a.cfg.PollAttempts {
			if err := a.sleep(ctx, a.cfg.PollDelay); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("Instagram container %s not ready after %d attempts", containerID, a.cfg.PollAttempts)
}

func (a *instagramAdapter) endpoint(parts ...string) string {
	return strings.TrimRight(a.cfg.BaseURL, "/") + "/" + strings.Join(parts, "/")
}
