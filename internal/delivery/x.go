package delivery

import (
	"context"
	"net/http"
	"strings"

	config "github.com/maheshrc27/finityo/configs"
	"github.com/maheshrc27/finityo/internal/transfer"
	"golang.org/x/time/rate"
)

type xAdapter struct {
	cfg     config.X
	client  *http.Client
	limiter *rate.Limiter
}

func NewXAdapter(cfg config.X, client *http.Client, perMin int) Adapter {
	return &xAdapter{
		cfg:     cfg,
		client:  client,
		limiter: newLimiter(perMin),
	}
}

func (a *xAdapter) Publish(ctx context.Context, req Request) Outcome {
	if a.cfg.AccessToken == "" {
		return Failed("X access token not configured")
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return Failed(err.Error())
	}

	client := bearerClient(ctx, a.client, a.cfg.AccessToken)
	endpoint := strings.TrimRight(a.cfg.BaseURL, "/") + "/2/tweets"

	var resp transfer.XTweetResponse
	if err := postJSON(ctx, client, endpoint, transfer.XTweetRequest{Text: req.Content}, &resp); err != nil {
		return Failed(err.Error())
	}

	return Succeeded(resp.Data.ID)
}
