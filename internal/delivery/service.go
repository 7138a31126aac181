package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	config "github.com/maheshrc27/finityo/configs"
	"github.com/maheshrc27/finityo/internal/models"
)

type Service interface {
	Deliver(ctx context.Context, req Request) Outcome
	Live() bool
}

// Adapters holds one adapter per platform. A nil adapter fails its platform only.
type Adapters struct {
	X         Adapter
	Instagram Adapter
	Facebook  Adapter
	OnlyFans  Adapter
}

type service struct {
	live     bool
	adapters Adapters
	now      func() time.Time
}

func NewService(cfg config.Config, client *http.Client) Service {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	perMin := cfg.PlatformRatePerMin

	return NewWithAdapters(cfg.DeliveryMode == config.DeliveryModeLive, Adapters{
		X:         NewXAdapter(cfg.X, client, perMin),
		Instagram: NewInstagramAdapter(cfg.Instagram, client, perMin),
		Facebook:  NewFacebookAdapter(cfg.Facebook, client, perMin),
		OnlyFans:  NewOnlyFansAdapter(cfg.OnlyFans, client, perMin, time.Now),
	}, time.Now)
}

func NewWithAdapters(live bool, adapters Adapters, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{
		live:     live,
		adapters: adapters,
		now:      now,
	}
}

func (s *service) Live() bool {
	return s.live
}

func (s *service) Deliver(ctx context.Context, req Request) (out Outcome) {
	if !req.Platform.Valid() {
		return Failed(ErrUnsupportedPlatform)
	}

	if !s.live {
		return Succeeded(fmt.Sprintf("sim_%s_%d", req.Platform, s.now().UnixMilli()))
	}

	adapter := s.adapterFor(req.Platform)
	if adapter == nil {
		return Failed(fmt.Sprintf("%s adapter not configured", req.Platform))
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("delivery adapter panicked", "platform", req.Platform, "post_id", req.PostID, "panic", r)
			out = Failed(fmt.Sprintf("%s adapter panic: %v", req.Platform, r))
		}
	}()

	return adapter.Publish(ctx, req)
}

func (s *service) adapterFor(p models.Platform) Adapter {
	switch p {
	case models.PlatformX:
		return s.adapters.X
	case models.PlatformInstagram:
		return s.adapters.Instagram
	case models.PlatformFacebook:
		return s.adapters.Facebook
	case models.PlatformOnlyFans:
		return s.adapters.OnlyFans
	}
	return nil
}
