package delivery

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	config "github.com/maheshrc27/finityo/configs"
	"github.com/maheshrc27/finityo/internal/transfer"
	"golang.org/x/time/rate"
)

var linkPattern = regexp.MustCompile(`https?://[^\s]+`)

// facebookPayload is one of the four publish modes a Page post can take.
type facebookPayload interface {
	edge() string
	form() url.Values
}

type facebookText struct {
	Message string
}

type facebookLink struct {
	Message string
	Link    string
}

type facebookPhoto struct {
	Caption string
	URL     string
}

type facebookVideo struct {
	Description string
	FileURL     string
}

func (p facebookText) edge() string { return "feed" }

func (p facebookText) form() url.Values {
	return url.Values{"message": {p.Message}}
}

func (p facebookLink) edge() string { return "feed" }

func (p facebookLink) form() url.Values {
	return url.Values{"message": {p.Message}, "link": {p.Link}}
}

func (p facebookPhoto) edge() string { return "photos" }

func (p facebookPhoto) form() url.Values {
	return url.Values{"caption": {p.Caption}, "url": {p.URL}}
}

func (p facebookVideo) edge() string { return "videos" }

func (p facebookVideo) form() url.Values {
	return url.Values{"description": {p.Description}, "file_url": {p.FileURL}}
}

// facebookPayloadFor picks the publish mode from the shape of the request.
func facebookPayloadFor(req Request) facebookPayload {
	if req.MediaURL != "" {
		if mediaKind(req.MediaURL) == "video" {
			return facebookVideo{Description: req.Content, FileURL: req.MediaURL}
		}
		return facebookPhoto{Caption: req.Content, URL: req.MediaURL}
	}
	if link := linkPattern.FindString(req.Content); link != "" {
		return facebookLink{Message: req.Content, Link: link}
	}
	return facebookText{Message: req.Content}
}

type facebookAdapter struct {
	cfg     config.Facebook
	client  *http.Client
	limiter *rate.Limiter
}

func NewFacebookAdapter(cfg config.Facebook, client *http.Client, perMin int) Adapter {
	return &facebookAdapter{
		cfg:     cfg,
		client:  client,
		limiter: newLimiter(perMin),
	}
}

func (a *facebookAdapter) Publish(ctx context.Context, req Request) Outcome {
	if a.cfg.PageToken == "" {
		return Failed("Facebook page token not configured")
	}
	if a.cfg.PageID == "" {
		return Failed("Facebook page id not configured")
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return Failed(err.Error())
	}

	payload := facebookPayloadFor(req)
	form := payload.form()
	form.Set("access_token", a.cfg.PageToken)

	endpoint := strings.TrimRight(a.cfg.BaseURL, "/") + "/" + a.cfg.PageID + "/" + payload.edge()

	var resp transfer.FacebookPublishResponse
	if err := postForm(ctx, a.client, endpoint, form, &resp); err != nil {
		return Failed(err.Error())
	}

	if resp.PostID != "" {
		return Succeeded(resp.PostID)
	}
	return Succeeded(resp.ID)
}
