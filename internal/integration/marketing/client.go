package marketing

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vendora/vendora/internal/config"
	ierr "github.com/vendora/vendora/internal/errors"
	"github.com/vendora/vendora/internal/httpclient"
	"github.com/vendora/vendora/internal/logger"
)

// Client tags contacts on the marketing list
type Client interface {
	AddTag(ctx context.Context, email, tag string) error
	IsEnabled() bool
}

type client struct {
	cfg    config.MarketingConfig
	http   httpclient.Client
	logger *logger.Logger
}

func NewClient(cfg *config.Configuration, http httpclient.Client, logger *logger.Logger) Client {
	return &client{cfg: cfg.Marketing, http: http, logger: logger}
}

type tagRequest struct {
	Email string   `json:"email"`
	Tags  []string `json:"tags"`
}

func (c *client) IsEnabled() bool {
	return c.cfg.Enabled && c.cfg.Endpoint != ""
}

func (c *client) AddTag(ctx context.Context, email, tag string) error {
	if !c.IsEnabled() {
		c.logger.Debugw("marketing list disabled, skipping tag", "tag", tag)
		return nil
	}
	if email == "" || tag == "" {
		return ierr.NewError("email and tag are required").
			WithHint("Marketing tag needs an email and a tag").
			Mark(ierr.ErrValidation)
	}

	body, err := json.Marshal(tagRequest{Email: email, Tags: []string{tag}})
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrInternal)
	}

	headers := map[string]string{}
	if c.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.cfg.APIKey
	}

	if _, err := c.http.Send(ctx, &httpclient.Request{
		Method:  http.MethodPost,
		URL:     c.cfg.Endpoint,
		Headers: headers,
		Body:    body,
	}); err != nil {
		return ierr.WithError(err).
			WithHint("Marketing list is unavailable").
			Mark(ierr.ErrHTTPClient)
	}

	c.logger.Infow("marketing tag added", "tag", tag)
	return nil
}
