package platform

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/vendora/vendora/internal/config"
	"github.com/vendora/vendora/internal/httpclient"
	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/types"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Hotmart exchanges client credentials for a token; the token endpoint additionally wants a
// Basic header carrying the account's separate basic token.
type Hotmart struct {
	endpoint config.PlatformConfig
	timeout  time.Duration
	client   httpclient.Client
	logger   *logger.Logger
}

func NewHotmart(endpoint config.PlatformConfig, timeout time.Duration, client httpclient.Client, logger *logger.Logger) *Hotmart {
	return &Hotmart{endpoint: endpoint, timeout: timeout, client: client, logger: logger}
}

func (h *Hotmart) Platform() types.Platform {
	return types.PlatformHotmart
}

type hotmartProducts struct {
	Items []struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		Status string `json:"status"`
	} `json:"items"`
}

func (h *Hotmart) Validate(ctx context.Context, creds Credentials) (*Result, error) {
	if err := require(h.Platform(),
		field{"product_id", creds.ProductID},
		field{"client_id", creds.ClientID},
		field{"client_secret", creds.ClientSecret},
		field{"basic_token", creds.BasicToken},
	); err != nil {
		return nil, err
	}

	cc := clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     h.endpoint.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, &http.Client{
		Timeout:   h.timeout,
		Transport: &basicAuthTransport{token: creds.BasicToken, base: http.DefaultTransport},
	})

	tok, err := cc.Token(tokenCtx)
	if err != nil {
		h.logger.Debugw("hotmart token exchange failed", "error", err)
		return classifyTokenErr(err)
	}

	query := url.Values{"id": {creds.ProductID}}
	var body hotmartProducts
	res, err := fetch(ctx, h.client,
		h.endpoint.APIURL+"/products/api/v1/products?"+query.Encode(),
		map[string]string{"Authorization": bearer(tok.AccessToken)},
		&body,
	)
	if res != nil || err != nil {
		return res, err
	}
	if len(body.Items) == 0 {
		return invalid(ReasonNotFound), nil
	}

	item := body.Items[0]
	return productResult(item.Name, item.Status), nil
}

// basicAuthTransport adds a pre-encoded Basic credential to every request
type basicAuthTransport struct {
	token string
	base  http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Basic "+t.token)
	return t.base.RoundTrip(r)
}
