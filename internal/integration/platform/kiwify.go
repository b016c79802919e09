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

// Kiwify uses a form-encoded client credentials exchange and scopes every API call to an
// account through the x-kiwify-account-id header.
type Kiwify struct {
	endpoint config.PlatformConfig
	timeout  time.Duration
	client   httpclient.Client
	logger   *logger.Logger
}

func NewKiwify(endpoint config.PlatformConfig, timeout time.Duration, client httpclient.Client, logger *logger.Logger) *Kiwify {
	return &Kiwify{endpoint: endpoint, timeout: timeout, client: client, logger: logger}
}

func (k *Kiwify) Platform() types.Platform {
	return types.PlatformKiwify
}

type kiwifyProduct struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

func (k *Kiwify) Validate(ctx context.Context, creds Credentials) (*Result, error) {
	if err := require(k.Platform(),
		field{"product_id", creds.ProductID},
		field{"client_id", creds.ClientID},
		field{"client_secret", creds.ClientSecret},
		field{"account_id", creds.AccountID},
	); err != nil {
		return nil, err
	}

	cc := clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     k.endpoint.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: k.timeout})

	tok, err := cc.Token(tokenCtx)
	if err != nil {
		k.logger.Debugw("kiwify token exchange failed", "error", err)
		return classifyTokenErr(err)
	}

	var product kiwifyProduct
	res, err := fetch(ctx, k.client,
		k.endpoint.APIURL+"/v1/products/"+url.PathEscape(creds.ProductID),
		map[string]string{
			"Authorization":       bearer(tok.AccessToken),
			"x-kiwify-account-id": creds.AccountID,
		},
		&product,
	)
	if res != nil || err != nil {
		return res, err
	}
	if product.ID == "" && product.Name == "" {
		return invalid(ReasonNotFound), nil
	}

	return productResult(product.Name, product.Status), nil
}
