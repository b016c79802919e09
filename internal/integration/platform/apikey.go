package platform

import (
	"context"
	"net/url"

	"github.com/vendora/vendora/internal/config"
	"github.com/vendora/vendora/internal/httpclient"
	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/types"
)

// Braip authenticates with a long-lived API key sent as a bearer token
type Braip struct {
	endpoint config.PlatformConfig
	client   httpclient.Client
	logger   *logger.Logger
}

func NewBraip(endpoint config.PlatformConfig, client httpclient.Client, logger *logger.Logger) *Braip {
	return &Braip{endpoint: endpoint, client: client, logger: logger}
}

func (b *Braip) Platform() types.Platform {
	return types.PlatformBraip
}

type braipProduct struct {
	Data *struct {
		Name   string `json:"name"`
		Status string `json:"status"`
	} `json:"data"`
}

func (b *Braip) Validate(ctx context.Context, creds Credentials) (*Result, error) {
	if err := require(b.Platform(),
		field{"product_id", creds.ProductID},
		field{"api_key", creds.APIKey},
	); err != nil {
		return nil, err
	}

	var body braipProduct
	res, err := fetch(ctx, b.client,
		b.endpoint.APIURL+"/api/v1/products/"+url.PathEscape(creds.ProductID),
		map[string]string{"Authorization": bearer(creds.APIKey)},
		&body,
	)
	if res != nil || err != nil {
		return res, err
	}
	if body.Data == nil {
		return invalid(ReasonNotFound), nil
	}
	return productResult(body.Data.Name, body.Data.Status), nil
}

// Monetizze authenticates with a consumer key in the X_CONSUMER_KEY header
type Monetizze struct {
	endpoint config.PlatformConfig
	client   httpclient.Client
	logger   *logger.Logger
}

func NewMonetizze(endpoint config.PlatformConfig, client httpclient.Client, logger *logger.Logger) *Monetizze {
	return &Monetizze{endpoint: endpoint, client: client, logger: logger}
}

func (m *Monetizze) Platform() types.Platform {
	return types.PlatformMonetizze
}

type monetizzeProduct struct {
	Produto *struct {
		Codigo string `json:"codigo"`
		Nome   string `json:"nome"`
		Status string `json:"status"`
	} `json:"produto"`
}

func (m *Monetizze) Validate(ctx context.Context, creds Credentials) (*Result, error) {
	if err := require(m.Platform(),
		field{"product_id", creds.ProductID},
		field{"api_key", creds.APIKey},
	); err != nil {
		return nil, err
	}

	var body monetizzeProduct
	res, err := fetch(ctx, m.client,
		m.endpoint.APIURL+"/2.1/products/"+url.PathEscape(creds.ProductID),
		map[string]string{"X_CONSUMER_KEY": creds.APIKey},
		&body,
	)
	if res != nil || err != nil {
		return res, err
	}
	if body.Produto == nil {
		return invalid(ReasonNotFound), nil
	}
	return productResult(body.Produto.Nome, body.Produto.Status), nil
}

// CartPanda scopes products to a store: bearer API key plus the store slug in the path
type CartPanda struct {
	endpoint config.PlatformConfig
	client   httpclient.Client
	logger   *logger.Logger
}

func NewCartPanda(endpoint config.PlatformConfig, client httpclient.Client, logger *logger.Logger) *CartPanda {
	return &CartPanda{endpoint: endpoint, client: client, logger: logger}
}

func (c *CartPanda) Platform() types.Platform {
	return types.PlatformCartPanda
}

type cartPandaProduct struct {
	Product *struct {
		ID     int64  `json:"id"`
		Title  string `json:"title"`
		Status string `json:"status"`
	} `json:"product"`
}

func (c *CartPanda) Validate(ctx context.Context, creds Credentials) (*Result, error) {
	if err := require(c.Platform(),
		field{"product_id", creds.ProductID},
		field{"api_key", creds.APIKey},
		field{"store_slug", creds.StoreSlug},
	); err != nil {
		return nil, err
	}

	var body cartPandaProduct
	res, err := fetch(ctx, c.client,
		c.endpoint.APIURL+"/api/v3/"+url.PathEscape(creds.StoreSlug)+"/products/"+url.PathEscape(creds.ProductID),
		map[string]string{"Authorization": bearer(creds.APIKey)},
		&body,
	)
	if res != nil || err != nil {
		return res, err
	}
	if body.Product == nil {
		return invalid(ReasonNotFound), nil
	}
	return productResult(body.Product.Title, body.Product.Status), nil
}
