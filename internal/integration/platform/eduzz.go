package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/vendora/vendora/internal/config"
	ierr "github.com/vendora/vendora/internal/errors"
	"github.com/vendora/vendora/internal/httpclient"
	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/types"
)

// Eduzz exchanges email, public key and api key for a token with a JSON body, and expects
// the token back in a plain "token" header.
type Eduzz struct {
	endpoint config.PlatformConfig
	client   httpclient.Client
	logger   *logger.Logger
}

func NewEduzz(endpoint config.PlatformConfig, client httpclient.Client, logger *logger.Logger) *Eduzz {
	return &Eduzz{endpoint: endpoint, client: client, logger: logger}
}

func (e *Eduzz) Platform() types.Platform {
	return types.PlatformEduzz
}

type eduzzTokenRequest struct {
	Email     string `json:"email"`
	PublicKey string `json:"publickey"`
	APIKey    string `json:"apikey"`
}

type eduzzTokenResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Token string `json:"token"`
	} `json:"data"`
}

type eduzzContent struct {
	Success bool `json:"success"`
	Data    *struct {
		Title  string `json:"title"`
		Status string `json:"status"`
	} `json:"data"`
}

func (e *Eduzz) Validate(ctx context.Context, creds Credentials) (*Result, error) {
	if err := require(e.Platform(),
		field{"product_id", creds.ProductID},
		field{"email", creds.Email},
		field{"public_key", creds.PublicKey},
		field{"api_key", creds.APIKey},
	); err != nil {
		return nil, err
	}

	token, res, err := e.token(ctx, creds)
	if res != nil || err != nil {
		return res, err
	}

	var content eduzzContent
	res, err = fetch(ctx, e.client,
		e.endpoint.APIURL+"/content/get/"+url.PathEscape(creds.ProductID),
		map[string]string{"token": token},
		&content,
	)
	if res != nil || err != nil {
		return res, err
	}
	if !content.Success || content.Data == nil {
		return invalid(ReasonNotFound), nil
	}

	return productResult(content.Data.Title, content.Data.Status), nil
}

func (e *Eduzz) token(ctx context.Context, creds Credentials) (string, *Result, error) {
	payload, err := json.Marshal(eduzzTokenRequest{
		Email:     creds.Email,
		PublicKey: creds.PublicKey,
		APIKey:    creds.APIKey,
	})
	if err != nil {
		return "", nil, ierr.WithError(err).Mark(ierr.ErrInternal)
	}

	resp, err := e.client.Send(ctx, &httpclient.Request{
		Method: http.MethodPost,
		URL:    e.endpoint.TokenURL,
		Body:   payload,
	})
	if err != nil {
		res, err := classify(err)
		if res != nil && res.Reason == ReasonNotFound {
			// a missing token endpoint is a deployment problem, not a missing product
			return "", nil, ierr.NewError("eduzz token endpoint not found").Mark(ierr.ErrHTTPClient)
		}
		return "", res, err
	}

	var out eduzzTokenResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return "", nil, ierr.WithError(err).
			WithHint("Platform returned an unreadable response").
			Mark(ierr.ErrHTTPClient)
	}
	if !out.Success || out.Data.Token == "" {
		return "", invalid(ReasonInvalidCredentials), nil
	}
	return out.Data.Token, nil, nil
}
