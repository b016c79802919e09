package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vendora/vendora/internal/config"
	ierr "github.com/vendora/vendora/internal/errors"
	"github.com/vendora/vendora/internal/httpclient"
	"github.com/vendora/vendora/internal/types"
	"golang.org/x/oauth2"
)

// DefaultEndpoints are the production endpoints; gateway.platforms.<name> overrides them
var DefaultEndpoints = map[types.Platform]config.PlatformConfig{
	types.PlatformHotmart: {
		TokenURL: "https://api-sec-vlc.hotmart.com/security/oauth/token",
		APIURL:   "https://developers.hotmart.com",
	},
	types.PlatformKiwify: {
		TokenURL: "https://public-api.kiwify.com/v1/oauth/token",
		APIURL:   "https://public-api.kiwify.com",
	},
	types.PlatformEduzz: {
		TokenURL: "https://api2.eduzz.com/public/generate_token",
		APIURL:   "https://api2.eduzz.com",
	},
	types.PlatformBraip: {
		APIURL: "https://ev.braip.com",
	},
	types.PlatformMonetizze: {
		APIURL: "https://api.monetizze.com.br",
	},
	types.PlatformCartPanda: {
		APIURL: "https://accounts.cartpanda.com",
	},
}

// fetch GETs url and decodes a 2xx body into out. A non-nil Result is an expected negative
// answer from the platform; a nil Result with a nil error means out was filled.
func fetch(ctx context.Context, client httpclient.Client, url string, headers map[string]string, out interface{}) (*Result, error) {
	resp, err := client.Send(ctx, &httpclient.Request{
		Method:  http.MethodGet,
		URL:     url,
		Headers: headers,
	})
	if err != nil {
		return classify(err)
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Platform returned an unreadable response").
			Mark(ierr.ErrHTTPClient)
	}
	return nil, nil
}

// classify turns an upstream error into a negative result when the status is an expected one
func classify(err error) (*Result, error) {
	httpErr, ok := httpclient.IsHTTPError(err)
	if !ok {
		return nil, err
	}
	switch {
	case httpErr.IsNotFound():
		return invalid(ReasonNotFound), nil
	case httpErr.IsAuthFailure():
		return invalid(ReasonInvalidCredentials), nil
	case httpErr.IsServerError():
		return nil, ierr.WithError(err).
			WithHintf("Platform is unavailable (status %d)", httpErr.StatusCode).
			Mark(ierr.ErrHTTPClient)
	default:
		return invalid(ReasonRejected), nil
	}
}

// classifyTokenErr maps a failed client-credentials exchange
func classifyTokenErr(err error) (*Result, error) {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		switch code := re.Response.StatusCode; {
		case code == http.StatusBadRequest, code == http.StatusUnauthorized, code == http.StatusForbidden:
			return invalid(ReasonInvalidCredentials), nil
		case code >= http.StatusInternalServerError:
			return nil, ierr.WithError(err).
				WithHintf("Platform token endpoint is unavailable (status %d)", code).
				Mark(ierr.ErrHTTPClient)
		}
	}
	return nil, ierr.WithError(err).
		WithHint("Could not obtain a platform access token").
		Mark(ierr.ErrHTTPClient)
}

func bearer(token string) string {
	return "Bearer " + token
}
