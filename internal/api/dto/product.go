package dto

import (
	"github.com/vendora/vendora/internal/types"
	"github.com/vendora/vendora/internal/validator"
)

// ValidateProductRequest carries a product id plus whatever credentials its platform needs.
// Which credential fields are required depends on the platform and is checked by its adapter.
type ValidateProductRequest struct {
	Platform     string `json:"platform" validate:"required,platform"`
	ProductID    string `json:"product_id"`
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
	BasicToken   string `json:"basic_token,omitempty"`
	AccountID    string `json:"account_id,omitempty"`
	Email        string `json:"email,omitempty"`
	PublicKey    string `json:"public_key,omitempty"`
	APIKey       string `json:"api_key,omitempty"`
	StoreSlug    string `json:"store_slug,omitempty"`
	Token        string `json:"token,omitempty"`
}

func (r *ValidateProductRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// GetPlatform returns the normalized platform; call after Validate
func (r *ValidateProductRequest) GetPlatform() types.Platform {
	p, _ := types.ParsePlatform(r.Platform)
	return p
}

type ProductInfo struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// ValidateProductResponse is the uniform verdict across platforms
type ValidateProductResponse struct {
	Valid   bool         `json:"valid"`
	Product *ProductInfo `json:"product,omitempty"`
	Error   string       `json:"error,omitempty"`
}
