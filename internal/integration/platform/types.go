package platform

import (
	"context"
	"strings"

	ierr "github.com/vendora/vendora/internal/errors"
	"github.com/vendora/vendora/internal/types"
)

// Reasons reported for negative validation results
const (
	ReasonNotFound           = "product not found"
	ReasonInvalidCredentials = "invalid credentials"
	ReasonInactive           = "product is not active"
	ReasonRejected           = "platform rejected the request"
	ReasonInvalidToken       = "invalid webhook token format"
)

// Credentials is the union of every field any platform needs. Each validator reads its own subset.
type Credentials struct {
	ProductID    string
	ClientID     string
	ClientSecret string
	BasicToken   string
	AccountID    string
	Email        string
	PublicKey    string
	APIKey       string
	StoreSlug    string
	Token        string
}

// Result is a validation verdict. Expected failures are results, not errors.
type Result struct {
	Valid         bool
	ProductName   string
	ProductStatus string
	Reason        string
}

func valid(name, status string) *Result {
	return &Result{Valid: true, ProductName: name, ProductStatus: status}
}

func invalid(reason string) *Result {
	return &Result{Valid: false, Reason: reason}
}

// Validator checks a product id against one platform.
// Only transport failures and upstream 5xx are returned as errors.
type Validator interface {
	Platform() types.Platform
	Validate(ctx context.Context, creds Credentials) (*Result, error)
}

// field pairs a request field name with its value for presence checks
type field struct {
	name  string
	value string
}

// require fails with a validation error naming every missing field, before any outbound call
func require(p types.Platform, fields ...field) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return ierr.NewErrorf("missing fields for %s: %s", p, strings.Join(missing, ", ")).
		WithHintf("%s is required for %s", strings.Join(missing, ", "), p).
		WithReportableDetails(map[string]interface{}{
			"platform": p,
			"missing":  missing,
		}).
		Mark(ierr.ErrValidation)
}

// isActiveStatus accepts the spellings platforms use for a sellable product.
// An empty status means the platform does not report one.
func isActiveStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "", "active", "ativo", "approved", "aprovado", "published", "enabled", "1":
		return true
	}
	return false
}

func productResult(name, status string) *Result {
	if !isActiveStatus(status) {
		return &Result{Valid: false, ProductName: name, ProductStatus: status, Reason: ReasonInactive}
	}
	if status == "" {
		status = "active"
	}
	return valid(name, status)
}
