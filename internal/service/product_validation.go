package service

import (
	"context"
	"time"

	"github.com/vendora/vendora/internal/api/dto"
	ierr "github.com/vendora/vendora/internal/errors"
	"github.com/vendora/vendora/internal/integration/platform"
	"github.com/vendora/vendora/internal/interfaces"
)

type ProductValidationService = interfaces.ProductValidationService

type productValidationService struct {
	ServiceParams
	registry *platform.Registry
}

func NewProductValidationService(params ServiceParams, registry *platform.Registry) ProductValidationService {
	return &productValidationService{
		ServiceParams: params,
		registry:      registry,
	}
}

// ValidateProduct returns a verdict for every expected outcome. Errors are either missing
// fields (400) or an unreachable platform (502).
func (s *productValidationService) ValidateProduct(ctx context.Context, req *dto.ValidateProductRequest) (*dto.ValidateProductResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := req.GetPlatform()
	validator, err := s.registry.Get(p)
	if err != nil {
		return nil, err
	}

	if timeout := s.Config.Gateway.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		// token exchange plus lookup share one budget
		ctx, cancel = context.WithTimeout(ctx, 2*timeout)
		defer cancel()
	}

	span, ctx := s.Sentry.StartGatewaySpan(ctx, string(p), "validate_product")
	if span != nil {
		defer span.Finish()
	}

	start := time.Now()
	res, err := validator.Validate(ctx, platform.Credentials{
		ProductID:    req.ProductID,
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		BasicToken:   req.BasicToken,
		AccountID:    req.AccountID,
		Email:        req.Email,
		PublicKey:    req.PublicKey,
		APIKey:       req.APIKey,
		StoreSlug:    req.StoreSlug,
		Token:        req.Token,
	})
	if err != nil {
		if ierr.IsValidation(err) {
			return nil, err
		}
		s.Logger.Errorw("product validation failed upstream",
			"platform", p,
			"product_id", req.ProductID,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return nil, ierr.WithError(err).
			WithHintf("Could not reach %s, try again later", p).
			Mark(ierr.ErrHTTPClient)
	}

	s.Logger.Infow("product validated",
		"platform", p,
		"product_id", req.ProductID,
		"valid", res.Valid,
		"reason", res.Reason,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	resp := &dto.ValidateProductResponse{Valid: res.Valid, Error: res.Reason}
	if res.ProductName != "" {
		resp.Product = &dto.ProductInfo{Name: res.ProductName, Status: res.ProductStatus}
	}
	return resp, nil
}
