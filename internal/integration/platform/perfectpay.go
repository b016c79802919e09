package platform

import (
	"context"
	"regexp"

	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/types"
)

var perfectPayToken = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)

// PerfectPay has no public product API. The webhook token is checked structurally and the
// product is accepted provisionally until a real webhook for it arrives.
type PerfectPay struct {
	logger *logger.Logger
}

func NewPerfectPay(logger *logger.Logger) *PerfectPay {
	return &PerfectPay{logger: logger}
}

func (p *PerfectPay) Platform() types.Platform {
	return types.PlatformPerfectPay
}

func (p *PerfectPay) Validate(_ context.Context, creds Credentials) (*Result, error) {
	if err := require(p.Platform(),
		field{"product_id", creds.ProductID},
		field{"token", creds.Token},
	); err != nil {
		return nil, err
	}

	if !perfectPayToken.MatchString(creds.Token) {
		return invalid(ReasonInvalidToken), nil
	}
	return &Result{
		Valid:         true,
		ProductName:   creds.ProductID,
		ProductStatus: types.ProductStatusPendingVerification,
	}, nil
}
