package router

import (
	"context"
	"net"

	"github.com/vendora/vendora/internal/config"
	"github.com/vendora/vendora/internal/errors"
	"github.com/vendora/vendora/internal/httpclient"
	"github.com/vendora/vendora/internal/logger"
)

// DefaultRetryableStatusCodes are the marketing API answers worth another attempt
var DefaultRetryableStatusCodes = []int{408, 425, 429, 500, 502, 503, 504}

// retryPolicy decides whether a failed notification is redelivered. Anything it rejects
// is acked after being reported, so the poison queue only holds transient failures that
// ran out of attempts.
type retryPolicy struct {
	statuses map[int]struct{}
	logger   *logger.Logger
}

func newRetryPolicy(cfg *config.NotifierConfig, logger *logger.Logger) *retryPolicy {
	codes := cfg.RetryableStatusCodes
	if len(codes) == 0 {
		codes = DefaultRetryableStatusCodes
	}
	statuses := make(map[int]struct{}, len(codes))
	for _, code := range codes {
		statuses[code] = struct{}{}
	}
	return &retryPolicy{statuses: statuses, logger: logger}
}

func (p *retryPolicy) retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	if httpErr, ok := httpclient.IsHTTPError(err); ok {
		_, retry := p.statuses[httpErr.StatusCode]
		p.logger.Debugw("classified notification HTTP failure",
			"status_code", httpErr.StatusCode,
			"retry", retry,
		)
		return retry
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// a disabled mailer, a bad payload or rejected credentials stay broken on redelivery
	if errors.IsValidation(err) ||
		errors.IsNotFound(err) ||
		errors.IsInvalidOperation(err) ||
		errors.IsUnauthenticated(err) ||
		errors.IsPermissionDenied(err) {
		return false
	}

	// the email provider and unclassified failures
	return true
}
