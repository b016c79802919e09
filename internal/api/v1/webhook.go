package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vendora/vendora/internal/api/dto"
	ierr "github.com/vendora/vendora/internal/errors"
	"github.com/vendora/vendora/internal/integration/stripe/webhook"
	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/types"
)

// maxWebhookBodyBytes caps a single provider delivery
const maxWebhookBodyBytes = 1 << 20

// WebhookHandler receives payment provider deliveries
type WebhookHandler struct {
	stripe *webhook.Handler
	logger *logger.Logger
}

func NewWebhookHandler(stripe *webhook.Handler, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{stripe: stripe, logger: logger}
}

// @Summary Handle Stripe webhook
// @Description Verifies and processes a Stripe event. Acknowledged events are never retried by the provider.
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Stripe webhook signature"
// @Success 200 {object} dto.WebhookResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /webhooks/stripe [post]
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Failed to read request body").
			Mark(ierr.ErrValidation))
		return
	}

	err = h.stripe.Handle(c.Request.Context(), body, c.GetHeader(types.HeaderStripeSig))
	if err != nil {
		if ierr.IsValidation(err) {
			c.Error(err)
			return
		}
		// anything else must be retried by the provider
		h.logger.Errorw("webhook processing failed",
			"error", err,
			"request_id", types.GetRequestID(c.Request.Context()),
		)
		c.Error(ierr.NewError(err.Error()).
			WithHint("Failed to process webhook").
			Mark(ierr.ErrInternal))
		return
	}

	c.JSON(http.StatusOK, dto.WebhookResponse{Received: true})
}
