package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vendora/vendora/internal/api/dto"
	ierr "github.com/vendora/vendora/internal/errors"
	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/service"
	"github.com/vendora/vendora/internal/types"
)

type SubscriptionHandler struct {
	reconciliation service.ReconciliationService
	states         service.SubscriptionStateService
	logger         *logger.Logger
}

func NewSubscriptionHandler(
	reconciliation service.ReconciliationService,
	states service.SubscriptionStateService,
	logger *logger.Logger,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		reconciliation: reconciliation,
		states:         states,
		logger:         logger,
	}
}

// @Summary Check subscription
// @Description Reconciles the caller's stored plan with the payment provider and returns the result
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SubscriptionStatusResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /subscription/check [post]
func (h *SubscriptionHandler) CheckSubscription(c *gin.Context) {
	userID := types.GetUserID(c.Request.Context())
	c.JSON(http.StatusOK, h.reconciliation.Reconcile(c.Request.Context(), userID))
}

// @Summary List subscription history
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (1-200)"
// @Success 200 {object} dto.ListSubscriptionHistoryResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /subscription/history [get]
func (h *SubscriptionHandler) ListHistory(c *gin.Context) {
	var req dto.ListSubscriptionHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid query parameters").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.states.ListHistory(c.Request.Context(), types.GetUserID(c.Request.Context()), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
