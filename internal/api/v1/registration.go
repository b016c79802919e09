package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vendora/vendora/internal/api/dto"
	ierr "github.com/vendora/vendora/internal/errors"
	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/service"
)

type RegistrationHandler struct {
	service service.RegistrationService
	logger  *logger.Logger
}

func NewRegistrationHandler(service service.RegistrationService, logger *logger.Logger) *RegistrationHandler {
	return &RegistrationHandler{service: service, logger: logger}
}

// @Summary Activate pending registration
// @Description Redeems a set-password link and creates the account that owns the purchase
// @Tags Registrations
// @Accept json
// @Produce json
// @Param request body dto.ActivateRegistrationRequest true "Token and password"
// @Success 201 {object} dto.ActivateRegistrationResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /registrations/activate [post]
func (h *RegistrationHandler) Activate(c *gin.Context) {
	var req dto.ActivateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.Activate(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
