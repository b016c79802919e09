package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vendora/vendora/internal/api/dto"
	ierr "github.com/vendora/vendora/internal/errors"
	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/service"
)

type ProductHandler struct {
	service service.ProductValidationService
	logger  *logger.Logger
}

func NewProductHandler(service service.ProductValidationService, logger *logger.Logger) *ProductHandler {
	return &ProductHandler{service: service, logger: logger}
}

// @Summary Validate external product
// @Description Checks that a product id exists and is sellable on the given commerce platform
// @Tags Products
// @Accept json
// @Produce json
// @Param request body dto.ValidateProductRequest true "Platform, product id and credentials"
// @Success 200 {object} dto.ValidateProductResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /products/validate [post]
func (h *ProductHandler) ValidateProduct(c *gin.Context) {
	var req dto.ValidateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ValidateProduct(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
