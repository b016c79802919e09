package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vendora/vendora/internal/api/dto"
	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/service"
	"github.com/vendora/vendora/internal/types"
)

func NewUserHandler(userService service.UserService, logger *logger.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

type UserHandler struct {
	userService service.UserService
	logger      *logger.Logger
}

// @Summary Delete account
// @Description Deletes the caller's account and subscription state. History is kept.
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.DeleteAccountResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /account [delete]
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	if err := h.userService.DeleteAccount(c.Request.Context(), types.GetUserID(c.Request.Context())); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.DeleteAccountResponse{Deleted: true})
}
