package handlers

import (
	"net/http"

	"charityops_backend/internal/logger"
	"charityops_backend/internal/services"
	"charityops_backend/internal/services/dto"
	"charityops_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	*BaseHandler
	authService services.AuthService
}

func NewAuthHandler(base *BaseHandler, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		authService: authService,
	}
}

func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", h.Login)
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LoginRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(ctx, &req)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrInvalidCredentials) {
			logger.CtxWarn(ctx, "Login failed", "email", req.Email, "ip", c.ClientIP())
			apperrors.HandleError(c, apperrors.ErrInvalidCredentials)
			return
		}
		h.HandleServiceError(c, err)
		return
	}

	logger.CtxInfo(ctx, "User logged in", "user_id", resp.UserID)
	c.JSON(http.StatusOK, resp)
}
