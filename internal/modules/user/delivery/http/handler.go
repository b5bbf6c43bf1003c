package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Dnl30T/Avisos-FOA/internal/modules/user/dto"
	userService "github.com/Dnl30T/Avisos-FOA/internal/modules/user/service"
	"github.com/Dnl30T/Avisos-FOA/pkg/ratelimiter"
	"github.com/Dnl30T/Avisos-FOA/pkg/response"
	"github.com/Dnl30T/Avisos-FOA/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService userService.AuthService
}

func NewAuthHandler(authService userService.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input dto.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, validator.ToAppError(err))
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), input)
	if err != nil {
		var rateLimitErr *ratelimiter.RateLimitError
		if errors.As(err, &rateLimitErr) {
			c.Header("Retry-After", fmt.Sprintf("%.0f", rateLimitErr.RetryAfter.Seconds()))
		}
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	principal, err := response.GetPrincipal(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), principal); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	principal, err := response.GetPrincipal(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSessionResponse(principal, h.authService.IsAdmin(principal)))
}
