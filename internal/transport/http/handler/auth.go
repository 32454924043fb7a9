package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"courseassist/internal/app"
	"courseassist/internal/transport/http/response"
)

type AuthHandler struct {
	authService *app.AuthService
}

type TokenRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Password string `json:"password" binding:"required,max=128"`
}

func NewAuthHandler(authService *app.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Token issues an instructor JWT for the upload and dashboard routes.
func (h *AuthHandler) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.KindBadRequest, "invalid request payload")
		return
	}

	result, err := h.authService.Login(app.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrAuthDisabled):
			response.Error(c, http.StatusNotFound, response.KindBadRequest, err.Error())
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.KindBadRequest, err.Error())
		case errors.Is(err, app.ErrInvalidCredential):
			response.Error(c, http.StatusUnauthorized, response.KindUnauthorized, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.KindInternal, "login failed")
		}
		return
	}

	response.OK(c, gin.H{
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"username":   result.Username,
	})
}
