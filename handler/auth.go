package handler

import (
	"net/http"
	"time"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/config"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/middleware"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/pkg/logger"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	config *config.Config
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{config: cfg}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token      string `json:"token"`
	ExpiresAt  string `json:"expires_at"`
	Username   string `json:"username"`
	Department string `json:"orgao"`
}

// Login issues a staff token
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, http.StatusBadRequest, "Requisição inválida")
		return
	}

	user := h.config.FindUser(req.Username)
	// Plain comparison; staff accounts live in the config file.
	if user == nil || user.Password != req.Password {
		logger.Warn(c.Request.Context(), "login rejected", "username", req.Username)
		middleware.Fail(c, http.StatusUnauthorized, "Usuário ou senha inválidos")
		return
	}

	token, expiresAt, err := middleware.GenerateToken(user.Username, user.Department, &h.config.Auth)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to generate token", "error", err)
		middleware.Fail(c, http.StatusInternalServerError, "Falha ao gerar token")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:      token,
		ExpiresAt:  expiresAt.Format(time.RFC3339),
		Username:   user.Username,
		Department: user.Department,
	})
}

// GetCurrentUser returns the current staff user
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"username": middleware.GetUsername(c),
		"orgao":    middleware.GetDepartment(c),
	})
}
