package handler

import (
	"errors"
	"net/http"
	"time"

	"tracker/internal/middleware"
	"tracker/internal/service"
	"tracker/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler sets up the routing dependencies for session endpoints
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/login", h.Login)
	router.POST("/login/verify", h.Verify)
	router.GET("/logout", h.Logout)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type verifyRequest struct {
	Code string `json:"code" binding:"required"`
}

// Login checks credentials and either opens an authenticated session or
// dispatches a 2FA code and leaves the session in the pending stage.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	outcome, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		var extErr *service.ExternalError
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		case errors.As(err, &extErr):
			// SMS dispatch failed: the attempt is aborted with no
			// session state retained.
			c.JSON(http.StatusBadGateway, response.Error(http.StatusBadGateway, extErr.Error()))
		default:
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Login failed"))
		}
		return
	}

	if outcome.TwoFactorRequired {
		pending, err := middleware.IssuePending(outcome.Username, outcome.Role, outcome.CodeDigest)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Login failed"))
			return
		}
		middleware.SetSessionCookie(c, pending, 5*time.Minute)
		c.JSON(http.StatusOK, response.SuccessMessage(http.StatusOK, "Verification code sent.", gin.H{
			"verification_required": true,
		}))
		return
	}

	token, err := middleware.IssueSession(outcome.Username, outcome.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Login failed"))
		return
	}
	middleware.SetSessionCookie(c, token, 24*time.Hour)

	data := gin.H{"username": outcome.Username, "role": outcome.Role}
	if outcome.Warning != "" {
		data["warning"] = outcome.Warning
	}
	c.JSON(http.StatusOK, response.SuccessMessage(http.StatusOK, "Logged in.", data))
}

// Verify finalizes a pending 2FA login. An expired pending session
// forces the caller back to /login; a wrong code leaves the pending
// session intact so the caller may retry.
func (h *AuthHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	tokenString, err := c.Cookie(middleware.SessionCookie)
	if err != nil || tokenString == "" {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "No pending login session."))
		return
	}

	claims, err := middleware.ParseSession(tokenString)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			middleware.ClearSessionCookie(c)
			c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, service.ErrCodeExpired.Error()))
			return
		}
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "No pending login session."))
		return
	}
	if claims.Stage != middleware.Stage2FAPending {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "No pending login session."))
		return
	}

	if !h.authService.CheckCode(claims.CodeDigest, req.Code) {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, service.ErrInvalidCode.Error()))
		return
	}

	token, err := middleware.IssueSession(claims.Username, claims.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Login failed"))
		return
	}
	middleware.SetSessionCookie(c, token, 24*time.Hour)
	c.JSON(http.StatusOK, response.SuccessMessage(http.StatusOK, "Logged in.", gin.H{
		"username": claims.Username,
		"role":     claims.Role,
	}))
}

// Logout clears the session cookie. Idempotent.
func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearSessionCookie(c)
	c.JSON(http.StatusOK, response.SuccessMessage(http.StatusOK, "Logged out.", nil))
}
