package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hardhatlabs/subscout/internal/repository"
	"github.com/hardhatlabs/subscout/internal/services"
)

// AuthHandler handles authentication operations
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new auth handler with service injection
func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// setSecureCookie sets a secure HTTP-only cookie
func setSecureCookie(c *gin.Context, name, value string, maxAge int) {
	secure := c.Request.Header.Get("X-Forwarded-Proto") == "https" || c.Request.TLS != nil
	c.SetCookie(
		name,
		value,
		maxAge,
		"/",
		"",
		secure,
		true, // HttpOnly
	)
}

// clearCookie clears a cookie by setting it to empty with past expiration
func clearCookie(c *gin.Context, name string) {
	secure := c.Request.Header.Get("X-Forwarded-Proto") == "https" || c.Request.TLS != nil
	c.SetCookie(
		name,
		"",
		-1,
		"/",
		"",
		secure,
		true, // HttpOnly
	)
}

// Login authenticates a user
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	response, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	maxAge := int(time.Until(response.ExpiresAt).Seconds())
	csrfToken := uuid.New().String()
	setSecureCookie(c, "auth_token", response.Token, maxAge)
	setSecureCookie(c, "csrf_token", csrfToken, maxAge)

	c.JSON(http.StatusOK, gin.H{
		"user":       response.User,
		"expires_at": response.ExpiresAt,
		"csrf_token": csrfToken,
	})
}

// Register creates a new user account
func (h *AuthHandler) Register(c *gin.Context) {
	var req repository.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	user, err := h.authService.Register(&req)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    user,
	})
}

// RefreshToken generates a new access token from a refresh token
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	type RefreshRequest struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	response, err := h.authService.RefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	maxAge := int(time.Until(response.ExpiresAt).Seconds())
	setSecureCookie(c, "auth_token", response.Token, maxAge)

	c.JSON(http.StatusOK, response)
}

// Logout clears authentication cookies
func (h *AuthHandler) Logout(c *gin.Context) {
	clearCookie(c, "auth_token")
	clearCookie(c, "csrf_token")
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
