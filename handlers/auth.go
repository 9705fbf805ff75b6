package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docufold/docufold/internal/config"
	"github.com/docufold/docufold/internal/sessions"
	"github.com/docufold/docufold/internal/tokens"
	"github.com/docufold/docufold/pkg/logger"
	"github.com/docufold/docufold/pkg/middleware"
)

// RefreshTokenCookie carries the refresh token between browser and server.
const RefreshTokenCookie = "refresh_token"

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthHandler serves the single-operator login flow.
type AuthHandler struct {
	cfg         *config.Config
	sessionsSvc *sessions.Service
}

func NewAuthHandler(cfg *config.Config, s *sessions.Service) *AuthHandler {
	return &AuthHandler{cfg: cfg, sessionsSvc: s}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/login", h.Login)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)
}

// Login checks the configured admin credential and issues an access token plus
// a refresh session. Both comparisons are constant time so a failed username
// probe costs the same as a failed password probe.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.cfg.Admin.Password == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin login not configured"})
		return
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.cfg.Admin.Username))
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.Admin.Password))
	if userOK&passOK != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	refresh, err := h.sessionsSvc.CreateSession(c.Request.Context(), req.Username, h.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		logger.Errorf("failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg.JWT.Secret, req.Username, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}

	secure := h.cfg.Server.Environment == "production"
	c.SetCookie(RefreshTokenCookie, refresh, int(h.cfg.JWT.RefreshTokenTTL.Seconds()), "/auth", "", secure, true)
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  access,
		"refreshToken": refresh,
		"expiresIn":    int(h.cfg.JWT.AccessTokenTTL.Seconds()),
	})
}

// Refresh exchanges a valid refresh token (body field or cookie) for a new
// access token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh := h.refreshTokenFrom(c)
	if refresh == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh token required"})
		return
	}
	sess, err := h.sessionsSvc.ValidateRefresh(c.Request.Context(), refresh)
	if err != nil {
		logger.Errorf("refresh validation error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "validation failed"})
		return
	}
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg.JWT.Secret, sess.Username, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": access, "expiresIn": int(h.cfg.JWT.AccessTokenTTL.Seconds())})
}

// Logout invalidates the refresh session and blacklists the presented access
// token for its remaining lifetime.
func (h *AuthHandler) Logout(c *gin.Context) {
	refresh := h.refreshTokenFrom(c)
	if refresh == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh token required"})
		return
	}

	if raw := bearerTokenFrom(c); raw != "" {
		if claims, err := tokens.ParseAccessToken(h.cfg.JWT.Secret, raw); err == nil {
			if exp, ok := claims["exp"].(float64); ok {
				ttl := time.Until(time.Unix(int64(exp), 0))
				if ttl > 0 {
					if err := sessions.BlacklistAccessToken(c.Request.Context(), raw, ttl); err != nil {
						logger.Warnf("failed to blacklist access token: %v", err)
					}
				}
			}
		}
	}

	if err := h.sessionsSvc.DeleteRefresh(c.Request.Context(), refresh); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove session"})
		return
	}
	c.SetCookie(RefreshTokenCookie, "", -1, "/auth", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) refreshTokenFrom(c *gin.Context) string {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	if v, err := c.Cookie(RefreshTokenCookie); err == nil {
		return v
	}
	return ""
}

func bearerTokenFrom(c *gin.Context) string {
	const prefix = "Bearer "
	auth := c.GetHeader("Authorization")
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	if v, err := c.Cookie(middleware.AccessTokenCookie); err == nil {
		return v
	}
	return ""
}
