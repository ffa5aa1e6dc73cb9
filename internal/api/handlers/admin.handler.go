// internal/api/handlers/admin.handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/latticeobs/queryauth/internal/admin"
	"github.com/latticeobs/queryauth/internal/config"
	"github.com/latticeobs/queryauth/pkg/logger"
)

// AdminAuthHandler authenticates local admin operators (bcrypt password +
// TOTP) before they can reach constraint-management endpoints.
type AdminAuthHandler struct {
	auth   *admin.Authenticator
	cfg    config.AdminConfig
	logger logger.Logger
}

func NewAdminAuthHandler(auth *admin.Authenticator, cfg config.AdminConfig, log logger.Logger) *AdminAuthHandler {
	return &AdminAuthHandler{auth: auth, cfg: cfg, logger: log}
}

type adminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// @Summary Authenticate an admin operator
// @Description Verifies username/password; if TOTP is enabled, requires a second call to /admin/mfa/verify before a session is granted.
// @Tags admin
// @Accept json
// @Produce json
// @Param request body adminLoginRequest true "credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/admin/login [post]
func (h *AdminAuthHandler) Login(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid request"})
		return
	}

	if _, err := h.auth.Authenticate(req.Username, req.Password); err != nil {
		h.logger.Warn("admin login failed", "username", req.Username)
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "invalid credentials"})
		return
	}

	if h.auth.RequireTOTP(req.Username) {
		c.JSON(http.StatusOK, gin.H{"status": "mfa_required", "username": req.Username})
		return
	}

	token, err := admin.IssueSession(h.cfg, req.Username)
	if err != nil {
		h.logger.Error("failed to issue admin session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "failed to issue session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "username": req.Username, "session_token": token})
}

type adminMFARequest struct {
	Username string `json:"username" binding:"required"`
	Code     string `json:"code" binding:"required"`
}

// @Summary Verify an admin TOTP code
// @Tags admin
// @Accept json
// @Produce json
// @Param request body adminMFARequest true "totp code"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/admin/mfa/verify [post]
func (h *AdminAuthHandler) VerifyMFA(c *gin.Context) {
	var req adminMFARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid request"})
		return
	}

	if err := h.auth.VerifyTOTP(req.Username, req.Code); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "error": err.Error()})
		return
	}

	token, err := admin.IssueSession(h.cfg, req.Username)
	if err != nil {
		h.logger.Error("failed to issue admin session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "failed to issue session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "username": req.Username, "session_token": token})
}

// @Summary Enroll an admin account in TOTP
// @Tags admin
// @Accept json
// @Produce json
// @Param request body adminLoginRequest true "username"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/admin/mfa/enroll [post]
func (h *AdminAuthHandler) EnrollMFA(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid request"})
		return
	}

	_, url, err := h.auth.EnrollTOTP(h.cfg, req.Username)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "otpauth_url": url})
}
