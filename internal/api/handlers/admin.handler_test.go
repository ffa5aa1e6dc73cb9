package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeobs/queryauth/internal/admin"
	"github.com/latticeobs/queryauth/internal/config"
	"github.com/latticeobs/queryauth/pkg/logger"
)

func newAdminTestHandler(t *testing.T) (*gin.Engine, *admin.Authenticator) {
	t.Helper()
	cfg := config.AdminConfig{BcryptCost: 4, TOTPIssuer: "queryauth-test", SessionSecret: "test-session-secret"}
	auth := admin.NewAuthenticator(cfg)
	hash, err := auth.HashPassword("s3cret-pass")
	require.NoError(t, err)
	auth.RegisterAccount("admin", hash)

	h := NewAdminAuthHandler(auth, cfg, logger.New("error"))
	r := gin.New()
	r.POST("/api/v1/admin/login", h.Login)
	r.POST("/api/v1/admin/mfa/enroll", h.EnrollMFA)
	r.POST("/api/v1/admin/mfa/verify", h.VerifyMFA)
	return r, auth
}

func TestAdminHandler_LoginWithoutMFA(t *testing.T) {
	r, _ := newAdminTestHandler(t)

	body, _ := json.Marshal(adminLoginRequest{Username: "admin", Password: "s3cret-pass"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp["status"])
}

func TestAdminHandler_LoginRejectsBadPassword(t *testing.T) {
	r, _ := newAdminTestHandler(t)

	body, _ := json.Marshal(adminLoginRequest{Username: "admin", Password: "wrong"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminHandler_EnrollThenLoginRequiresMFA(t *testing.T) {
	r, auth := newAdminTestHandler(t)

	enrollBody, _ := json.Marshal(map[string]string{"username": "admin"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/mfa/enroll", bytes.NewReader(enrollBody))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	account, ok := auth.Account("admin")
	require.True(t, ok)
	code, err := totp.GenerateCode(account.TOTPSecret, time.Now())
	require.NoError(t, err)

	verifyBody, _ := json.Marshal(adminMFARequest{Username: "admin", Code: code})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/mfa/verify", bytes.NewReader(verifyBody))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	loginBody, _ := json.Marshal(adminLoginRequest{Username: "admin", Password: "s3cret-pass"})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", bytes.NewReader(loginBody))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "mfa_required", resp["status"])
}
