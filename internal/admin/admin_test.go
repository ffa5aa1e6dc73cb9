package admin

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeobs/queryauth/internal/config"
)

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	a := NewAuthenticator(config.AdminConfig{BcryptCost: 4})
	hash, err := a.HashPassword("correct-horse-battery-staple")
	require.NoError(t, err)
	a.RegisterAccount("admin", hash)
	return a
}

func TestAuthenticator_Authenticate(t *testing.T) {
	a := newTestAuthenticator(t)

	_, err := a.Authenticate("admin", "correct-horse-battery-staple")
	assert.NoError(t, err)

	_, err = a.Authenticate("admin", "wrong-password")
	assert.Error(t, err)

	_, err = a.Authenticate("nobody", "whatever")
	assert.Error(t, err)
}

func TestEnrollAndVerifyTOTP(t *testing.T) {
	a := newTestAuthenticator(t)
	cfg := config.AdminConfig{TOTPIssuer: "queryauth-test"}

	account, url, err := a.EnrollTOTP(cfg, "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, url)
	assert.False(t, account.TOTPEnabled)
	assert.False(t, a.RequireTOTP("admin"))

	code, err := totp.GenerateCode(account.TOTPSecret, time.Now())
	require.NoError(t, err)

	require.NoError(t, a.VerifyTOTP("admin", code))
	assert.True(t, a.RequireTOTP("admin"))
}

func TestVerifyTOTP_RejectsBadCode(t *testing.T) {
	a := newTestAuthenticator(t)
	_, _, err := a.EnrollTOTP(config.AdminConfig{}, "admin")
	require.NoError(t, err)

	assert.Error(t, a.VerifyTOTP("admin", "000000"))
	assert.False(t, a.RequireTOTP("admin"))
}
