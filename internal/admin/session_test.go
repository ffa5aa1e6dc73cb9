package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeobs/queryauth/internal/config"
)

func TestIssueAndVerifySession(t *testing.T) {
	cfg := config.AdminConfig{SessionSecret: "test-secret"}

	token, err := IssueSession(cfg, "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	username, err := VerifySession(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "admin", username)
}

func TestVerifySession_RejectsBadToken(t *testing.T) {
	cfg := config.AdminConfig{SessionSecret: "test-secret"}
	_, err := VerifySession(cfg, "not-a-token")
	assert.Error(t, err)
}

func TestVerifySession_RejectsWrongSecret(t *testing.T) {
	token, err := IssueSession(config.AdminConfig{SessionSecret: "secret-a"}, "admin")
	require.NoError(t, err)

	_, err = VerifySession(config.AdminConfig{SessionSecret: "secret-b"}, token)
	assert.Error(t, err)
}

func TestIssueSession_RequiresSecret(t *testing.T) {
	_, err := IssueSession(config.AdminConfig{}, "admin")
	assert.Error(t, err)
}
