package admin

import (
	"fmt"

	"github.com/pquerna/otp/totp"

	"github.com/latticeobs/queryauth/internal/config"
)

// EnrollTOTP generates a new TOTP secret for an admin account and returns
// the otpauth:// URL a client renders as a QR code. TOTP is not enabled
// until the caller verifies a code against it via VerifyTOTP.
func (a *Authenticator) EnrollTOTP(cfg config.AdminConfig, username string) (*Account, string, error) {
	account, ok := a.accounts[username]
	if !ok {
		return nil, "", fmt.Errorf("unknown admin account")
	}

	issuer := cfg.TOTPIssuer
	if issuer == "" {
		issuer = "queryauth"
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: username,
	})
	if err != nil {
		return nil, "", fmt.Errorf("generate TOTP secret: %w", err)
	}

	account.TOTPSecret = key.Secret()
	account.TOTPEnabled = false

	return account, key.URL(), nil
}

// VerifyTOTP validates a TOTP code against the account's enrolled secret
// and, on first success, enables TOTP for the account.
func (a *Authenticator) VerifyTOTP(username, code string) error {
	account, ok := a.accounts[username]
	if !ok {
		return fmt.Errorf("unknown admin account")
	}
	if account.TOTPSecret == "" {
		return fmt.Errorf("TOTP not enrolled")
	}
	if !totp.Validate(code, account.TOTPSecret) {
		return fmt.Errorf("invalid TOTP code")
	}
	account.TOTPEnabled = true
	return nil
}

// RequireTOTP reports whether a code is required for this account before
// it may reach the constraint-management endpoints.
func (a *Authenticator) RequireTOTP(username string) bool {
	account, ok := a.accounts[username]
	return ok && account.TOTPEnabled
}
