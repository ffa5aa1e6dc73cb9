// Package admin gates the constraint-management endpoints behind a local
// admin account: a bcrypt-hashed password plus TOTP, following the
// teacher's own account-provisioning handler.
package admin

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/latticeobs/queryauth/internal/config"
)

// Account is one local admin operator allowed to edit constraint maps.
type Account struct {
	Username     string
	PasswordHash string
	TOTPSecret   string // base32, set once TOTP enrollment completes
	TOTPEnabled  bool
}

// Authenticator checks admin credentials against an in-memory account set.
// NewAuthenticator starts with no accounts; accounts are added only through
// RegisterAccount and are not read from configuration. The gateway's own
// state is the constraint store, not admin accounts.
type Authenticator struct {
	accounts map[string]*Account
	cost     int
}

func NewAuthenticator(cfg config.AdminConfig) *Authenticator {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Authenticator{accounts: make(map[string]*Account), cost: cost}
}

// HashPassword hashes a plaintext password for storage.
func (a *Authenticator) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// RegisterAccount adds or replaces an admin account.
func (a *Authenticator) RegisterAccount(username, passwordHash string) {
	a.accounts[username] = &Account{Username: username, PasswordHash: passwordHash}
}

// Authenticate verifies a username/password pair.
func (a *Authenticator) Authenticate(username, password string) (*Account, error) {
	account, ok := a.accounts[username]
	if !ok {
		return nil, fmt.Errorf("unknown admin account")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return account, nil
}

// Account returns the registered account, if any.
func (a *Authenticator) Account(username string) (*Account, bool) {
	acc, ok := a.accounts[username]
	return acc, ok
}
