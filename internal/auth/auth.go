// Package auth verifies account credentials and applies the progressive
// login lockout.
package auth

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mugo/server/internal/core/data"
)

var (
	ErrInvalidUsername  = errors.New("no account with that username")
	ErrInvalidPassword  = errors.New("incorrect password")
	ErrAlreadyConnected = errors.New("account is already connected")
	ErrTooManyAttempts  = errors.New("too many failed login attempts")
)

// Authenticator validates credentials against the accounts table. Failed
// attempts accumulate an exponentially growing lockout window; while the
// window is open every attempt is rejected, correct password or not.
type Authenticator struct {
	db *gorm.DB

	// Number of failed attempts tolerated before the lockout engages.
	lockoutAttempts uint32
	// Upper bound on the lockout window, in minutes.
	lockoutTimeMax uint64
	hashCost       int
}

func NewAuthenticator(db *gorm.DB, lockoutAttempts uint32, lockoutTimeMax uint64, hashCost int) *Authenticator {
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &Authenticator{
		db:              db,
		lockoutAttempts: lockoutAttempts,
		lockoutTimeMax:  lockoutTimeMax,
		hashCost:        hashCost,
	}
}

// Login verifies the credentials and marks the account as connected. The
// returned account is only non-nil when login succeeded.
func (a *Authenticator) Login(username, password string) (*data.Account, error) {
	account, err := data.FindAccountByUsername(a.db, username)
	if err != nil {
		return nil, fmt.Errorf("error looking up account %s: %w", username, err)
	}
	if account == nil {
		return nil, ErrInvalidUsername
	}

	now := time.Now()
	if a.lockedOut(account, now) {
		return nil, ErrTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		account.FailedLoginAttempts++
		account.FailedLoginTime = &now
		if err := data.UpdateAccount(a.db, account); err != nil {
			return nil, fmt.Errorf("error recording failed login for %s: %w", username, err)
		}
		return nil, ErrInvalidPassword
	}

	if account.LoggedIn {
		return nil, ErrAlreadyConnected
	}

	account.LoggedIn = true
	account.FailedLoginAttempts = 0
	account.FailedLoginTime = nil
	if err := data.UpdateAccount(a.db, account); err != nil {
		return nil, fmt.Errorf("error marking %s as connected: %w", username, err)
	}
	return account, nil
}

// Logout clears the account's connected marker. Safe to call for accounts
// that never completed a login.
func (a *Authenticator) Logout(account *data.Account) error {
	if account == nil || !account.LoggedIn {
		return nil
	}
	account.LoggedIn = false
	if err := data.UpdateAccount(a.db, account); err != nil {
		return fmt.Errorf("error marking %s as disconnected: %w", account.Username, err)
	}
	return nil
}

// lockedOut reports whether the account's failure history keeps it locked
// at the given time.
func (a *Authenticator) lockedOut(account *data.Account, now time.Time) bool {
	if account.FailedLoginTime == nil || account.FailedLoginAttempts < a.lockoutAttempts {
		return false
	}
	delay := a.lockoutDelay(account.FailedLoginAttempts)
	if delay == 0 {
		return false
	}
	return now.Sub(*account.FailedLoginTime) <= time.Duration(delay)*time.Minute
}

// lockoutDelay returns the lockout window in minutes for the given failure
// count: it doubles with each failure beyond the tolerated ones, capped at
// the configured maximum.
func (a *Authenticator) lockoutDelay(attempts uint32) uint64 {
	excess := attempts - a.lockoutAttempts
	if excess >= 63 {
		return a.lockoutTimeMax
	}
	delay := uint64(1) << excess
	if delay > a.lockoutTimeMax {
		return a.lockoutTimeMax
	}
	return delay
}

// HashPassword returns the bcrypt hash stored for new accounts.
func (a *Authenticator) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.hashCost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return string(hash), nil
}

// CreateAccount hashes the password and persists a new account record.
func (a *Authenticator) CreateAccount(username, password, securityCode, email string) (*data.Account, error) {
	hash, err := a.HashPassword(password)
	if err != nil {
		return nil, err
	}
	account := &data.Account{
		Username:     username,
		PasswordHash: hash,
		SecurityCode: securityCode,
		Email:        email,
	}
	if err := data.CreateAccount(a.db, account); err != nil {
		return nil, fmt.Errorf("error creating account %s: %w", username, err)
	}
	return account, nil
}
