package auth

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/mugo/server/internal/core/data"
)

func setUpAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	testDBFile := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(testDBFile))
	if err != nil {
		t.Fatalf("error initializing test database: %s", err)
	}
	if err = db.AutoMigrate(&data.Account{}, &data.Character{}, &data.InventoryItem{}); err != nil {
		t.Fatalf("error auto migrating db: %s", err)
	}
	// The minimum bcrypt cost keeps the tests fast.
	return NewAuthenticator(db, 1, 2880, 4)
}

func createTestAccount(t *testing.T, a *Authenticator, username, password string) *data.Account {
	t.Helper()
	account, err := a.CreateAccount(username, password, "12345", username+"@test.c")
	if err != nil {
		t.Fatalf("error creating test account: %v", err)
	}
	return account
}

func TestAuthenticator_Login(t *testing.T) {
	tests := map[string]struct {
		username  string
		password  string
		wantedErr error
	}{
		"unknown username":   {username: "nobody", password: "test", wantedErr: ErrInvalidUsername},
		"incorrect password": {username: "test", password: "wrong", wantedErr: ErrInvalidPassword},
		"happy path":         {username: "test", password: "hunter2", wantedErr: nil},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			a := setUpAuthenticator(t)
			createTestAccount(t, a, "test", "hunter2")

			account, err := a.Login(tt.username, tt.password)
			if !errors.Is(err, tt.wantedErr) {
				t.Fatalf("expected error %v, got %v", tt.wantedErr, err)
			}
			if tt.wantedErr == nil {
				if account == nil || !account.LoggedIn {
					t.Errorf("expected a successful login to mark the account connected: %+v", account)
				}
			} else if account != nil {
				t.Errorf("expected no account on failure, got %+v", account)
			}
		})
	}
}

func TestAuthenticator_LoginAlreadyConnected(t *testing.T) {
	a := setUpAuthenticator(t)
	createTestAccount(t, a, "test", "hunter2")

	if _, err := a.Login("test", "hunter2"); err != nil {
		t.Fatalf("Login() returned an unexpected error: %v", err)
	}
	if _, err := a.Login("test", "hunter2"); !errors.Is(err, ErrAlreadyConnected) {
		t.Errorf("expected ErrAlreadyConnected, got %v", err)
	}
}

func TestAuthenticator_Logout(t *testing.T) {
	a := setUpAuthenticator(t)
	createTestAccount(t, a, "test", "hunter2")

	account, err := a.Login("test", "hunter2")
	if err != nil {
		t.Fatalf("Login() returned an unexpected error: %v", err)
	}
	if err := a.Logout(account); err != nil {
		t.Fatalf("Logout() returned an unexpected error: %v", err)
	}
	if _, err := a.Login("test", "hunter2"); err != nil {
		t.Errorf("expected a login after logout to succeed, got %v", err)
	}

	// Logging out an account that never logged in is a no-op.
	if err := a.Logout(nil); err != nil {
		t.Errorf("Logout(nil) returned an unexpected error: %v", err)
	}
}

func TestAuthenticator_Lockout(t *testing.T) {
	a := setUpAuthenticator(t)
	createTestAccount(t, a, "test", "hunter2")

	if _, err := a.Login("test", "wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}

	// The window is open now, so even the correct password is rejected.
	if _, err := a.Login("test", "hunter2"); !errors.Is(err, ErrTooManyAttempts) {
		t.Errorf("expected ErrTooManyAttempts with the correct password, got %v", err)
	}
	if _, err := a.Login("test", "wrong"); !errors.Is(err, ErrTooManyAttempts) {
		t.Errorf("expected ErrTooManyAttempts with a wrong password, got %v", err)
	}
}

func TestAuthenticator_LockoutExpires(t *testing.T) {
	a := setUpAuthenticator(t)
	account := createTestAccount(t, a, "test", "hunter2")

	// One failure opens a one minute window; backdate it past expiry.
	failedAt := time.Now().Add(-2 * time.Minute)
	account.FailedLoginAttempts = 1
	account.FailedLoginTime = &failedAt
	if err := data.UpdateAccount(a.db, account); err != nil {
		t.Fatalf("error seeding failure history: %v", err)
	}

	logged, err := a.Login("test", "hunter2")
	if err != nil {
		t.Fatalf("expected the expired lockout to admit the login, got %v", err)
	}
	if logged.FailedLoginAttempts != 0 || logged.FailedLoginTime != nil {
		t.Errorf("expected the failure history to be reset: %+v", logged)
	}
}

func TestAuthenticator_LockoutBelowThreshold(t *testing.T) {
	// With a tolerance of three attempts, two failures must not lock.
	a := setUpAuthenticator(t)
	a.lockoutAttempts = 3
	createTestAccount(t, a, "test", "hunter2")

	for i := 0; i < 2; i++ {
		if _, err := a.Login("test", "wrong"); !errors.Is(err, ErrInvalidPassword) {
			t.Fatalf("expected ErrInvalidPassword on attempt %d, got %v", i, err)
		}
	}
	if _, err := a.Login("test", "hunter2"); err != nil {
		t.Errorf("expected a login below the lockout threshold to succeed, got %v", err)
	}
}

func TestAuthenticator_LockoutDelay(t *testing.T) {
	a := NewAuthenticator(nil, 1, 2880, 4)

	tests := map[string]struct {
		attempts uint32
		expected uint64
	}{
		"at threshold":    {attempts: 1, expected: 1},
		"one excess":      {attempts: 2, expected: 2},
		"five excess":     {attempts: 6, expected: 32},
		"capped":          {attempts: 20, expected: 2880},
		"shift saturated": {attempts: 100, expected: 2880},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if delay := a.lockoutDelay(tt.attempts); delay != tt.expected {
				t.Errorf("expected a %d minute delay, got %d", tt.expected, delay)
			}
		})
	}
}

func TestAuthenticator_HashPassword(t *testing.T) {
	a := NewAuthenticator(nil, 1, 2880, 4)

	hash, err := a.HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword() returned an unexpected error: %v", err)
	}
	if hash == "hunter2" {
		t.Fatal("expected the hash not to equal the password")
	}

	// bcrypt salts every hash, so two hashes of one password differ but both verify.
	second, err := a.HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword() returned an unexpected error: %v", err)
	}
	if hash == second {
		t.Error("expected salted hashes to differ")
	}
}
