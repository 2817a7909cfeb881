package data

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Account contains the login information specific to each registered user.
// The failed login columns drive the progressive lockout; LoggedIn is the
// cross-server online marker checked to reject duplicate sessions.
type Account struct {
	ID           uint64 `gorm:"primaryKey"`
	Username     string `gorm:"unique; not null"`
	PasswordHash string `gorm:"not null"`
	SecurityCode string `gorm:"not null"`
	Email        string

	LoggedIn            bool `gorm:"default:false"`
	FailedLoginAttempts uint32
	FailedLoginTime     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt
}

func FindAccountByID(db *gorm.DB, id uint64) (*Account, error) {
	var account Account
	err := db.First(&account, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

// FindAccountByUsername searches for an account with the specified username,
// returning the *Account instance if found or nil if there is no match.
func FindAccountByUsername(db *gorm.DB, username string) (*Account, error) {
	var account Account
	err := db.Where("username = ?", username).First(&account).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

// CreateAccount persists the Account record to the database.
func CreateAccount(db *gorm.DB, account *Account) error {
	return db.Create(account).Error
}

// UpdateAccount persists any modified fields of account.
func UpdateAccount(db *gorm.DB, account *Account) error {
	return db.Save(account).Error
}

// DeleteAccount soft-deletes an Account record from the database.
func DeleteAccount(db *gorm.DB, account *Account) error {
	return db.Delete(account).Error
}

// PermanentlyDeleteAccount permanently deletes an Account record from the database.
func PermanentlyDeleteAccount(db *gorm.DB, account *Account) error {
	return db.Unscoped().Delete(account).Error
}

// ReleaseAllSessions clears the LoggedIn marker on every account. Servers
// run it at startup so that sessions orphaned by a crash can log in again.
func ReleaseAllSessions(db *gorm.DB) error {
	return db.Model(&Account{}).Where("logged_in = ?", true).Update("logged_in", false).Error
}
