package data

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Character is an instance of a character in one of the slots for an account.
type Character struct {
	ID uint64 `gorm:"primaryKey"`

	Account   *Account
	AccountID uint64

	Name  string `gorm:"unique; not null"`
	Slot  byte
	Class byte

	Level      uint16
	Experience uint32
	Points     uint16
	Strength   uint16
	Agility    uint16
	Vitality   uint16
	Energy     uint16
	Health     uint16
	HealthMax  uint16
	Mana       uint16
	ManaMax    uint16
	Money      uint32

	World     byte
	X         byte
	Y         byte
	Direction byte

	PlayerKills byte
	HeroStatus  byte
	Ctl         byte
	GuildMember bool `gorm:"default:false"`

	// Equipment preview bytes rendered in the character selection screen.
	Equipment []byte `gorm:"size:17"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FindCharactersByAccountID returns the account's characters ordered by slot.
func FindCharactersByAccountID(db *gorm.DB, accountID uint64) ([]Character, error) {
	var characters []Character
	err := db.Where("account_id = ?", accountID).Order("slot").Find(&characters).Error
	if err != nil {
		return nil, err
	}
	return characters, nil
}

// FindCharacterByName searches for a character by its globally unique name,
// returning nil if there is no match.
func FindCharacterByName(db *gorm.DB, name string) (*Character, error) {
	var character Character
	err := db.Where("name = ?", name).First(&character).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &character, nil
}

// FindCharacter returns the Character associated with the account in
// the given slot or nil if none exists.
func FindCharacter(db *gorm.DB, accountID uint64, slot byte) (*Character, error) {
	var character Character
	err := db.Where("slot = ? AND account_id = ?", slot, accountID).First(&character).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &character, nil
}

// CreateCharacter persists a Character to the database.
func CreateCharacter(db *gorm.DB, character *Character) error {
	return db.Create(character).Error
}

// UpdateCharacter persists any modified fields of character.
func UpdateCharacter(db *gorm.DB, character *Character) error {
	return db.Save(character).Error
}

// DeleteCharacter removes the character and its inventory. Deletion is
// permanent so the name becomes available again immediately.
func DeleteCharacter(db *gorm.DB, character *Character) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("character_id = ?", character.ID).Delete(&InventoryItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(character).Error
	})
}
