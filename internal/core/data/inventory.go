package data

import "gorm.io/gorm"

// InventoryItem is one item held by a character. Code is the bin-packed
// item representation sent verbatim in the inventory snapshot; the server
// does not interpret it beyond storage.
type InventoryItem struct {
	ID uint64 `gorm:"primaryKey"`

	Character   *Character
	CharacterID uint64

	Slot byte
	Code []byte `gorm:"size:12; not null"`
}

// FindInventory returns the character's items ordered by slot.
func FindInventory(db *gorm.DB, characterID uint64) ([]InventoryItem, error) {
	var items []InventoryItem
	err := db.Where("character_id = ?", characterID).Order("slot").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// CreateInventoryItem persists an InventoryItem to the database.
func CreateInventoryItem(db *gorm.DB, item *InventoryItem) error {
	return db.Create(item).Error
}

// DeleteInventoryItem permanently deletes an item record.
func DeleteInventoryItem(db *gorm.DB, item *InventoryItem) error {
	return db.Delete(item).Error
}
