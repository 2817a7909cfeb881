package game

import "github.com/mugo/server/internal/core/data"

// Character class bytes as the client encodes them.
const (
	ClassDarkWizard = 0x00
	ClassDarkKnight = 0x20
	ClassFairyElf   = 0x40
)

// newCharacter builds a level one character with its class's starting stats
// and spawn point. Unknown classes are rejected.
func newCharacter(accountID uint64, name string, slot, class byte) (*data.Character, bool) {
	character := &data.Character{
		AccountID: accountID,
		Name:      name,
		Slot:      slot,
		Class:     class,
		Level:     1,
	}

	switch class {
	case ClassDarkWizard:
		character.Strength, character.Agility, character.Vitality, character.Energy = 18, 18, 15, 30
		character.HealthMax, character.ManaMax = 60, 60
		character.World, character.X, character.Y = 0, 125, 120
	case ClassDarkKnight:
		character.Strength, character.Agility, character.Vitality, character.Energy = 28, 20, 25, 10
		character.HealthMax, character.ManaMax = 110, 20
		character.World, character.X, character.Y = 0, 125, 120
	case ClassFairyElf:
		character.Strength, character.Agility, character.Vitality, character.Energy = 22, 25, 20, 15
		character.HealthMax, character.ManaMax = 80, 30
		character.World, character.X, character.Y = 3, 175, 110
	default:
		return nil, false
	}

	character.Health = character.HealthMax
	character.Mana = character.ManaMax
	return character, true
}
