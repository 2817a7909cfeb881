package game

import (
	"fmt"
	"time"

	"github.com/mugo/server/internal/core/client"
	"github.com/mugo/server/internal/core/data"
	"github.com/mugo/server/internal/proto"
)

// Number of character slots available to an account.
const maxCharacterSlots = 5

// The client needs a beat after receiving its character list before it can
// render the message of the day.
const motdDelay = 250 * time.Millisecond

const (
	defaultNameMin = 3
	defaultNameMax = 10
)

// Guild marker bytes in character list entries.
const (
	guildNone   = 0xFF
	guildMember = 0x00
)

func (s *Server) handleLobby(c *client.Client, p *proto.Packet) error {
	if p.Code != proto.CodeCharacter {
		return fmt.Errorf("client %s sent %s in the lobby", c.IPAddr(), p)
	}

	switch p.Subcode() {
	case proto.SubCharacterList:
		return s.handleCharacterList(c)
	case proto.SubCharacterCreate:
		return s.handleCharacterCreate(c, p)
	case proto.SubCharacterDelete:
		return s.handleCharacterDelete(c, p)
	case proto.SubCharacterSelect:
		return s.handleCharacterSelect(c, p)
	}

	s.Logger.Infof("[%s] received unknown packet %s from %s", s.Name, p, c.IPAddr())
	return nil
}

// handleCharacterList sends the account's character roster followed, after
// a short delay, by the message of the day.
func (s *Server) handleCharacterList(c *client.Client) error {
	characters, err := data.FindCharactersByAccountID(s.DB, c.Account.ID)
	if err != nil {
		return fmt.Errorf("error loading characters for %s: %w", c.Account.Username, err)
	}

	list := &proto.CharacterList{MaxClass: 1}
	for _, character := range characters {
		entry := proto.CharacterListEntry{
			Slot:  character.Slot,
			Name:  character.Name,
			Level: character.Level,
			Ctl:   character.Ctl,
			Class: character.Class,
			Guild: guildNone,
		}
		if character.GuildMember {
			entry.Guild = guildMember
		}
		copy(entry.Equipment[:], character.Equipment)
		list.Entries = append(list.Entries, entry)
	}

	if err := c.Send(list); err != nil {
		return err
	}
	c.State = client.StateCharacterSelection

	if motd := s.Config.GameServer.MOTD; motd != "" {
		time.Sleep(motdDelay)
		return c.Send(proto.Notice(motd))
	}
	return nil
}

func (s *Server) handleCharacterCreate(c *client.Client, p *proto.Packet) error {
	request, err := proto.ParseCharacterCreate(p)
	if err != nil {
		return err
	}

	if !s.validCharacterName(request.Name) {
		return c.Send(&proto.CharacterCreateResult{Result: proto.CreateInvalidName})
	}

	existing, err := data.FindCharacterByName(s.DB, request.Name)
	if err != nil {
		return fmt.Errorf("error checking name %s: %w", request.Name, err)
	}
	if existing != nil {
		return c.Send(&proto.CharacterCreateResult{Result: proto.CreateInvalidName})
	}

	characters, err := data.FindCharactersByAccountID(s.DB, c.Account.ID)
	if err != nil {
		return fmt.Errorf("error loading characters for %s: %w", c.Account.Username, err)
	}
	slot, ok := freeSlot(characters)
	if !ok {
		return c.Send(&proto.CharacterCreateResult{Result: proto.CreateLimitReached})
	}

	character, ok := newCharacter(c.Account.ID, request.Name, slot, request.Class)
	if !ok {
		return c.Send(&proto.CharacterCreateResult{Result: proto.CreateFailure})
	}
	if err := data.CreateCharacter(s.DB, character); err != nil {
		s.Logger.Errorf("[%s] error creating character %s: %s", s.Name, request.Name, err)
		return c.Send(&proto.CharacterCreateResult{Result: proto.CreateFailure})
	}

	s.Logger.Infof("[%s] account %s created character %s in slot %d",
		s.Name, c.Account.Username, character.Name, character.Slot)

	return c.Send(&proto.CharacterCreateResult{
		Result: proto.CreateSuccess,
		Name:   character.Name,
		Slot:   character.Slot,
		Level:  character.Level,
		Class:  character.Class,
	})
}

func (s *Server) handleCharacterDelete(c *client.Client, p *proto.Packet) error {
	request, err := proto.ParseCharacterDelete(p)
	if err != nil {
		return err
	}

	character, err := data.FindCharacterByName(s.DB, request.Name)
	if err != nil {
		return fmt.Errorf("error looking up character %s: %w", request.Name, err)
	}
	if character == nil || character.AccountID != c.Account.ID {
		return c.Send(&proto.CharacterDeleteResult{Result: proto.DeleteBlocked})
	}
	if character.GuildMember {
		return c.Send(&proto.CharacterDeleteResult{Result: proto.DeleteGuildCharacter})
	}
	if request.SecurityCode != c.Account.SecurityCode {
		return c.Send(&proto.CharacterDeleteResult{Result: proto.DeleteInvalidSecurityCode})
	}

	if err := data.DeleteCharacter(s.DB, character); err != nil {
		return fmt.Errorf("error deleting character %s: %w", request.Name, err)
	}

	s.Logger.Infof("[%s] account %s deleted character %s", s.Name, c.Account.Username, character.Name)
	return c.Send(&proto.CharacterDeleteResult{Result: proto.DeleteSuccess})
}

// handleCharacterSelect moves the session into the world: the character's
// stats, kill count, and inventory are sent in order.
func (s *Server) handleCharacterSelect(c *client.Client, p *proto.Packet) error {
	request, err := proto.ParseCharacterSelect(p)
	if err != nil {
		return err
	}

	character, err := data.FindCharacterByName(s.DB, request.Name)
	if err != nil {
		return fmt.Errorf("error looking up character %s: %w", request.Name, err)
	}
	if character == nil || character.AccountID != c.Account.ID {
		return fmt.Errorf("client %s selected character %q it does not own", c.IPAddr(), request.Name)
	}

	c.Character = character
	c.State = client.StateTeleporting

	join := &proto.CharacterJoin{
		X:              character.X,
		Y:              character.Y,
		World:          character.World,
		Direction:      character.Direction,
		Experience:     character.Experience,
		NextExperience: nextExperience(character.Level),
		Points:         character.Points,
		Strength:       character.Strength,
		Agility:        character.Agility,
		Vitality:       character.Vitality,
		Energy:         character.Energy,
		Health:         character.Health,
		HealthMax:      character.HealthMax,
		Mana:           character.Mana,
		ManaMax:        character.ManaMax,
		Money:          character.Money,
		HeroStatus:     character.HeroStatus,
		Ctl:            character.Ctl,
	}
	if err := c.Send(join); err != nil {
		return err
	}
	if err := c.Send(&proto.KillCount{Kills: character.PlayerKills}); err != nil {
		return err
	}

	items, err := data.FindInventory(s.DB, character.ID)
	if err != nil {
		return fmt.Errorf("error loading inventory for %s: %w", character.Name, err)
	}
	inventory := &proto.InventoryList{}
	for _, item := range items {
		entry := proto.InventoryEntry{Slot: item.Slot}
		copy(entry.Item[:], item.Code)
		inventory.Entries = append(inventory.Entries, entry)
	}

	s.Logger.Infof("[%s] account %s entered the world as %s", s.Name, c.Account.Username, character.Name)
	return c.Send(inventory)
}

func (s *Server) validCharacterName(name string) bool {
	min, max := s.Config.GameServer.CharacterNameMin, s.Config.GameServer.CharacterNameMax
	if min == 0 {
		min = defaultNameMin
	}
	if max == 0 {
		max = defaultNameMax
	}
	return len(name) >= min && len(name) <= max
}

// freeSlot returns the lowest unoccupied character slot.
func freeSlot(characters []data.Character) (byte, bool) {
	used := make(map[byte]bool, len(characters))
	for _, character := range characters {
		used[character.Slot] = true
	}
	for slot := byte(0); slot < maxCharacterSlots; slot++ {
		if !used[slot] {
			return slot, true
		}
	}
	return 0, false
}

// nextExperience returns the experience required for the next level.
func nextExperience(level uint16) uint32 {
	n := uint64(level) + 1
	return uint32(10 * n * n * n)
}
