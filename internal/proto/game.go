package proto

import (
	"encoding/binary"
)

// GameVersion is the game tier protocol version advertised in join results
// and expected from login requests.
var GameVersion = [5]byte{0x30, 0x30, 0x30, 0x30, 0x30}

// ClientTime (C1:0E:00) is the periodic heartbeat carrying the client's
// local timing values. It is filtered out before the session logic.
type ClientTime struct {
	Time        uint32
	AttackSpeed uint16
	MagicSpeed  uint16
}

func ParseClientTime(p *Packet) (*ClientTime, error) {
	if len(p.Payload) < 9 {
		return nil, framingErrorf("client time payload too short: %d", len(p.Payload))
	}
	return &ClientTime{
		Time:        binary.LittleEndian.Uint32(p.Payload[1:5]),
		AttackSpeed: binary.LittleEndian.Uint16(p.Payload[5:7]),
		MagicSpeed:  binary.LittleEndian.Uint16(p.Payload[7:9]),
	}, nil
}

// JoinResult (C1:F1:00) reports the outcome of the initial join handshake.
// On success it carries the allocated client id (big-endian) and the
// protocol version.
type JoinResult struct {
	Success  bool
	ClientID uint16
	Version  [5]byte
}

// JoinSuccess builds the join result for a newly allocated client id.
func JoinSuccess(clientID uint16) *JoinResult {
	return &JoinResult{Success: true, ClientID: clientID, Version: GameVersion}
}

// JoinFailure builds the join result sent when the registry is at capacity.
func JoinFailure() *JoinResult {
	return &JoinResult{}
}

func (m *JoinResult) Packet() *Packet {
	if !m.Success {
		return &Packet{Kind: Plain8, Code: CodeAccount, Payload: []byte{SubJoinResult, 0}}
	}
	payload := make([]byte, 2+2+5)
	payload[0] = SubJoinResult
	payload[1] = 1
	binary.BigEndian.PutUint16(payload[2:4], m.ClientID)
	copy(payload[4:9], m.Version[:])
	return &Packet{Kind: Plain8, Code: CodeAccount, Payload: payload}
}

func ParseJoinResult(p *Packet) (*JoinResult, error) {
	if len(p.Payload) < 2 {
		return nil, framingErrorf("join result payload too short: %d", len(p.Payload))
	}
	if p.Payload[1] == 0 {
		return &JoinResult{}, nil
	}
	if len(p.Payload) < 9 {
		return nil, framingErrorf("join result payload too short: %d", len(p.Payload))
	}
	result := &JoinResult{Success: true, ClientID: binary.BigEndian.Uint16(p.Payload[2:4])}
	copy(result.Version[:], p.Payload[4:9])
	return result, nil
}

// AccountLoginRequest (C1:F1:01) carries the credentials plus the client
// build identity checked before authentication.
type AccountLoginRequest struct {
	Username string
	Password string
	Time     uint32
	Version  [5]byte
	Serial   [16]byte
}

func (m *AccountLoginRequest) Packet() *Packet {
	payload := make([]byte, 1+10+10+4+5+16)
	payload[0] = SubAccountLogin
	putFixedString(payload[1:11], m.Username)
	putFixedString(payload[11:21], m.Password)
	binary.LittleEndian.PutUint32(payload[21:25], m.Time)
	copy(payload[25:30], m.Version[:])
	copy(payload[30:46], m.Serial[:])
	return &Packet{Kind: Plain8, Code: CodeAccount, Payload: payload}
}

func ParseAccountLoginRequest(p *Packet) (*AccountLoginRequest, error) {
	if len(p.Payload) < 46 {
		return nil, framingErrorf("login request payload too short: %d", len(p.Payload))
	}
	req := &AccountLoginRequest{
		Username: fixedString(p.Payload[1:11]),
		Password: fixedString(p.Payload[11:21]),
		Time:     binary.LittleEndian.Uint32(p.Payload[21:25]),
	}
	copy(req.Version[:], p.Payload[25:30])
	copy(req.Serial[:], p.Payload[30:46])
	return req, nil
}

// LoginResult enumerates the wire result codes of a login attempt.
type LoginResult byte

const (
	LoginIncorrectPassword  LoginResult = 0x00
	LoginSuccess            LoginResult = 0x01
	LoginInvalidAccount     LoginResult = 0x02
	LoginAlreadyConnected   LoginResult = 0x03
	LoginServerIsFull       LoginResult = 0x04
	LoginAccountIsBlocked   LoginResult = 0x05
	LoginInvalidGameVersion LoginResult = 0x06
	LoginTooManyAttempts    LoginResult = 0x08
	LoginError              LoginResult = 0xFF
)

// AccountLoginResult (C1:F1:01) reports the outcome of a login attempt.
type AccountLoginResult struct {
	Result LoginResult
}

func (m *AccountLoginResult) Packet() *Packet {
	return &Packet{Kind: Plain8, Code: CodeAccount, Payload: []byte{SubAccountLogin, byte(m.Result)}}
}

func ParseAccountLoginResult(p *Packet) (*AccountLoginResult, error) {
	if len(p.Payload) < 2 {
		return nil, framingErrorf("login result payload too short: %d", len(p.Payload))
	}
	return &AccountLoginResult{Result: LoginResult(p.Payload[1])}, nil
}

// CharacterListRequest (C1:F3:00) asks for the account's characters.
type CharacterListRequest struct{}

func (m *CharacterListRequest) Packet() *Packet {
	return &Packet{Kind: Plain8, Code: CodeCharacter, Payload: []byte{SubCharacterList}}
}

// CharacterListEntry is one fixed-format character row.
type CharacterListEntry struct {
	Slot      byte
	Name      string
	Level     uint16
	Ctl       byte
	Class     byte
	Equipment [17]byte
	Guild     byte
}

const characterListEntrySize = 1 + 10 + 1 + 2 + 1 + 1 + 17 + 1

// CharacterList (C1:F3:00) is the lobby's character roster.
type CharacterList struct {
	MaxClass byte
	Teleport byte
	Entries  []CharacterListEntry
}

func (m *CharacterList) Packet() *Packet {
	payload := make([]byte, 4+characterListEntrySize*len(m.Entries))
	payload[0] = SubCharacterList
	payload[1] = m.MaxClass
	payload[2] = m.Teleport
	payload[3] = byte(len(m.Entries))
	for i, entry := range m.Entries {
		off := 4 + characterListEntrySize*i
		payload[off] = entry.Slot
		putFixedString(payload[off+1:off+11], entry.Name)
		payload[off+11] = 0 // padding
		binary.LittleEndian.PutUint16(payload[off+12:off+14], entry.Level)
		payload[off+14] = entry.Ctl
		payload[off+15] = entry.Class
		copy(payload[off+16:off+33], entry.Equipment[:])
		payload[off+33] = entry.Guild
	}
	return &Packet{Kind: Plain8, Code: CodeCharacter, Payload: payload}
}

func ParseCharacterList(p *Packet) (*CharacterList, error) {
	if len(p.Payload) < 4 {
		return nil, framingErrorf("character list payload too short: %d", len(p.Payload))
	}
	count := int(p.Payload[3])
	if len(p.Payload) < 4+characterListEntrySize*count {
		return nil, framingErrorf("character list truncated: %d entries in %d bytes", count, len(p.Payload))
	}
	list := &CharacterList{MaxClass: p.Payload[1], Teleport: p.Payload[2]}
	for i := 0; i < count; i++ {
		off := 4 + characterListEntrySize*i
		entry := CharacterListEntry{
			Slot:  p.Payload[off],
			Name:  fixedString(p.Payload[off+1 : off+11]),
			Level: binary.LittleEndian.Uint16(p.Payload[off+12 : off+14]),
			Ctl:   p.Payload[off+14],
			Class: p.Payload[off+15],
			Guild: p.Payload[off+33],
		}
		copy(entry.Equipment[:], p.Payload[off+16:off+33])
		list.Entries = append(list.Entries, entry)
	}
	return list, nil
}

// CharacterCreate (C1:F3:01) requests a new character.
type CharacterCreate struct {
	Name  string
	Class byte
}

func (m *CharacterCreate) Packet() *Packet {
	payload := make([]byte, 1+10+1)
	payload[0] = SubCharacterCreate
	putFixedString(payload[1:11], m.Name)
	payload[11] = m.Class
	return &Packet{Kind: Plain8, Code: CodeCharacter, Payload: payload}
}

func ParseCharacterCreate(p *Packet) (*CharacterCreate, error) {
	if len(p.Payload) < 12 {
		return nil, framingErrorf("character create payload too short: %d", len(p.Payload))
	}
	return &CharacterCreate{
		Name:  fixedString(p.Payload[1:11]),
		Class: p.Payload[11],
	}, nil
}

// Result codes for CharacterCreateResult failures.
const (
	CreateInvalidName  = 0x00
	CreateSuccess      = 0x01
	CreateLimitReached = 0x02
	CreateFailure      = 0x03
)

// CharacterCreateResult (C1:F3:01) reports a creation outcome. A success
// carries the new character's summary.
type CharacterCreateResult struct {
	Result byte
	Name   string
	Slot   byte
	Level  uint16
	Class  byte
}

func (m *CharacterCreateResult) Packet() *Packet {
	if m.Result != CreateSuccess {
		return &Packet{Kind: Plain8, Code: CodeCharacter, Payload: []byte{SubCharacterCreate, m.Result}}
	}
	payload := make([]byte, 2+10+1+2+1)
	payload[0] = SubCharacterCreate
	payload[1] = CreateSuccess
	putFixedString(payload[2:12], m.Name)
	payload[12] = m.Slot
	binary.LittleEndian.PutUint16(payload[13:15], m.Level)
	payload[15] = m.Class
	return &Packet{Kind: Plain8, Code: CodeCharacter, Payload: payload}
}

func ParseCharacterCreateResult(p *Packet) (*CharacterCreateResult, error) {
	if len(p.Payload) < 2 {
		return nil, framingErrorf("character create result payload too short: %d", len(p.Payload))
	}
	result := &CharacterCreateResult{Result: p.Payload[1]}
	if result.Result != CreateSuccess {
		return result, nil
	}
	if len(p.Payload) < 16 {
		return nil, framingErrorf("character create result payload too short: %d", len(p.Payload))
	}
	result.Name = fixedString(p.Payload[2:12])
	result.Slot = p.Payload[12]
	result.Level = binary.LittleEndian.Uint16(p.Payload[13:15])
	result.Class = p.Payload[15]
	return result, nil
}

// CharacterDelete (C1:F3:02) requests a character deletion, authorized by
// the account's security code.
type CharacterDelete struct {
	Name         string
	SecurityCode string
}

func (m *CharacterDelete) Packet() *Packet {
	payload := make([]byte, 1+10+10)
	payload[0] = SubCharacterDelete
	putFixedString(payload[1:11], m.Name)
	putFixedString(payload[11:21], m.SecurityCode)
	return &Packet{Kind: Plain8, Code: CodeCharacter, Payload: payload}
}

func ParseCharacterDelete(p *Packet) (*CharacterDelete, error) {
	if len(p.Payload) < 21 {
		return nil, framingErrorf("character delete payload too short: %d", len(p.Payload))
	}
	return &CharacterDelete{
		Name:         fixedString(p.Payload[1:11]),
		SecurityCode: fixedString(p.Payload[11:21]),
	}, nil
}

// Result codes for CharacterDeleteResult.
const (
	DeleteGuildCharacter      = 0x00
	DeleteSuccess             = 0x01
	DeleteInvalidSecurityCode = 0x02
	DeleteBlocked             = 0x03
)

// CharacterDeleteResult (C1:F3:02) reports a deletion outcome.
type CharacterDeleteResult struct {
	Result byte
}

func (m *CharacterDeleteResult) Packet() *Packet {
	return &Packet{Kind: Plain8, Code: CodeCharacter, Payload: []byte{SubCharacterDelete, m.Result}}
}

func ParseCharacterDeleteResult(p *Packet) (*CharacterDeleteResult, error) {
	if len(p.Payload) < 2 {
		return nil, framingErrorf("character delete result payload too short: %d", len(p.Payload))
	}
	return &CharacterDeleteResult{Result: p.Payload[1]}, nil
}

// CharacterSelect (C1:F3:03) picks one of the account's characters for
// world entry.
type CharacterSelect struct {
	Name string
}

func (m *CharacterSelect) Packet() *Packet {
	payload := make([]byte, 1+10)
	payload[0] = SubCharacterSelect
	putFixedString(payload[1:11], m.Name)
	return &Packet{Kind: Plain8, Code: CodeCharacter, Payload: payload}
}

func ParseCharacterSelect(p *Packet) (*CharacterSelect, error) {
	if len(p.Payload) < 11 {
		return nil, framingErrorf("character select payload too short: %d", len(p.Payload))
	}
	return &CharacterSelect{Name: fixedString(p.Payload[1:11])}, nil
}

// CharacterJoin (C1:F3:03) describes the selected character upon entering
// the world.
type CharacterJoin struct {
	X              byte
	Y              byte
	World          byte
	Direction      byte
	Experience     uint32
	NextExperience uint32
	Points         uint16
	Strength       uint16
	Agility        uint16
	Vitality       uint16
	Energy         uint16
	Health         uint16
	HealthMax      uint16
	Mana           uint16
	ManaMax        uint16
	Money          uint32
	HeroStatus     byte
	Ctl            byte
}

func (m *CharacterJoin) Packet() *Packet {
	payload := make([]byte, 37)
	payload[0] = SubCharacterSelect
	payload[1] = m.X
	payload[2] = m.Y
	payload[3] = m.World
	payload[4] = m.Direction
	binary.LittleEndian.PutUint32(payload[5:9], m.Experience)
	binary.LittleEndian.PutUint32(payload[9:13], m.NextExperience)
	binary.LittleEndian.PutUint16(payload[13:15], m.Points)
	binary.LittleEndian.PutUint16(payload[15:17], m.Strength)
	binary.LittleEndian.PutUint16(payload[17:19], m.Agility)
	binary.LittleEndian.PutUint16(payload[19:21], m.Vitality)
	binary.LittleEndian.PutUint16(payload[21:23], m.Energy)
	binary.LittleEndian.PutUint16(payload[23:25], m.Health)
	binary.LittleEndian.PutUint16(payload[25:27], m.HealthMax)
	binary.LittleEndian.PutUint16(payload[27:29], m.Mana)
	binary.LittleEndian.PutUint16(payload[29:31], m.ManaMax)
	binary.LittleEndian.PutUint32(payload[31:35], m.Money)
	payload[35] = m.HeroStatus
	payload[36] = m.Ctl
	return &Packet{Kind: Plain8, Code: CodeCharacter, Payload: payload}
}

func ParseCharacterJoin(p *Packet) (*CharacterJoin, error) {
	if len(p.Payload) < 37 {
		return nil, framingErrorf("character join payload too short: %d", len(p.Payload))
	}
	return &CharacterJoin{
		X:              p.Payload[1],
		Y:              p.Payload[2],
		World:          p.Payload[3],
		Direction:      p.Payload[4],
		Experience:     binary.LittleEndian.Uint32(p.Payload[5:9]),
		NextExperience: binary.LittleEndian.Uint32(p.Payload[9:13]),
		Points:         binary.LittleEndian.Uint16(p.Payload[13:15]),
		Strength:       binary.LittleEndian.Uint16(p.Payload[15:17]),
		Agility:        binary.LittleEndian.Uint16(p.Payload[17:19]),
		Vitality:       binary.LittleEndian.Uint16(p.Payload[19:21]),
		Energy:         binary.LittleEndian.Uint16(p.Payload[21:23]),
		Health:         binary.LittleEndian.Uint16(p.Payload[23:25]),
		HealthMax:      binary.LittleEndian.Uint16(p.Payload[25:27]),
		Mana:           binary.LittleEndian.Uint16(p.Payload[27:29]),
		ManaMax:        binary.LittleEndian.Uint16(p.Payload[29:31]),
		Money:          binary.LittleEndian.Uint32(p.Payload[31:35]),
		HeroStatus:     p.Payload[35],
		Ctl:            p.Payload[36],
	}, nil
}

// KillCount (C1:F3:04) carries the character's player kill count on world
// entry.
type KillCount struct {
	Kills byte
}

func (m *KillCount) Packet() *Packet {
	return &Packet{Kind: Plain8, Code: CodeCharacter, Payload: []byte{SubKillCount, m.Kills}}
}

func ParseKillCount(p *Packet) (*KillCount, error) {
	if len(p.Payload) < 2 {
		return nil, framingErrorf("kill count payload too short: %d", len(p.Payload))
	}
	return &KillCount{Kills: p.Payload[1]}, nil
}

// InventoryEntry is one item row of the inventory snapshot. The item code
// bytes are the bin-packed representation owned by the persistence layer
// and are treated as opaque here.
type InventoryEntry struct {
	Slot byte
	Item [12]byte
}

const inventoryEntrySize = 1 + 12

// InventoryList (C4:F3:10) is the character's inventory snapshot sent on
// world entry. It uses the encrypted 16-bit framing since a full inventory
// exceeds an 8-bit frame.
type InventoryList struct {
	Entries []InventoryEntry
}

func (m *InventoryList) Packet() *Packet {
	payload := make([]byte, 2+inventoryEntrySize*len(m.Entries))
	payload[0] = SubInventoryList
	payload[1] = byte(len(m.Entries))
	for i, entry := range m.Entries {
		off := 2 + inventoryEntrySize*i
		payload[off] = entry.Slot
		copy(payload[off+1:off+13], entry.Item[:])
	}
	return &Packet{Kind: Encrypted16, Code: CodeCharacter, Payload: payload}
}

func ParseInventoryList(p *Packet) (*InventoryList, error) {
	if len(p.Payload) < 2 {
		return nil, framingErrorf("inventory list payload too short: %d", len(p.Payload))
	}
	count := int(p.Payload[1])
	if len(p.Payload) < 2+inventoryEntrySize*count {
		return nil, framingErrorf("inventory list truncated: %d entries in %d bytes", count, len(p.Payload))
	}
	list := &InventoryList{}
	for i := 0; i < count; i++ {
		off := 2 + inventoryEntrySize*i
		entry := InventoryEntry{Slot: p.Payload[off]}
		copy(entry.Item[:], p.Payload[off+1:off+13])
		list.Entries = append(list.Entries, entry)
	}
	return list, nil
}

// Message display types for the C1:0D multicast text packet.
const (
	MessageAlert  = 0
	MessageNotice = 1
	MessageGuild  = 2
)

// Message (C1:0D) is server-pushed display text; the lobby uses the Notice
// variant for the message of the day.
type Message struct {
	Type byte
	Text string
}

// Notice builds the MOTD message shown in the upper left of the client.
func Notice(text string) *Message {
	return &Message{Type: MessageNotice, Text: text}
}

func (m *Message) Packet() *Packet {
	// type, count, padding, delay(2), color(4), speed, text(60), padding
	payload := make([]byte, 10+60+1)
	payload[0] = m.Type
	putFixedString(payload[10:70], m.Text)
	return &Packet{Kind: Plain8, Code: CodeMessage, Payload: payload}
}

func ParseMessage(p *Packet) (*Message, error) {
	if len(p.Payload) < 70 {
		return nil, framingErrorf("message payload too short: %d", len(p.Payload))
	}
	return &Message{Type: p.Payload[0], Text: fixedString(p.Payload[10:70])}, nil
}
