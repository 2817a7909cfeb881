package proto

import (
	"testing"

	"github.com/go-test/deep"
)

func TestConnectServerRequest_Parse(t *testing.T) {
	packet := &Packet{Kind: Plain8, Code: CodeConnectRequest, Payload: []byte{0x00, 0x00, 0x01}}
	req, err := ParseConnectServerRequest(packet)
	if err != nil {
		t.Fatalf("ParseConnectServerRequest() returned an unexpected error: %v", err)
	}
	if req.Version != ConnectVersion {
		t.Errorf("expected version %v, got %v", ConnectVersion, req.Version)
	}
}

func TestConnectServerResult_Packet(t *testing.T) {
	tests := map[string]struct {
		success  bool
		expected []byte
	}{
		"accepted": {success: true, expected: []byte{1}},
		"rejected": {success: false, expected: []byte{0}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			packet := (&ConnectServerResult{Success: tt.success}).Packet()
			if packet.Code != CodeConnectResult {
				t.Errorf("expected code %#x, got %#x", CodeConnectResult, packet.Code)
			}
			if diff := deep.Equal(packet.Payload, tt.expected); diff != nil {
				t.Error(diff)
			}
		})
	}
}

func TestGameServerConnect_RoundTrip(t *testing.T) {
	msg := &GameServerConnect{Host: "192.168.1.20", Port: 55901}
	parsed, err := ParseGameServerConnect(msg.Packet())
	if err != nil {
		t.Fatalf("ParseGameServerConnect() returned an unexpected error: %v", err)
	}
	if diff := deep.Equal(parsed, msg); diff != nil {
		t.Error(diff)
	}
}

func TestGameServerConnectRequest_Parse(t *testing.T) {
	packet := &Packet{Kind: Plain8, Code: CodeServerBrowse, Payload: []byte{SubServerConnect, 0x18, 0x00}}
	req, err := ParseGameServerConnectRequest(packet)
	if err != nil {
		t.Fatalf("ParseGameServerConnectRequest() returned an unexpected error: %v", err)
	}
	if req.ID != 24 {
		t.Errorf("expected server id 24, got %d", req.ID)
	}
}

func TestServerLoad_Byte(t *testing.T) {
	tests := map[string]struct {
		load     ServerLoad
		expected byte
	}{
		"idle":         {load: ServerLoad{Load: 0}, expected: 0},
		"quarter full": {load: ServerLoad{Load: 0.25}, expected: 25},
		"half full":    {load: ServerLoad{Load: 0.5}, expected: 50},
		"full":         {load: ServerLoad{Load: 1.0}, expected: 99},
		"over full":    {load: ServerLoad{Load: 1.7}, expected: 99},
		"negative":     {load: ServerLoad{Load: -0.3}, expected: 0},
		"preparing":    {load: ServerLoad{Preparing: true, Load: 0.5}, expected: 0x80},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if b := tt.load.Byte(); b != tt.expected {
				t.Errorf("expected byte %#x, got %#x", tt.expected, b)
			}
		})
	}
}

func TestServerLoadFromByte(t *testing.T) {
	if load := ServerLoadFromByte(0x80); !load.Preparing {
		t.Error("expected the preparing bit to be honored")
	}
	if load := ServerLoadFromByte(25); load.Preparing || load.Load != 0.25 {
		t.Errorf("expected a 0.25 load, got %+v", load)
	}
}

func TestGameServerList_RoundTrip(t *testing.T) {
	msg := &GameServerList{Entries: []GameServerListEntry{
		{Code: 0, Load: ServerLoad{Load: 0.25}},
		{Code: 24, Load: ServerLoad{Load: 0.5}},
		{Code: 41, Load: ServerLoad{Preparing: true}},
	}}

	packet := msg.Packet()
	if packet.Kind != Plain16 {
		t.Errorf("server list must use 16-bit framing, got %s", packet.Kind)
	}
	parsed, err := ParseGameServerList(packet)
	if err != nil {
		t.Fatalf("ParseGameServerList() returned an unexpected error: %v", err)
	}
	if diff := deep.Equal(parsed, msg); diff != nil {
		t.Error(diff)
	}
}

func TestJoinResult_RoundTrip(t *testing.T) {
	tests := map[string]*JoinResult{
		"success": JoinSuccess(3),
		"failure": JoinFailure(),
	}

	for name, msg := range tests {
		t.Run(name, func(t *testing.T) {
			parsed, err := ParseJoinResult(msg.Packet())
			if err != nil {
				t.Fatalf("ParseJoinResult() returned an unexpected error: %v", err)
			}
			if diff := deep.Equal(parsed, msg); diff != nil {
				t.Error(diff)
			}
		})
	}
}

func TestAccountLoginRequest_RoundTrip(t *testing.T) {
	msg := &AccountLoginRequest{
		Username: "hayate",
		Password: "secret",
		Time:     0x12345678,
		Version:  GameVersion,
	}
	copy(msg.Serial[:], "ugkgameshield000")

	parsed, err := ParseAccountLoginRequest(msg.Packet())
	if err != nil {
		t.Fatalf("ParseAccountLoginRequest() returned an unexpected error: %v", err)
	}
	if diff := deep.Equal(parsed, msg); diff != nil {
		t.Error(diff)
	}
}

func TestAccountLoginResult_RoundTrip(t *testing.T) {
	results := []LoginResult{
		LoginIncorrectPassword,
		LoginSuccess,
		LoginInvalidAccount,
		LoginAlreadyConnected,
		LoginServerIsFull,
		LoginInvalidGameVersion,
		LoginTooManyAttempts,
	}

	for _, result := range results {
		msg := &AccountLoginResult{Result: result}
		parsed, err := ParseAccountLoginResult(msg.Packet())
		if err != nil {
			t.Fatalf("ParseAccountLoginResult() returned an unexpected error: %v", err)
		}
		if parsed.Result != result {
			t.Errorf("expected result %#x, got %#x", result, parsed.Result)
		}
	}
}

func TestCharacterList_RoundTrip(t *testing.T) {
	msg := &CharacterList{
		MaxClass: 1,
		Entries: []CharacterListEntry{
			{Slot: 0, Name: "Arthur", Level: 150, Class: 0x20, Guild: 0xFF},
			{Slot: 2, Name: "Morgana", Level: 12, Ctl: 1, Class: 0x10, Guild: 0xFF},
		},
	}
	msg.Entries[0].Equipment[3] = 0x42

	parsed, err := ParseCharacterList(msg.Packet())
	if err != nil {
		t.Fatalf("ParseCharacterList() returned an unexpected error: %v", err)
	}
	if diff := deep.Equal(parsed, msg); diff != nil {
		t.Error(diff)
	}
}

func TestCharacterList_Empty(t *testing.T) {
	parsed, err := ParseCharacterList((&CharacterList{MaxClass: 1}).Packet())
	if err != nil {
		t.Fatalf("ParseCharacterList() returned an unexpected error: %v", err)
	}
	if len(parsed.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(parsed.Entries))
	}
}

func TestCharacterCreateResult_RoundTrip(t *testing.T) {
	tests := map[string]*CharacterCreateResult{
		"success":       {Result: CreateSuccess, Name: "Arthur", Slot: 1, Level: 1, Class: 0x20},
		"invalid name":  {Result: CreateInvalidName},
		"limit reached": {Result: CreateLimitReached},
	}

	for name, msg := range tests {
		t.Run(name, func(t *testing.T) {
			parsed, err := ParseCharacterCreateResult(msg.Packet())
			if err != nil {
				t.Fatalf("ParseCharacterCreateResult() returned an unexpected error: %v", err)
			}
			if diff := deep.Equal(parsed, msg); diff != nil {
				t.Error(diff)
			}
		})
	}
}

func TestCharacterDelete_RoundTrip(t *testing.T) {
	msg := &CharacterDelete{Name: "Arthur", SecurityCode: "12345"}
	parsed, err := ParseCharacterDelete(msg.Packet())
	if err != nil {
		t.Fatalf("ParseCharacterDelete() returned an unexpected error: %v", err)
	}
	if diff := deep.Equal(parsed, msg); diff != nil {
		t.Error(diff)
	}
}

func TestCharacterJoin_RoundTrip(t *testing.T) {
	msg := &CharacterJoin{
		X: 125, Y: 120, World: 0, Direction: 2,
		Experience: 40000, NextExperience: 51200,
		Points: 10, Strength: 28, Agility: 20, Vitality: 25, Energy: 10,
		Health: 110, HealthMax: 110, Mana: 40, ManaMax: 40,
		Money: 125000,
	}
	parsed, err := ParseCharacterJoin(msg.Packet())
	if err != nil {
		t.Fatalf("ParseCharacterJoin() returned an unexpected error: %v", err)
	}
	if diff := deep.Equal(parsed, msg); diff != nil {
		t.Error(diff)
	}
}

func TestInventoryList_RoundTrip(t *testing.T) {
	msg := &InventoryList{Entries: []InventoryEntry{
		{Slot: 0, Item: [12]byte{0x01, 0x02}},
		{Slot: 12, Item: [12]byte{0xFF}},
	}}

	packet := msg.Packet()
	if packet.Kind != Encrypted16 {
		t.Errorf("inventory list must use encrypted 16-bit framing, got %s", packet.Kind)
	}
	parsed, err := ParseInventoryList(packet)
	if err != nil {
		t.Fatalf("ParseInventoryList() returned an unexpected error: %v", err)
	}
	if diff := deep.Equal(parsed, msg); diff != nil {
		t.Error(diff)
	}
}

func TestMessage_RoundTrip(t *testing.T) {
	msg := Notice("Welcome to the server")
	parsed, err := ParseMessage(msg.Packet())
	if err != nil {
		t.Fatalf("ParseMessage() returned an unexpected error: %v", err)
	}
	if diff := deep.Equal(parsed, msg); diff != nil {
		t.Error(diff)
	}
}

func TestClientTime_Parse(t *testing.T) {
	packet := &Packet{Kind: Plain8, Code: CodeClientTime, Payload: []byte{
		SubClientTime, 0x78, 0x56, 0x34, 0x12, 0x2C, 0x01, 0x90, 0x01,
	}}
	parsed, err := ParseClientTime(packet)
	if err != nil {
		t.Fatalf("ParseClientTime() returned an unexpected error: %v", err)
	}
	expected := &ClientTime{Time: 0x12345678, AttackSpeed: 300, MagicSpeed: 400}
	if diff := deep.Equal(parsed, expected); diff != nil {
		t.Error(diff)
	}
}

func TestPacket_String(t *testing.T) {
	tests := map[string]struct {
		packet   *Packet
		expected string
	}{
		"subcode family": {
			packet:   &Packet{Kind: Plain8, Code: CodeCharacter, Payload: []byte{SubCharacterCreate, 0}},
			expected: "C1:F3:01 (2 bytes)",
		},
		"plain code": {
			packet:   &Packet{Kind: Plain8, Code: CodeConnectResult, Payload: []byte{1}},
			expected: "C1:00 (1 bytes)",
		},
		"empty payload": {
			packet:   &Packet{Kind: Plain8, Code: CodeCharacter, Payload: []byte{}},
			expected: "C1:F3 (0 bytes)",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tt.packet.String(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestFixedStrings(t *testing.T) {
	buf := make([]byte, 10)
	putFixedString(buf, "toolongusername")
	if got := fixedString(buf); got != "toolonguse" {
		t.Errorf("expected truncation to 10 bytes, got %q", got)
	}

	putFixedString(buf, "abc")
	if got := fixedString(buf); got != "abc" {
		t.Errorf("expected NUL-trimmed string, got %q", got)
	}
}
