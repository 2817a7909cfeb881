// Package proto implements the MU Online season 2 wire protocol: the
// length-prefixed C1-C4 packet framing, the per-direction cipher layering,
// and the message catalogue exchanged with the 1.02c game client.
package proto

import "fmt"

// Kind is the framing class marker that leads every packet. It selects the
// width of the length prefix and whether the keyed cipher layer applies.
type Kind byte

const (
	// Plain8 frames carry a 1-byte length and no keyed cipher.
	Plain8 Kind = 0xC1
	// Plain16 frames carry a 2-byte big-endian length and no keyed cipher.
	Plain16 Kind = 0xC2
	// Encrypted8 frames carry a 1-byte length and a keyed cipher body.
	Encrypted8 Kind = 0xC3
	// Encrypted16 frames carry a 2-byte big-endian length and a keyed cipher body.
	Encrypted16 Kind = 0xC4
)

// HeaderSize returns the number of bytes occupied by the kind marker and
// the length prefix for this framing class.
func (k Kind) HeaderSize() int {
	switch k {
	case Plain8, Encrypted8:
		return 2
	case Plain16, Encrypted16:
		return 3
	}
	return 0
}

// Encrypted reports whether the keyed cipher layer applies to this kind.
func (k Kind) Encrypted() bool {
	return k == Encrypted8 || k == Encrypted16
}

func (k Kind) valid() bool {
	return k.HeaderSize() != 0
}

func (k Kind) String() string {
	switch k {
	case Plain8:
		return "C1"
	case Plain16:
		return "C2"
	case Encrypted8:
		return "C3"
	case Encrypted16:
		return "C4"
	}
	return fmt.Sprintf("Kind(%#x)", byte(k))
}

// Packet is one framed protocol message. Code identifies the message type;
// for message families sharing one code the first payload byte is a subcode.
type Packet struct {
	Kind    Kind
	Code    byte
	Payload []byte
}

// Subcode returns the first payload byte, which disambiguates message
// families sharing one code. Returns 0 for an empty payload.
func (p *Packet) Subcode() byte {
	if len(p.Payload) == 0 {
		return 0
	}
	return p.Payload[0]
}

func (p *Packet) String() string {
	if hasSubcode(p.Code) && len(p.Payload) > 0 {
		return fmt.Sprintf("%s:%02X:%02X (%d bytes)", p.Kind, p.Code, p.Payload[0], len(p.Payload))
	}
	return fmt.Sprintf("%s:%02X (%d bytes)", p.Kind, p.Code, len(p.Payload))
}

// Message codes used by the connect and game tiers.
const (
	CodeConnectResult  = 0x00 // connect tier handshake result
	CodeMessage        = 0x0D // server-pushed notice/alert text
	CodeClientTime     = 0x0E // periodic client heartbeat
	CodeConnectRequest = 0xA9 // connect tier handshake request
	CodeAccount        = 0xF1 // join/login family
	CodeCharacter      = 0xF3 // character lobby family
	CodeServerBrowse   = 0xF4 // game server list/connect family
)

// Subcodes of the CodeAccount family.
const (
	SubJoinResult   = 0x00
	SubAccountLogin = 0x01
)

// Subcodes of the CodeCharacter family.
const (
	SubCharacterList   = 0x00
	SubCharacterCreate = 0x01
	SubCharacterDelete = 0x02
	SubCharacterSelect = 0x03
	SubKillCount       = 0x04
	SubInventoryList   = 0x10
)

// Subcodes of the CodeServerBrowse family.
const (
	SubServerConnect = 0x03
	SubServerList    = 0x06
)

// Subcodes of the CodeClientTime family.
const (
	SubClientTime = 0x00
)

// hasSubcode reports whether packets with the given code carry a subcode as
// their first payload byte.
func hasSubcode(code byte) bool {
	switch code {
	case CodeClientTime, CodeAccount, CodeCharacter, CodeServerBrowse:
		return true
	}
	return false
}
