package proto

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrIncomplete is returned by Decode when the buffer holds only part of a
// frame. It is not a failure; the caller should read more bytes and retry.
var ErrIncomplete = errors.New("incomplete frame")

// FramingError marks an unrecoverable defect in the byte stream. A
// connection that produces one cannot be resynchronized and must be closed.
type FramingError struct {
	reason string
}

func (e *FramingError) Error() string {
	return "framing error: " + e.reason
}

func framingErrorf(format string, args ...interface{}) error {
	return &FramingError{reason: fmt.Sprintf(format, args...)}
}

// DirectionState holds the cipher configuration for one direction of a
// connection. Immutable once constructed.
type DirectionState struct {
	mask   xorMask
	cipher BlockCipher
}

// NewDirectionState builds the state for one direction. Either layer may be
// nil: mask disables the static XOR, cipher disables the keyed layer (in
// which case Encrypted kinds are rejected on this direction).
func NewDirectionState(mask []byte, cipher BlockCipher) DirectionState {
	return DirectionState{mask: xorMask(mask), cipher: cipher}
}

// Codec frames and deframes packets for one connection. Two independent
// direction states compose it: the connect tier uses XOR-only receive and a
// pass-through send, the game tier adds the keyed cipher on both directions.
type Codec struct {
	send DirectionState
	recv DirectionState
}

func NewCodec(send, recv DirectionState) *Codec {
	return &Codec{send: send, recv: recv}
}

// Maximum body lengths per framing class (frame length limit minus the
// header).
const (
	maxBody8  = 0xFF - 2
	maxBody16 = 0xFFFF - 3
)

// Encode frames p using the send direction state. The body (code + payload)
// is XOR-masked first, then passed through the keyed cipher for Encrypted
// kinds; Decode reverses the layers in the opposite order.
func (c *Codec) Encode(p *Packet) ([]byte, error) {
	if !p.Kind.valid() {
		return nil, framingErrorf("unknown kind byte %#x", byte(p.Kind))
	}

	body := make([]byte, 1+len(p.Payload))
	body[0] = p.Code
	copy(body[1:], p.Payload)

	header := p.Kind.HeaderSize()
	if p.Kind.Encrypted() {
		if c.send.cipher == nil {
			return nil, framingErrorf("%s frame with no send cipher configured", p.Kind)
		}
		if len(body)%c.send.cipher.BlockSize() != 0 {
			return nil, framingErrorf("%s body length %d not a multiple of cipher block size %d",
				p.Kind, len(body), c.send.cipher.BlockSize())
		}
	}
	if header == 2 && len(body) > maxBody8 {
		return nil, framingErrorf("%s body length %d exceeds 8-bit frame", p.Kind, len(body))
	}
	if header == 3 && len(body) > maxBody16 {
		return nil, framingErrorf("%s body length %d exceeds 16-bit frame", p.Kind, len(body))
	}

	c.send.mask.apply(body)
	if p.Kind.Encrypted() {
		c.send.cipher.Encrypt(body)
	}

	frame := make([]byte, header+len(body))
	frame[0] = byte(p.Kind)
	if header == 2 {
		frame[1] = byte(header + len(body))
	} else {
		binary.BigEndian.PutUint16(frame[1:3], uint16(header+len(body)))
	}
	copy(frame[header:], body)
	return frame, nil
}

// Decode extracts the first complete packet from buf using the receive
// direction state, returning the packet and the number of bytes consumed.
// ErrIncomplete means the caller must buffer more bytes; any *FramingError
// is fatal to the connection.
func (c *Codec) Decode(buf []byte) (*Packet, int, error) {
	if len(buf) == 0 {
		return nil, 0, ErrIncomplete
	}

	kind := Kind(buf[0])
	if !kind.valid() {
		return nil, 0, framingErrorf("unknown kind byte %#x", buf[0])
	}

	header := kind.HeaderSize()
	if len(buf) < header {
		return nil, 0, ErrIncomplete
	}

	var frameLen int
	if header == 2 {
		frameLen = int(buf[1])
	} else {
		frameLen = int(binary.BigEndian.Uint16(buf[1:3]))
	}
	// A frame must at least hold its header and a message code.
	if frameLen < header+1 {
		return nil, 0, framingErrorf("declared length %d below minimum for %s", frameLen, kind)
	}
	if len(buf) < frameLen {
		return nil, 0, ErrIncomplete
	}

	body := make([]byte, frameLen-header)
	copy(body, buf[header:frameLen])

	if kind.Encrypted() {
		if c.recv.cipher == nil {
			return nil, 0, framingErrorf("%s frame with no receive cipher configured", kind)
		}
		if len(body)%c.recv.cipher.BlockSize() != 0 {
			return nil, 0, framingErrorf("%s body length %d not a multiple of cipher block size %d",
				kind, len(body), c.recv.cipher.BlockSize())
		}
		c.recv.cipher.Decrypt(body)
	}
	c.recv.mask.apply(body)

	return &Packet{Kind: kind, Code: body[0], Payload: body[1:]}, frameLen, nil
}

// ConnectCodec returns the codec used by the connect tier: XOR-masked
// receive, pass-through send, no keyed cipher on either direction.
func ConnectCodec() *Codec {
	return NewCodec(
		NewDirectionState(nil, nil),
		NewDirectionState(DefaultClientMask, nil),
	)
}

// GameCodec returns the codec used by the game tier: XOR-masked receive and
// the keyed cipher on both directions.
func GameCodec(serverKey, clientKey []byte) *Codec {
	return NewCodec(
		NewDirectionState(nil, NewStreamCipher(serverKey)),
		NewDirectionState(DefaultClientMask, NewStreamCipher(clientKey)),
	)
}
