package client

import (
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"

	"github.com/mugo/server/internal/core/data"
	"github.com/mugo/server/internal/proto"
)

// PlayerState tracks a session's progression from the login screen to the
// world. Message handling is gated on it: packets arriving in the wrong
// state terminate the session.
type PlayerState int

const (
	// StateLoginScreen is the initial state; only login requests are legal.
	StateLoginScreen PlayerState = iota
	// StateAuthenticated admits the character lobby operations.
	StateAuthenticated
	// StateCharacterSelection is set once the client has its character list.
	StateCharacterSelection
	// StateTeleporting covers world entry and in-world teleports.
	StateTeleporting
	// StateDead marks a character awaiting respawn.
	StateDead
)

func (s PlayerState) String() string {
	switch s {
	case StateLoginScreen:
		return "login screen"
	case StateAuthenticated:
		return "authenticated"
	case StateCharacterSelection:
		return "character selection"
	case StateTeleporting:
		return "teleporting"
	case StateDead:
		return "dead"
	}
	return fmt.Sprintf("PlayerState(%d)", int(s))
}

// Message is any protocol message that can frame itself as a packet.
type Message interface {
	Packet() *proto.Packet
}

// Client represents a user connected through the game client.
type Client struct {
	connection net.Conn
	ipAddr     string
	port       string

	// SessionID correlates every log line belonging to one connection.
	SessionID string

	// ID allocated by the registry when the client is admitted.
	ID uint64

	// Codec responsible for framing and packet encryption.
	Codec *proto.Codec

	// Account associated with the player once authenticated.
	Account *data.Account

	// Character selected for world entry, if any.
	Character *data.Character

	State PlayerState

	Debug bool
}

func NewClient(connection net.Conn) *Client {
	addr := strings.Split(connection.RemoteAddr().String(), ":")

	return &Client{
		connection: connection,
		ipAddr:     addr[0],
		port:       addr[len(addr)-1],
		SessionID:  uuid.New().String(),
		State:      StateLoginScreen,
	}
}

func (c *Client) IPAddr() string { return c.ipAddr }
func (c *Client) Port() string   { return c.port }

// RemoteAddr exposes the connection's remote address for the registry.
func (c *Client) RemoteAddr() net.Addr { return c.connection.RemoteAddr() }

// Read consumes the available bytes directly from the client's TCP connection.
func (c *Client) Read(b []byte) (int, error) {
	return c.connection.Read(b)
}

// Write directly sends data to the client over its TCP connection.
func (c *Client) Write(b []byte) (int, error) {
	return c.connection.Write(b)
}

// Close the TCP connection.
func (c *Client) Close() error {
	return c.connection.Close()
}

// Send frames msg through the client's codec and transmits it.
func (c *Client) Send(msg Message) error {
	return c.SendPacket(msg.Packet())
}

// SendPacket frames p through the client's codec and transmits it.
func (c *Client) SendPacket(p *proto.Packet) error {
	frame, err := c.Codec.Encode(p)
	if err != nil {
		return fmt.Errorf("error encoding %s for client %s: %w", p, c.IPAddr(), err)
	}
	return c.transmit(frame)
}

// transmit writes the contents of data to the TCP connection until all of
// it has been sent.
func (c *Client) transmit(data []byte) error {
	sent := 0

	for sent < len(data) {
		n, err := c.Write(data[sent:])
		if err != nil {
			return fmt.Errorf("failed to send to client %v: %s", c.IPAddr(), err.Error())
		}
		sent += n
	}

	return nil
}
