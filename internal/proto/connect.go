package proto

import (
	"encoding/binary"
	"math"
)

// ConnectVersion is the connect tier protocol version expected in the
// handshake request.
var ConnectVersion = [3]byte{0x00, 0x00, 0x01}

// ConnectServerRequest (C1:A9) opens the connect tier handshake; the client
// declares its connect protocol version.
type ConnectServerRequest struct {
	Version [3]byte
}

func ParseConnectServerRequest(p *Packet) (*ConnectServerRequest, error) {
	if len(p.Payload) < 3 {
		return nil, framingErrorf("connect request payload too short: %d", len(p.Payload))
	}
	var req ConnectServerRequest
	copy(req.Version[:], p.Payload[:3])
	return &req, nil
}

// ConnectServerResult (C1:00) answers the handshake with a boolean result.
type ConnectServerResult struct {
	Success bool
}

func (m *ConnectServerResult) Packet() *Packet {
	result := byte(0)
	if m.Success {
		result = 1
	}
	return &Packet{Kind: Plain8, Code: CodeConnectResult, Payload: []byte{result}}
}

// GameServerConnectRequest (C1:F4:03) asks for one game server's address.
type GameServerConnectRequest struct {
	ID uint16
}

func ParseGameServerConnectRequest(p *Packet) (*GameServerConnectRequest, error) {
	if len(p.Payload) < 3 {
		return nil, framingErrorf("server connect request payload too short: %d", len(p.Payload))
	}
	return &GameServerConnectRequest{ID: binary.LittleEndian.Uint16(p.Payload[1:3])}, nil
}

// GameServerConnect (C1:F4:03) carries a game server's host and port.
type GameServerConnect struct {
	Host string
	Port uint16
}

func (m *GameServerConnect) Packet() *Packet {
	payload := make([]byte, 1+16+2)
	payload[0] = SubServerConnect
	putFixedString(payload[1:17], m.Host)
	binary.LittleEndian.PutUint16(payload[17:19], m.Port)
	return &Packet{Kind: Plain8, Code: CodeServerBrowse, Payload: payload}
}

func ParseGameServerConnect(p *Packet) (*GameServerConnect, error) {
	if len(p.Payload) < 19 {
		return nil, framingErrorf("server connect payload too short: %d", len(p.Payload))
	}
	return &GameServerConnect{
		Host: fixedString(p.Payload[1:17]),
		Port: binary.LittleEndian.Uint16(p.Payload[17:19]),
	}, nil
}

// GameServerListRequest (C1:F4:06) asks for the full server directory.
type GameServerListRequest struct{}

func (m *GameServerListRequest) Packet() *Packet {
	return &Packet{Kind: Plain8, Code: CodeServerBrowse, Payload: []byte{SubServerList}}
}

// ServerLoad is a game server's load balance byte: the top bit signals
// "preparing", the low 7 bits carry round(load*100) clamped to 0-99.
type ServerLoad struct {
	Preparing bool
	Load      float64
}

const serverLoadPreparing = 1 << 7

func (l ServerLoad) Byte() byte {
	if l.Preparing {
		return serverLoadPreparing
	}
	pct := int(math.Round(l.Load * 100))
	if pct < 0 {
		pct = 0
	}
	if pct > 99 {
		pct = 99
	}
	return byte(pct)
}

func ServerLoadFromByte(b byte) ServerLoad {
	if b&serverLoadPreparing != 0 {
		return ServerLoad{Preparing: true}
	}
	return ServerLoad{Load: float64(b) / 100}
}

// GameServerListEntry is one row of the server selection screen.
type GameServerListEntry struct {
	Code uint16
	Load ServerLoad
}

// The retail client ignores this byte but requires its presence.
const serverListUnused = 0x77

// GameServerList (C2:F4:06) is the full game server directory listing.
type GameServerList struct {
	Entries []GameServerListEntry
}

func (m *GameServerList) Packet() *Packet {
	payload := make([]byte, 3+4*len(m.Entries))
	payload[0] = SubServerList
	binary.BigEndian.PutUint16(payload[1:3], uint16(len(m.Entries)))
	for i, entry := range m.Entries {
		off := 3 + 4*i
		binary.LittleEndian.PutUint16(payload[off:off+2], entry.Code)
		payload[off+2] = entry.Load.Byte()
		payload[off+3] = serverListUnused
	}
	return &Packet{Kind: Plain16, Code: CodeServerBrowse, Payload: payload}
}

func ParseGameServerList(p *Packet) (*GameServerList, error) {
	if len(p.Payload) < 3 {
		return nil, framingErrorf("server list payload too short: %d", len(p.Payload))
	}
	count := int(binary.BigEndian.Uint16(p.Payload[1:3]))
	if len(p.Payload) < 3+4*count {
		return nil, framingErrorf("server list truncated: %d entries in %d bytes", count, len(p.Payload))
	}
	list := &GameServerList{Entries: make([]GameServerListEntry, 0, count)}
	for i := 0; i < count; i++ {
		off := 3 + 4*i
		list.Entries = append(list.Entries, GameServerListEntry{
			Code: binary.LittleEndian.Uint16(p.Payload[off : off+2]),
			Load: ServerLoadFromByte(p.Payload[off+2]),
		})
	}
	return list, nil
}
