// Package connect implements the CONNECT server: the first server a game
// client talks to, responsible for advertising the game server directory and
// redirecting clients to their chosen server.
package connect

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mugo/server/internal/browser"
	"github.com/mugo/server/internal/core"
	"github.com/mugo/server/internal/core/client"
	"github.com/mugo/server/internal/proto"
	"github.com/mugo/server/internal/registry"
	"github.com/mugo/server/internal/status"
)

// Directory is the view of the game server browser the connect server
// answers client queries from.
type Directory interface {
	QueryAll(ctx context.Context) []browser.Server
	Query(code browser.ServerCode) (*browser.Server, error)
}

// Server is the CONNECT server implementation. It holds no game state;
// every client interaction is answered from the browser's directory.
type Server struct {
	Name     string
	Config   *core.Config
	Logger   *logrus.Logger
	Registry *registry.Registry
	Browser  Directory
}

func (s *Server) Identifier() string {
	return s.Name
}

func (s *Server) Init(_ context.Context) error {
	return nil
}

func (s *Server) SetUpClient(c *client.Client) {
	c.Codec = proto.ConnectCodec()
}

// Handshake admits the client against the connect server's capacity and
// sends the hello result. A client rejected for capacity still gets a
// response telling it so before the connection closes.
func (s *Server) Handshake(c *client.Client) error {
	id, ok := s.Registry.Add(c)
	if !ok {
		if err := c.Send(&proto.ConnectServerResult{Success: false}); err != nil {
			s.Logger.Warnf("error sending rejection to %s: %s", c.IPAddr(), err)
		}
		return fmt.Errorf("connect server at capacity (%d)", s.Registry.MaxClients())
	}

	if err := c.Send(&proto.ConnectServerResult{Success: true}); err != nil {
		// The slot must not outlive a client that never saw its hello.
		s.Registry.Remove(id)
		return err
	}
	c.ID = id
	return nil
}

func (s *Server) Handle(ctx context.Context, c *client.Client, p *proto.Packet) error {
	switch p.Code {
	case proto.CodeConnectRequest:
		return s.handleConnectRequest(c, p)
	case proto.CodeServerBrowse:
		switch p.Subcode() {
		case proto.SubServerList:
			return s.handleServerListRequest(ctx, c)
		case proto.SubServerConnect:
			return s.handleServerConnectRequest(c, p)
		}
	}

	s.Logger.Infof("received unknown packet %s from %s", p, c.IPAddr())
	return nil
}

// handleConnectRequest validates the client's connect protocol version.
// A mismatch is terminal; there is nothing useful to say to a client
// speaking a different protocol.
func (s *Server) handleConnectRequest(c *client.Client, p *proto.Packet) error {
	request, err := proto.ParseConnectServerRequest(p)
	if err != nil {
		return err
	}
	if request.Version != proto.ConnectVersion {
		return fmt.Errorf("client %s requested unsupported protocol version %v", c.IPAddr(), request.Version)
	}
	return nil
}

// handleServerListRequest refreshes the directory and sends the current
// game server listing.
func (s *Server) handleServerListRequest(ctx context.Context, c *client.Client) error {
	servers := s.Browser.QueryAll(ctx)

	list := &proto.GameServerList{}
	for _, server := range servers {
		list.Entries = append(list.Entries, proto.GameServerListEntry{
			Code: uint16(server.Code),
			Load: proto.ServerLoad{Load: server.Load},
		})
	}

	return c.Send(list)
}

// handleServerConnectRequest answers with the address of the requested game
// server from the directory cache.
func (s *Server) handleServerConnectRequest(c *client.Client, p *proto.Packet) error {
	request, err := proto.ParseGameServerConnectRequest(p)
	if err != nil {
		return err
	}

	server, err := s.Browser.Query(browser.ServerCode(request.ID))
	if err != nil {
		if errors.Is(err, browser.ErrServerNotFound) {
			return fmt.Errorf("client %s requested unknown server %d", c.IPAddr(), request.ID)
		}
		return err
	}

	return c.Send(&proto.GameServerConnect{Host: server.Host, Port: server.Port})
}

func (s *Server) Disconnect(c *client.Client) {
	s.Registry.Remove(c.ID)
}

// ServerStatus reports the connect server's own occupancy for its status
// endpoint.
func (s *Server) ServerStatus() status.Status {
	return status.Status{
		Host:       s.Config.ExternalIP,
		Port:       uint16(s.Config.ConnectServer.Port),
		Clients:    s.Registry.Count(),
		MaxClients: s.Registry.MaxClients(),
	}
}
