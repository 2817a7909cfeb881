// Package game implements the GAME server: the server a client is
// redirected to after picking an entry from the connect server's directory.
// It owns the login sequence, the character lobby, and world entry.
package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mugo/server/internal/auth"
	"github.com/mugo/server/internal/core"
	"github.com/mugo/server/internal/core/client"
	"github.com/mugo/server/internal/proto"
	"github.com/mugo/server/internal/registry"
	"github.com/mugo/server/internal/status"
)

// Server is the GAME server implementation. Each session advances through
// the player states; Handle dispatches on the current state so that a
// message arriving out of order terminates the session.
type Server struct {
	Name     string
	Config   *core.Config
	Logger   *logrus.Logger
	Registry *registry.Registry
	DB       *gorm.DB
	Auth     *auth.Authenticator

	version  [5]byte
	serial   [16]byte
	handlers []PacketHandler
}

func (s *Server) Identifier() string {
	return s.Name
}

func (s *Server) Init(_ context.Context) error {
	s.version = proto.GameVersion
	if v := s.Config.GameServer.ClientVersion; v != "" {
		if len(v) != len(s.version) {
			return fmt.Errorf("client_version must be exactly %d characters", len(s.version))
		}
		copy(s.version[:], v)
	}
	if serial := s.Config.GameServer.ClientSerial; serial != "" {
		if len(serial) != len(s.serial) {
			return fmt.Errorf("client_serial must be exactly %d characters", len(s.serial))
		}
		copy(s.serial[:], serial)
	}
	return nil
}

func (s *Server) SetUpClient(c *client.Client) {
	c.Codec = proto.GameCodec(proto.DefaultServerKey, proto.DefaultClientKey)
}

// Handshake admits the client against the server's capacity. Admitted
// clients get their allocated id in the join result; rejected ones get a
// failure result before the connection closes.
func (s *Server) Handshake(c *client.Client) error {
	id, ok := s.Registry.Add(c)
	if !ok {
		if err := c.Send(proto.JoinFailure()); err != nil {
			s.Logger.Warnf("error sending join rejection to %s: %s", c.IPAddr(), err)
		}
		return fmt.Errorf("game server at capacity (%d)", s.Registry.MaxClients())
	}

	// The wire field is 16 bits; the full registry id stays authoritative
	// on the server side.
	if err := c.Send(proto.JoinSuccess(uint16(id))); err != nil {
		// The slot must not outlive a client that never saw its join result.
		s.Registry.Remove(id)
		return err
	}
	c.ID = id
	return nil
}

func (s *Server) Handle(ctx context.Context, c *client.Client, p *proto.Packet) error {
	// Heartbeats are legal in every state and carry nothing we act on.
	if p.Code == proto.CodeClientTime {
		return nil
	}

	switch c.State {
	case client.StateLoginScreen:
		return s.handleLoginScreen(c, p)
	case client.StateAuthenticated, client.StateCharacterSelection:
		return s.handleLobby(c, p)
	case client.StateTeleporting, client.StateDead:
		return s.dispatch(ctx, c, p)
	}
	return fmt.Errorf("client %s in unknown state %s", c.IPAddr(), c.State)
}

// handleLoginScreen admits exactly one message: the login request. A
// client poking at lobby or world operations before authenticating is
// broken or hostile, and the session ends.
func (s *Server) handleLoginScreen(c *client.Client, p *proto.Packet) error {
	if p.Code != proto.CodeAccount || p.Subcode() != proto.SubAccountLogin {
		return fmt.Errorf("client %s sent %s before authenticating", c.IPAddr(), p)
	}

	request, err := proto.ParseAccountLoginRequest(p)
	if err != nil {
		return err
	}
	return s.handleLogin(c, request)
}

func (s *Server) handleLogin(c *client.Client, request *proto.AccountLoginRequest) error {
	if request.Version != s.version || request.Serial != s.serial {
		if err := c.Send(&proto.AccountLoginResult{Result: proto.LoginInvalidGameVersion}); err != nil {
			return err
		}
		return fmt.Errorf("client %s sent version %v serial %q", c.IPAddr(), request.Version, request.Serial)
	}

	account, err := s.Auth.Login(request.Username, request.Password)
	if err != nil {
		return s.handleLoginFailure(c, request.Username, err)
	}

	c.Account = account
	c.State = client.StateAuthenticated
	s.Logger.Infof("[%s] account %s logged in (session %s)", s.Name, account.Username, c.SessionID)

	return c.Send(&proto.AccountLoginResult{Result: proto.LoginSuccess})
}

// handleLoginFailure maps an authentication error to its wire result. Most
// failures leave the session at the login screen for another attempt; a
// lockout ends it.
func (s *Server) handleLoginFailure(c *client.Client, username string, err error) error {
	var result proto.LoginResult
	switch {
	// Unknown usernames and wrong passwords share one result so the login
	// form cannot be used to enumerate accounts. The logs keep the
	// distinction.
	case errors.Is(err, auth.ErrInvalidUsername), errors.Is(err, auth.ErrInvalidPassword):
		result = proto.LoginInvalidAccount
	case errors.Is(err, auth.ErrAlreadyConnected):
		result = proto.LoginAlreadyConnected
	case errors.Is(err, auth.ErrTooManyAttempts):
		result = proto.LoginTooManyAttempts
	default:
		s.Logger.Errorf("[%s] error authenticating %s: %s", s.Name, username, err)
		result = proto.LoginError
	}

	s.Logger.Infof("[%s] login rejected for %s: %s", s.Name, username, err)
	if sendErr := c.Send(&proto.AccountLoginResult{Result: result}); sendErr != nil {
		return sendErr
	}

	if result == proto.LoginTooManyAttempts || result == proto.LoginError {
		return err
	}
	return nil
}

// Disconnect releases the client's slot and clears any login the session
// holds so the account can connect again.
func (s *Server) Disconnect(c *client.Client) {
	s.Registry.Remove(c.ID)

	if c.Account != nil {
		if err := s.Auth.Logout(c.Account); err != nil {
			s.Logger.Warnf("[%s] error logging out %s: %s", s.Name, c.Account.Username, err)
		}
	}
}

// ServerStatus reports the game server's identity and occupancy for the
// connect tier's browser.
func (s *Server) ServerStatus() status.Status {
	return status.Status{
		ID:         uint16(s.Config.GameServer.ID),
		Host:       s.Config.ExternalIP,
		Port:       uint16(s.Config.GameServer.Port),
		Clients:    s.Registry.Count(),
		MaxClients: s.Registry.MaxClients(),
	}
}
