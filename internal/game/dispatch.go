package game

import (
	"context"

	"github.com/mugo/server/internal/core/client"
	"github.com/mugo/server/internal/proto"
)

// PacketHandler processes one family of in-world packets. Handlers are
// consulted in registration order; the first one claiming the packet
// handles it.
type PacketHandler interface {
	CanHandle(p *proto.Packet) bool
	Handle(ctx context.Context, c *client.Client, p *proto.Packet) error
}

// RegisterHandler appends a handler to the in-world dispatch chain. Not
// safe to call once the server is accepting clients.
func (s *Server) RegisterHandler(h PacketHandler) {
	s.handlers = append(s.handlers, h)
}

// dispatch routes an in-world packet through the handler chain. Unclaimed
// packets are logged and dropped rather than ending the session; the world
// protocol is large and clients send plenty the server has no use for.
func (s *Server) dispatch(ctx context.Context, c *client.Client, p *proto.Packet) error {
	for _, handler := range s.handlers {
		if handler.CanHandle(p) {
			return handler.Handle(ctx, c, p)
		}
	}

	s.Logger.Debugf("[%s] no handler for %s from %s", s.Name, p, c.IPAddr())
	return nil
}
