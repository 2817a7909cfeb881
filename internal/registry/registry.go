// Package registry tracks the connections admitted to a server instance and
// enforces its configured capacity.
package registry

import (
	"net"
	"sync"
)

// Client is the view of a connected session the registry tracks.
type Client interface {
	RemoteAddr() net.Addr
}

// ConnectHook is consulted while a connection is being admitted. Returning
// an error vetoes the admission. Hooks run with the registry lock held and
// must not call back into it.
type ConnectHook interface {
	Connected(id uint64, c Client) error
}

// ConnectHookFunc adapts a function to the ConnectHook interface.
type ConnectHookFunc func(id uint64, c Client) error

func (f ConnectHookFunc) Connected(id uint64, c Client) error { return f(id, c) }

// DisconnectHook is notified after a connection is removed. Hooks run with
// the registry lock held and must not call back into it.
type DisconnectHook interface {
	Disconnected(id uint64, c Client)
}

// DisconnectHookFunc adapts a function to the DisconnectHook interface.
type DisconnectHookFunc func(id uint64, c Client)

func (f DisconnectHookFunc) Disconnected(id uint64, c Client) { f(id, c) }

// Registry is a capacity-bounded set of connected clients keyed by a
// monotonically increasing id. The id counter is 64 bits wide so that it
// never wraps into a live session over any realistic process lifetime.
type Registry struct {
	mu              sync.Mutex
	maxClients      int
	nextID          uint64
	clients         map[uint64]Client
	connectHooks    []ConnectHook
	disconnectHooks []DisconnectHook
}

// New returns an empty registry that will admit at most maxClients
// concurrent connections.
func New(maxClients int) *Registry {
	return &Registry{
		maxClients: maxClients,
		clients:    make(map[uint64]Client),
	}
}

// OnConnect registers a hook consulted during Add. Not safe to call once
// connections are being accepted.
func (r *Registry) OnConnect(h ConnectHook) {
	r.connectHooks = append(r.connectHooks, h)
}

// OnDisconnect registers a hook notified during Remove. Not safe to call
// once connections are being accepted.
func (r *Registry) OnDisconnect(h DisconnectHook) {
	r.disconnectHooks = append(r.disconnectHooks, h)
}

// Add admits c and allocates its id. It reports false, without admitting,
// when the registry is at capacity or a connect hook vetoes the client.
func (r *Registry) Add(c Client) (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.clients) >= r.maxClients {
		return 0, false
	}

	id := r.nextID
	for _, hook := range r.connectHooks {
		if err := hook.Connected(id, c); err != nil {
			return 0, false
		}
	}

	r.nextID++
	r.clients[id] = c
	return id, true
}

// Remove evicts the client with the given id, freeing its capacity slot and
// notifying the disconnect hooks. Removing an unknown id is a no-op.
func (r *Registry) Remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	if !ok {
		return
	}
	delete(r.clients, id)
	for _, hook := range r.disconnectHooks {
		hook.Disconnected(id, c)
	}
}

// Get returns the client registered under id, if any.
func (r *Registry) Get(id uint64) (Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	return c, ok
}

// Count returns the number of admitted clients.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// MaxClients returns the configured capacity.
func (r *Registry) MaxClients() int {
	return r.maxClients
}

// Load returns the occupancy as a fraction of capacity.
func (r *Registry) Load() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxClients == 0 {
		return 1
	}
	return float64(len(r.clients)) / float64(r.maxClients)
}
