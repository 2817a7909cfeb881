package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"

	"github.com/mugo/server/internal/core"
	"github.com/mugo/server/internal/core/client"
	"github.com/mugo/server/internal/proto"
)

// frontend implements the concurrent client connection logic.
//
// Data is read from any connected clients, deframed through the client's
// codec, and passed to a backend instance, abstracting the lower level
// connection details away from the Backends.
type frontend struct {
	Address string
	Backend Backend
	Config  *core.Config
	Logger  *logrus.Logger
}

// Start initializes the server backend and opens a TCP socket for the specified server.
// A blocking loop for accepting client connections is spun off in its own goroutine and
// added to the WaitGroup. Context cancellations will stop the server.
func (f *frontend) Start(ctx context.Context, wg *sync.WaitGroup) error {
	if err := f.Backend.Init(ctx); err != nil {
		return fmt.Errorf("error initializing %s server: %v", f.Backend.Identifier(), err)
	}

	socket, err := f.createSocket()
	if err != nil {
		return fmt.Errorf("error creating socket on %s: %v", f.Address, err)
	}

	wg.Add(1)
	go f.startBlockingLoop(ctx, socket, wg)

	return nil
}

// createSocket opens a TCP socket to listen for client connections on the Address
// provided to the frontend.
func (f *frontend) createSocket() (*net.TCPListener, error) {
	hostAddr, err := net.ResolveTCPAddr("tcp", f.Address)
	if err != nil {
		return nil, fmt.Errorf("error resolving address %s", err.Error())
	}

	socket, err := net.ListenTCP("tcp", hostAddr)
	if err != nil {
		return nil, fmt.Errorf("error listening on socket: %s", err.Error())
	}

	return socket, nil
}

// startBlockingLoop implements a connection handling loop that's purely responsible for
// accepting new connections and spinning off goroutines for the Backend to handle them.
func (f *frontend) startBlockingLoop(ctx context.Context, socket *net.TCPListener, wg *sync.WaitGroup) {
	defer wg.Done()

	f.Logger.Printf("[%s] waiting for connections on %v", f.Backend.Identifier(), f.Address)

	connections := make(chan *net.TCPConn)
	go func() {
		for {
			connection, err := socket.AcceptTCP()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				f.Logger.Warnf("failed to accept connection: %s", err.Error())
				continue
			}

			select {
			case connections <- connection:
			case <-ctx.Done():
				_ = connection.Close()
				return
			}
		}
	}()

	clientWg := &sync.WaitGroup{}
handleLoop:
	for {
		select {
		case <-ctx.Done():
			break handleLoop
		case connection := <-connections:
			clientWg.Add(1)
			// Note: If there is eventually a need to implement worker pooling rather than spawning
			// new goroutines for each client, this is where it should be implemented.
			go f.acceptClient(ctx, connection, clientWg)
		}
	}

	// Closing the listener stops new admissions and unblocks the accept
	// goroutine; established sessions drain below.
	if err := socket.Close(); err != nil {
		f.Logger.Warnf("error closing listener: %s", err)
	}

	f.Logger.Infof("[%v] shutting down (waiting for connections to close)", f.Backend.Identifier())
	clientWg.Wait()
	f.Logger.Infof("[%v] exited", f.Backend.Identifier())
}

// acceptClient takes a connection and attempts to initiate a session by
// setting up the Client and performing the backend's handshake. If it
// succeeds, the goroutine moves into the packet processing loop.
func (f *frontend) acceptClient(ctx context.Context, connection *net.TCPConn, wg *sync.WaitGroup) {
	defer wg.Done()

	c := client.NewClient(connection)
	f.Backend.SetUpClient(c)
	c.Debug = f.Config.Debugging.PacketLoggingEnabled

	f.Logger.Infof("[%s] accepted connection from %s (session %s)",
		f.Backend.Identifier(), c.IPAddr(), c.SessionID)

	if err := f.Backend.Handshake(c); err != nil {
		f.Logger.Infof("[%s] rejected client %s: %s", f.Backend.Identifier(), c.IPAddr(), err)
		_ = connection.Close()
		return
	}

	f.processPackets(ctx, c)
}

// processPackets starts a blocking loop dedicated to reading data sent from
// a game client and only returns once the connection has closed.
func (f *frontend) processPackets(ctx context.Context, c *client.Client) {
	defer f.closeConnectionAndRecover(f.Backend.Identifier(), c)

	buffer := make([]byte, 0, 2048)
	readChunk := make([]byte, 2048)

	for {
		select {
		case <-ctx.Done():
			// For now just allow the deferred function to close the connection.
			return
		default:
		}

		n, err := c.Read(readChunk)
		if err == io.EOF {
			return
		} else if err != nil {
			f.Logger.Warnf("socket error (%s): %s", c.IPAddr(), err)
			return
		}
		buffer = append(buffer, readChunk[:n]...)

		// A single read may complete any number of frames.
		for {
			packet, consumed, err := c.Codec.Decode(buffer)
			if errors.Is(err, proto.ErrIncomplete) {
				break
			}
			if err != nil {
				// Framing errors mean the stream cannot be resynchronized.
				f.Logger.Warnf("[%s] dropping client %s: %s", f.Backend.Identifier(), c.IPAddr(), err)
				return
			}
			buffer = buffer[consumed:]

			if c.Debug {
				f.Logger.Debugf("[%s] received %s from %s\n%s",
					f.Backend.Identifier(), packet, c.IPAddr(), spew.Sdump(packet.Payload))
			}

			if err := f.Backend.Handle(ctx, c, packet); err != nil {
				f.Logger.Warn("error in client communication: " + err.Error())
				return
			}
		}
	}
}

// closeConnectionAndRecover is the failsafe that catches any panics,
// disconnects the client, and releases its backend state regardless of the
// state of the connection.
func (f *frontend) closeConnectionAndRecover(serverName string, c *client.Client) {
	if err := recover(); err != nil {
		f.Logger.Errorf("error in client communication with %s: error=%s, trace: %s",
			c.IPAddr(), err, debug.Stack())
	}

	if err := c.Close(); err != nil {
		f.Logger.Warnf("failed to close client connection: %s", err)
	}

	f.Backend.Disconnect(c)

	f.Logger.Infof("[%s] disconnected client %s (session %s)", serverName, c.IPAddr(), c.SessionID)
}
