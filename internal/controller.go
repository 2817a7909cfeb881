package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mugo/server/internal/auth"
	"github.com/mugo/server/internal/browser"
	"github.com/mugo/server/internal/connect"
	"github.com/mugo/server/internal/core"
	"github.com/mugo/server/internal/core/data"
	"github.com/mugo/server/internal/game"
	"github.com/mugo/server/internal/registry"
	"github.com/mugo/server/internal/status"
)

const statusClientTimeout = 5 * time.Second

// Controller is the main entrypoint. It's responsible for initializing any
// shared resources (such as database and logging), defining the servers,
// and launching everything.
type Controller struct {
	Config *core.Config

	logger *logrus.Logger
	wg     sync.WaitGroup

	db      *gorm.DB
	servers []*frontend
}

func (c *Controller) Start(ctx context.Context) {
	defer c.Shutdown(ctx)

	var err error
	// Set up the logger, which will be used by all sub-servers.
	c.logger, err = core.NewLogger(c.Config)
	if err != nil {
		fmt.Printf("error initializing logger: %v", err)
		return
	}

	c.db, err = data.Initialize(
		c.Config.Database.Engine,
		c.databaseSource(),
		c.Config.Debugging.DatabaseLoggingEnabled,
	)
	if err != nil {
		c.logger.Errorf("error initializing database: %v", err)
		return
	}

	// Clear online markers orphaned by an unclean shutdown so those
	// accounts are not locked out of logging in.
	if err := data.ReleaseAllSessions(c.db); err != nil {
		c.logger.Errorf("error releasing stale sessions: %v", err)
		return
	}

	c.declareServers(ctx)
	c.run(ctx)
}

// Set up all of the servers we want to run.
func (c *Controller) declareServers(ctx context.Context) {
	refreshInterval := time.Duration(c.Config.ConnectServer.RefreshInterval) * time.Second
	if refreshInterval <= 0 {
		refreshInterval = 30 * time.Second
	}

	serverBrowser := browser.New(
		c.logger,
		status.NewClient(statusClientTimeout),
		c.Config.ConnectServer.GameServers,
		2*refreshInterval,
	)
	go serverBrowser.Poll(ctx, refreshInterval)

	connectServer := &connect.Server{
		Name:     "CONNECT",
		Config:   c.Config,
		Logger:   c.logger,
		Registry: registry.New(c.Config.MaxConnections),
		Browser:  serverBrowser,
	}
	gameServer := &game.Server{
		Name:     fmt.Sprintf("GAME%02d", c.Config.GameServer.ID),
		Config:   c.Config,
		Logger:   c.logger,
		Registry: registry.New(c.Config.MaxConnections),
		DB:       c.db,
		Auth: auth.NewAuthenticator(
			c.db,
			c.Config.Auth.LockoutAttempts,
			c.Config.Auth.LockoutTimeMax,
			c.Config.Auth.HashCost,
		),
	}

	c.startStatusServer(ctx, c.Config.ConnectServer.StatusPort, connectServer)
	c.startStatusServer(ctx, c.Config.GameServer.StatusPort, gameServer)

	c.servers = []*frontend{
		{
			Address: c.buildAddress(c.Config.ConnectServer.Port),
			Backend: connectServer,
		},
		{
			Address: c.buildAddress(c.Config.GameServer.Port),
			Backend: gameServer,
		},
	}
}

// startStatusServer launches one status RPC endpoint in the controller's
// wait group.
func (c *Controller) startStatusServer(ctx context.Context, port int, source status.Source) {
	server := status.NewServer(c.logger, c.buildAddress(port), source)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := server.Start(ctx); !errors.Is(err, http.ErrServerClosed) {
			c.logger.Errorf("status server on port %d exited: %v", port, err)
		}
	}()
}

func (c *Controller) run(ctx context.Context) {
	// Start all of our servers. Failure to initialize one of the registered servers is considered terminal.
	for _, server := range c.servers {
		server.Config = c.Config
		server.Logger = c.logger

		if err := server.Start(ctx, &c.wg); err != nil {
			c.logger.Errorf("error starting %s server: %v", server.Backend.Identifier(), err)
			return
		}
	}

	c.wg.Wait()
}

func (c *Controller) buildAddress(port int) string {
	return fmt.Sprintf("%s:%v", c.Config.Hostname, port)
}

func (c *Controller) databaseSource() string {
	if c.Config.Database.Engine == "sqlite" {
		return c.Config.Database.Filename
	}
	return c.Config.PostgresURL()
}

func (c *Controller) Shutdown(_ context.Context) {
	c.wg.Wait()

	if c.db != nil {
		if err := data.Shutdown(c.db); err != nil {
			c.logger.Warnf("error closing database: %v", err)
		}
	}
}
