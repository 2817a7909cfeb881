package browser

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/mugo/server/internal/status"
)

// ErrServerNotFound is returned by Query for a code with no cached entry.
var ErrServerNotFound = errors.New("no known game server with that code")

// StatusFetcher is the status RPC client the browser polls servers with.
type StatusFetcher interface {
	Fetch(ctx context.Context, baseURL string) (*status.Status, error)
}

// Server is one game server entry in the directory.
type Server struct {
	Code ServerCode
	Host string
	Port uint16
	Load float64
}

// Browser polls the configured game servers for their status and caches the
// results. Queries for individual servers are answered from the cache alone
// so that redirecting a client never blocks on a slow server.
type Browser struct {
	logger  *logrus.Logger
	fetcher StatusFetcher
	addrs   []string
	cache   *cache.Cache
}

// New returns a browser polling the game servers at the given status RPC
// base URLs. Cached entries expire after ttl.
func New(logger *logrus.Logger, fetcher StatusFetcher, addrs []string, ttl time.Duration) *Browser {
	return &Browser{
		logger:  logger,
		fetcher: fetcher,
		addrs:   addrs,
		cache:   cache.New(ttl, 2*ttl),
	}
}

// QueryAll polls every configured server concurrently, refreshes the cache
// with the responses, and returns the reachable servers in completion
// order. Unreachable servers are logged and omitted.
func (b *Browser) QueryAll(ctx context.Context) []Server {
	results := make(chan *Server)
	var wg sync.WaitGroup

	for _, addr := range b.addrs {
		wg.Add(1)
		go func(addr string) {
			defer wg.Done()
			st, err := b.fetcher.Fetch(ctx, addr)
			if err != nil {
				b.logger.Warnf("game server %s unreachable: %v", addr, err)
				results <- nil
				return
			}
			results <- &Server{
				Code: ServerCode(st.ID),
				Host: st.Host,
				Port: st.Port,
				Load: st.Load(),
			}
		}(addr)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	servers := make([]Server, 0, len(b.addrs))
	for server := range results {
		if server == nil {
			continue
		}
		b.cache.Set(cacheKey(server.Code), *server, cache.DefaultExpiration)
		servers = append(servers, *server)
	}
	return servers
}

// Query returns the cached entry for code. It never reaches out to the
// server; a miss means the code is unknown or its entry expired.
func (b *Browser) Query(code ServerCode) (*Server, error) {
	cached, found := b.cache.Get(cacheKey(code))
	if !found {
		return nil, ErrServerNotFound
	}
	server := cached.(Server)
	return &server, nil
}

// Poll refreshes the directory on the given interval until ctx is canceled.
func (b *Browser) Poll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	b.QueryAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.QueryAll(ctx)
		}
	}
}

func cacheKey(code ServerCode) string {
	return strconv.Itoa(int(code))
}
