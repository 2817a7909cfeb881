package status

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/sirupsen/logrus"
)

// Version reported by the version RPC method.
const Version = "1.0.0"

// Source supplies the live portion of a status report. The process metrics
// are filled in by the server itself.
type Source interface {
	ServerStatus() Status
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	rpcParseError     = -32700
	rpcInvalidRequest = -32600
	rpcMethodNotFound = -32601
)

// Server answers JSON-RPC 2.0 status queries over HTTP. Exposed methods are
// "status" and "version".
type Server struct {
	logger  *logrus.Logger
	addr    string
	source  Source
	started time.Time
	proc    *process.Process
	http    *http.Server
}

func NewServer(logger *logrus.Logger, addr string, source Source) *Server {
	// Metric collection failures degrade the report rather than the server.
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logger.Warnf("process metrics unavailable: %v", err)
	}
	return &Server{
		logger: logger,
		addr:   addr,
		source: source,
		proc:   proc,
	}
}

// Start serves the RPC endpoint until ctx is canceled. It blocks and always
// returns a non-nil error; http.ErrServerClosed signals a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.POST("/", s.handleRPC)

	s.started = time.Now()
	s.http = &http.Server{Addr: s.addr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			s.logger.Warnf("status server shutdown: %v", err)
		}
	}()

	s.logger.Infof("status RPC listening on %s", s.addr)
	return s.http.ListenAndServe()
}

func (s *Server) handleRPC(c *gin.Context) {
	var req rpcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: rpcParseError, Message: "parse error"},
		})
		return
	}
	if req.JSONRPC != "2.0" {
		c.JSON(http.StatusOK, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: rpcInvalidRequest, Message: "invalid request"},
			ID:      req.ID,
		})
		return
	}

	switch req.Method {
	case "status":
		c.JSON(http.StatusOK, rpcResponse{JSONRPC: "2.0", Result: s.currentStatus(), ID: req.ID})
	case "version":
		c.JSON(http.StatusOK, rpcResponse{JSONRPC: "2.0", Result: Version, ID: req.ID})
	default:
		c.JSON(http.StatusOK, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: rpcMethodNotFound, Message: "method not found"},
			ID:      req.ID,
		})
	}
}

func (s *Server) currentStatus() Status {
	st := s.source.ServerStatus()
	st.UptimeSeconds = int64(time.Since(s.started).Seconds())

	if s.proc != nil {
		if mem, err := s.proc.MemoryInfo(); err == nil {
			st.MemoryBytes = mem.RSS
		}
		if cpu, err := s.proc.CPUPercent(); err == nil {
			st.CPUPercent = cpu
		}
	}
	return st
}
