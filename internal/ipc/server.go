// Package ipc exposes the dashboard over MCP so editors, agents and the
// bundled REPL can drive it. One MCP server definition is served over the
// configured transport: stdio, unix or tcp socket, websocket, or
// streamable HTTP.
package ipc

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/mark3labs/mcp-go/server"

	"fluorite-flake/internal/config"
	"fluorite-flake/internal/vendorcli"
	"fluorite-flake/pkg/logging"
)

const serverName = "fluorite-flake"

// Server serves the dashboard tools over one MCP transport.
type Server struct {
	cfg    config.ProtocolConfig
	api    DashboardAPI
	runner vendorcli.Runner

	mu         sync.Mutex
	mcp        *server.MCPServer
	httpServer *http.Server
	listener   net.Listener
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewServer creates an IPC server over the given API. The runner backs the
// doctor tool.
func NewServer(cfg config.ProtocolConfig, api DashboardAPI, runner vendorcli.Runner) *Server {
	return &Server{cfg: cfg, api: api, runner: runner}
}

// Start builds the MCP server and begins serving on the configured primary
// transport. It returns once the transport is listening; serving happens in
// background goroutines until Stop.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mcp != nil {
		return fmt.Errorf("ipc server already started")
	}

	ctx, s.cancel = context.WithCancel(ctx)

	s.mcp = server.NewMCPServer(
		serverName,
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools()

	var err error
	switch s.cfg.Primary {
	case "stdio":
		err = s.serveStdio(ctx)
	case "unix":
		err = s.serveSocket(ctx, "unix", s.cfg.SocketPath)
	case "tcp":
		err = s.serveSocket(ctx, "tcp", fmt.Sprintf("127.0.0.1:%d", s.cfg.TCPPort))
	case "ws":
		err = s.serveWebSocket(ctx, fmt.Sprintf("127.0.0.1:%d", s.cfg.WSPort))
	case "http":
		err = s.serveHTTP(ctx, fmt.Sprintf("127.0.0.1:%d", s.cfg.HTTPPort))
	default:
		err = fmt.Errorf("unknown transport %q", s.cfg.Primary)
	}
	if err != nil {
		s.cancel()
		s.mcp = nil
		return err
	}

	// Under systemd socket units this flips the unit to active; elsewhere
	// it is a silent no-op.
	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logging.Warn("IPC", "sd_notify failed: %v", err)
	} else if sent {
		logging.Debug("IPC", "Notified systemd: ready")
	}

	logging.Info("IPC", "Serving MCP over %s", s.cfg.Primary)
	return nil
}

// Stop shuts the transport down and waits for in-flight sessions.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	httpServer := s.httpServer
	listener := s.listener
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}

	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		logging.Debug("IPC", "sd_notify stopping failed: %v", err)
	}

	cancel()
	if listener != nil {
		listener.Close()
	}
	if httpServer != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(ctx, 5*time.Second)
		defer cancelShutdown()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn("IPC", "HTTP shutdown: %v", err)
		}
	}
	s.wg.Wait()

	s.mu.Lock()
	s.mcp = nil
	s.httpServer = nil
	s.listener = nil
	s.cancel = nil
	s.mu.Unlock()

	if s.cfg.Primary == "unix" && s.cfg.SocketPath != "" {
		os.Remove(s.cfg.SocketPath)
	}
	return nil
}

func (s *Server) serveStdio(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcp)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
			logging.Error("IPC", err, "Stdio server error")
		}
	}()
	return nil
}

// serveSocket accepts connections on a unix or tcp listener and runs one
// stdio-framed MCP session per connection.
func (s *Server) serveSocket(ctx context.Context, network, addr string) error {
	if network == "unix" {
		// A previous unclean shutdown may have left the socket behind.
		os.Remove(addr)
	}
	listener, err := net.Listen(network, addr)
	if err != nil {
		return fmt.Errorf("listening on %s %s: %w", network, addr, err)
	}
	s.listener = listener

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := listener.Accept()
			if err != nil {
				if ctx.Err() == nil {
					logging.Error("IPC", err, "Accept failed")
				}
				return
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer conn.Close()
				session := server.NewStdioServer(s.mcp)
				if err := session.Listen(ctx, conn, conn); err != nil && ctx.Err() == nil {
					logging.Debug("IPC", "Session ended: %v", err)
				}
			}()
		}
	}()
	return nil
}

func (s *Server) serveWebSocket(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket(ctx))

	s.httpServer = &http.Server{Addr: addr, Handler: mux}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = listener

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logging.Error("IPC", err, "WebSocket server error")
		}
	}()
	return nil
}

func (s *Server) serveHTTP(ctx context.Context, addr string) error {
	streamable := server.NewStreamableHTTPServer(s.mcp)
	s.httpServer = &http.Server{Addr: addr, Handler: s.withAuth(streamable)}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = listener

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logging.Error("IPC", err, "Streamable HTTP server error")
		}
	}()
	return nil
}

// withAuth enforces the configured bearer token on the network-facing
// transports. Socket transports rely on filesystem and loopback isolation
// instead.
func (s *Server) withAuth(next http.Handler) http.Handler {
	if s.cfg.AuthToken == "" {
		return next
	}
	expected := "Bearer " + s.cfg.AuthToken
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != expected {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
