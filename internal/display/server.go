package display

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rbright/deckmix/internal/action"
)

// Message types.
const (
	TypeInit    = "display_init"
	TypeDisplay = "display"
)

// Envelope is the wire format of every frame.
type Envelope struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

// Snapshot returns the current display of every instance.
type Snapshot func() []action.Display

// Server upgrades websocket requests and feeds the hub.
type Server struct {
	logger   *slog.Logger
	hub      *Hub
	snapshot Snapshot
	upgrader websocket.Upgrader
}

// NewServer wires a hub to a snapshot source.
func NewServer(logger *slog.Logger, snapshot Snapshot, cfg HubConfig) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		logger:   logger,
		hub:      NewHub(logger, cfg),
		snapshot: snapshot,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Hub returns the server hub.
func (s *Server) Hub() *Hub { return s.hub }

// Register installs the websocket handler on mux at path.
func (s *Server) Register(mux *http.ServeMux, path string) {
	mux.HandleFunc(path, s.handleWS)
}

// Publish broadcasts one display change.
func (s *Server) Publish(d action.Display) {
	msg, err := encode(TypeDisplay, d)
	if err != nil {
		s.logger.Warn("display marshal failed", "instance", d.Instance, "error", err.Error())
		return
	}
	s.hub.BroadcastBytes(msg)
}

// ListenAndServe serves path on addr and runs the hub until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string, path string) error {
	mux := http.NewServeMux()
	s.Register(mux, path)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen display %s: %w", addr, err)
	}
	httpServer := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	hubCtx, cancelHub := context.WithCancel(ctx)
	defer cancelHub()
	go s.hub.Run(hubCtx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	s.logger.Info("display server listening", "addr", listener.Addr().String(), "path", path)
	if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve display: %w", err)
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("display upgrade failed", "error", err.Error())
		return
	}

	c := newClient(s.hub, conn, r.RemoteAddr)

	var displays []action.Display
	if s.snapshot != nil {
		displays = s.snapshot()
	}
	if displays == nil {
		displays = []action.Display{}
	}
	initMsg, err := encode(TypeInit, displays)
	if err != nil {
		s.logger.Warn("display snapshot marshal failed", "error", err.Error())
		_ = conn.Close()
		return
	}
	c.send <- initMsg

	s.hub.register <- c
	go c.writePump()
	go c.readPump()
}

func encode(kind string, data any) ([]byte, error) {
	now := time.Now().UTC()
	return json.Marshal(Envelope{Type: kind, Ts: &now, Data: data})
}
