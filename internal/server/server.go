// Package server exposes the game to a browser viewer over WebSocket.
package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/dragonslayer/internal/broadcast"
	"github.com/vovakirdan/dragonslayer/internal/game"
)

//go:embed static/viewer.html
var viewerHTML []byte

const (
	writeWait    = 2 * time.Second
	closeWait    = time.Second
	readLimit    = 4096
	outboxSize   = 8
	shutdownWait = 5 * time.Second
)

// Exclusive runs fn without interleaving with a game tick.
type Exclusive interface {
	Exclusive(ctx context.Context, fn func()) error
}

// Snapshotter returns the current game state. It is only called inside
// Exclusive.
type Snapshotter func() game.State

// Server serves the viewer page, the state stream and a health check.
type Server struct {
	broadcaster *broadcast.Broadcaster
	exclusive   Exclusive
	snapshot    Snapshotter
	logger      *log.Logger
	upgrader    websocket.Upgrader
	mux         *http.ServeMux
}

// New creates a server.
func New(b *broadcast.Broadcaster, ex Exclusive, snapshot Snapshotter, logger *log.Logger) *Server {
	s := &Server{
		broadcaster: b,
		exclusive:   ex,
		snapshot:    snapshot,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The viewer is usually opened from a phone on a local network.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		mux: http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /{$}", s.handleViewer)
	s.mux.HandleFunc("GET /ws", s.handleWS)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Listen binds addr. Failure here is fatal for the caller.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("server: cannot listen on %s: %w", addr, err)
	}
	return ln, nil
}

// Serve handles connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("viewer server listening", "address", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleViewer(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(viewerHTML)
}

type healthResponse struct {
	Status string `json:"status"`
	Viewer bool   `json:"viewer"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok", Viewer: s.broadcaster.Attached()})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	sub := broadcast.NewChannelSubscriber(outboxSize)

	var subErr error
	if err := s.exclusive.Exclusive(r.Context(), func() {
		subErr = s.broadcaster.Subscribe(sub, s.snapshot())
	}); err != nil {
		return
	}
	if subErr != nil {
		reason := "unavailable"
		if errors.Is(subErr, broadcast.ErrSubscriberBusy) {
			reason = broadcast.RejectMessage
			s.logger.Info("viewer rejected", "remote", remote)
		} else {
			s.logger.Warn("viewer subscribe failed", "remote", remote, "error", subErr)
		}
		// Flush the rejection payload before closing.
		s.writePump(conn, sub)
		s.closeConn(conn, reason)
		return
	}
	s.logger.Info("viewer attached", "remote", remote)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writePump(conn, sub)
		// Unblock the reader when the writer gives up first.
		_ = conn.Close()
	}()

	s.readPump(conn)

	_ = s.exclusive.Exclusive(context.Background(), func() {
		s.broadcaster.Unsubscribe(sub)
	})
	_ = sub.Close()
	<-writerDone
	s.logger.Info("viewer detached", "remote", remote)
}

// readPump discards client messages until the connection fails.
func (s *Server) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(readLimit)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump writes queued messages until the subscriber is closed, then
// flushes whatever is still queued.
func (s *Server) writePump(conn *websocket.Conn, sub *broadcast.ChannelSubscriber) {
	for {
		select {
		case msg := <-sub.Messages():
			if err := s.write(conn, msg); err != nil {
				_ = sub.Close()
				return
			}
		case <-sub.Done():
			for {
				select {
				case msg := <-sub.Messages():
					if err := s.write(conn, msg); err != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}

func (s *Server) write(conn *websocket.Conn, msg []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		s.logger.Debug("websocket write failed", "error", err)
		return err
	}
	return nil
}

func (s *Server) closeConn(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait))
}
