package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/dragonslayer/internal/config"
	"github.com/vovakirdan/dragonslayer/internal/hw"
)

// BusyMessage is shown to an SSH client while another one holds the controller.
const BusyMessage = "single player supported"

// SSHServerConfig holds configuration for the SSH console.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.dragonslayer/host_key.
	HostKeyPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration
}

// SSHServer serves the controller console over SSH. At most one session
// holds the controller at a time.
type SSHServer struct {
	config   SSHServerConfig
	server   *ssh.Server
	source   StatusSource
	joystick *hw.VirtualJoystick
	button   *hw.VirtualButton
	game     config.Config
	logger   *log.Logger
	busy     atomic.Bool
}

// NewSSHServer creates an SSH console driving the given devices.
func NewSSHServer(cfg SSHServerConfig, source StatusSource, joystick *hw.VirtualJoystick, button *hw.VirtualButton,
	gameCfg config.Config, logger *log.Logger) (*SSHServer, error) {
	srv := &SSHServer{
		config:   cfg,
		source:   source,
		joystick: joystick,
		button:   button,
		game:     gameCfg,
		logger:   logger,
	}

	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("tui: cannot get home directory: %w", err)
		}
		hostKeyPath = filepath.Join(home, ".dragonslayer", "host_key")
	}

	hostKeyDir := filepath.Dir(hostKeyPath)
	if err := os.MkdirAll(hostKeyDir, 0o700); err != nil {
		return nil, fmt.Errorf("tui: cannot create host key directory: %w", err)
	}

	// Middlewares run last to first: logging wraps the session gate, which
	// wraps the Bubble Tea handler.
	server, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.singleSession,
			srv.loggingMiddleware,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("tui: cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler creates the console program for the session holding the controller.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	model := NewModel(s.source, NewController(s.joystick, s.button), s.game)
	model.resize(pty.Window.Width, pty.Window.Height)

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// singleSession turns away sessions while another one holds the controller.
func (s *SSHServer) singleSession(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		if !s.busy.CompareAndSwap(false, true) {
			s.logger.Info("session rejected", "user", sshSession.User(), "remote", sshSession.RemoteAddr().String())
			wish.Fatalln(sshSession, BusyMessage)
			return
		}
		defer func() {
			s.joystick.Center()
			s.button.Release()
			s.busy.Store(false)
		}()
		next(sshSession)
	}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// ListenAndServe serves until ctx is done.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	s.logger.Info("starting SSH console", "address", s.config.Address)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, ssh.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("tui: ssh server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down SSH console")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}
