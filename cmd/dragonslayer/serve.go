package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/dragonslayer/internal/platform/tui"
)

var (
	flagServeHTTP   string
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
	flagServeSound  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the cabinet headless",
	Long: `Run the game loop without a local console. Logs go to stderr.

The viewer is served on --http. With --ssh, an SSH server offers the
controller console; one player may hold it at a time and a second
connection is turned away.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.dragonslayer/host_key

Examples:
  dragonslayer serve                      # Viewer on :8080, no controller
  dragonslayer serve --ssh :23234         # Controller over SSH
  DRAGONSLAYER_SSH_ADDR=:2222 dragonslayer serve

Players connect with:
  ssh localhost -p 23234`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeHTTP, "http", ":8080", "Viewer address (empty disables the viewer)")
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH console address (host:port, empty disables it)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
	serveCmd.Flags().BoolVar(&flagServeSound, "sound", false, "Play tones on the sound card")
}

func runServe(cmd *cobra.Command, _ []string) {
	flags := cmd.Flags()
	if flags.Changed("http") {
		settings.HTTPAddr = flagServeHTTP
	}
	if flags.Changed("ssh") {
		settings.SSHAddr = flagSSHAddr
	}
	if flags.Changed("host-key") {
		settings.HostKeyPath = flagHostKey
	}
	if flags.Changed("sound") {
		settings.Sound = flagServeSound
	}

	logger, err := newLogger(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	tuning, err := loadTuning()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	cab, err := newCabinet(tuning, settings.HTTPAddr, settings.Sound, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting cabinet: %v\n", err)
		os.Exit(1)
	}
	defer cab.Close()

	var console *tui.SSHServer
	if settings.SSHAddr != "" {
		console, err = tui.NewSSHServer(tui.SSHServerConfig{
			Address:     settings.SSHAddr,
			HostKeyPath: settings.HostKeyPath,
			IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
		}, cab.engine, cab.joystick, cab.button, tuning, logger.WithPrefix("ssh"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating SSH console: %v\n", err)
			cab.Close()
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg     sync.WaitGroup
		sshErr error
	)
	if console != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := console.ListenAndServe(ctx); err != nil {
				sshErr = err
				cancel()
			}
		}()
	}

	loopErr := cab.engine.Run(ctx)
	cancel()
	wg.Wait()

	if err := errors.Join(loopErr, sshErr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cab.Close()
		os.Exit(1)
	}
}
