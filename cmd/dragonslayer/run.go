package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/dragonslayer/internal/platform/tui"
)

var (
	flagHTTPAddr string
	flagSound    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play in this terminal",
	Long: `Run the game loop with the controller console in this terminal.

Arrow keys (or WASD / HJKL) move and jump, space or enter is the button.
Press the button to start a round; it is also how you restart after a
victory or defeat.

A browser viewer is served on --http (open http://localhost:8080/).
Only one viewer may be attached at a time.

When stdin is not a terminal the console is skipped and the loop runs
headless until interrupted.

Examples:
  dragonslayer run
  dragonslayer run --http :9000
  dragonslayer run --http "" --sound   # no viewer, tones on the speakers`,
	Run: runRun,
}

func init() {
	runCmd.Flags().StringVar(&flagHTTPAddr, "http", ":8080", "Viewer address (empty disables the viewer)")
	runCmd.Flags().BoolVar(&flagSound, "sound", false, "Play tones on the sound card")
}

func runRun(cmd *cobra.Command, _ []string) {
	if cmd.Flags().Changed("http") {
		settings.HTTPAddr = flagHTTPAddr
	}
	if cmd.Flags().Changed("sound") {
		settings.Sound = flagSound
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))

	logOut := os.Stderr
	if interactive {
		f, err := openLogFile()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}

	logger, err := newLogger(logOut)
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The console exits with the loop, e.g. when the viewer port is taken.
	loopErr := make(chan error, 1)
	go func() {
		err := cab.engine.Run(ctx)
		cancel()
		loopErr <- err
	}()

	if !interactive {
		if settings.HTTPAddr != "" {
			fmt.Printf("Viewer on http://localhost%s/ (Ctrl+C to stop)\n", settings.HTTPAddr)
		}
		err = <-loopErr
	} else {
		ctrl := tui.NewController(cab.joystick, cab.button)
		consoleErr := tui.Run(ctx, cab.engine, ctrl, tuning)
		cancel()
		err = errors.Join(consoleErr, <-loopErr)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cab.Close()
		os.Exit(1)
	}
}
