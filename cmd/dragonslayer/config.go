package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/dragonslayer/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective tuning",
	Long: `Print the tuning the game would run with, after the config search
and defaults are applied. Redirect it to a file to start a custom config:

  dragonslayer config > ~/.dragonslayer/config.yaml`,
	Args: cobra.NoArgs,
	Run:  runConfig,
}

func runConfig(_ *cobra.Command, _ []string) {
	tuning, err := loadTuning()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	data, err := config.Marshal(tuning)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding config: %v\n", err)
		os.Exit(1)
	}
	os.Stdout.Write(data)
}
