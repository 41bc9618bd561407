package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/dragonslayer/internal/game"
	"github.com/vovakirdan/dragonslayer/internal/storage"
)

var (
	flagLimit int
	flagClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent rounds",
	Long: `Display the most recent rounds and the win/loss totals.

Examples:
  dragonslayer history
  dragonslayer history --limit 25
  dragonslayer history --clear`,
	Args: cobra.NoArgs,
	Run:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagLimit, "limit", 10, "Number of rounds to show")
	historyCmd.Flags().BoolVar(&flagClear, "clear", false, "Delete all recorded rounds")
}

func runHistory(_ *cobra.Command, _ []string) {
	store, err := storage.Open(settings.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening rounds database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if flagClear {
		if err := store.ClearRounds(); err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing rounds: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Round history cleared.")
		return
	}

	totals, err := store.Totals()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading totals: %v\n", err)
		os.Exit(1)
	}
	rounds, err := store.RecentRounds(flagLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving rounds: %v\n", err)
		os.Exit(1)
	}

	if totals.Rounds == 0 {
		fmt.Println("No rounds recorded yet.")
		fmt.Println()
		fmt.Println("Play 'dragonslayer run' to fight the dragon!")
		return
	}

	fmt.Printf("Rounds: %d   Wins: %d   Losses: %d\n", totals.Rounds, totals.Wins, totals.Losses)
	if totals.FastestWin > 0 {
		fmt.Printf("Fastest win: %s\n", game.FormatElapsed(int(totals.FastestWin.Seconds())))
	}
	fmt.Println()

	fmt.Printf("  %-5s  %-7s  %-6s  %-5s  %-6s  %s\n", "#", "Result", "Dragon", "Pool", "Time", "Date")
	fmt.Printf("  %-5s  %-7s  %-6s  %-5s  %-6s  %s\n", "-", "------", "------", "----", "----", "----")
	for _, r := range rounds {
		result := "defeat"
		if r.Won {
			result = "victory"
		}
		fmt.Printf("  %-5d  %-7s  %-6d  %-5d  %-6s  %s\n",
			r.ID, result, r.DragonHealth, r.PoolSize,
			game.FormatElapsed(int(r.Duration.Seconds())), r.StartedAt.Local().Format("2006-01-02 15:04"))
	}
}
