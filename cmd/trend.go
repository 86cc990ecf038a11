package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-lol-coach/internal/report"
)

var trendLimit int

var trendCmd = &cobra.Command{
	Use:   "trend <GameName#TAG|puuid>",
	Short: "Chronological per-match death trend for a player",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

func init() {
	trendCmd.Flags().IntVarP(&trendLimit, "matches", "n", 20, "number of most recent matches (0 = all)")
}

func runTrend(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	player, err := resolvePlayer(db, args[0])
	if err != nil {
		return err
	}
	rows, err := db.GetMatchTrend(player.ID, trendLimit)
	if err != nil {
		return fmt.Errorf("get trend: %w", err)
	}
	if len(rows) == 0 {
		fmt.Fprintf(os.Stdout, "No analysed matches for %s yet.\n", player.RiotID)
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n=== Trend: %s (%d matches) ===\n\n", player.RiotID, len(rows))
	report.PrintTrendTable(os.Stdout, rows)
	return nil
}
