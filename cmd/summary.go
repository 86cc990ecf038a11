package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pable/go-lol-coach/internal/model"
	"github.com/pable/go-lol-coach/internal/report"
)

// summaryCmd is the cobra command for displaying a high-level database overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the database",
	Long: `Display aggregate statistics about everything stored in the coach database:
player, match and death counts, the date range, pattern status breakdown,
per-player totals and the size of the raw match archive.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ov, err := db.GetDBOverview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.Matches == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'lolcoach analyze <GameName#TAG>' to add some.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n=== Database Summary ===\n\n")
	fmt.Fprintf(os.Stdout, "  Players       : %d\n", ov.Players)
	fmt.Fprintf(os.Stdout, "  Matches       : %d\n", ov.Matches)
	fmt.Fprintf(os.Stdout, "  Deaths        : %d\n", ov.Deaths)
	fmt.Fprintf(os.Stdout, "  Sessions      : %d\n", ov.Sessions)
	if !ov.Earliest.IsZero() {
		fmt.Fprintf(os.Stdout, "  Date range    : %s → %s\n",
			ov.Earliest.Format("2006-01-02"), ov.Latest.Format("2006-01-02"))
	}
	fmt.Fprintf(os.Stdout, "  Patterns      : %d active, %d improving, %d broken\n",
		ov.PatternCounts[model.StatusActive], ov.PatternCounts[model.StatusImproving], ov.PatternCounts[model.StatusBroken])

	n, raw, stored, err := db.ArchiveStats()
	if err != nil {
		return fmt.Errorf("archive stats: %w", err)
	}
	if n > 0 {
		fmt.Fprintf(os.Stdout, "  Archive       : %d matches, %s (%s raw)\n",
			n, humanize.Bytes(uint64(stored)), humanize.Bytes(uint64(raw)))
	}

	players, err := db.GetPlayerOverviews()
	if err != nil {
		return fmt.Errorf("get players: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\n--- Players ---\n\n")
	report.PrintPlayerOverviewTable(os.Stdout, players)
	return nil
}
