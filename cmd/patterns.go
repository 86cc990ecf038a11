package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-lol-coach/internal/patterns"
	"github.com/pable/go-lol-coach/internal/report"
)

var patternsActiveOnly bool

var patternsCmd = &cobra.Command{
	Use:   "patterns <GameName#TAG|puuid>",
	Short: "Show a player's tracked death patterns and the current focus",
	Args:  cobra.ExactArgs(1),
	RunE:  runPatterns,
}

func init() {
	patternsCmd.Flags().BoolVar(&patternsActiveOnly, "active", false, "only active and improving patterns, most frequent first")
}

func runPatterns(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	player, err := resolvePlayer(db, args[0])
	if err != nil {
		return err
	}

	all, err := db.ListPatterns(player.ID)
	if err != nil {
		return fmt.Errorf("list patterns: %w", err)
	}
	if len(all) == 0 {
		fmt.Fprintf(os.Stdout, "No patterns tracked for %s yet.\n", player.RiotID)
		return nil
	}
	priority := patterns.Priority(all)

	shown := all
	if patternsActiveOnly {
		if shown, err = db.ActivePatterns(player.ID); err != nil {
			return fmt.Errorf("active patterns: %w", err)
		}
	}

	fmt.Fprintf(os.Stdout, "\nPatterns for %s\n\n", player.RiotID)
	report.PrintPatternTable(os.Stdout, shown, priority)
	fmt.Fprintln(os.Stdout)
	report.PrintPriority(os.Stdout, priority)
	return nil
}
