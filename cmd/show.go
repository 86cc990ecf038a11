package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-lol-coach/internal/report"
	"github.com/pable/go-lol-coach/internal/storage"
)

var showCmd = &cobra.Command{
	Use:   "show <GameName#TAG|puuid> <match-id-prefix>",
	Short: "Show a stored match and the player's deaths in it",
	Long:  "Show a stored match by id or prefix. The platform prefix may be omitted: 'show Me#EUW 7123' matches EUW1_7123...",
	Args:  cobra.ExactArgs(2),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	player, err := resolvePlayer(db, args[0])
	if err != nil {
		return err
	}
	return showMatch(db, player.ID, args[1])
}

func showMatch(db *storage.DB, playerID int64, prefix string) error {
	m, err := db.GetMatchByPrefix(playerID, prefix)
	if err != nil {
		return fmt.Errorf("query match: %w", err)
	}
	if m == nil {
		fmt.Fprintf(os.Stderr, "No match found with prefix %q\n", prefix)
		return nil
	}

	ds, err := db.Deaths(playerID, storage.DeathFilter{MatchID: m.MatchID})
	if err != nil {
		return fmt.Errorf("query deaths: %w", err)
	}

	report.PrintMatchSummary(os.Stdout, *m)
	if !m.HasTimeline {
		fmt.Fprintln(os.Stdout, "No timeline was available for this match; deaths were not extracted.")
		return nil
	}
	if len(ds) == 0 {
		fmt.Fprintln(os.Stdout, "Deathless game.")
		return nil
	}
	report.PrintDeathTable(os.Stdout, ds, false)
	return nil
}
