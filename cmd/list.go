package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-lol-coach/internal/report"
	"github.com/pable/go-lol-coach/internal/storage"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list [GameName#TAG|puuid]",
	Short: "List stored players, or a player's analysed matches",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum matches to list (0 = all)")
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if len(args) == 0 {
		return listPlayers(db)
	}

	player, err := resolvePlayer(db, args[0])
	if err != nil {
		return err
	}
	matches, err := db.ListMatches(player.ID, listLimit)
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	if len(matches) == 0 {
		fmt.Fprintf(os.Stdout, "No matches stored for %s yet.\n", player.RiotID)
		return nil
	}
	report.PrintMatchTable(os.Stdout, matches)
	return nil
}

func listPlayers(db *storage.DB) error {
	players, err := db.ListPlayers()
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	if len(players) == 0 {
		fmt.Fprintln(os.Stdout, "No players stored yet. Run 'lolcoach analyze <GameName#TAG>' to add one.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-24s  %-8s  %s\n", "RIOT ID", "PLATFORM", "PUUID")
	fmt.Fprintf(os.Stdout, "%-24s  %-8s  %s\n", "────────────────────────", "────────", "─────")
	for _, p := range players {
		fmt.Fprintf(os.Stdout, "%-24s  %-8s  %s\n", p.RiotID, p.Platform, p.PUUID)
	}
	return nil
}
