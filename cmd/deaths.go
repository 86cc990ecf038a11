package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-lol-coach/internal/model"
	"github.com/pable/go-lol-coach/internal/report"
	"github.com/pable/go-lol-coach/internal/storage"
)

var (
	deathsPhase string
	deathsZone  string
	deathsMatch string
	deathsLimit int
	deathsZones bool
)

var deathsCmd = &cobra.Command{
	Use:   "deaths <GameName#TAG|puuid>",
	Short: "List a player's stored deaths, optionally filtered",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeaths,
}

func init() {
	deathsCmd.Flags().StringVar(&deathsPhase, "phase", "", "filter by phase: early, mid, late")
	deathsCmd.Flags().StringVar(&deathsZone, "zone", "", "filter by zone, e.g. river_bot, top_lane")
	deathsCmd.Flags().StringVar(&deathsMatch, "match", "", "filter by match id")
	deathsCmd.Flags().IntVar(&deathsLimit, "limit", 50, "maximum rows (0 = all)")
	deathsCmd.Flags().BoolVar(&deathsZones, "zones", false, "show death counts per zone instead")
}

func runDeaths(cmd *cobra.Command, args []string) error {
	switch model.GamePhase(deathsPhase) {
	case "", model.PhaseEarly, model.PhaseMid, model.PhaseLate:
	default:
		return fmt.Errorf("invalid --phase %q: want early, mid or late", deathsPhase)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	player, err := resolvePlayer(db, args[0])
	if err != nil {
		return err
	}

	if deathsZones {
		counts, err := db.DeathsByZone(player.ID)
		if err != nil {
			return fmt.Errorf("deaths by zone: %w", err)
		}
		report.PrintZoneTable(os.Stdout, counts)
		return nil
	}

	ds, err := db.Deaths(player.ID, storage.DeathFilter{
		Phase:   model.GamePhase(deathsPhase),
		Zone:    model.MapZone(deathsZone),
		MatchID: deathsMatch,
		Limit:   deathsLimit,
	})
	if err != nil {
		return fmt.Errorf("query deaths: %w", err)
	}
	if len(ds) == 0 {
		fmt.Fprintln(os.Stdout, "No deaths match.")
		return nil
	}
	report.PrintDeathTable(os.Stdout, ds, deathsMatch == "")
	fmt.Fprintf(os.Stdout, "\n(%d deaths)\n", len(ds))
	return nil
}
