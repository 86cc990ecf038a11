package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-lol-coach/internal/report"
	"github.com/pable/go-lol-coach/internal/storage"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the coach database",
	Long: `Run an arbitrary SQL query against the coach database and print results as a table.

Schema overview:
  players(id, puuid, riot_id, platform, created_at)
  matches(match_id, player_id, champion, role, win, kills, deaths, assists, cs,
    vision_score, game_duration_sec, played_at, has_timeline, analyzed_at)
  deaths(match_id, player_id, timestamp_ms, phase, position_x, position_y, zone,
    killer_champion, assisting_champions JSON, had_ward_nearby, gold_diff, cs_diff,
    level_diff, player_gold, player_champion, death_type)
  patterns(player_id, pattern_key, subject, category, description, occurrences, status,
    games_since_last, improvement_streak, sample_match_ids JSON, last_match_id)
  coaching_sessions(id, player_id, focus_area, pattern_key, matches_analyzed, opener, started_at)
  match_archive(match_id, match_blob, timeline_blob, raw_bytes, stored_at)

Example: SELECT zone, COUNT(*) FROM deaths WHERE had_ward_nearby = 0 GROUP BY zone`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return querySQL(db, strings.Join(args, " "))
}

func querySQL(db *storage.DB, query string) error {
	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stdout, "(no rows)")
		return nil
	}
	report.PrintRows(os.Stdout, cols, rows)
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}
