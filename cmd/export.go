package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-lol-coach/internal/model"
	"github.com/pable/go-lol-coach/internal/patterns"
	"github.com/pable/go-lol-coach/internal/storage"
)

var (
	exportMatches int
	exportOut     string
)

// playerExport is the top-level JSON schema written by export.
type playerExport struct {
	RiotID      string          `json:"riot_id"`
	PUUID       string          `json:"puuid"`
	Platform    string          `json:"platform"`
	GeneratedAt string          `json:"generated_at"`
	Focus       *exportPattern  `json:"focus"`
	Patterns    []exportPattern `json:"patterns"`
	Matches     []exportMatch   `json:"matches"`
}

type exportPattern struct {
	Key               string   `json:"key"`
	Subject           string   `json:"subject,omitempty"`
	Category          string   `json:"category"`
	Description       string   `json:"description"`
	Occurrences       int      `json:"occurrences"`
	Status            string   `json:"status"`
	GamesSinceLast    int      `json:"games_since_last"`
	ImprovementStreak int      `json:"improvement_streak"`
	SampleMatchIDs    []string `json:"sample_match_ids"`
}

type exportMatch struct {
	MatchID  string        `json:"match_id"`
	PlayedAt string        `json:"played_at"`
	Champion string        `json:"champion"`
	Win      bool          `json:"win"`
	Deaths   []exportDeath `json:"deaths"`
}

type exportDeath struct {
	TimestampMs    int64    `json:"timestamp_ms"`
	Phase          string   `json:"phase"`
	Zone           string   `json:"zone"`
	X              int      `json:"x"`
	Y              int      `json:"y"`
	Killer         string   `json:"killer"`
	Assists        []string `json:"assists"`
	DeathType      string   `json:"death_type"`
	HadWardNearby  bool     `json:"had_ward_nearby"`
	GoldDiff       int      `json:"gold_diff"`
	CSDiff         int      `json:"cs_diff"`
	LevelDiff      int      `json:"level_diff"`
	PlayerChampion string   `json:"player_champion"`
}

var exportCmd = &cobra.Command{
	Use:   "export <GameName#TAG|puuid>",
	Short: "Export a player's deaths and patterns as JSON",
	Long: `Write a player's tracked patterns, current focus and the deaths of their most
recent analysed matches as a single JSON document.

Example:
  lolcoach export "Faker#KR1" -n 10 --out faker.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().IntVarP(&exportMatches, "matches", "n", 20, "number of most recent matches (0 = all)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file path (default: stdout)")
}

func runExport(_ *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	player, err := resolvePlayer(db, args[0])
	if err != nil {
		return err
	}
	out, err := buildExport(db, player, exportMatches, time.Now())
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if exportOut == "" {
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	}
	if err := os.WriteFile(exportOut, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", exportOut, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s (%d matches, %d patterns)\n", exportOut, len(out.Matches), len(out.Patterns))
	return nil
}

func buildExport(db *storage.DB, player *model.Player, n int, now time.Time) (*playerExport, error) {
	ps, err := db.ListPatterns(player.ID)
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	trend, err := db.GetMatchTrend(player.ID, n)
	if err != nil {
		return nil, fmt.Errorf("get matches: %w", err)
	}
	ids := make([]string, len(trend))
	for i, t := range trend {
		ids[i] = t.MatchID
	}
	byMatch, err := db.DeathsForMatches(player.ID, ids)
	if err != nil {
		return nil, fmt.Errorf("get deaths: %w", err)
	}

	out := &playerExport{
		RiotID:      player.RiotID,
		PUUID:       player.PUUID,
		Platform:    player.Platform,
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Patterns:    make([]exportPattern, 0, len(ps)),
		Matches:     make([]exportMatch, 0, len(trend)),
	}
	for i := range ps {
		out.Patterns = append(out.Patterns, toExportPattern(&ps[i]))
	}
	if p := patterns.Priority(ps); p != nil {
		ep := toExportPattern(p)
		out.Focus = &ep
	}
	for _, t := range trend {
		m := exportMatch{
			MatchID:  t.MatchID,
			PlayedAt: t.PlayedAt.UTC().Format(time.RFC3339),
			Champion: t.Champion,
			Win:      t.Win,
			Deaths:   []exportDeath{},
		}
		for _, d := range byMatch[t.MatchID] {
			assists := d.AssistingChampions
			if assists == nil {
				assists = []string{}
			}
			m.Deaths = append(m.Deaths, exportDeath{
				TimestampMs:    d.TimestampMs,
				Phase:          string(d.Phase),
				Zone:           string(d.Zone),
				X:              d.X,
				Y:              d.Y,
				Killer:         d.KillerChampion,
				Assists:        assists,
				DeathType:      string(d.DeathType),
				HadWardNearby:  d.HadWardNearby,
				GoldDiff:       d.GoldDiff,
				CSDiff:         d.CSDiff,
				LevelDiff:      d.LevelDiff,
				PlayerChampion: d.PlayerChampion,
			})
		}
		out.Matches = append(out.Matches, m)
	}
	return out, nil
}

func toExportPattern(p *model.Pattern) exportPattern {
	samples := p.SampleMatchIDs
	if samples == nil {
		samples = []string{}
	}
	return exportPattern{
		Key:               string(p.Key),
		Subject:           p.Subject,
		Category:          p.Category,
		Description:       p.Description,
		Occurrences:       p.Occurrences,
		Status:            string(p.Status),
		GamesSinceLast:    p.GamesSinceLast,
		ImprovementStreak: p.ImprovementStreak,
		SampleMatchIDs:    samples,
	}
}
