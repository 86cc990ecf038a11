package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-lol-coach/internal/model"
	"github.com/pable/go-lol-coach/internal/pipeline"
	"github.com/pable/go-lol-coach/internal/riot"
)

var (
	ingestPUUID    string
	ingestRiotID   string
	ingestPlatform string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <match.json> [<match.json>...]",
	Short: "Analyse match-v5 JSON files without the Riot API",
	Long: `Analyse saved match-v5 payloads. The timeline is read from an embedded "timeline"
object, or from a sibling file named <name>.timeline.json. The files form the
analysis window. Raw payloads are archived like fetched matches.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestPUUID, "puuid", "", "PUUID of the tracked player (required unless --riot-id is already stored)")
	ingestCmd.Flags().StringVar(&ingestRiotID, "riot-id", "", "Riot ID (GameName#TAG) of the tracked player")
	ingestCmd.Flags().StringVar(&ingestPlatform, "platform", "", "platform id recorded for a new player")
}

func runIngest(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	var player *model.Player
	switch {
	case ingestPUUID != "":
		platform := ingestPlatform
		if platform == "" {
			platform = cfg.Riot.Platform
		}
		riotID := ingestRiotID
		if riotID == "" {
			riotID = ingestPUUID
		}
		player, err = db.GetOrCreatePlayer(ingestPUUID, riotID, platform)
	case ingestRiotID != "":
		player, err = resolvePlayer(db, ingestRiotID)
	default:
		return fmt.Errorf("pass --puuid, or --riot-id for a stored player")
	}
	if err != nil {
		return err
	}

	var matches []*model.Match
	for _, path := range args {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		tlPath := strings.TrimSuffix(path, ".json") + ".timeline.json"
		rawTL, err := os.ReadFile(tlPath)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("read %s: %w", tlPath, err)
		}

		m, err := riot.DecodeMatch(raw, rawTL)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := db.PutArchive(m.MatchID, raw, rawTL); err != nil {
			return err
		}
		if m.Timeline == nil {
			fmt.Fprintf(os.Stderr, "warning: %s has no timeline; stored as summary only\n", path)
		}
		matches = append(matches, m)
	}

	res, err := pipeline.New(db, cfg.PipelineOptions(), logger).AnalyzeMatches(context.Background(), player, matches)
	if err != nil {
		return err
	}
	printResult(res)
	return nil
}
