package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pable/go-lol-coach/internal/coach"
	"github.com/pable/go-lol-coach/internal/pipeline"
	"github.com/pable/go-lol-coach/internal/report"
	"github.com/pable/go-lol-coach/internal/riot"
)

var (
	analyzeMatches  int
	analyzePlatform string
	analyzeCoach    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <GameName#TAG>",
	Short: "Fetch recent matches from the Riot API and update death patterns (requires RIOT_API_KEY)",
	Long: `Fetch the player's recent ranked matches, extract every death, detect recurring
patterns across the window and advance each pattern's status once per new match.
Matches already analysed are never refetched. Pass --coach to follow up with
AI coaching on the priority pattern (requires ANTHROPIC_API_KEY).`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().IntVarP(&analyzeMatches, "matches", "n", 0, "number of recent matches to analyse (default from config, 20)")
	analyzeCmd.Flags().StringVar(&analyzePlatform, "platform", "", "platform id, e.g. na1, euw1, kr (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeCoach, "coach", false, "generate coaching for the priority pattern afterwards")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	gameName, tagLine, err := riot.ParseRiotID(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ropts := cfg.RiotOptions()
	if analyzePlatform != "" {
		ropts.Platform = analyzePlatform
	}
	client, err := riot.NewClient(ropts, logger)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	account, err := client.GetAccountByRiotID(ctx, gameName, tagLine)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", args[0], err)
	}
	player, err := db.GetOrCreatePlayer(account.PUUID, account.RiotID(), ropts.Platform)
	if err != nil {
		return fmt.Errorf("store player: %w", err)
	}

	popts := cfg.PipelineOptions()
	if analyzeMatches > 0 {
		popts.Matches = analyzeMatches
	}
	fmt.Fprintf(os.Stdout, "Analysing up to %d matches for %s...\n", popts.Matches, player.RiotID)

	res, err := pipeline.New(db, popts, logger).Analyze(ctx, client, player)
	if err != nil {
		return err
	}
	printResult(res)

	if analyzeCoach {
		return streamCoaching(ctx, coach.Request{
			RiotID:   res.Player.RiotID,
			Opener:   openerOf(res),
			Priority: res.Priority,
			Patterns: res.Patterns,
		})
	}
	return nil
}

// printResult summarises an analysis run on stdout.
func printResult(res *pipeline.Result) {
	fmt.Fprintf(os.Stdout, "\n%d new match(es) analysed", len(res.NewMatches))
	if res.NoTimeline > 0 {
		fmt.Fprintf(os.Stdout, ", %d without timeline", res.NoTimeline)
	}
	if res.Skipped > 0 {
		fmt.Fprintf(os.Stdout, ", %d skipped (player not in match)", res.Skipped)
	}
	fmt.Fprintf(os.Stdout, "; %d deaths in window.\n", res.Deaths)

	if len(res.NewMatches) == 0 {
		fmt.Fprintln(os.Stdout, "Nothing new since the last analysis; patterns unchanged.")
	}
	if len(res.Patterns) > 0 {
		fmt.Fprintln(os.Stdout)
		report.PrintPatternTable(os.Stdout, res.Patterns, res.Priority)
	}
	fmt.Fprintln(os.Stdout)
	report.PrintPriority(os.Stdout, res.Priority)
	if res.Session != nil {
		fmt.Fprintf(os.Stdout, "\n%s\n", cGreeting.Sprint(res.Session.Opener))
	}
}

func openerOf(res *pipeline.Result) string {
	if res.Session == nil {
		return ""
	}
	return res.Session.Opener
}

// streamCoaching generates coaching text to stdout.
func streamCoaching(ctx context.Context, req coach.Request) error {
	gen, err := coach.NewAnthropic(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens, logger)
	if err != nil {
		return err
	}
	gen.Out = os.Stdout

	fmt.Fprintln(os.Stdout, "\n─── Coaching ────────────────────────────────────────")
	_, err = gen.Generate(ctx, req)
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")
	return err
}
