package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-lol-coach/internal/coach"
	"github.com/pable/go-lol-coach/internal/patterns"
)

var coachCmd = &cobra.Command{
	Use:   "coach <GameName#TAG|puuid> [question]",
	Short: "AI coaching on the player's priority pattern (requires ANTHROPIC_API_KEY)",
	Long: `Generate coaching from the stored patterns without fetching new matches.
Run 'lolcoach analyze' first to bring patterns up to date.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCoach,
}

func runCoach(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	player, err := resolvePlayer(db, args[0])
	if err != nil {
		return err
	}

	ps, err := db.ListPatterns(player.ID)
	if err != nil {
		return fmt.Errorf("list patterns: %w", err)
	}
	if len(ps) == 0 {
		return fmt.Errorf("no patterns for %s: run 'lolcoach analyze' first", player.RiotID)
	}
	priority := patterns.Priority(ps)

	last, err := db.LastSession(player.ID)
	if err != nil {
		return fmt.Errorf("last session: %w", err)
	}
	opener := coach.Opener(last, priority, ps, time.Now())
	fmt.Fprintln(os.Stdout, cGreeting.Sprint(opener))

	return streamCoaching(ctx, coach.Request{
		RiotID:   player.RiotID,
		Opener:   opener,
		Priority: priority,
		Patterns: ps,
		Question: strings.Join(args[1:], " "),
	})
}
