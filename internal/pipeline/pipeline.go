// Package pipeline runs an analysis pass for one player: fetch, extract,
// detect, age, prioritise and record a coaching session.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-lol-coach/internal/coach"
	"github.com/pable/go-lol-coach/internal/deaths"
	"github.com/pable/go-lol-coach/internal/model"
	"github.com/pable/go-lol-coach/internal/patterns"
	"github.com/pable/go-lol-coach/internal/riot"
	"github.com/pable/go-lol-coach/internal/storage"
)

// Source is the match API the analyzer fetches from.
type Source interface {
	GetMatchIDs(ctx context.Context, puuid string, count, queue int) ([]string, error)
	GetMatch(ctx context.Context, matchID string) ([]byte, error)
	GetTimeline(ctx context.Context, matchID string) ([]byte, error)
}

// Options tunes an Analyzer.
type Options struct {
	Matches int // window size
	Queue   int // 0 = all queues
	Workers int
	Deaths  deaths.Options
}

// DefaultOptions analyses the last 20 ranked solo games with 4 workers.
func DefaultOptions() Options {
	return Options{
		Matches: 20,
		Queue:   420,
		Workers: 4,
		Deaths:  deaths.DefaultOptions(),
	}
}

// Result summarises one run.
type Result struct {
	RunID      string
	Player     *model.Player
	NewMatches []string // analysed this run, oldest first
	Skipped    int      // player not in match
	NoTimeline int
	Deaths     int // deaths across the window
	Upserts    []model.PatternUpsert
	Patterns   []model.Pattern
	Priority   *model.Pattern
	Session    *model.Session // nil when nothing new was analysed
}

// Analyzer is safe for concurrent use; runs for the same player are
// serialised.
type Analyzer struct {
	db      *storage.DB
	reg     *patterns.Registry
	opts    Options
	logger  *zap.Logger
	now     func() time.Time

	locks sync.Map // player id -> *sync.Mutex
}

// New returns an Analyzer over db.
func New(db *storage.DB, opts Options, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Matches <= 0 {
		opts.Matches = DefaultOptions().Matches
	}
	return &Analyzer{
		db:      db,
		reg:     patterns.NewDefaultRegistry(),
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

func (a *Analyzer) lock(playerID int64) func() {
	v, _ := a.locks.LoadOrStore(playerID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Analyze fetches the player's recent match ids and analyses every one not
// already stored. Raw payloads are archived before decoding; archived
// matches are never refetched.
func (a *Analyzer) Analyze(ctx context.Context, src Source, player *model.Player) (*Result, error) {
	ids, err := src.GetMatchIDs(ctx, player.PUUID, a.opts.Matches, a.opts.Queue)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	var missing []string
	for _, id := range ids {
		ok, err := a.db.MatchExists(player.ID, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, id)
		}
	}

	fetched, err := a.fetch(ctx, src, missing)
	if err != nil {
		return nil, err
	}

	// Match ids arrive newest first.
	window := make([]string, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		window = append(window, ids[i])
	}
	return a.run(ctx, player, window, fetched)
}

// AnalyzeMatches analyses already decoded matches, as used by offline
// ingest. The window is exactly the given matches.
func (a *Analyzer) AnalyzeMatches(ctx context.Context, player *model.Player, matches []*model.Match) (*Result, error) {
	sorted := sortedByCreation(matches)
	window := make([]string, 0, len(sorted))
	for _, m := range sorted {
		window = append(window, m.MatchID)
	}
	return a.run(ctx, player, window, sorted)
}

func (a *Analyzer) fetch(ctx context.Context, src Source, ids []string) ([]*model.Match, error) {
	out := make([]*model.Match, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			m, err := a.load(gctx, src, id)
			if err != nil {
				return fmt.Errorf("match %s: %w", id, err)
			}
			out[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Analyzer) load(ctx context.Context, src Source, id string) (*model.Match, error) {
	rawMatch, rawTimeline, ok, err := a.db.GetArchive(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		if rawMatch, err = src.GetMatch(ctx, id); err != nil {
			return nil, err
		}
		rawTimeline, err = src.GetTimeline(ctx, id)
		if errors.Is(err, riot.ErrNotFound) {
			rawTimeline, err = nil, nil
		}
		if err != nil {
			return nil, err
		}
		if err := a.db.PutArchive(id, rawMatch, rawTimeline); err != nil {
			return nil, err
		}
	}
	return riot.DecodeMatch(rawMatch, rawTimeline)
}

type extracted struct {
	summary model.MatchSummary
	deaths  []model.DeathRecord
	skipped bool
}

func (a *Analyzer) run(ctx context.Context, player *model.Player, window []string, matches []*model.Match) (*Result, error) {
	unlock := a.lock(player.ID)
	defer unlock()

	res := &Result{RunID: uuid.NewString(), Player: player}
	log := a.logger.With(zap.String("run_id", res.RunID), zap.String("player", player.RiotID))

	var fresh []*model.Match
	for _, m := range sortedByCreation(matches) {
		ok, err := a.db.MatchExists(player.ID, m.MatchID)
		if err != nil {
			return nil, err
		}
		if !ok {
			fresh = append(fresh, m)
		}
	}

	results := make([]extracted, len(fresh))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i, m := range fresh {
		i, m := i, m
		g.Go(func() error {
			ds, err := deaths.Extract(m, player.PUUID, a.opts.Deaths)
			if errors.Is(err, deaths.ErrPlayerNotInMatch) {
				log.Warn("match skipped", zap.String("match_id", m.MatchID), zap.Error(err))
				results[i].skipped = true
				return nil
			}
			if errors.Is(err, deaths.ErrNoTimeline) {
				results[i] = extracted{summary: summarize(m, player)}
				return nil
			}
			if err != nil {
				return fmt.Errorf("extract %s: %w", m.MatchID, err)
			}
			log.Debug("deaths extracted", zap.String("match_id", m.MatchID), zap.Int("deaths", len(ds)))
			results[i] = extracted{summary: summarize(m, player), deaths: ds}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Matches, patterns and the session commit together: a failed run
	// leaves no match marked as analysed.
	err := a.db.InTx(func(tx *storage.DB) error {
		return a.record(tx, res, window, results, log)
	})
	if err != nil {
		return nil, err
	}
	if res.Session == nil {
		log.Info("nothing new to analyse", zap.Int("skipped", res.Skipped))
		return res, nil
	}

	log.Info("analysis complete",
		zap.Int("new_matches", len(res.NewMatches)),
		zap.Int("skipped", res.Skipped),
		zap.Int("window_deaths", res.Deaths),
		zap.String("focus", res.Session.FocusArea),
	)
	return res, nil
}

// record persists the extracted matches and advances the player's patterns.
// It leaves res.Session nil when no match with a timeline was new.
func (a *Analyzer) record(tx *storage.DB, res *Result, window []string, results []extracted, log *zap.Logger) error {
	tracker := patterns.NewTracker(tx, a.reg, log)
	player := res.Player

	newDeaths := map[string][]model.DeathRecord{}
	for _, r := range results {
		if r.skipped {
			res.Skipped++
			continue
		}
		if err := tx.SaveMatch(r.summary, r.deaths); err != nil {
			return err
		}
		if !r.summary.HasTimeline {
			res.NoTimeline++
			continue
		}
		res.NewMatches = append(res.NewMatches, r.summary.MatchID)
		newDeaths[r.summary.MatchID] = r.deaths
	}

	if len(res.NewMatches) == 0 {
		var err error
		res.Priority, res.Patterns, err = tracker.Focus(player.ID)
		return err
	}

	byMatch, err := tx.DeathsForMatches(player.ID, window)
	if err != nil {
		return err
	}
	var all []model.DeathRecord
	for _, id := range window {
		all = append(all, byMatch[id]...)
	}
	res.Deaths = len(all)

	if res.Upserts, err = tracker.ApplyBatch(player.ID, all, res.NewMatches); err != nil {
		return err
	}
	for _, id := range res.NewMatches {
		if _, err := tracker.Advance(player.ID, newDeaths[id]); err != nil {
			return err
		}
	}

	if res.Priority, res.Patterns, err = tracker.Focus(player.ID); err != nil {
		return err
	}

	last, err := tx.LastSession(player.ID)
	if err != nil {
		return err
	}
	session := &model.Session{
		PlayerID:        player.ID,
		FocusArea:       coach.FocusArea(res.Priority),
		MatchesAnalyzed: len(res.NewMatches),
		Opener:          coach.Opener(last, res.Priority, res.Patterns, a.now()),
		StartedAt:       a.now().UTC(),
	}
	if res.Priority != nil {
		session.PatternKey = res.Priority.Key
	}
	if err := tx.CreateSession(session); err != nil {
		return err
	}
	res.Session = session
	return nil
}

func sortedByCreation(matches []*model.Match) []*model.Match {
	out := make([]*model.Match, 0, len(matches))
	for _, m := range matches {
		if m != nil {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].GameCreation != out[j].GameCreation {
			return out[i].GameCreation < out[j].GameCreation
		}
		return out[i].MatchID < out[j].MatchID
	})
	return out
}

func summarize(m *model.Match, player *model.Player) model.MatchSummary {
	p := m.Participant(player.PUUID)
	return model.MatchSummary{
		MatchID:         m.MatchID,
		PlayerID:        player.ID,
		Champion:        p.ChampionName,
		Role:            p.TeamPosition,
		Win:             p.Win,
		Kills:           p.Kills,
		Deaths:          p.Deaths,
		Assists:         p.Assists,
		CS:              p.CS(),
		VisionScore:     p.VisionScore,
		GameDurationSec: m.GameDuration,
		PlayedAt:        m.PlayedAt(),
		HasTimeline:     m.Timeline != nil,
	}
}
