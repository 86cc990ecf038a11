package patterns

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/pable/go-lol-coach/internal/model"
)

// Store is the pattern persistence the tracker needs.
type Store interface {
	ListPatterns(playerID int64) ([]model.Pattern, error)
	// UpsertPattern inserts or updates the row for (player, key, subject)
	// and resets its games-since counter to 0.
	UpsertPattern(playerID int64, u model.PatternUpsert) error
	// AgeAllPatterns adds one to games-since for every pattern of the player.
	AgeAllPatterns(playerID int64) error
	UpdatePatternStatus(p *model.Pattern) error
}

// Tracker runs detection and status transitions against a Store. Callers
// serialise calls per player.
type Tracker struct {
	store  Store
	reg    *Registry
	logger *zap.Logger
}

// NewTracker wires a tracker. A nil registry uses the built-in detectors.
func NewTracker(store Store, reg *Registry, logger *zap.Logger) *Tracker {
	if reg == nil {
		reg = NewDefaultRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{store: store, reg: reg, logger: logger}
}

// Registry returns the detectors in use.
func (t *Tracker) Registry() *Registry { return t.reg }

// ApplyBatch detects patterns across deaths and writes the upserts. When
// fresh is non-empty, an already stored pattern is only refreshed if one of
// its contributing matches is in fresh; new patterns are always written.
func (t *Tracker) ApplyBatch(playerID int64, deaths []model.DeathRecord, fresh []string) ([]model.PatternUpsert, error) {
	existing, err := t.store.ListPatterns(playerID)
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	stored := make(map[string]bool, len(existing))
	for _, p := range existing {
		stored[identity(p.Key, p.Subject)] = true
	}
	isFresh := make(map[string]bool, len(fresh))
	for _, id := range fresh {
		isFresh[id] = true
	}

	var applied []model.PatternUpsert
	for _, u := range Detect(t.reg, deaths, existing) {
		if len(fresh) > 0 && stored[identity(u.Key, u.Subject)] && !touches(u.MatchIDs, isFresh) {
			continue
		}
		if err := t.store.UpsertPattern(playerID, u); err != nil {
			return nil, fmt.Errorf("upsert pattern %s: %w", u.Key, err)
		}
		applied = append(applied, u)
	}
	t.logger.Info("patterns detected",
		zap.Int64("player_id", playerID),
		zap.Int("deaths", len(deaths)),
		zap.Int("patterns", len(applied)),
	)
	return applied, nil
}

func touches(ids []string, set map[string]bool) bool {
	for _, id := range ids {
		if set[id] {
			return true
		}
	}
	return false
}

// Advance records one more analysed match: every pattern is aged, then
// re-evaluated against that match's deaths. It returns the updated patterns.
func (t *Tracker) Advance(playerID int64, matchDeaths []model.DeathRecord) ([]model.Pattern, error) {
	if err := t.store.AgeAllPatterns(playerID); err != nil {
		return nil, fmt.Errorf("age patterns: %w", err)
	}
	ps, err := t.store.ListPatterns(playerID)
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}

	out := make([]model.Pattern, 0, len(ps))
	for _, p := range ps {
		next := Transition(t.reg, p, matchDeaths)
		if err := t.store.UpdatePatternStatus(&next); err != nil {
			return nil, fmt.Errorf("update pattern %s: %w", p.Label(), err)
		}
		if next.Status != p.Status {
			t.logger.Debug("pattern status changed",
				zap.String("pattern", p.Label()),
				zap.String("from", string(p.Status)),
				zap.String("to", string(next.Status)),
				zap.Int("games_since_last", next.GamesSinceLast),
			)
		}
		out = append(out, next)
	}
	return out, nil
}

// Focus returns the current priority pattern (nil if none is active) and
// the full pattern list it was chosen from.
func (t *Tracker) Focus(playerID int64) (*model.Pattern, []model.Pattern, error) {
	ps, err := t.store.ListPatterns(playerID)
	if err != nil {
		return nil, nil, fmt.Errorf("list patterns: %w", err)
	}
	return Priority(ps), ps, nil
}
