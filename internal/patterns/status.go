package patterns

import "github.com/pable/go-lol-coach/internal/model"

// Games without a trigger before a pattern is considered improving or broken.
const (
	ImprovingAfterGames = 3
	BrokenAfterGames    = 5
)

// StatusFor returns the status implied by the latest match outcome and the
// number of games since the pattern last triggered.
func StatusFor(triggered bool, gamesSince int) model.PatternStatus {
	switch {
	case triggered:
		return model.StatusActive
	case gamesSince >= BrokenAfterGames:
		return model.StatusBroken
	case gamesSince >= ImprovingAfterGames:
		return model.StatusImproving
	default:
		return model.StatusActive
	}
}

// Transition applies one analysed match to p. The caller ages p (games since
// last +1) before calling. A retrigger resets both counters; otherwise the
// improvement streak grows by one.
func Transition(reg *Registry, p model.Pattern, matchDeaths []model.DeathRecord) model.Pattern {
	triggered := false
	if d := reg.Get(p.Key); d != nil {
		triggered = d.Triggered(&p, matchDeaths)
	}

	if triggered {
		p.GamesSinceLast = 0
		p.ImprovementStreak = 0
	} else {
		p.ImprovementStreak++
	}
	p.Status = StatusFor(triggered, p.GamesSinceLast)
	return p
}
