package coach

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pable/go-lol-coach/internal/model"
)

// GeneralFocus is recorded when a session has no priority pattern.
const GeneralFocus = "general"

// FocusArea returns the focus label recorded for a session.
func FocusArea(priority *model.Pattern) string {
	if priority == nil {
		return GeneralFocus
	}
	return priority.Label()
}

// Opener builds the line that starts a coaching session. last is the
// previous session (nil for a first session), priority the current focus
// pattern and ps every tracked pattern.
func Opener(last *model.Session, priority *model.Pattern, ps []model.Pattern, now time.Time) string {
	var parts []string

	if last != nil && last.FocusArea != "" && last.FocusArea != GeneralFocus {
		parts = append(parts, fmt.Sprintf("Last time we talked about %s (%s).",
			last.FocusArea, humanize.RelTime(last.StartedAt, now, "ago", "from now")))
	}

	if p := improving(priority, ps); p != nil {
		parts = append(parts, fmt.Sprintf("Your %s has been improving - %d games without triggering!",
			p.Key.Title(), p.ImprovementStreak))
	}

	for i := range ps {
		if ps[i].Status == model.StatusBroken {
			parts = append(parts, fmt.Sprintf("Great news: you've broken the %s pattern!", ps[i].Key.Title()))
			break
		}
	}

	if len(parts) == 0 {
		if last != nil {
			return "Good to see you again! Ready for some coaching?"
		}
		return "Let's take a look at your gameplay!"
	}
	return strings.Join(parts, " ")
}

// improving returns the priority pattern when it has a streak, else the
// first improving pattern in ps.
func improving(priority *model.Pattern, ps []model.Pattern) *model.Pattern {
	if priority != nil && priority.ImprovementStreak > 0 {
		return priority
	}
	for i := range ps {
		if ps[i].Status == model.StatusImproving && ps[i].ImprovementStreak > 0 {
			return &ps[i]
		}
	}
	return nil
}
