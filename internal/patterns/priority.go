package patterns

import "github.com/pable/go-lol-coach/internal/model"

// Priority returns the active pattern with the highest
// occurrences/(games since last + 1), or nil. Improving and broken patterns
// are never chosen. Ties go to the first pattern seen.
func Priority(ps []model.Pattern) *model.Pattern {
	var best *model.Pattern
	for i := range ps {
		p := &ps[i]
		if p.Status != model.StatusActive {
			continue
		}
		if best == nil || p.PriorityScore() > best.PriorityScore() {
			best = p
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}
