// Package patterns detects recurring death patterns across matches and
// tracks each pattern's lifecycle.
//
// A Detector turns a batch of deaths into upsert instructions and answers
// whether a single match's deaths re-trigger a stored pattern. Detection,
// status transitions and priority selection are pure; Tracker applies them
// through a Store.
package patterns

import (
	"fmt"
	"sort"

	"github.com/pable/go-lol-coach/internal/model"
	"github.com/pable/go-lol-coach/internal/zone"
)

// Thresholds shared by the built-in detectors.
const (
	DefaultMinOccurrences = 2
	SameChampionMin       = 3
	AheadGoldThreshold    = 500
	AheadCSThreshold      = 15
	EarlyClusterWindowMs  = 120000
)

// Detector finds one pattern key in a batch of deaths.
type Detector interface {
	Key() model.PatternKey
	Category() string

	// Detect returns zero or more upserts for the batch.
	Detect(deaths []model.DeathRecord) []model.PatternUpsert

	// Triggered reports whether deaths from a single match re-trigger p.
	Triggered(p *model.Pattern, deaths []model.DeathRecord) bool
}

// Detect runs every detector in reg over the batch. Occurrence counts never
// fall below those already stored in existing for the same key and subject.
func Detect(reg *Registry, deaths []model.DeathRecord, existing []model.Pattern) []model.PatternUpsert {
	if len(deaths) == 0 {
		return nil
	}

	stored := make(map[string]int, len(existing))
	for _, p := range existing {
		stored[identity(p.Key, p.Subject)] = p.Occurrences
	}

	var out []model.PatternUpsert
	for _, d := range reg.All() {
		for _, u := range d.Detect(deaths) {
			if prev, ok := stored[identity(u.Key, u.Subject)]; ok && prev > u.Occurrences {
				u.Occurrences = prev
			}
			out = append(out, u)
		}
	}
	return out
}

func identity(key model.PatternKey, subject string) string {
	return string(key) + "\x00" + subject
}

// ---- Counting detectors ----

// countDetector triggers when at least min deaths satisfy match.
type countDetector struct {
	key      model.PatternKey
	category string
	min      int
	match    func(d *model.DeathRecord) bool
	describe func(n int) string
}

func (c *countDetector) Key() model.PatternKey { return c.key }
func (c *countDetector) Category() string      { return c.category }

func (c *countDetector) Detect(deaths []model.DeathRecord) []model.PatternUpsert {
	hits := filter(deaths, c.match)
	if len(hits) < c.min {
		return nil
	}
	return []model.PatternUpsert{upsert(c.key, "", c.category, c.describe(len(hits)), hits)}
}

func (c *countDetector) Triggered(_ *model.Pattern, deaths []model.DeathRecord) bool {
	return anyMatch(deaths, c.match)
}

// ---- Early death clusters ----

// earlyRepeatDetector groups EARLY deaths whose timestamps chain within
// window of each other. Only the largest qualifying cluster is reported.
type earlyRepeatDetector struct {
	min    int
	window int64
}

func (e *earlyRepeatDetector) Key() model.PatternKey { return model.PatternEarlyDeathRepeat }
func (e *earlyRepeatDetector) Category() string      { return "positioning" }

func (e *earlyRepeatDetector) Detect(deaths []model.DeathRecord) []model.PatternUpsert {
	early := filter(deaths, isEarly)

	var best []int
	for _, c := range clusterByTime(early, e.window) {
		if len(c) >= e.min && len(c) > len(best) {
			best = c
		}
	}
	if best == nil {
		return nil
	}

	// Back to batch order so samples and last match follow the input.
	sort.Ints(best)
	hits := make([]model.DeathRecord, 0, len(best))
	var sum int64
	for _, i := range best {
		hits = append(hits, early[i])
		sum += early[i].TimestampMs
	}
	avgMin := sum / int64(len(hits)) / 60000

	desc := fmt.Sprintf("Consistently dying around %d minutes into the game", avgMin)
	return []model.PatternUpsert{upsert(e.Key(), "", e.Category(), desc, hits)}
}

func (e *earlyRepeatDetector) Triggered(_ *model.Pattern, deaths []model.DeathRecord) bool {
	return anyMatch(deaths, isEarly)
}

// clusterByTime orders deaths by timestamp and splits them wherever the gap
// to the previous death exceeds window. Clusters hold indexes into deaths;
// singletons are dropped.
func clusterByTime(deaths []model.DeathRecord, window int64) [][]int {
	if len(deaths) == 0 {
		return nil
	}
	idx := make([]int, len(deaths))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return deaths[idx[a]].TimestampMs < deaths[idx[b]].TimestampMs
	})

	var clusters [][]int
	cur := []int{idx[0]}
	for _, i := range idx[1:] {
		if deaths[i].TimestampMs-deaths[cur[len(cur)-1]].TimestampMs <= window {
			cur = append(cur, i)
			continue
		}
		if len(cur) > 1 {
			clusters = append(clusters, cur)
		}
		cur = []int{i}
	}
	if len(cur) > 1 {
		clusters = append(clusters, cur)
	}
	return clusters
}

// ---- Deaths to the same champion ----

// sameKillerDetector emits one upsert per killer champion with at least min
// deaths. The champion is carried as the pattern subject.
type sameKillerDetector struct {
	min int
}

func (s *sameKillerDetector) Key() model.PatternKey { return model.PatternDiesToSameChampion }
func (s *sameKillerDetector) Category() string      { return "matchup" }

func (s *sameKillerDetector) Detect(deaths []model.DeathRecord) []model.PatternUpsert {
	byKiller := make(map[string][]model.DeathRecord)
	var killers []string
	for _, d := range deaths {
		if _, seen := byKiller[d.KillerChampion]; !seen {
			killers = append(killers, d.KillerChampion)
		}
		byKiller[d.KillerChampion] = append(byKiller[d.KillerChampion], d)
	}

	var out []model.PatternUpsert
	for _, k := range killers {
		hits := byKiller[k]
		if len(hits) < s.min {
			continue
		}
		desc := fmt.Sprintf("Died to %s %d times", k, len(hits))
		out = append(out, upsert(s.Key(), k, s.Category(), desc, hits))
	}
	return out
}

func (s *sameKillerDetector) Triggered(p *model.Pattern, deaths []model.DeathRecord) bool {
	if p == nil || p.Subject == "" {
		return false
	}
	return anyMatch(deaths, func(d *model.DeathRecord) bool { return d.KillerChampion == p.Subject })
}

// ---- Built-ins ----

func builtins() []Detector {
	return []Detector{
		&countDetector{
			key:      model.PatternRiverDeathNoWard,
			category: "vision",
			min:      DefaultMinOccurrences,
			match:    isRiverNoWard,
			describe: func(n int) string { return fmt.Sprintf("Died in river %d times without ward coverage", n) },
		},
		&countDetector{
			key:      model.PatternDiesWhenAhead,
			category: "trading",
			min:      DefaultMinOccurrences,
			match:    isAhead,
			describe: func(n int) string { return fmt.Sprintf("Died %d times while ahead in lane", n) },
		},
		&earlyRepeatDetector{min: DefaultMinOccurrences, window: EarlyClusterWindowMs},
		&countDetector{
			key:      model.PatternCaughtSidelane,
			category: "macro",
			min:      DefaultMinOccurrences,
			match:    isCaughtSidelaning,
			describe: func(n int) string { return fmt.Sprintf("Got caught while sidelaning %d times", n) },
		},
		// Never fires: the classifier does not produce tower dives.
		&countDetector{
			key:      model.PatternTowerDiveFail,
			category: "trading",
			min:      DefaultMinOccurrences,
			match:    func(d *model.DeathRecord) bool { return d.DeathType == model.DeathTowerDive },
			describe: func(n int) string { return fmt.Sprintf("Died to tower dive %d times", n) },
		},
		&countDetector{
			key:      model.PatternOverextendNoVision,
			category: "vision",
			min:      DefaultMinOccurrences,
			match:    isOverextended,
			describe: func(n int) string { return fmt.Sprintf("Overextended without vision %d times", n) },
		},
		&sameKillerDetector{min: SameChampionMin},
	}
}

func isRiverNoWard(d *model.DeathRecord) bool {
	return zone.IsRiver(d.Zone) && !d.HadWardNearby
}

func isAhead(d *model.DeathRecord) bool {
	return d.GoldDiff > AheadGoldThreshold || d.CSDiff > AheadCSThreshold
}

func isEarly(d *model.DeathRecord) bool {
	return d.Phase == model.PhaseEarly
}

func isCaughtSidelaning(d *model.DeathRecord) bool {
	return zone.IsSidelane(d.Zone) &&
		(d.Phase == model.PhaseMid || d.Phase == model.PhaseLate) &&
		d.DeathType == model.DeathCaught
}

func isOverextended(d *model.DeathRecord) bool {
	return !d.HadWardNearby && (d.DeathType == model.DeathGank || d.DeathType == model.DeathCaught)
}

// ---- helpers ----

func filter(deaths []model.DeathRecord, match func(*model.DeathRecord) bool) []model.DeathRecord {
	var out []model.DeathRecord
	for i := range deaths {
		if match(&deaths[i]) {
			out = append(out, deaths[i])
		}
	}
	return out
}

func anyMatch(deaths []model.DeathRecord, match func(*model.DeathRecord) bool) bool {
	for i := range deaths {
		if match(&deaths[i]) {
			return true
		}
	}
	return false
}

// upsert builds an instruction from the matching deaths, which are in batch
// order. Sample ids are the first MaxSampleMatches distinct match ids.
func upsert(key model.PatternKey, subject, category, desc string, hits []model.DeathRecord) model.PatternUpsert {
	u := model.PatternUpsert{
		Key:         key,
		Subject:     subject,
		Category:    category,
		Description: desc,
		Occurrences: len(hits),
	}
	seen := make(map[string]bool)
	for _, d := range hits {
		if !seen[d.MatchID] {
			seen[d.MatchID] = true
			u.MatchIDs = append(u.MatchIDs, d.MatchID)
		}
		u.LastMatchID = d.MatchID
	}
	n := min(len(u.MatchIDs), model.MaxSampleMatches)
	u.SampleMatchIDs = append([]string(nil), u.MatchIDs[:n]...)
	return u
}
