// Package deaths turns a match timeline into enriched death records for one
// tracked player.
package deaths

import (
	"errors"
	"fmt"

	"github.com/pable/go-lol-coach/internal/model"
	"github.com/pable/go-lol-coach/internal/zone"
)

// ErrPlayerNotInMatch is returned when the tracked player is absent from the
// participant list. It is never reported as an empty death list.
var ErrPlayerNotInMatch = errors.New("player not in match")

// ErrNoTimeline is returned for a match without timeline data, so that a
// missing timeline is never mistaken for a deathless game.
var ErrNoTimeline = errors.New("match has no timeline")

// Options tunes the ward proximity search.
type Options struct {
	WardLookbackMs int64
	WardRadius     float64
}

// DefaultOptions returns the standard 30s / 1500 unit ward search.
func DefaultOptions() Options {
	return Options{
		WardLookbackMs: DefaultWardLookbackMs,
		WardRadius:     DefaultWardRadius,
	}
}

const unknownChampion = "Unknown"

// Extract returns every death of the player identified by puuid, in timeline
// order. Absence of the player is checked before absence of a timeline.
func Extract(m *model.Match, puuid string, opts Options) ([]model.DeathRecord, error) {
	if m == nil {
		return nil, fmt.Errorf("nil match")
	}

	self := m.Participant(puuid)
	if self == nil || self.ParticipantID == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotInMatch, m.MatchID)
	}
	if m.Timeline == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoTimeline, m.MatchID)
	}
	frames := m.Timeline.Frames

	// ---- Pass 0: lane opponent and champion lookup. ----

	// Zero means no comparable opponent; diffs stay zero.
	opponentID := 0
	if self.TeamPosition != "" {
		enemyTeam := model.OpposingTeam(self.TeamID)
		for _, p := range m.Participants {
			if p.TeamID == enemyTeam && p.TeamPosition == self.TeamPosition {
				opponentID = p.ParticipantID
				break
			}
		}
	}

	championByID := make(map[int]string, len(m.Participants))
	for _, p := range m.Participants {
		championByID[p.ParticipantID] = p.ChampionName
	}
	champion := func(id int) string {
		if c, ok := championByID[id]; ok && c != "" {
			return c
		}
		return unknownChampion
	}

	junglers := JunglerIDs(m.Participants, model.OpposingTeam(self.TeamID))

	// ---- Pass 1: ward placements by the player. ----

	var wards []WardPlacement
	for _, f := range frames {
		for _, e := range f.Events {
			if e.Type != model.EventWardPlaced || e.CreatorID != self.ParticipantID {
				continue
			}
			w := WardPlacement{TimestampMs: e.Timestamp}
			if e.Position != nil {
				w.X, w.Y = e.Position.X, e.Position.Y
			}
			wards = append(wards, w)
		}
	}

	// ---- Pass 2: deaths. ----

	var out []model.DeathRecord
	for i, f := range frames {
		for _, e := range f.Events {
			if e.Type != model.EventChampionKill || e.VictimID != self.ParticipantID {
				continue
			}

			ts := e.Timestamp
			if !e.HasTimestamp {
				ts = f.Timestamp
			}

			var x, y int
			if e.Position != nil {
				x, y = e.Position.X, e.Position.Y
			}

			assisting := make([]string, 0, len(e.AssistingParticipantIDs))
			for _, id := range e.AssistingParticipantIDs {
				assisting = append(assisting, champion(id))
			}

			d := model.DeathRecord{
				MatchID:             m.MatchID,
				TimestampMs:         ts,
				Phase:               zone.GamePhase(ts),
				X:                   x,
				Y:                   y,
				Zone:                zone.OfPosition(e.Position),
				KillerChampion:      champion(e.KillerID),
				KillerParticipantID: e.KillerID,
				AssistingChampions:  assisting,
				PlayerChampion:      self.ChampionName,
				DeathType:           ClassifyDeathType(e.KillerID, e.AssistingParticipantIDs, junglers),
			}

			snap := snapshotAt(frames, i, ts)
			mine := frameOf(snap, self.ParticipantID)
			d.PlayerGold = mine.TotalGold
			if opponentID != 0 {
				theirs := frameOf(snap, opponentID)
				d.GoldDiff = mine.TotalGold - theirs.TotalGold
				d.CSDiff = mine.CS() - theirs.CS()
				d.LevelDiff = mine.Level - theirs.Level
			}

			d.HadWardNearby = WardNearby(wards, ts, x, y, opts.WardLookbackMs, opts.WardRadius)

			out = append(out, d)
		}
	}
	return out, nil
}

// frameOf returns the participant's frame; a missing one counts as level 1
// with no gold or CS.
func frameOf(snap map[int]model.ParticipantFrame, id int) model.ParticipantFrame {
	if pf, ok := snap[id]; ok {
		return pf
	}
	return model.ParticipantFrame{Level: 1}
}

// snapshotAt returns the participant frames of the latest frame at or before
// ts, starting the search from the frame that holds the event.
func snapshotAt(frames []model.Frame, idx int, ts int64) map[int]model.ParticipantFrame {
	for j := idx; j >= 0; j-- {
		f := frames[j]
		if f.Timestamp <= ts && len(f.ParticipantFrames) > 0 {
			return f.ParticipantFrames
		}
	}
	// Nothing precedes the death; fall back to the containing frame.
	return frames[idx].ParticipantFrames
}
