// Package zone maps map coordinates and game time to coarse zones and phases.
//
// Coordinates run roughly 0–15000 on both axes with the blue base in the
// bottom-left corner and the red base in the top-right. The zones are
// overlapping approximations, so rules are evaluated top to bottom and the
// first match wins.
package zone

import (
	"github.com/pable/go-lol-coach/internal/model"
)

// Map center used to split jungle quadrants.
const (
	centerX = 7500
	centerY = 7500
)

// rule pairs a predicate with the zone it yields.
type rule struct {
	zone  model.MapZone
	match func(x, y int) bool
}

// inRiver is the diagonal band running from the top-left to bottom-right.
func inRiver(x, y int) bool {
	sum := x + y
	return sum > 11000 && sum < 19000
}

// rules is the precedence order. Do not reorder: a river point can also sit
// on a lane edge, and the answer depends on which check runs first.
var rules = []rule{
	{model.ZoneBaseBlue, func(x, y int) bool { return x < 2000 && y < 2000 }},
	{model.ZoneBaseRed, func(x, y int) bool { return x > 13000 && y > 13000 }},

	{model.ZoneRiverTop, func(x, y int) bool { return inRiver(x, y) && (y > 10000 || x < 5000) }},
	{model.ZoneRiverBot, func(x, y int) bool { return inRiver(x, y) && (y < 5000 || x > 10000) }},
	{model.ZoneRiverMid, inRiver},

	{model.ZoneTopLane, func(x, y int) bool { return x < 4000 && y > 11000 }},
	{model.ZoneTopLane, func(x, y int) bool { return x < 2500 && y > 8000 }},
	{model.ZoneBotLane, func(x, y int) bool { return x > 11000 && y < 4000 }},
	{model.ZoneBotLane, func(x, y int) bool { return x > 8000 && y < 2500 }},

	{model.ZoneMidLane, func(x, y int) bool {
		return abs(x-y) < 3000 && x > 4000 && x < 11000 && y > 4000 && y < 11000
	}},

	{model.ZoneJungleTopBlue, func(x, y int) bool { return x < centerX && y > centerY }},
	{model.ZoneJungleBotBlue, func(x, y int) bool { return x < centerX }},
	{model.ZoneJungleTopRed, func(x, y int) bool { return y > centerY }},
	{model.ZoneJungleBotRed, func(x, y int) bool { return true }},
}

// MapZone classifies a coordinate pair.
func MapZone(x, y int) model.MapZone {
	for _, r := range rules {
		if r.match(x, y) {
			return r.zone
		}
	}
	return model.ZoneUnknown
}

// OfPosition classifies an optional position; nil yields ZoneUnknown.
func OfPosition(p *model.Position) model.MapZone {
	if p == nil {
		return model.ZoneUnknown
	}
	return MapZone(p.X, p.Y)
}

// GamePhase returns the phase for an in-game timestamp in milliseconds.
func GamePhase(timestampMs int64) model.GamePhase {
	switch {
	case timestampMs < 10*60000:
		return model.PhaseEarly
	case timestampMs < 20*60000:
		return model.PhaseMid
	default:
		return model.PhaseLate
	}
}

// IsRiver reports whether z is one of the river sub-zones.
func IsRiver(z model.MapZone) bool {
	switch z {
	case model.ZoneRiverTop, model.ZoneRiverBot, model.ZoneRiverMid:
		return true
	}
	return false
}

// IsSidelane reports whether z is the top or bottom lane.
func IsSidelane(z model.MapZone) bool {
	return z == model.ZoneTopLane || z == model.ZoneBotLane
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
