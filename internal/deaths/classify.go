package deaths

import (
	"math"

	"github.com/pable/go-lol-coach/internal/model"
)

// Ward proximity defaults.
const (
	DefaultWardLookbackMs = 30000
	DefaultWardRadius     = 1500
)

// WardPlacement is a ward placed by the tracked player.
type WardPlacement struct {
	TimestampMs int64
	X, Y        int
}

// WardNearby reports whether any ward was placed strictly before the death,
// less than lookbackMs earlier, and less than radius units away. Both
// boundaries are exclusive.
func WardNearby(wards []WardPlacement, deathTs int64, deathX, deathY int, lookbackMs int64, radius float64) bool {
	for _, w := range wards {
		dt := deathTs - w.TimestampMs
		if dt <= 0 || dt >= lookbackMs {
			continue
		}
		dx := float64(deathX - w.X)
		dy := float64(deathY - w.Y)
		if math.Sqrt(dx*dx+dy*dy) < radius {
			return true
		}
	}
	return false
}

// JunglerIDs returns the participant ids holding the jungle role on teamID.
func JunglerIDs(participants []model.Participant, teamID int) []int {
	var ids []int
	for _, p := range participants {
		if p.TeamID == teamID && p.TeamPosition == model.RoleJungle {
			ids = append(ids, p.ParticipantID)
		}
	}
	return ids
}

// ClassifyDeathType labels a death from the killer and assisters.
// junglerIDs are the enemy team's junglers. TOWER_DIVE is never produced:
// there is no tower-proximity check.
func ClassifyDeathType(killerID int, assistingIDs, junglerIDs []int) model.DeathType {
	enemies := 1 + len(assistingIDs)

	isJungler := func(id int) bool {
		for _, j := range junglerIDs {
			if j == id {
				return true
			}
		}
		return false
	}
	junglerInvolved := isJungler(killerID)
	for _, id := range assistingIDs {
		if isJungler(id) {
			junglerInvolved = true
			break
		}
	}

	switch {
	case enemies >= 2 && junglerInvolved:
		return model.DeathGank
	case enemies == 1:
		return model.DeathSoloKill
	case enemies >= 3:
		return model.DeathTeamfight
	default:
		return model.DeathCaught
	}
}
