package deaths

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-lol-coach/internal/model"
)

const selfPUUID = "puuid-self"

func testParticipants() []model.Participant {
	return []model.Participant{
		{ParticipantID: 1, PUUID: selfPUUID, ChampionName: "Jinx", TeamID: model.TeamBlue, TeamPosition: "BOTTOM"},
		{ParticipantID: 2, PUUID: "p2", ChampionName: "Thresh", TeamID: model.TeamBlue, TeamPosition: "UTILITY"},
		{ParticipantID: 3, PUUID: "p3", ChampionName: "Ahri", TeamID: model.TeamBlue, TeamPosition: "MIDDLE"},
		{ParticipantID: 4, PUUID: "p4", ChampionName: "LeeSin", TeamID: model.TeamBlue, TeamPosition: "JUNGLE"},
		{ParticipantID: 5, PUUID: "p5", ChampionName: "Garen", TeamID: model.TeamBlue, TeamPosition: "TOP"},
		{ParticipantID: 6, PUUID: "p6", ChampionName: "Caitlyn", TeamID: model.TeamRed, TeamPosition: "BOTTOM"},
		{ParticipantID: 7, PUUID: "p7", ChampionName: "Elise", TeamID: model.TeamRed, TeamPosition: "JUNGLE"},
		{ParticipantID: 8, PUUID: "p8", ChampionName: "Syndra", TeamID: model.TeamRed, TeamPosition: "MIDDLE"},
		{ParticipantID: 9, PUUID: "p9", ChampionName: "Nautilus", TeamID: model.TeamRed, TeamPosition: "UTILITY"},
		{ParticipantID: 10, PUUID: "p10", ChampionName: "Darius", TeamID: model.TeamRed, TeamPosition: "TOP"},
	}
}

func testMatch(frames ...model.Frame) *model.Match {
	return &model.Match{
		MatchID:      "NA1_100",
		GameDuration: 1800,
		Participants: testParticipants(),
		Timeline:     &model.Timeline{FrameInterval: 60000, Frames: frames},
	}
}

func kill(ts int64, killer, victim int, x, y int, assists ...int) model.Event {
	return model.Event{
		Type:                    model.EventChampionKill,
		Timestamp:               ts,
		HasTimestamp:            true,
		KillerID:                killer,
		VictimID:                victim,
		AssistingParticipantIDs: assists,
		Position:                &model.Position{X: x, Y: y},
	}
}

func ward(ts int64, creator int, x, y int) model.Event {
	return model.Event{
		Type:         model.EventWardPlaced,
		Timestamp:    ts,
		HasTimestamp: true,
		CreatorID:    creator,
		Position:     &model.Position{X: x, Y: y},
	}
}

func TestExtract_SingleRiverDeath(t *testing.T) {
	m := testMatch(
		model.Frame{Timestamp: 0},
		model.Frame{Timestamp: 300000, Events: []model.Event{kill(300000, 7, 1, 4000, 13000)}},
	)

	got, err := Extract(m, selfPUUID, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, got, 1)

	d := got[0]
	assert.Equal(t, "NA1_100", d.MatchID)
	assert.Equal(t, int64(300000), d.TimestampMs)
	assert.Equal(t, model.PhaseEarly, d.Phase)
	assert.Equal(t, model.ZoneRiverTop, d.Zone)
	assert.False(t, d.HadWardNearby)
	assert.Equal(t, "Elise", d.KillerChampion)
	assert.Equal(t, 7, d.KillerParticipantID)
	assert.Equal(t, "Jinx", d.PlayerChampion)
	assert.Equal(t, model.DeathSoloKill, d.DeathType)
	assert.Empty(t, d.AssistingChampions)
}

func TestExtract_PlayerNotInMatch(t *testing.T) {
	m := testMatch(model.Frame{Timestamp: 0})

	got, err := Extract(m, "someone-else", DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPlayerNotInMatch))
	assert.Nil(t, got)
}

func TestExtract_NilMatch(t *testing.T) {
	_, err := Extract(nil, selfPUUID, DefaultOptions())
	assert.Error(t, err)
}

func TestExtract_NoTimeline(t *testing.T) {
	m := testMatch()
	m.Timeline = nil

	got, err := Extract(m, selfPUUID, DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoTimeline))
	assert.Nil(t, got)

	// A foreign match is reported as such even without a timeline.
	_, err = Extract(m, "someone-else", DefaultOptions())
	assert.True(t, errors.Is(err, ErrPlayerNotInMatch))
}

func TestExtract_IgnoresOtherVictims(t *testing.T) {
	m := testMatch(
		model.Frame{Timestamp: 60000, Events: []model.Event{
			kill(70000, 1, 6, 9000, 1500),
			kill(80000, 3, 8, 7000, 7000),
		}},
	)
	got, err := Extract(m, selfPUUID, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExtract_LaneOpponentDiffs(t *testing.T) {
	m := testMatch(
		model.Frame{Timestamp: 0, ParticipantFrames: map[int]model.ParticipantFrame{
			1: {TotalGold: 500, Level: 1},
			6: {TotalGold: 500, Level: 1},
		}},
		model.Frame{Timestamp: 60000, ParticipantFrames: map[int]model.ParticipantFrame{
			1: {TotalGold: 2000, MinionsKilled: 40, JungleMinionsKilled: 2, Level: 5},
			6: {TotalGold: 1500, MinionsKilled: 30, Level: 4},
		}},
		// The death is reported in the frame that follows it.
		model.Frame{Timestamp: 120000,
			ParticipantFrames: map[int]model.ParticipantFrame{
				1: {TotalGold: 9000, Level: 9},
				6: {TotalGold: 100, Level: 1},
			},
			Events: []model.Event{kill(90000, 6, 1, 9000, 1500)},
		},
	)

	got, err := Extract(m, selfPUUID, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, got, 1)

	d := got[0]
	assert.Equal(t, 2000, d.PlayerGold)
	assert.Equal(t, 500, d.GoldDiff)
	assert.Equal(t, 12, d.CSDiff)
	assert.Equal(t, 1, d.LevelDiff)
	assert.Equal(t, model.ZoneBotLane, d.Zone)
}

func TestExtract_NoLaneOpponent(t *testing.T) {
	m := testMatch(
		model.Frame{Timestamp: 60000,
			ParticipantFrames: map[int]model.ParticipantFrame{
				1: {TotalGold: 2000, MinionsKilled: 40, Level: 5},
				6: {TotalGold: 1500, MinionsKilled: 30, Level: 4},
			},
			Events: []model.Event{kill(90000, 6, 1, 9000, 1500)},
		},
	)
	m.Participants[0].TeamPosition = ""

	got, err := Extract(m, selfPUUID, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, got, 1)

	d := got[0]
	assert.Equal(t, 2000, d.PlayerGold)
	assert.Zero(t, d.GoldDiff)
	assert.Zero(t, d.CSDiff)
	assert.Zero(t, d.LevelDiff)
}

func TestExtract_MissingOpponentFrameIsLevelOne(t *testing.T) {
	m := testMatch(
		model.Frame{Timestamp: 60000,
			ParticipantFrames: map[int]model.ParticipantFrame{
				1: {TotalGold: 2000, MinionsKilled: 40, Level: 4},
			},
			Events: []model.Event{kill(90000, 6, 1, 9000, 1500)},
		},
	)

	got, err := Extract(m, selfPUUID, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, got, 1)

	d := got[0]
	assert.Equal(t, 3, d.LevelDiff)
	assert.Equal(t, 2000, d.GoldDiff)
	assert.Equal(t, 40, d.CSDiff)
}

func TestExtract_WardCoverage(t *testing.T) {
	m := testMatch(
		model.Frame{Timestamp: 240000, Events: []model.Event{
			ward(280000, 1, 4100, 13100), // own ward, close and recent
			ward(285000, 2, 8000, 8000),  // ally ward, not counted
		}},
		model.Frame{Timestamp: 300000, Events: []model.Event{
			kill(300000, 7, 1, 4000, 13000),
			kill(400000, 7, 1, 4000, 13000), // ward now too old
			kill(420000, 8, 1, 8000, 8000),  // only the ally warded here
		}},
	)

	got, err := Extract(m, selfPUUID, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].HadWardNearby)
	assert.False(t, got[1].HadWardNearby)
	assert.False(t, got[2].HadWardNearby)
}

func TestExtract_WardPlacedAfterDeath(t *testing.T) {
	m := testMatch(
		model.Frame{Timestamp: 300000, Events: []model.Event{
			kill(300000, 7, 1, 4000, 13000),
			ward(305000, 1, 4000, 13000),
		}},
	)
	got, err := Extract(m, selfPUUID, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].HadWardNearby)
}

func TestExtract_MalformedEventKeepsOthers(t *testing.T) {
	m := testMatch(
		model.Frame{Timestamp: 180000, Events: []model.Event{
			// No position and no timestamp.
			{Type: model.EventChampionKill, KillerID: 6, VictimID: 1},
			kill(200000, 6, 1, 9000, 1500),
		}},
	)

	got, err := Extract(m, selfPUUID, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(180000), got[0].TimestampMs)
	assert.Equal(t, model.ZoneUnknown, got[0].Zone)
	assert.Zero(t, got[0].X)
	assert.Zero(t, got[0].Y)

	assert.Equal(t, int64(200000), got[1].TimestampMs)
	assert.Equal(t, model.ZoneBotLane, got[1].Zone)
}

func TestExtract_GankAndAssisters(t *testing.T) {
	m := testMatch(
		model.Frame{Timestamp: 240000, Events: []model.Event{
			kill(250000, 7, 1, 9000, 1500, 6, 42),
		}},
	)

	got, err := Extract(m, selfPUUID, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.DeathGank, got[0].DeathType)
	assert.Equal(t, []string{"Caitlyn", "Unknown"}, got[0].AssistingChampions)
}

func TestExtract_UnknownKiller(t *testing.T) {
	m := testMatch(
		model.Frame{Timestamp: 240000, Events: []model.Event{
			kill(250000, 0, 1, 14500, 14500),
		}},
	)
	got, err := Extract(m, selfPUUID, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Unknown", got[0].KillerChampion)
	assert.Equal(t, model.ZoneBaseRed, got[0].Zone)
}

func TestExtract_OrderAndPhases(t *testing.T) {
	m := testMatch(
		model.Frame{Timestamp: 300000, Events: []model.Event{kill(300000, 6, 1, 9000, 1500)}},
		model.Frame{Timestamp: 900000, Events: []model.Event{kill(900000, 6, 1, 9000, 1500)}},
		model.Frame{Timestamp: 1500000, Events: []model.Event{kill(1500000, 6, 1, 9000, 1500)}},
	)

	got, err := Extract(m, selfPUUID, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, model.PhaseEarly, got[0].Phase)
	assert.Equal(t, model.PhaseMid, got[1].Phase)
	assert.Equal(t, model.PhaseLate, got[2].Phase)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].TimestampMs, got[i].TimestampMs)
	}
}
