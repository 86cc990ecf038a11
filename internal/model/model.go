package model

import "time"

// Team ids as reported by the match API.
const (
	TeamBlue = 100
	TeamRed  = 200
)

// OpposingTeam returns the other side's team id.
func OpposingTeam(teamID int) int {
	if teamID == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

// RoleJungle is the teamPosition label assigned to junglers.
const RoleJungle = "JUNGLE"

// ---- Raw match data decoded from the API ----

type Participant struct {
	ParticipantID int
	PUUID         string
	ChampionName  string
	TeamID        int
	TeamPosition  string // TOP, JUNGLE, MIDDLE, BOTTOM, UTILITY; empty if unassigned
	Win           bool

	Kills, Deaths, Assists int
	TotalMinionsKilled     int
	NeutralMinionsKilled   int
	VisionScore            int
}

// CS returns lane minions plus neutral monsters killed.
func (p *Participant) CS() int {
	return p.TotalMinionsKilled + p.NeutralMinionsKilled
}

// Position is a point in map coordinates (roughly 0–15000 on both axes).
type Position struct{ X, Y int }

// ParticipantFrame is one participant's periodic economic snapshot.
type ParticipantFrame struct {
	TotalGold           int
	MinionsKilled       int
	JungleMinionsKilled int
	Level               int
}

// CS returns lane minions plus jungle monsters at snapshot time.
func (f ParticipantFrame) CS() int {
	return f.MinionsKilled + f.JungleMinionsKilled
}

// Event types consumed by the death extractor.
const (
	EventChampionKill = "CHAMPION_KILL"
	EventWardPlaced   = "WARD_PLACED"
)

// Event is a discrete timeline event. Fields a given event type does not
// carry are left at their zero value.
type Event struct {
	Type         string
	Timestamp    int64
	HasTimestamp bool

	KillerID                int
	VictimID                int
	CreatorID               int
	AssistingParticipantIDs []int

	Position *Position // nil when the event carried no position
}

type Frame struct {
	Timestamp         int64
	ParticipantFrames map[int]ParticipantFrame // keyed by participant id
	Events            []Event
}

type Timeline struct {
	FrameInterval int
	Frames        []Frame
}

type Match struct {
	MatchID      string
	GameCreation int64 // unix ms
	GameDuration int   // seconds
	QueueID      int
	Participants []Participant
	Timeline     *Timeline // nil when no timeline was fetched
}

// Participant returns the participant with the given PUUID, or nil.
func (m *Match) Participant(puuid string) *Participant {
	for i := range m.Participants {
		if m.Participants[i].PUUID == puuid {
			return &m.Participants[i]
		}
	}
	return nil
}

// PlayedAt returns the game creation time.
func (m *Match) PlayedAt() time.Time {
	if m.GameCreation == 0 {
		return time.Time{}
	}
	return time.UnixMilli(m.GameCreation).UTC()
}

// ---- Derived records ----

// GamePhase is the coarse game period a timestamp falls in.
type GamePhase string

const (
	PhaseEarly GamePhase = "early" // < 10 min
	PhaseMid   GamePhase = "mid"   // 10–20 min
	PhaseLate  GamePhase = "late"  // >= 20 min
)

// MapZone is an approximate region of the map.
type MapZone string

const (
	ZoneTopLane MapZone = "top_lane"
	ZoneMidLane MapZone = "mid_lane"
	ZoneBotLane MapZone = "bot_lane"

	ZoneRiverTop MapZone = "river_top" // baron side
	ZoneRiverBot MapZone = "river_bot" // dragon side
	ZoneRiverMid MapZone = "river_mid"

	ZoneJungleTopBlue MapZone = "jungle_top_blue"
	ZoneJungleBotBlue MapZone = "jungle_bot_blue"
	ZoneJungleTopRed  MapZone = "jungle_top_red"
	ZoneJungleBotRed  MapZone = "jungle_bot_red"

	ZoneBaseBlue MapZone = "base_blue"
	ZoneBaseRed  MapZone = "base_red"

	ZoneUnknown MapZone = "unknown"
)

// DeathType classifies how a death happened.
type DeathType string

const (
	DeathGank      DeathType = "gank"      // 2+ enemies, jungler involved
	DeathSoloKill  DeathType = "solo_kill" // 1v1
	DeathTeamfight DeathType = "teamfight" // 3+ enemies
	DeathCaught    DeathType = "caught"    // 2 enemies, no jungler
	DeathTowerDive DeathType = "tower_dive"
	DeathUnknown   DeathType = "unknown"
)

// DeathRecord is one death of the tracked player, enriched with context.
// Records are immutable once extracted.
type DeathRecord struct {
	MatchID     string
	TimestampMs int64
	Phase       GamePhase

	X, Y int
	Zone MapZone

	KillerChampion      string
	KillerParticipantID int
	AssistingChampions  []string

	HadWardNearby bool
	GoldDiff      int // player - lane opponent
	CSDiff        int
	LevelDiff     int

	PlayerGold     int
	PlayerChampion string

	DeathType DeathType
}

// Minute returns the whole in-game minute of the death.
func (d *DeathRecord) Minute() int64 {
	return d.TimestampMs / 60000
}

// ---- Patterns ----

// PatternKey names a tracked behavioural weakness.
type PatternKey string

const (
	PatternRiverDeathNoWard   PatternKey = "river_death_no_ward"
	PatternDiesWhenAhead      PatternKey = "dies_when_ahead"
	PatternEarlyDeathRepeat   PatternKey = "early_death_repeat"
	PatternCaughtSidelane     PatternKey = "caught_sidelane"
	PatternTowerDiveFail      PatternKey = "tower_dive_fail"
	PatternOverextendNoVision PatternKey = "overextend_no_vision"
	PatternDiesToSameChampion PatternKey = "dies_to_same_champ"
)

// Title returns the key as a human-readable label ("river death no ward").
func (k PatternKey) Title() string {
	b := []byte(k)
	for i, c := range b {
		if c == '_' {
			b[i] = ' '
		}
	}
	return string(b)
}

// PatternStatus is the lifecycle state of a persisted pattern.
type PatternStatus string

const (
	StatusActive    PatternStatus = "active"
	StatusImproving PatternStatus = "improving"
	StatusBroken    PatternStatus = "broken"
)

// MaxSampleMatches bounds the evidence list kept on a pattern.
const MaxSampleMatches = 5

// Pattern is a persisted recurring weakness for one player. Subject is empty
// except for per-champion patterns, where it holds the killer champion.
type Pattern struct {
	ID       int64
	PlayerID int64
	Key      PatternKey
	Subject  string
	Category string

	Description       string
	Occurrences       int
	Status            PatternStatus
	GamesSinceLast    int
	ImprovementStreak int

	SampleMatchIDs []string
	LastMatchID    string

	FirstSeenAt time.Time
	LastSeenAt  time.Time
}

// Label returns the key title, qualified by subject when present.
func (p *Pattern) Label() string {
	if p.Subject == "" {
		return p.Key.Title()
	}
	return p.Key.Title() + " (" + p.Subject + ")"
}

// PriorityScore weights occurrences by recency.
func (p *Pattern) PriorityScore() float64 {
	return float64(p.Occurrences) / float64(p.GamesSinceLast+1)
}

// PatternUpsert is one detector finding to be written to the pattern store.
type PatternUpsert struct {
	Key            PatternKey
	Subject        string
	Category       string
	Description    string
	Occurrences    int
	SampleMatchIDs []string
	LastMatchID    string

	// MatchIDs lists every distinct contributing match in batch order.
	MatchIDs []string
}

// ---- Players, matches, sessions ----

type Player struct {
	ID       int64
	RiotID   string // GameName#TAG
	PUUID    string
	Platform string
}

// MatchSummary is the per-match row stored for the tracked player.
type MatchSummary struct {
	MatchID         string
	PlayerID        int64
	Champion        string
	Role            string
	Win             bool
	Kills           int
	Deaths          int
	Assists         int
	CS              int
	VisionScore     int
	GameDurationSec int
	PlayedAt        time.Time
	HasTimeline     bool
}

func (s *MatchSummary) KDA() float64 {
	if s.Deaths == 0 {
		return float64(s.Kills + s.Assists)
	}
	return float64(s.Kills+s.Assists) / float64(s.Deaths)
}

// CSPerMin returns creep score per minute of game time.
func (s *MatchSummary) CSPerMin() float64 {
	if s.GameDurationSec == 0 {
		return 0
	}
	return float64(s.CS) / (float64(s.GameDurationSec) / 60)
}

// Session records one coaching pass.
type Session struct {
	ID              string
	PlayerID        int64
	FocusArea       string
	PatternKey      PatternKey
	MatchesAnalyzed int
	Opener          string
	StartedAt       time.Time
}
