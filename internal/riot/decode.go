package riot

import (
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/pable/go-lol-coach/internal/model"
)

// DecodeMatch builds a model.Match from a match-v5 payload. timelineJSON may
// be nil, in which case a "timeline" object embedded in matchJSON is used if
// present. Unknown and missing fields are tolerated.
func DecodeMatch(matchJSON, timelineJSON []byte) (*model.Match, error) {
	if !gjson.ValidBytes(matchJSON) {
		return nil, fmt.Errorf("decode match: invalid json")
	}
	root := gjson.ParseBytes(matchJSON)

	m := &model.Match{
		MatchID:      root.Get("metadata.matchId").String(),
		GameCreation: root.Get("info.gameCreation").Int(),
		GameDuration: int(root.Get("info.gameDuration").Int()),
		QueueID:      int(root.Get("info.queueId").Int()),
	}
	if m.MatchID == "" {
		return nil, fmt.Errorf("decode match: missing metadata.matchId")
	}
	// Pre-2021 payloads report gameDuration in milliseconds.
	if !root.Get("info.gameEndTimestamp").Exists() && m.GameDuration > 100000 {
		m.GameDuration /= 1000
	}

	// A missing participantId stays 0, which extraction rejects.
	for _, p := range root.Get("info.participants").Array() {
		m.Participants = append(m.Participants, model.Participant{
			ParticipantID:        int(p.Get("participantId").Int()),
			PUUID:                p.Get("puuid").String(),
			ChampionName:         p.Get("championName").String(),
			TeamID:               int(p.Get("teamId").Int()),
			TeamPosition:         p.Get("teamPosition").String(),
			Win:                  p.Get("win").Bool(),
			Kills:                int(p.Get("kills").Int()),
			Deaths:               int(p.Get("deaths").Int()),
			Assists:              int(p.Get("assists").Int()),
			TotalMinionsKilled:   int(p.Get("totalMinionsKilled").Int()),
			NeutralMinionsKilled: int(p.Get("neutralMinionsKilled").Int()),
			VisionScore:          int(p.Get("visionScore").Int()),
		})
	}

	switch {
	case timelineJSON != nil:
		tl, err := DecodeTimeline(timelineJSON)
		if err != nil {
			return nil, err
		}
		m.Timeline = tl
	case root.Get("timeline").IsObject():
		m.Timeline = decodeTimeline(root.Get("timeline"))
	}
	return m, nil
}

// DecodeTimeline decodes a match-v5 timeline payload.
func DecodeTimeline(timelineJSON []byte) (*model.Timeline, error) {
	if !gjson.ValidBytes(timelineJSON) {
		return nil, fmt.Errorf("decode timeline: invalid json")
	}
	return decodeTimeline(gjson.ParseBytes(timelineJSON)), nil
}

func decodeTimeline(root gjson.Result) *model.Timeline {
	info := root
	if root.Get("info").IsObject() {
		info = root.Get("info")
	}
	tl := &model.Timeline{FrameInterval: int(info.Get("frameInterval").Int())}

	for _, f := range info.Get("frames").Array() {
		frame := model.Frame{
			Timestamp:         f.Get("timestamp").Int(),
			ParticipantFrames: map[int]model.ParticipantFrame{},
		}
		f.Get("participantFrames").ForEach(func(key, pf gjson.Result) bool {
			id, err := strconv.Atoi(key.String())
			if err != nil {
				return true
			}
			frame.ParticipantFrames[id] = model.ParticipantFrame{
				TotalGold:           int(pf.Get("totalGold").Int()),
				MinionsKilled:       int(pf.Get("minionsKilled").Int()),
				JungleMinionsKilled: int(pf.Get("jungleMinionsKilled").Int()),
				Level:               levelOf(pf),
			}
			return true
		})
		for _, e := range f.Get("events").Array() {
			frame.Events = append(frame.Events, decodeEvent(e))
		}
		tl.Frames = append(tl.Frames, frame)
	}
	return tl
}

// levelOf defaults a missing level to 1, the level every champion starts at.
func levelOf(pf gjson.Result) int {
	lvl := pf.Get("level")
	if !lvl.Exists() {
		return 1
	}
	return int(lvl.Int())
}

func decodeEvent(e gjson.Result) model.Event {
	ts := e.Get("timestamp")
	ev := model.Event{
		Type:         e.Get("type").String(),
		Timestamp:    ts.Int(),
		HasTimestamp: ts.Exists(),
		KillerID:     int(e.Get("killerId").Int()),
		VictimID:     int(e.Get("victimId").Int()),
		CreatorID:    int(e.Get("creatorId").Int()),
	}
	for _, a := range e.Get("assistingParticipantIds").Array() {
		ev.AssistingParticipantIDs = append(ev.AssistingParticipantIDs, int(a.Int()))
	}
	if pos := e.Get("position"); pos.IsObject() {
		ev.Position = &model.Position{
			X: int(pos.Get("x").Int()),
			Y: int(pos.Get("y").Int()),
		}
	}
	return ev
}
