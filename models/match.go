package models

import "time"

type MatchStatus string

const (
	MatchStatusPending    MatchStatus = "pending"
	MatchStatusInProgress MatchStatus = "in-progress"
	MatchStatusCompleted  MatchStatus = "completed"
)

// TeamSlot identifies one of the teams of a match.
type TeamSlot string

const (
	SlotTeam1 TeamSlot = "team1"
	SlotTeam2 TeamSlot = "team2"
	SlotTeam3 TeamSlot = "team3"
)

type Match struct {
	ID          string               `json:"id"`
	MatchNumber int                  `json:"matchNumber"`
	Team1       []string             `json:"team1"`
	Team2       []string             `json:"team2"`
	Team3       []string             `json:"team3,omitempty"`
	Map         string               `json:"map"`
	Mode        string               `json:"mode"`
	Status      MatchStatus          `json:"status"`
	Winner      *TeamSlot            `json:"winner"`
	Stats       map[string]MatchStat `json:"stats"`
	Timestamp   *time.Time           `json:"timestamp,omitempty"`
}

// Team returns the player ids of a slot; ok is false when the match has no such team.
func (m *Match) Team(slot TeamSlot) (ids []string, ok bool) {
	switch slot {
	case SlotTeam1:
		return m.Team1, true
	case SlotTeam2:
		return m.Team2, true
	case SlotTeam3:
		if len(m.Team3) > 0 {
			return m.Team3, true
		}
	}
	return nil, false
}

// PlayerIDs returns every player of the match, team by team.
func (m *Match) PlayerIDs() []string {
	ids := make([]string, 0, len(m.Team1)+len(m.Team2)+len(m.Team3))
	ids = append(ids, m.Team1...)
	ids = append(ids, m.Team2...)
	ids = append(ids, m.Team3...)
	return ids
}

// WinningSet resolves the winner slot into a set of player ids.
// Empty when the match has no winner recorded.
func (m *Match) WinningSet() map[string]struct{} {
	set := make(map[string]struct{})
	if m.Winner == nil {
		return set
	}
	ids, _ := m.Team(*m.Winner)
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Columns resolves the stat column set of the match from its mode.
func (m *Match) Columns() StatColumnSet {
	return ColumnSetForMode(m.Mode)
}

func (m Match) Clone() Match {
	c := m
	c.Team1 = append([]string(nil), m.Team1...)
	c.Team2 = append([]string(nil), m.Team2...)
	if m.Team3 != nil {
		c.Team3 = append([]string(nil), m.Team3...)
	}
	if m.Winner != nil {
		w := *m.Winner
		c.Winner = &w
	}
	if m.Stats != nil {
		c.Stats = make(map[string]MatchStat, len(m.Stats))
		for id, s := range m.Stats {
			c.Stats[id] = s.Clone()
		}
	}
	if m.Timestamp != nil {
		ts := *m.Timestamp
		c.Timestamp = &ts
	}
	return c
}
