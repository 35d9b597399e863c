package models

import "time"

// TournamentFormat определяет, как делится состав на команды в каждом матче.
type TournamentFormat string

const (
	Format3v3   TournamentFormat = "3v3"
	Format2v2v2 TournamentFormat = "2v2v2"
)

// RosterSize - количество игроков в любом турнире.
const RosterSize = 6

func (f TournamentFormat) Valid() bool {
	return f == Format3v3 || f == Format2v2v2
}

// TeamCount returns how many teams play in every match of the format.
func (f TournamentFormat) TeamCount() int {
	if f == Format2v2v2 {
		return 3
	}
	return 2
}

// MatchCount returns the size of a full schedule for the format.
func (f TournamentFormat) MatchCount() int {
	switch f {
	case Format3v3:
		return 10
	case Format2v2v2:
		return 15
	default:
		return 0
	}
}

// TournamentStatus is derived from the matches: completed iff every match is completed.
type TournamentStatus string

const (
	StatusInProgress TournamentStatus = "in-progress"
	StatusCompleted  TournamentStatus = "completed"
)

// Tournament is the canonical record shared by the host and all spectators.
type Tournament struct {
	ID          string                      `json:"id"`
	Code        string                      `json:"code"`
	Created     time.Time                   `json:"created"`
	Format      TournamentFormat            `json:"format"`
	Players     []Player                    `json:"players"`
	Matches     []Match                     `json:"matches"`
	Leaderboard map[string]LeaderboardEntry `json:"leaderboard"`
	Status      TournamentStatus            `json:"status"`
	Completed   *time.Time                  `json:"completed"`
}

// PlayerIDs returns roster ids in roster order.
func (t *Tournament) PlayerIDs() []string {
	ids := make([]string, len(t.Players))
	for i, p := range t.Players {
		ids[i] = p.ID
	}
	return ids
}

// PlayerByID returns nil when the id is not on the roster.
func (t *Tournament) PlayerByID(id string) *Player {
	for i := range t.Players {
		if t.Players[i].ID == id {
			return &t.Players[i]
		}
	}
	return nil
}

// AllMatchesPending reports whether no match has left the pending state yet.
func (t *Tournament) AllMatchesPending() bool {
	for _, m := range t.Matches {
		if m.Status != MatchStatusPending {
			return false
		}
	}
	return true
}

// DeriveStatus computes the tournament status from the match log.
func DeriveStatus(matches []Match) TournamentStatus {
	for _, m := range matches {
		if m.Status != MatchStatusCompleted {
			return StatusInProgress
		}
	}
	return StatusCompleted
}

// CurrentMatchIndex returns the first match that is not completed,
// or the last match when everything is done. -1 for an empty schedule.
func (t *Tournament) CurrentMatchIndex() int {
	for i, m := range t.Matches {
		if m.Status == MatchStatusPending || m.Status == MatchStatusInProgress {
			return i
		}
	}
	return len(t.Matches) - 1
}

// Clone returns a deep copy, so snapshots handed to subscribers never alias store state.
func (t *Tournament) Clone() *Tournament {
	if t == nil {
		return nil
	}
	c := *t
	c.Players = append([]Player(nil), t.Players...)
	if t.Matches != nil {
		c.Matches = make([]Match, len(t.Matches))
		for i, m := range t.Matches {
			c.Matches[i] = m.Clone()
		}
	}
	if t.Leaderboard != nil {
		c.Leaderboard = make(map[string]LeaderboardEntry, len(t.Leaderboard))
		for id, e := range t.Leaderboard {
			c.Leaderboard[id] = e.Clone()
		}
	}
	if t.Completed != nil {
		done := *t.Completed
		c.Completed = &done
	}
	return &c
}
