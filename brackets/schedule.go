package brackets

import (
	"fmt"

	"github.com/Dosada05/lobby-tracker/models"
)

// BuildMatches turns generated matchups into the pending schedule.
// Match numbers are 1-indexed in matchup order and never change afterwards.
func BuildMatches(matchups []Matchup, settings []MapMode) ([]models.Match, error) {
	if len(settings) != len(matchups) {
		return nil, fmt.Errorf("map/mode count %d does not match matchup count %d", len(settings), len(matchups))
	}
	matches := make([]models.Match, len(matchups))
	for i, mu := range matchups {
		if len(mu.Teams) < 2 || len(mu.Teams) > 3 {
			return nil, fmt.Errorf("matchup %d has %d teams", i+1, len(mu.Teams))
		}
		m := models.Match{
			ID:          fmt.Sprintf("m%d", i+1),
			MatchNumber: i + 1,
			Team1:       append([]string(nil), mu.Teams[0]...),
			Team2:       append([]string(nil), mu.Teams[1]...),
			Map:         settings[i].Map,
			Mode:        settings[i].Mode,
			Status:      models.MatchStatusPending,
			Stats:       map[string]models.MatchStat{},
		}
		if len(mu.Teams) == 3 {
			m.Team3 = append([]string(nil), mu.Teams[2]...)
		}
		matches[i] = m
	}
	return matches, nil
}

// Reshuffle redraws map and mode for every match and leaves everything else
// (order, teams, status, winner, stats) untouched. It does not check whether the
// schedule has started; callers only invoke it while every match is pending.
func Reshuffle(matches []models.Match, assigner *MapAssigner) []models.Match {
	settings := assigner.Assign(len(matches))
	out := make([]models.Match, len(matches))
	for i, m := range matches {
		c := m.Clone()
		c.Map = settings[i].Map
		c.Mode = settings[i].Mode
		out[i] = c
	}
	return out
}
