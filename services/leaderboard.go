package services

import (
	"sort"

	"github.com/Dosada05/lobby-tracker/models"
)

// CalculateLeaderboard rebuilds every roster player's entry from the full match log.
// It never patches an existing leaderboard: the match log is the only source of truth.
func CalculateLeaderboard(rosterIDs []string, matches []models.Match) map[string]models.LeaderboardEntry {
	type tally struct {
		entry      models.LeaderboardEntry
		plants     int
		defuses    int
		scoreSum   int
		scoreGames int
	}

	tallies := make(map[string]*tally, len(rosterIDs))
	for _, id := range rosterIDs {
		tallies[id] = &tally{}
	}

	for i := range matches {
		m := &matches[i]
		if m.Status != models.MatchStatusCompleted || m.Winner == nil {
			continue
		}
		winners := m.WinningSet()
		for playerID, stat := range m.Stats {
			t, onRoster := tallies[playerID]
			if !onRoster {
				continue
			}
			t.entry.GamesPlayed++
			t.entry.TotalKills += stat.Kills
			t.entry.TotalDeaths += stat.Deaths
			if stat.Plants != nil {
				t.plants += *stat.Plants
			}
			if stat.Defuses != nil {
				t.defuses += *stat.Defuses
			}
			if stat.Score != nil {
				t.scoreSum += *stat.Score
				t.scoreGames++
			}
			if _, won := winners[playerID]; won {
				t.entry.Wins++
			} else {
				t.entry.Losses++
			}
		}
	}

	leaderboard := make(map[string]models.LeaderboardEntry, len(tallies))
	for id, t := range tallies {
		e := t.entry
		e.KDRatio = models.KDRatioOf(e.TotalKills, e.TotalDeaths)
		if t.scoreGames > 0 {
			e.AvgScore = float64(t.scoreSum) / float64(t.scoreGames)
		}
		e.TotalPlants = models.OptionalTotal(t.plants)
		e.TotalDefuses = models.OptionalTotal(t.defuses)
		leaderboard[id] = e
	}
	return leaderboard
}

// RankStandings orders the roster by wins, then K/D. Equal players keep roster
// order and still get distinct ranks.
func RankStandings(t *models.Tournament) []models.StandingEntry {
	standings := make([]models.StandingEntry, 0, len(t.Players))
	for _, p := range t.Players {
		entry, ok := t.Leaderboard[p.ID]
		if !ok {
			continue
		}
		standings = append(standings, models.StandingEntry{PlayerID: p.ID, Name: p.Name, Entry: entry})
	}
	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i].Entry, standings[j].Entry
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		return a.KDRatio > b.KDRatio
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}
