package brackets

import (
	"math/rand/v2"

	"github.com/Dosada05/lobby-tracker/models"
)

type threeVsThreeGenerator struct {
	rng *rand.Rand
}

func (g *threeVsThreeGenerator) Format() models.TournamentFormat {
	return models.Format3v3
}

// Generate splits the roster into every unordered pair of 3-player teams.
// C(6,3) = 20 raw subsets; each matchup shows up twice (subset and its
// complement), the canonical key keeps one of them: 10 matchups.
func (g *threeVsThreeGenerator) Generate(playerIDs []string) ([]Matchup, error) {
	if err := validateRoster(playerIDs); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	matchups := make([]Matchup, 0, models.Format3v3.MatchCount())
	for _, team1 := range Choose(playerIDs, 3) {
		team2 := complement(playerIDs, team1)
		key := canonicalKey(team1, team2)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		matchups = append(matchups, Matchup{Teams: [][]string{team1, team2}})
	}

	shuffleMatchups(g.rng, matchups)
	return matchups, nil
}

type twoVsTwoVsTwoGenerator struct {
	rng *rand.Rand
}

func (g *twoVsTwoVsTwoGenerator) Format() models.TournamentFormat {
	return models.Format2v2v2
}

// Generate splits the roster into every unordered triple of 2-player teams.
// Team A runs over all 15 pairs, team B over the pairs of the remaining four,
// team C is what is left; the canonical key drops A/B/C permutations: 15 matchups.
func (g *twoVsTwoVsTwoGenerator) Generate(playerIDs []string) ([]Matchup, error) {
	if err := validateRoster(playerIDs); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	matchups := make([]Matchup, 0, models.Format2v2v2.MatchCount())
	for _, teamA := range Choose(playerIDs, 2) {
		remaining := complement(playerIDs, teamA)
		for _, teamB := range Choose(remaining, 2) {
			teamC := complement(remaining, teamB)
			key := canonicalKey(teamA, teamB, teamC)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			matchups = append(matchups, Matchup{Teams: [][]string{teamA, teamB, teamC}})
		}
	}

	shuffleMatchups(g.rng, matchups)
	return matchups, nil
}
