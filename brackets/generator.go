package brackets

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/Dosada05/lobby-tracker/models"
)

var (
	ErrInvalidRoster = errors.New("roster must contain exactly 6 distinct player ids")
	ErrUnknownFormat = errors.New("unknown tournament format")
)

// Matchup is one match's team assignment: 2 or 3 disjoint teams drawn from the roster.
type Matchup struct {
	Teams [][]string
}

// Key is the canonical, order-independent encoding of the partition.
func (m Matchup) Key() string {
	return canonicalKey(m.Teams...)
}

type MatchupGenerator interface {
	// Generate returns every unique partition of the roster for the format, shuffled.
	Generate(playerIDs []string) ([]Matchup, error)

	Format() models.TournamentFormat
}

// NewMatchupGenerator picks the generator for a format. rng drives the final shuffle.
func NewMatchupGenerator(format models.TournamentFormat, rng *rand.Rand) (MatchupGenerator, error) {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	switch format {
	case models.Format3v3:
		return &threeVsThreeGenerator{rng: rng}, nil
	case models.Format2v2v2:
		return &twoVsTwoVsTwoGenerator{rng: rng}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func validateRoster(playerIDs []string) error {
	if len(playerIDs) != models.RosterSize {
		return fmt.Errorf("%w: got %d ids", ErrInvalidRoster, len(playerIDs))
	}
	seen := make(map[string]struct{}, len(playerIDs))
	for _, id := range playerIDs {
		if id == "" {
			return fmt.Errorf("%w: empty id", ErrInvalidRoster)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidRoster, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func complement(all []string, picked ...[]string) []string {
	used := make(map[string]struct{})
	for _, team := range picked {
		for _, id := range team {
			used[id] = struct{}{}
		}
	}
	rest := make([]string, 0, len(all))
	for _, id := range all {
		if _, ok := used[id]; !ok {
			rest = append(rest, id)
		}
	}
	return rest
}

func canonicalKey(teams ...[]string) string {
	parts := make([]string, len(teams))
	for i, team := range teams {
		sorted := append([]string(nil), team...)
		sort.Strings(sorted)
		parts[i] = strings.Join(sorted, ",")
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

func shuffleMatchups(rng *rand.Rand, matchups []Matchup) {
	rng.Shuffle(len(matchups), func(i, j int) {
		matchups[i], matchups[j] = matchups[j], matchups[i]
	})
}
