package services

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/Dosada05/lobby-tracker/models"
	"github.com/Dosada05/lobby-tracker/utils"
	"golang.org/x/sync/errgroup"
)

const (
	minCompareCodes = 2
	maxCompareCodes = 3
)

// ComparisonRow is one player across the compared tournaments, in input order.
// An entry is nil when the player did not play that tournament.
type ComparisonRow struct {
	NameKey     string                     `json:"nameKey"`
	DisplayName string                     `json:"displayName"`
	Entries     []*models.LeaderboardEntry `json:"entries"`
}

type TournamentSummary struct {
	Code    string                  `json:"code"`
	Created string                  `json:"created"`
	Format  models.TournamentFormat `json:"format"`
	Status  models.TournamentStatus `json:"status"`
}

type Comparison struct {
	Tournaments []TournamentSummary       `json:"tournaments"`
	Rows        []ComparisonRow           `json:"rows"`
	Culminating []models.CulminatingEntry `json:"culminating"`
}

type CompareService interface {
	Compare(ctx context.Context, codes []string) (*Comparison, error)
}

type compareService struct {
	tournaments TournamentService
	logger      *slog.Logger
}

func NewCompareService(tournaments TournamentService, logger *slog.Logger) CompareService {
	if logger == nil {
		logger = slog.Default()
	}
	return &compareService{tournaments: tournaments, logger: logger}
}

func (s *compareService) Compare(ctx context.Context, codes []string) (*Comparison, error) {
	normalized, err := validateCompareCodes(codes)
	if err != nil {
		return nil, err
	}

	loaded := make([]*models.Tournament, len(normalized))
	g, gctx := errgroup.WithContext(ctx)
	for i, code := range normalized {
		g.Go(func() error {
			t, err := s.tournaments.GetTournament(gctx, code)
			if err != nil {
				return err
			}
			loaded[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "tournaments compared", slog.Any("codes", normalized))

	comparison := &Comparison{
		Tournaments: make([]TournamentSummary, len(loaded)),
		Rows:        BuildComparisonRows(loaded),
		Culminating: BuildCulminatingLeaderboard(loaded),
	}
	for i, t := range loaded {
		comparison.Tournaments[i] = TournamentSummary{
			Code:    t.Code,
			Created: t.Created.Format(time.RFC3339),
			Format:  t.Format,
			Status:  t.Status,
		}
	}
	return comparison, nil
}

func validateCompareCodes(codes []string) ([]string, error) {
	if len(codes) < minCompareCodes || len(codes) > maxCompareCodes {
		return nil, validationError(ErrCompareCodeCount, "got %d", len(codes))
	}
	normalized := make([]string, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for i, c := range codes {
		code := utils.NormalizeCode(c)
		if code == "" {
			return nil, validationError(ErrCompareCodeCount, "code %d is empty", i+1)
		}
		if _, dup := seen[code]; dup {
			return nil, validationError(ErrCompareDuplicateCode, "%s", code)
		}
		seen[code] = struct{}{}
		normalized[i] = code
	}
	return normalized, nil
}

type nameAggregate struct {
	nameKey     string
	displayName string
	wins        int
	losses      int
	kills       int
	deaths      int
	games       int
	plants      int
	defuses     int
	scoreSum    float64
}

// BuildCulminatingLeaderboard merges tournament leaderboards by player name
// (trimmed, case-insensitive). K/D comes from summed totals and avgScore is
// weighted by games played. Sorted by wins, then K/D; ranks follow position.
func BuildCulminatingLeaderboard(tournaments []*models.Tournament) []models.CulminatingEntry {
	var order []*nameAggregate
	byName := make(map[string]*nameAggregate)

	for _, t := range tournaments {
		for _, p := range t.Players {
			entry, ok := t.Leaderboard[p.ID]
			if !ok {
				continue
			}
			key := models.NameKey(p.Name)
			agg, seen := byName[key]
			if !seen {
				agg = &nameAggregate{nameKey: key, displayName: p.Name}
				byName[key] = agg
				order = append(order, agg)
			}
			agg.wins += entry.Wins
			agg.losses += entry.Losses
			agg.kills += entry.TotalKills
			agg.deaths += entry.TotalDeaths
			agg.games += entry.GamesPlayed
			agg.plants += entry.Plants()
			agg.defuses += entry.Defuses()
			agg.scoreSum += entry.AvgScore * float64(entry.GamesPlayed)
		}
	}

	result := make([]models.CulminatingEntry, len(order))
	for i, agg := range order {
		e := models.LeaderboardEntry{
			Wins:         agg.wins,
			Losses:       agg.losses,
			TotalKills:   agg.kills,
			TotalDeaths:  agg.deaths,
			KDRatio:      models.KDRatioOf(agg.kills, agg.deaths),
			GamesPlayed:  agg.games,
			TotalPlants:  models.OptionalTotal(agg.plants),
			TotalDefuses: models.OptionalTotal(agg.defuses),
		}
		if agg.games > 0 {
			e.AvgScore = agg.scoreSum / float64(agg.games)
		}
		result[i] = models.CulminatingEntry{LeaderboardEntry: e, DisplayName: agg.displayName, NameKey: agg.nameKey}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Wins != result[j].Wins {
			return result[i].Wins > result[j].Wins
		}
		return result[i].KDRatio > result[j].KDRatio
	})
	for i := range result {
		result[i].Rank = i + 1
	}
	return result
}

// BuildComparisonRows lays the tournaments side by side: one row per name in the
// sorted union of names.
func BuildComparisonRows(tournaments []*models.Tournament) []ComparisonRow {
	keys := make(map[string]struct{})
	for _, t := range tournaments {
		for _, p := range t.Players {
			keys[models.NameKey(p.Name)] = struct{}{}
		}
	}
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	rows := make([]ComparisonRow, len(names))
	for i, key := range names {
		row := ComparisonRow{NameKey: key, DisplayName: key, Entries: make([]*models.LeaderboardEntry, len(tournaments))}
		named := false
		for j, t := range tournaments {
			p := playerByNameKey(t, key)
			if p == nil {
				continue
			}
			if !named {
				row.DisplayName = p.Name
				named = true
			}
			if entry, ok := t.Leaderboard[p.ID]; ok {
				e := entry.Clone()
				row.Entries[j] = &e
			}
		}
		rows[i] = row
	}
	return rows
}

func playerByNameKey(t *models.Tournament, key string) *models.Player {
	for i := range t.Players {
		if models.NameKey(t.Players[i].Name) == key {
			return &t.Players[i]
		}
	}
	return nil
}
