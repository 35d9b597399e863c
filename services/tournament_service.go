package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/lobby-tracker/brackets"
	"github.com/Dosada05/lobby-tracker/models"
	"github.com/Dosada05/lobby-tracker/repositories"
	"github.com/Dosada05/lobby-tracker/utils"
	"github.com/google/uuid"
)

type PlayerInput struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type CreateTournamentInput struct {
	Players []PlayerInput           `json:"players"`
	Format  models.TournamentFormat `json:"format"`
}

// Standings is the ranked view of a tournament.
type Standings struct {
	Code              string                  `json:"code"`
	Status            models.TournamentStatus `json:"status"`
	CurrentMatchIndex int                     `json:"currentMatchIndex"`
	CompletedMatches  int                     `json:"completedMatches"`
	TotalMatches      int                     `json:"totalMatches"`
	Standings         []models.StandingEntry  `json:"standings"`
	// Champion is set only once the tournament is completed.
	Champion *models.StandingEntry `json:"champion,omitempty"`
}

// PlayerMatchResult is one completed match from a single player's point of view.
type PlayerMatchResult struct {
	MatchIndex  int              `json:"matchIndex"`
	MatchNumber int              `json:"matchNumber"`
	Map         string           `json:"map"`
	Mode        string           `json:"mode"`
	Won         bool             `json:"won"`
	Stat        models.MatchStat `json:"stat"`
	Teammates   []string         `json:"teammates"`
}

type PlayerHistory struct {
	Player  models.Player           `json:"player"`
	Entry   models.LeaderboardEntry `json:"entry"`
	Matches []PlayerMatchResult     `json:"matches"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, code string) (*models.Tournament, error)
	// RegenerateMapsAndModes redraws map/mode of every match; only while every match is pending.
	RegenerateMapsAndModes(ctx context.Context, code string) (*models.Tournament, error)
	GetStandings(ctx context.Context, code string) (*Standings, error)
	GetPlayerMatchHistory(ctx context.Context, code, playerID string) (*PlayerHistory, error)
}

type tournamentService struct {
	store   repositories.TournamentStore
	catalog []models.ModePool
	logger  *slog.Logger

	// rng и generateCode подменяются в тестах.
	rngMu        sync.Mutex
	rng          *rand.Rand
	generateCode func() (string, error)
}

func NewTournamentService(store repositories.TournamentStore, catalog []models.ModePool, logger *slog.Logger) TournamentService {
	if logger == nil {
		logger = slog.Default()
	}
	if len(catalog) == 0 {
		catalog = models.DefaultCatalog()
	}
	return &tournamentService{
		store:        store,
		catalog:      catalog,
		logger:       logger,
		rng:          rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		generateCode: utils.GenerateCode,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	players, err := validateRoster(input.Players)
	if err != nil {
		return nil, err
	}
	if !input.Format.Valid() {
		return nil, validationError(ErrInvalidFormat, "got %q", input.Format)
	}

	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}

	matches, err := s.buildSchedule(input.Format, ids)
	if err != nil {
		return nil, err
	}

	code, err := s.generateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate tournament code: %w", err)
	}

	t := &models.Tournament{
		ID:          uuid.NewString(),
		Code:        code,
		Created:     time.Now().UTC(),
		Format:      input.Format,
		Players:     players,
		Matches:     matches,
		Leaderboard: CalculateLeaderboard(ids, matches),
		Status:      models.StatusInProgress,
	}

	if err := s.store.Create(ctx, t); err != nil {
		return nil, handleStoreError(err, "create", code)
	}

	s.logger.InfoContext(ctx, "tournament created",
		slog.String("code", t.Code),
		slog.String("format", string(t.Format)),
		slog.Int("matches", len(t.Matches)))
	return t, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, code string) (*models.Tournament, error) {
	code, err := normalizeCode(code)
	if err != nil {
		return nil, err
	}
	t, err := s.store.Get(ctx, code)
	if err != nil {
		return nil, handleStoreError(err, "get", code)
	}
	return t, nil
}

func (s *tournamentService) RegenerateMapsAndModes(ctx context.Context, code string) (*models.Tournament, error) {
	t, err := loadForUpdate(ctx, s.store, code)
	if err != nil {
		return nil, err
	}
	if !t.AllMatchesPending() {
		return nil, validationError(ErrScheduleStarted, "tournament %s", t.Code)
	}

	s.rngMu.Lock()
	matches := brackets.Reshuffle(t.Matches, brackets.NewMapAssigner(s.catalog, s.rng))
	s.rngMu.Unlock()

	if err := s.store.Patch(ctx, t.Code, repositories.TournamentPatch{Matches: matches}); err != nil {
		return nil, handleStoreError(err, "reshuffle", t.Code)
	}
	s.logger.InfoContext(ctx, "maps and modes reshuffled", slog.String("code", t.Code))

	t.Matches = matches
	return t, nil
}

func (s *tournamentService) GetStandings(ctx context.Context, code string) (*Standings, error) {
	t, err := s.GetTournament(ctx, code)
	if err != nil {
		return nil, err
	}

	completed := 0
	for _, m := range t.Matches {
		if m.Status == models.MatchStatusCompleted {
			completed++
		}
	}

	st := &Standings{
		Code:              t.Code,
		Status:            t.Status,
		CurrentMatchIndex: t.CurrentMatchIndex(),
		CompletedMatches:  completed,
		TotalMatches:      len(t.Matches),
		Standings:         RankStandings(t),
	}
	if t.Status == models.StatusCompleted && len(st.Standings) > 0 {
		champion := st.Standings[0]
		st.Champion = &champion
	}
	return st, nil
}

func (s *tournamentService) GetPlayerMatchHistory(ctx context.Context, code, playerID string) (*PlayerHistory, error) {
	t, err := s.GetTournament(ctx, code)
	if err != nil {
		return nil, err
	}
	player := t.PlayerByID(playerID)
	if player == nil {
		return nil, validationError(ErrPlayerNotInTournament, "player %q in tournament %s", playerID, t.Code)
	}

	history := &PlayerHistory{
		Player:  *player,
		Entry:   t.Leaderboard[playerID],
		Matches: []PlayerMatchResult{},
	}
	for i := range t.Matches {
		m := &t.Matches[i]
		if m.Status != models.MatchStatusCompleted || m.Winner == nil {
			continue
		}
		stat, played := m.Stats[playerID]
		if !played {
			continue
		}
		_, won := m.WinningSet()[playerID]
		history.Matches = append(history.Matches, PlayerMatchResult{
			MatchIndex:  i,
			MatchNumber: m.MatchNumber,
			Map:         m.Map,
			Mode:        m.Mode,
			Won:         won,
			Stat:        stat,
			Teammates:   teammatesOf(m, playerID),
		})
	}
	return history, nil
}

func (s *tournamentService) buildSchedule(format models.TournamentFormat, ids []string) ([]models.Match, error) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	generator, err := brackets.NewMatchupGenerator(format, s.rng)
	if err != nil {
		return nil, validationError(ErrInvalidFormat, "%v", err)
	}
	matchups, err := generator.Generate(ids)
	if err != nil {
		return nil, validationError(ErrRosterSize, "%v", err)
	}
	settings := brackets.NewMapAssigner(s.catalog, s.rng).Assign(len(matchups))
	matches, err := brackets.BuildMatches(matchups, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to build schedule: %w", err)
	}
	return matches, nil
}

// validateRoster checks the six players and fills in default ids p1..p6.
func validateRoster(input []PlayerInput) ([]models.Player, error) {
	if len(input) != models.RosterSize {
		return nil, validationError(ErrRosterSize, "got %d players", len(input))
	}

	players := make([]models.Player, len(input))
	names := make(map[string]struct{}, len(input))
	ids := make(map[string]struct{}, len(input))
	for i, p := range input {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, validationError(ErrPlayerNameRequired, "player %d", i+1)
		}
		key := models.NameKey(name)
		if _, dup := names[key]; dup {
			return nil, validationError(ErrDuplicatePlayerName, "%q", name)
		}
		names[key] = struct{}{}

		id := strings.TrimSpace(p.ID)
		if id == "" {
			id = fmt.Sprintf("p%d", i+1)
		}
		if _, dup := ids[id]; dup {
			return nil, validationError(ErrDuplicatePlayerID, "%q", id)
		}
		ids[id] = struct{}{}

		players[i] = models.Player{ID: id, Name: name}
	}
	return players, nil
}

func teammatesOf(m *models.Match, playerID string) []string {
	for _, slot := range []models.TeamSlot{models.SlotTeam1, models.SlotTeam2, models.SlotTeam3} {
		team, ok := m.Team(slot)
		if !ok {
			continue
		}
		for _, id := range team {
			if id != playerID {
				continue
			}
			mates := make([]string, 0, len(team)-1)
			for _, other := range team {
				if other != playerID {
					mates = append(mates, other)
				}
			}
			return mates
		}
	}
	return []string{}
}
