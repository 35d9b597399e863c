package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Dosada05/lobby-tracker/models"
	"github.com/Dosada05/lobby-tracker/repositories"
	"github.com/Dosada05/lobby-tracker/storage"
)

// MatchResultInput is what the host submits when a match ends.
type MatchResultInput struct {
	Winner *models.TeamSlot            `json:"winner"`
	Stats  map[string]models.MatchStat `json:"stats"`
}

type MatchService interface {
	// StartMatch moves a pending match to in-progress. Starting an in-progress match is a no-op.
	StartMatch(ctx context.Context, code string, index int) (*models.Tournament, error)
	// SubmitMatchResults completes a match and rederives the leaderboard and tournament status.
	// Resubmitting to a completed match overwrites its result.
	SubmitMatchResults(ctx context.Context, code string, index int, input MatchResultInput) (*models.Tournament, error)
}

type matchService struct {
	store    repositories.TournamentStore
	archiver storage.TournamentArchiver
	logger   *slog.Logger
	now      func() time.Time
}

// NewMatchService. archiver может быть nil - тогда завершённые турниры не архивируются.
func NewMatchService(
	store repositories.TournamentStore,
	archiver storage.TournamentArchiver,
	logger *slog.Logger,
) MatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &matchService{
		store:    store,
		archiver: archiver,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *matchService) StartMatch(ctx context.Context, code string, index int) (*models.Tournament, error) {
	t, err := loadForUpdate(ctx, s.store, code)
	if err != nil {
		return nil, err
	}
	m, err := matchAt(t, index)
	if err != nil {
		return nil, err
	}

	if m.Status == models.MatchStatusInProgress {
		return t, nil
	}
	if !isValidMatchTransition(m.Status, models.MatchStatusInProgress) {
		return nil, validationError(ErrInvalidMatchTransition, "match %d is %s", m.MatchNumber, m.Status)
	}

	status := models.MatchStatusInProgress
	if err := s.store.PatchMatch(ctx, t.Code, index, repositories.MatchPatch{Status: &status}); err != nil {
		return nil, handleStoreError(err, "start match of", t.Code)
	}
	t.Matches[index].Status = status

	s.logger.InfoContext(ctx, "match started", slog.String("code", t.Code), slog.Int("match", m.MatchNumber))
	return t, nil
}

func (s *matchService) SubmitMatchResults(ctx context.Context, code string, index int, input MatchResultInput) (*models.Tournament, error) {
	t, err := loadForUpdate(ctx, s.store, code)
	if err != nil {
		return nil, err
	}
	m, err := matchAt(t, index)
	if err != nil {
		return nil, err
	}
	if !isValidMatchTransition(m.Status, models.MatchStatusCompleted) {
		return nil, validationError(ErrInvalidMatchTransition, "match %d is %s", m.MatchNumber, m.Status)
	}
	if err := validateResult(m, input); err != nil {
		return nil, err
	}

	now := s.now()
	matches := make([]models.Match, len(t.Matches))
	for i, existing := range t.Matches {
		matches[i] = existing.Clone()
	}
	done := &matches[index]
	winner := *input.Winner
	done.Status = models.MatchStatusCompleted
	done.Winner = &winner
	done.Stats = make(map[string]models.MatchStat, len(input.Stats))
	for id, stat := range input.Stats {
		done.Stats[id] = stat.Clone()
	}
	done.Timestamp = &now

	leaderboard := CalculateLeaderboard(t.PlayerIDs(), matches)
	status := models.DeriveStatus(matches)
	var completedAt *time.Time
	if status == models.StatusCompleted {
		completedAt = &now
		if t.Completed != nil {
			completedAt = t.Completed
		}
	}

	patch := repositories.TournamentPatch{
		Matches:     matches,
		Leaderboard: leaderboard,
		Status:      &status,
		Completed:   completedAt,
	}
	if err := s.store.Patch(ctx, t.Code, patch); err != nil {
		return nil, handleStoreError(err, "submit results to", t.Code)
	}
	repositories.ApplyTournamentPatch(t, patch)

	s.logger.InfoContext(ctx, "match completed",
		slog.String("code", t.Code),
		slog.Int("match", done.MatchNumber),
		slog.String("winner", string(winner)),
		slog.String("tournament_status", string(status)))

	if status == models.StatusCompleted {
		s.archive(ctx, t)
	}
	return t, nil
}

// archive is best effort: a failed upload never fails the submission.
func (s *matchService) archive(ctx context.Context, t *models.Tournament) {
	if s.archiver == nil {
		return
	}
	res, err := s.archiver.Archive(ctx, t)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to archive tournament", slog.String("code", t.Code), slog.Any("error", err))
		return
	}
	s.logger.InfoContext(ctx, "tournament archived", slog.String("code", t.Code), slog.String("key", res.Key))
}

func matchAt(t *models.Tournament, index int) (*models.Match, error) {
	if index < 0 || index >= len(t.Matches) {
		return nil, handleStoreError(repositories.ErrMatchNotFound, "", t.Code)
	}
	return &t.Matches[index], nil
}

func validateResult(m *models.Match, input MatchResultInput) error {
	if input.Winner == nil || *input.Winner == "" {
		return validationError(ErrWinnerRequired, "match %d", m.MatchNumber)
	}
	if _, ok := m.Team(*input.Winner); !ok {
		return validationError(ErrInvalidWinner, "%q", *input.Winner)
	}

	inMatch := make(map[string]struct{})
	for _, id := range m.PlayerIDs() {
		inMatch[id] = struct{}{}
	}

	var unexpected []string
	for id := range input.Stats {
		if _, ok := inMatch[id]; !ok {
			unexpected = append(unexpected, id)
		}
	}
	if len(unexpected) > 0 {
		sort.Strings(unexpected)
		return validationError(ErrUnexpectedStats, "%s", strings.Join(unexpected, ", "))
	}

	columns := m.Columns()
	for _, id := range m.PlayerIDs() {
		stat, ok := input.Stats[id]
		if !ok {
			return validationError(ErrIncompleteStats, "no stats for player %s", id)
		}
		if missing := stat.MissingFields(columns); len(missing) > 0 {
			return validationError(ErrIncompleteStats, "player %s is missing %s (%s mode)",
				id, strings.Join(missing, ", "), columns)
		}
		if foreign := stat.ForeignFields(columns); len(foreign) > 0 {
			return validationError(ErrStatFieldNotInMode, "player %s has %s (%s mode)",
				id, strings.Join(foreign, ", "), columns)
		}
		if stat.HasNegative() {
			return validationError(ErrNegativeStat, "player %s", id)
		}
	}
	return nil
}
