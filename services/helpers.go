package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/lobby-tracker/models"
	"github.com/Dosada05/lobby-tracker/repositories"
	"github.com/Dosada05/lobby-tracker/utils"
)

// validationError оборачивает конкретную причину в ErrValidationFailed.
func validationError(reason error, format string, args ...any) error {
	if format == "" {
		return fmt.Errorf("%w: %w", ErrValidationFailed, reason)
	}
	return fmt.Errorf("%w: %w: %s", ErrValidationFailed, reason, fmt.Sprintf(format, args...))
}

// handleStoreError translates store sentinels into service errors and wraps the rest.
func handleStoreError(err error, op, code string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return fmt.Errorf("%w: %w: %s", ErrNotFound, ErrTournamentNotFound, code)
	case errors.Is(err, repositories.ErrMatchNotFound):
		return fmt.Errorf("%w: %w: tournament %s", ErrNotFound, ErrMatchNotFound, code)
	case errors.Is(err, repositories.ErrTournamentCodeConflict):
		return fmt.Errorf("%w: %s", ErrTournamentCodeConflict, code)
	default:
		return fmt.Errorf("failed to %s tournament %s: %w", op, code, err)
	}
}

func isValidMatchTransition(current, next models.MatchStatus) bool {
	if current == next {
		return true
	}
	allowedTransitions := map[models.MatchStatus][]models.MatchStatus{
		models.MatchStatusPending:    {models.MatchStatusInProgress, models.MatchStatusCompleted},
		models.MatchStatusInProgress: {models.MatchStatusCompleted},
		models.MatchStatusCompleted:  {},
	}
	for _, allowedNextStatus := range allowedTransitions[current] {
		if next == allowedNextStatus {
			return true
		}
	}
	return false
}

func normalizeCode(code string) (string, error) {
	normalized := utils.NormalizeCode(code)
	if normalized == "" {
		return "", fmt.Errorf("%w: %w: empty code", ErrNotFound, ErrTournamentNotFound)
	}
	return normalized, nil
}

// loadForUpdate reads the record a mutation starts from, bypassing any read cache.
func loadForUpdate(ctx context.Context, store repositories.TournamentStore, code string) (*models.Tournament, error) {
	code, err := normalizeCode(code)
	if err != nil {
		return nil, err
	}
	t, err := repositories.GetForUpdate(ctx, store, code)
	if err != nil {
		return nil, handleStoreError(err, "load", code)
	}
	return t, nil
}
