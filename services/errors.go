package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил. Всегда оборачиваются вместе с ErrValidationFailed.
	ErrValidationFailed       = errors.New("validation failed")
	ErrRosterSize             = errors.New("tournament needs exactly 6 players")
	ErrPlayerNameRequired     = errors.New("player name is required")
	ErrDuplicatePlayerName    = errors.New("player names must be unique")
	ErrDuplicatePlayerID      = errors.New("player ids must be unique")
	ErrInvalidFormat          = errors.New("format must be 3v3 or 2v2v2")
	ErrWinnerRequired         = errors.New("winner is required")
	ErrInvalidWinner          = errors.New("winner must name one of the match teams")
	ErrIncompleteStats        = errors.New("stats are incomplete for this mode")
	ErrUnexpectedStats        = errors.New("stats given for a player outside the match")
	ErrNegativeStat           = errors.New("stat values cannot be negative")
	ErrStatFieldNotInMode     = errors.New("stat field does not belong to the match mode")
	ErrScheduleStarted        = errors.New("maps and modes can only be reshuffled before the first match starts")
	ErrInvalidMatchTransition = errors.New("invalid match status transition")
	ErrCompareCodeCount       = errors.New("comparison needs 2 or 3 tournament codes")
	ErrCompareDuplicateCode   = errors.New("comparison codes must be distinct")
	ErrPlayerNotInTournament  = errors.New("player is not on the roster")

	// Ошибки конфликтов
	ErrTournamentCodeConflict = errors.New("tournament code is already in use")

	// Сущности (оборачиваются вместе с ErrNotFound)
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
)
