package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/Dosada05/lobby-tracker/models"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrMatchNotFound          = errors.New("match index out of range")
	ErrTournamentCodeConflict = errors.New("tournament code already in use")
)

// SnapshotFunc receives the full tournament record on every change.
// nil means the tournament does not exist (yet).
type SnapshotFunc func(t *models.Tournament)

// TournamentStore is the shared realtime document store behind host and spectators.
//
// Every subscriber gets the entire record after each write; there is no field
// level diff. There is no concurrency control either: concurrent writers race
// and the last write wins.
type TournamentStore interface {
	Create(ctx context.Context, t *models.Tournament) error
	Get(ctx context.Context, code string) (*models.Tournament, error)
	Patch(ctx context.Context, code string, patch TournamentPatch) error
	PatchMatch(ctx context.Context, code string, index int, patch MatchPatch) error
	// Subscribe delivers the current record once, then every change until unsubscribe is called.
	Subscribe(ctx context.Context, code string, fn SnapshotFunc) (unsubscribe func(), err error)
}

// FreshReader is implemented by stores whose Get may be served from a cache.
// GetFresh always reads the source of truth.
type FreshReader interface {
	GetFresh(ctx context.Context, code string) (*models.Tournament, error)
}

// GetForUpdate loads the record a read-modify-write starts from. It never
// returns a cached copy: writing back a stale Matches slice would drop results.
func GetForUpdate(ctx context.Context, store TournamentStore, code string) (*models.Tournament, error) {
	if fr, ok := store.(FreshReader); ok {
		return fr.GetFresh(ctx, code)
	}
	return store.Get(ctx, code)
}

// TournamentPatch carries the top-level fields a write replaces. nil fields are left as is.
type TournamentPatch struct {
	Matches     []models.Match
	Leaderboard map[string]models.LeaderboardEntry
	Status      *models.TournamentStatus
	// Completed is written together with Status (nil clears it).
	Completed *time.Time
}

// MatchPatch carries the fields of one match a write replaces.
type MatchPatch struct {
	Status    *models.MatchStatus
	Winner    *models.TeamSlot
	Stats     map[string]models.MatchStat
	Timestamp *time.Time
	Map       *string
	Mode      *string
}

// ApplyTournamentPatch merges a patch into t in place.
func ApplyTournamentPatch(t *models.Tournament, p TournamentPatch) {
	if p.Matches != nil {
		t.Matches = make([]models.Match, len(p.Matches))
		for i, m := range p.Matches {
			t.Matches[i] = m.Clone()
		}
	}
	if p.Leaderboard != nil {
		t.Leaderboard = make(map[string]models.LeaderboardEntry, len(p.Leaderboard))
		for id, e := range p.Leaderboard {
			t.Leaderboard[id] = e.Clone()
		}
	}
	if p.Status != nil {
		t.Status = *p.Status
		t.Completed = nil
		if p.Completed != nil {
			done := *p.Completed
			t.Completed = &done
		}
	}
}

// ApplyMatchPatch merges a patch into match index of t. ErrMatchNotFound for a bad index.
func ApplyMatchPatch(t *models.Tournament, index int, p MatchPatch) error {
	if index < 0 || index >= len(t.Matches) {
		return ErrMatchNotFound
	}
	m := &t.Matches[index]
	if p.Status != nil {
		m.Status = *p.Status
	}
	if p.Winner != nil {
		w := *p.Winner
		m.Winner = &w
	}
	if p.Stats != nil {
		m.Stats = make(map[string]models.MatchStat, len(p.Stats))
		for id, s := range p.Stats {
			m.Stats[id] = s.Clone()
		}
	}
	if p.Timestamp != nil {
		ts := *p.Timestamp
		m.Timestamp = &ts
	}
	if p.Map != nil {
		m.Map = *p.Map
	}
	if p.Mode != nil {
		m.Mode = *p.Mode
	}
	return nil
}
