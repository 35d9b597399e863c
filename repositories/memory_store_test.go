package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/lobby-tracker/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTournament(code string) *models.Tournament {
	return &models.Tournament{
		ID:      "t-" + code,
		Code:    code,
		Created: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Format:  models.Format3v3,
		Players: []models.Player{
			{ID: "p1", Name: "Alex"}, {ID: "p2", Name: "Bo"}, {ID: "p3", Name: "Cy"},
			{ID: "p4", Name: "Di"}, {ID: "p5", Name: "Ed"}, {ID: "p6", Name: "Flo"},
		},
		Matches: []models.Match{
			{ID: "m1", MatchNumber: 1, Team1: []string{"p1", "p2", "p3"}, Team2: []string{"p4", "p5", "p6"},
				Map: "Babylon", Mode: models.ModeHardpoint, Status: models.MatchStatusPending, Stats: map[string]models.MatchStat{}},
			{ID: "m2", MatchNumber: 2, Team1: []string{"p1", "p4", "p5"}, Team2: []string{"p2", "p3", "p6"},
				Map: "Hacienda", Mode: models.ModeSearchAndDestroy, Status: models.MatchStatusPending, Stats: map[string]models.MatchStat{}},
		},
		Leaderboard: map[string]models.LeaderboardEntry{"p1": {}},
		Status:      models.StatusInProgress,
	}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	store := NewMemoryTournamentStore(nil)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, sampleTournament("ABC234")))

	got, err := store.Get(ctx, "ABC234")
	require.NoError(t, err)
	assert.Equal(t, "t-ABC234", got.ID)
	assert.Len(t, got.Matches, 2)

	_, err = store.Get(ctx, "ZZZZZZ")
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestMemoryStore_CreateConflict(t *testing.T) {
	store := NewMemoryTournamentStore(nil)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, sampleTournament("ABC234")))
	assert.ErrorIs(t, store.Create(ctx, sampleTournament("ABC234")), ErrTournamentCodeConflict)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryTournamentStore(nil)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, sampleTournament("ABC234")))

	got, err := store.Get(ctx, "ABC234")
	require.NoError(t, err)
	got.Matches[0].Map = "Tampered"
	got.Players[0].Name = "Tampered"

	again, err := store.Get(ctx, "ABC234")
	require.NoError(t, err)
	assert.Equal(t, "Babylon", again.Matches[0].Map)
	assert.Equal(t, "Alex", again.Players[0].Name)
}

func TestMemoryStore_PatchMatch(t *testing.T) {
	store := NewMemoryTournamentStore(nil)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, sampleTournament("ABC234")))

	status := models.MatchStatusInProgress
	require.NoError(t, store.PatchMatch(ctx, "ABC234", 1, MatchPatch{Status: &status}))

	got, err := store.Get(ctx, "ABC234")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusPending, got.Matches[0].Status)
	assert.Equal(t, models.MatchStatusInProgress, got.Matches[1].Status)

	assert.ErrorIs(t, store.PatchMatch(ctx, "ABC234", 2, MatchPatch{Status: &status}), ErrMatchNotFound)
	assert.ErrorIs(t, store.PatchMatch(ctx, "ABC234", -1, MatchPatch{Status: &status}), ErrMatchNotFound)
	assert.ErrorIs(t, store.PatchMatch(ctx, "NOPE22", 0, MatchPatch{Status: &status}), ErrTournamentNotFound)
}

func TestMemoryStore_SubscribeReceivesFullSnapshots(t *testing.T) {
	store := NewMemoryTournamentStore(nil)
	ctx := context.Background()

	var snapshots []*models.Tournament
	unsubscribe, err := store.Subscribe(ctx, "ABC234", func(tr *models.Tournament) {
		snapshots = append(snapshots, tr)
	})
	require.NoError(t, err)

	// nothing stored yet
	require.Len(t, snapshots, 1)
	assert.Nil(t, snapshots[0])

	require.NoError(t, store.Create(ctx, sampleTournament("ABC234")))
	status := models.StatusCompleted
	now := time.Now().UTC()
	require.NoError(t, store.Patch(ctx, "ABC234", TournamentPatch{Status: &status, Completed: &now}))

	require.Len(t, snapshots, 3)
	assert.Len(t, snapshots[1].Matches, 2)
	assert.Equal(t, models.StatusCompleted, snapshots[2].Status)
	require.NotNil(t, snapshots[2].Completed)
	assert.Len(t, snapshots[2].Matches, 2, "every snapshot carries the whole record")

	unsubscribe()
	unsubscribe()
	require.NoError(t, store.Patch(ctx, "ABC234", TournamentPatch{Status: &status}))
	assert.Len(t, snapshots, 3)
}

func TestMemoryStore_SubscribersAreIsolated(t *testing.T) {
	store := NewMemoryTournamentStore(nil)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, sampleTournament("ABC234")))

	var first, second *models.Tournament
	_, err := store.Subscribe(ctx, "ABC234", func(tr *models.Tournament) { first = tr })
	require.NoError(t, err)
	_, err = store.Subscribe(ctx, "ABC234", func(tr *models.Tournament) { second = tr })
	require.NoError(t, err)

	first.Matches[0].Map = "Tampered"
	assert.Equal(t, "Babylon", second.Matches[0].Map)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	store := NewMemoryTournamentStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Create(ctx, sampleTournament("ABC234")), context.Canceled)
	_, err := store.Get(ctx, "ABC234")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_SnapshotsNeverGoBackwards(t *testing.T) {
	store := NewMemoryTournamentStore(nil)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, sampleTournament("ABC234")))

	const writes = 200
	const subscribers = 8

	seen := make([][]int, subscribers)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for n := 1; n <= writes; n++ {
			lb := map[string]models.LeaderboardEntry{"p1": {Wins: n}}
			assert.NoError(t, store.Patch(ctx, "ABC234", TournamentPatch{Leaderboard: lb}))
		}
	}()

	for i := range subscribers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Subscribe(ctx, "ABC234", func(tr *models.Tournament) {
				seen[i] = append(seen[i], tr.Leaderboard["p1"].Wins)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	for i, wins := range seen {
		require.NotEmpty(t, wins, "subscriber %d", i)
		for j := 1; j < len(wins); j++ {
			assert.LessOrEqual(t, wins[j-1], wins[j], "subscriber %d went backwards at %d", i, j)
		}
		assert.Equal(t, writes, wins[len(wins)-1], "subscriber %d", i)
	}
}
