package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/Dosada05/lobby-tracker/brackets"
	"github.com/Dosada05/lobby-tracker/models"
	"github.com/Dosada05/lobby-tracker/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sixPlayers(names ...string) []PlayerInput {
	if len(names) == 0 {
		names = []string{"Alex", "Bo", "Cy", "Di", "Ed", "Flo"}
	}
	players := make([]PlayerInput, len(names))
	for i, n := range names {
		players[i] = PlayerInput{Name: n}
	}
	return players
}

func newTestServices(t *testing.T) (TournamentService, MatchService, repositories.TournamentStore) {
	t.Helper()
	store := repositories.NewMemoryTournamentStore(nil)
	ts := NewTournamentService(store, nil, nil)
	ts.(*tournamentService).rng = rand.New(rand.NewPCG(1, 2))
	ms := NewMatchService(store, nil, nil)
	return ts, ms, store
}

func TestCreateTournament_3v3(t *testing.T) {
	ts, _, store := newTestServices(t)
	ctx := context.Background()

	tr, err := ts.CreateTournament(ctx, CreateTournamentInput{Players: sixPlayers(), Format: models.Format3v3})
	require.NoError(t, err)

	assert.Len(t, tr.Code, 6)
	assert.NotEmpty(t, tr.ID)
	assert.Equal(t, models.StatusInProgress, tr.Status)
	assert.Nil(t, tr.Completed)
	require.Len(t, tr.Matches, 10)
	assert.Equal(t, []string{"p1", "p2", "p3", "p4", "p5", "p6"}, tr.PlayerIDs())

	keys := make(map[string]struct{})
	for i, m := range tr.Matches {
		assert.Equal(t, i+1, m.MatchNumber)
		assert.Equal(t, models.MatchStatusPending, m.Status)
		assert.Empty(t, m.Team3)
		assert.NotEmpty(t, m.Map)
		assert.NotEmpty(t, m.Mode)
		keys[brackets.Matchup{Teams: [][]string{m.Team1, m.Team2}}.Key()] = struct{}{}
	}
	assert.Len(t, keys, 10)

	require.Len(t, tr.Leaderboard, 6)
	for _, e := range tr.Leaderboard {
		assert.Zero(t, e.GamesPlayed)
	}

	stored, err := store.Get(ctx, tr.Code)
	require.NoError(t, err)
	assert.Equal(t, tr.ID, stored.ID)
}

func TestCreateTournament_2v2v2(t *testing.T) {
	ts, _, _ := newTestServices(t)

	tr, err := ts.CreateTournament(context.Background(), CreateTournamentInput{Players: sixPlayers(), Format: models.Format2v2v2})
	require.NoError(t, err)

	require.Len(t, tr.Matches, 15)
	for _, m := range tr.Matches {
		assert.Len(t, m.Team1, 2)
		assert.Len(t, m.Team2, 2)
		assert.Len(t, m.Team3, 2)
	}
}

func TestCreateTournament_KeepsGivenIDs(t *testing.T) {
	ts, _, _ := newTestServices(t)
	players := sixPlayers()
	players[0].ID = "host"

	tr, err := ts.CreateTournament(context.Background(), CreateTournamentInput{Players: players, Format: models.Format3v3})
	require.NoError(t, err)
	assert.Equal(t, "host", tr.Players[0].ID)
	assert.Equal(t, "p2", tr.Players[1].ID)
}

func TestCreateTournament_Validation(t *testing.T) {
	ts, _, _ := newTestServices(t)
	ctx := context.Background()

	dupID := sixPlayers()
	dupID[0].ID = "p2"

	tests := []struct {
		name  string
		input CreateTournamentInput
		want  error
	}{
		{"too few players", CreateTournamentInput{Players: sixPlayers("A", "B", "C"), Format: models.Format3v3}, ErrRosterSize},
		{"too many players", CreateTournamentInput{Players: sixPlayers("A", "B", "C", "D", "E", "F", "G"), Format: models.Format3v3}, ErrRosterSize},
		{"blank name", CreateTournamentInput{Players: sixPlayers("A", "B", "  ", "D", "E", "F"), Format: models.Format3v3}, ErrPlayerNameRequired},
		{"duplicate name ignoring case", CreateTournamentInput{Players: sixPlayers("Alex", "B", "C", " alex ", "E", "F"), Format: models.Format3v3}, ErrDuplicatePlayerName},
		{"duplicate id", CreateTournamentInput{Players: dupID, Format: models.Format3v3}, ErrDuplicatePlayerID},
		{"unknown format", CreateTournamentInput{Players: sixPlayers(), Format: "1v1"}, ErrInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.CreateTournament(ctx, tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidationFailed)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateTournament_CodeConflict(t *testing.T) {
	ts, _, _ := newTestServices(t)
	ts.(*tournamentService).generateCode = func() (string, error) { return "SAME22", nil }
	ctx := context.Background()

	_, err := ts.CreateTournament(ctx, CreateTournamentInput{Players: sixPlayers(), Format: models.Format3v3})
	require.NoError(t, err)

	_, err = ts.CreateTournament(ctx, CreateTournamentInput{Players: sixPlayers(), Format: models.Format3v3})
	assert.ErrorIs(t, err, ErrTournamentCodeConflict)
}

func TestCreateTournament_CodeGeneratorFailure(t *testing.T) {
	ts, _, _ := newTestServices(t)
	ts.(*tournamentService).generateCode = func() (string, error) { return "", errors.New("entropy exhausted") }

	_, err := ts.CreateTournament(context.Background(), CreateTournamentInput{Players: sixPlayers(), Format: models.Format3v3})
	assert.ErrorContains(t, err, "entropy exhausted")
}

func TestGetTournament_NormalizesCode(t *testing.T) {
	ts, _, _ := newTestServices(t)
	ctx := context.Background()
	tr, err := ts.CreateTournament(ctx, CreateTournamentInput{Players: sixPlayers(), Format: models.Format3v3})
	require.NoError(t, err)

	got, err := ts.GetTournament(ctx, "  "+strings.ToLower(tr.Code)+" ")
	require.NoError(t, err)
	assert.Equal(t, tr.ID, got.ID)

	_, err = ts.GetTournament(ctx, "NOPE22")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	_, err = ts.GetTournament(ctx, "   ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegenerateMapsAndModes(t *testing.T) {
	ts, ms, _ := newTestServices(t)
	ctx := context.Background()
	tr, err := ts.CreateTournament(ctx, CreateTournamentInput{Players: sixPlayers(), Format: models.Format3v3})
	require.NoError(t, err)

	reshuffled, err := ts.RegenerateMapsAndModes(ctx, tr.Code)
	require.NoError(t, err)
	require.Len(t, reshuffled.Matches, len(tr.Matches))
	for i := range tr.Matches {
		assert.Equal(t, tr.Matches[i].Team1, reshuffled.Matches[i].Team1, "schedule order is preserved")
		assert.Equal(t, tr.Matches[i].Team2, reshuffled.Matches[i].Team2)
		assert.Equal(t, models.MatchStatusPending, reshuffled.Matches[i].Status)
	}

	stored, err := ts.GetTournament(ctx, tr.Code)
	require.NoError(t, err)
	assert.Equal(t, reshuffled.Matches, stored.Matches)

	_, err = ms.StartMatch(ctx, tr.Code, 0)
	require.NoError(t, err)

	_, err = ts.RegenerateMapsAndModes(ctx, tr.Code)
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.ErrorIs(t, err, ErrScheduleStarted)
}

func TestGetStandings_ChampionOnlyWhenCompleted(t *testing.T) {
	ts, ms, _ := newTestServices(t)
	ctx := context.Background()
	tr, err := ts.CreateTournament(ctx, CreateTournamentInput{Players: sixPlayers(), Format: models.Format3v3})
	require.NoError(t, err)

	st, err := ts.GetStandings(ctx, tr.Code)
	require.NoError(t, err)
	assert.Nil(t, st.Champion)
	assert.Equal(t, 0, st.CurrentMatchIndex)
	assert.Equal(t, 10, st.TotalMatches)
	assert.Len(t, st.Standings, 6)

	for i, m := range tr.Matches {
		_, err := ms.SubmitMatchResults(ctx, tr.Code, i, fullResult(m, models.SlotTeam1))
		require.NoError(t, err)
	}

	st, err = ts.GetStandings(ctx, tr.Code)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, st.Status)
	assert.Equal(t, 10, st.CompletedMatches)
	assert.Equal(t, 9, st.CurrentMatchIndex)
	require.NotNil(t, st.Champion)
	assert.Equal(t, st.Standings[0], *st.Champion)
}

func TestGetPlayerMatchHistory(t *testing.T) {
	ts, ms, _ := newTestServices(t)
	ctx := context.Background()
	tr, err := ts.CreateTournament(ctx, CreateTournamentInput{Players: sixPlayers(), Format: models.Format3v3})
	require.NoError(t, err)

	m := tr.Matches[0]
	_, err = ms.SubmitMatchResults(ctx, tr.Code, 0, fullResult(m, models.SlotTeam2))
	require.NoError(t, err)

	player := m.Team2[0]
	history, err := ts.GetPlayerMatchHistory(ctx, tr.Code, player)
	require.NoError(t, err)
	require.Len(t, history.Matches, 1)
	assert.True(t, history.Matches[0].Won)
	assert.Equal(t, 1, history.Matches[0].MatchNumber)
	assert.Len(t, history.Matches[0].Teammates, 2)
	assert.NotContains(t, history.Matches[0].Teammates, player)
	assert.Equal(t, 1, history.Entry.Wins)

	loser := m.Team1[0]
	history, err = ts.GetPlayerMatchHistory(ctx, tr.Code, loser)
	require.NoError(t, err)
	require.Len(t, history.Matches, 1)
	assert.False(t, history.Matches[0].Won)

	_, err = ts.GetPlayerMatchHistory(ctx, tr.Code, "nobody")
	assert.ErrorIs(t, err, ErrPlayerNotInTournament)
}
