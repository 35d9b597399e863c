package brackets

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Dosada05/lobby-tracker/models"
	"github.com/Dosada05/lobby-tracker/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshotMessage struct {
	Type    string             `json:"type"`
	Payload *models.Tournament `json:"payload"`
	RoomID  string             `json:"room_id"`
}

func startHub(t *testing.T, store repositories.TournamentStore) *Hub {
	t.Helper()
	hub := NewHub(store, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})
	return hub
}

func newTestClient(hub *Hub, room string) *Client {
	return &Client{Hub: hub, Send: make(chan []byte, 16), Room: room}
}

func receive(t *testing.T, c *Client) snapshotMessage {
	t.Helper()
	select {
	case raw, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var msg snapshotMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return snapshotMessage{}
	}
}

func hubTournament(code string) *models.Tournament {
	return &models.Tournament{
		Code:   code,
		Format: models.Format3v3,
		Matches: []models.Match{
			{ID: "m1", MatchNumber: 1, Status: models.MatchStatusPending, Stats: map[string]models.MatchStat{}},
		},
		Status: models.StatusInProgress,
	}
}

func TestHub_FirstClientGetsCurrentSnapshot(t *testing.T) {
	store := repositories.NewMemoryTournamentStore(nil)
	require.NoError(t, store.Create(context.Background(), hubTournament("ABC234")))
	hub := startHub(t, store)

	c := newTestClient(hub, "ABC234")
	hub.Register <- c

	msg := receive(t, c)
	assert.Equal(t, MessageTournamentSnapshot, msg.Type)
	assert.Equal(t, "ABC234", msg.RoomID)
	require.NotNil(t, msg.Payload)
	assert.Len(t, msg.Payload.Matches, 1)
}

func TestHub_UnknownTournamentSendsNullPayload(t *testing.T) {
	hub := startHub(t, repositories.NewMemoryTournamentStore(nil))

	c := newTestClient(hub, "NOPE22")
	hub.Register <- c

	msg := receive(t, c)
	assert.Equal(t, "NOPE22", msg.RoomID)
	assert.Nil(t, msg.Payload)
}

func TestHub_BroadcastsEveryWrite(t *testing.T) {
	store := repositories.NewMemoryTournamentStore(nil)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, hubTournament("ABC234")))
	hub := startHub(t, store)

	first := newTestClient(hub, "ABC234")
	hub.Register <- first
	receive(t, first)

	second := newTestClient(hub, "ABC234")
	hub.Register <- second
	late := receive(t, second)
	require.NotNil(t, late.Payload, "late joiner gets the last snapshot")

	status := models.MatchStatusInProgress
	require.NoError(t, store.PatchMatch(ctx, "ABC234", 0, repositories.MatchPatch{Status: &status}))

	for _, c := range []*Client{first, second} {
		msg := receive(t, c)
		require.NotNil(t, msg.Payload)
		assert.Equal(t, models.MatchStatusInProgress, msg.Payload.Matches[0].Status)
	}
}

func TestHub_RoomsAreIsolated(t *testing.T) {
	store := repositories.NewMemoryTournamentStore(nil)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, hubTournament("AAAAAA")))
	require.NoError(t, store.Create(ctx, hubTournament("BBBBBB")))
	hub := startHub(t, store)

	a := newTestClient(hub, "AAAAAA")
	b := newTestClient(hub, "BBBBBB")
	hub.Register <- a
	hub.Register <- b
	receive(t, a)
	receive(t, b)

	status := models.MatchStatusInProgress
	require.NoError(t, store.PatchMatch(ctx, "AAAAAA", 0, repositories.MatchPatch{Status: &status}))
	receive(t, a)

	select {
	case <-b.Send:
		t.Fatal("room BBBBBB must not receive AAAAAA updates")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesClientAndRoom(t *testing.T) {
	store := repositories.NewMemoryTournamentStore(nil)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, hubTournament("ABC234")))
	hub := startHub(t, store)

	c := newTestClient(hub, "ABC234")
	hub.Register <- c
	receive(t, c)
	assert.Equal(t, 1, hub.RoomSize("ABC234"))

	hub.Unregister <- c
	assert.Eventually(t, func() bool { return hub.RoomSize("ABC234") == 0 }, time.Second, 10*time.Millisecond)

	_, open := <-c.Send
	assert.False(t, open)

	// writes after the room closed reach nobody and do not block
	status := models.MatchStatusInProgress
	require.NoError(t, store.PatchMatch(ctx, "ABC234", 0, repositories.MatchPatch{Status: &status}))
}
