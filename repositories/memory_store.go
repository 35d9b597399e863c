package repositories

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Dosada05/lobby-tracker/models"
)

type subscriber struct {
	id int
	fn SnapshotFunc
}

type memoryTournamentStore struct {
	mu sync.RWMutex
	// fanout сериализует доставку снапшотов: подписчик никогда не получит
	// более старую версию после более новой. Колбэки не должны писать в store.
	fanout      sync.Mutex
	tournaments map[string]*models.Tournament
	subscribers map[string][]subscriber
	nextSubID   int
	logger      *slog.Logger
}

// NewMemoryTournamentStore keeps tournaments in process memory. Snapshots are
// fanned out synchronously, after the write lock is released, one publish at a time.
func NewMemoryTournamentStore(logger *slog.Logger) TournamentStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &memoryTournamentStore{
		tournaments: make(map[string]*models.Tournament),
		subscribers: make(map[string][]subscriber),
		logger:      logger,
	}
}

func (s *memoryTournamentStore) Create(ctx context.Context, t *models.Tournament) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if _, exists := s.tournaments[t.Code]; exists {
		s.mu.Unlock()
		return ErrTournamentCodeConflict
	}
	s.tournaments[t.Code] = t.Clone()
	s.mu.Unlock()

	s.publish(t.Code)
	return nil
}

func (s *memoryTournamentStore) Get(ctx context.Context, code string) (*models.Tournament, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tournaments[code]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	return t.Clone(), nil
}

func (s *memoryTournamentStore) Patch(ctx context.Context, code string, patch TournamentPatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	t, ok := s.tournaments[code]
	if !ok {
		s.mu.Unlock()
		return ErrTournamentNotFound
	}
	ApplyTournamentPatch(t, patch)
	s.mu.Unlock()

	s.publish(code)
	return nil
}

func (s *memoryTournamentStore) PatchMatch(ctx context.Context, code string, index int, patch MatchPatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	t, ok := s.tournaments[code]
	if !ok {
		s.mu.Unlock()
		return ErrTournamentNotFound
	}
	if err := ApplyMatchPatch(t, index, patch); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.publish(code)
	return nil
}

func (s *memoryTournamentStore) Subscribe(ctx context.Context, code string, fn SnapshotFunc) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.fanout.Lock()
	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subscribers[code] = append(s.subscribers[code], subscriber{id: id, fn: fn})
	current := s.tournaments[code].Clone()
	s.mu.Unlock()

	fn(current)
	s.fanout.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(code, id) })
	}, nil
}

func (s *memoryTournamentStore) unsubscribe(code string, id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := s.subscribers[code]
	for i, sub := range subs {
		if sub.id == id {
			s.subscribers[code] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(s.subscribers[code]) == 0 {
		delete(s.subscribers, code)
	}
}

func (s *memoryTournamentStore) publish(code string) {
	s.fanout.Lock()
	defer s.fanout.Unlock()

	s.mu.RLock()
	subs := append([]subscriber(nil), s.subscribers[code]...)
	current := s.tournaments[code]
	snapshots := make([]*models.Tournament, len(subs))
	for i := range subs {
		snapshots[i] = current.Clone()
	}
	s.mu.RUnlock()

	if len(subs) > 0 {
		s.logger.Debug("publishing tournament snapshot", slog.String("code", code), slog.Int("subscribers", len(subs)))
	}
	for i, sub := range subs {
		sub.fn(snapshots[i])
	}
}
