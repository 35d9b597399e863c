package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/lobby-tracker/models"
	"github.com/redis/go-redis/v9"
)

const (
	tournamentCachePrefix = "tournament:"
	tournamentGenPrefix   = "tournament-gen:"
	// generationTTL только ограничивает мусор в redis; счётчик живёт дольше любого снимка.
	generationTTL = 24 * time.Hour
)

var errStaleFill = errors.New("tournament changed while filling cache")

// cachedTournamentStore caches Get results in redis. Writes go to the inner store
// first and then bump a per-code generation and drop the cached copy; a fill is
// written only if the generation did not move since the inner read. Redis
// failures never fail a call: the inner store stays the source of truth.
type cachedTournamentStore struct {
	inner  TournamentStore
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ FreshReader = (*cachedTournamentStore)(nil)

func NewCachedTournamentStore(inner TournamentStore, client *redis.Client, ttl time.Duration, logger *slog.Logger) TournamentStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &cachedTournamentStore{inner: inner, client: client, ttl: ttl, logger: logger}
}

// NewRedisClient parses a redis:// or rediss:// URL and checks the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func tournamentCacheKey(code string) string {
	return tournamentCachePrefix + code
}

func tournamentGenKey(code string) string {
	return tournamentGenPrefix + code
}

func (s *cachedTournamentStore) Create(ctx context.Context, t *models.Tournament) error {
	if err := s.inner.Create(ctx, t); err != nil {
		return err
	}
	s.invalidate(ctx, t.Code)
	return nil
}

func (s *cachedTournamentStore) Get(ctx context.Context, code string) (*models.Tournament, error) {
	raw, err := s.client.Get(ctx, tournamentCacheKey(code)).Bytes()
	switch {
	case err == nil:
		var t models.Tournament
		if jsonErr := json.Unmarshal(raw, &t); jsonErr == nil {
			return &t, nil
		}
		s.logger.Warn("dropping undecodable cached tournament", slog.String("code", code))
	case errors.Is(err, redis.Nil):
	default:
		s.logger.Warn("tournament cache read failed", slog.String("code", code), slog.Any("error", err))
	}

	// Поколение читается до похода во внутреннее хранилище: если между чтением
	// и записью в кэш прошла инвалидация, снимок уже устарел и не кэшируется.
	gen, genErr := s.generation(ctx, code)

	t, err := s.inner.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		s.logger.Warn("tournament cache generation read failed", slog.String("code", code), slog.Any("error", genErr))
		return t, nil
	}
	s.fill(ctx, code, gen, t)
	return t, nil
}

// GetFresh bypasses redis. Read-modify-write paths use it via GetForUpdate.
func (s *cachedTournamentStore) GetFresh(ctx context.Context, code string) (*models.Tournament, error) {
	return GetForUpdate(ctx, s.inner, code)
}

func (s *cachedTournamentStore) generation(ctx context.Context, code string) (int64, error) {
	gen, err := s.client.Get(ctx, tournamentGenKey(code)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// fill caches t only while the generation still equals gen. WATCH aborts the
// SET when an invalidation lands between the check and EXEC.
func (s *cachedTournamentStore) fill(ctx context.Context, code string, gen int64, t *models.Tournament) {
	doc, err := json.Marshal(t)
	if err != nil {
		return
	}
	genKey := tournamentGenKey(code)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, tournamentCacheKey(code), doc, s.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		s.logger.Debug("skipping stale tournament cache fill", slog.String("code", code))
	default:
		s.logger.Warn("tournament cache write failed", slog.String("code", code), slog.Any("error", err))
	}
}

func (s *cachedTournamentStore) Patch(ctx context.Context, code string, patch TournamentPatch) error {
	if err := s.inner.Patch(ctx, code, patch); err != nil {
		return err
	}
	s.invalidate(ctx, code)
	return nil
}

func (s *cachedTournamentStore) PatchMatch(ctx context.Context, code string, index int, patch MatchPatch) error {
	if err := s.inner.PatchMatch(ctx, code, index, patch); err != nil {
		return err
	}
	s.invalidate(ctx, code)
	return nil
}

// Subscribe is not cached; snapshots come straight from the inner store.
func (s *cachedTournamentStore) Subscribe(ctx context.Context, code string, fn SnapshotFunc) (func(), error) {
	return s.inner.Subscribe(ctx, code, fn)
}

// invalidate bumps the generation and drops the cached copy in one transaction.
func (s *cachedTournamentStore) invalidate(ctx context.Context, code string) {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, tournamentGenKey(code))
		pipe.Expire(ctx, tournamentGenKey(code), generationTTL)
		pipe.Del(ctx, tournamentCacheKey(code))
		return nil
	})
	if err != nil {
		s.logger.Warn("tournament cache invalidation failed", slog.String("code", code), slog.Any("error", err))
	}
}
