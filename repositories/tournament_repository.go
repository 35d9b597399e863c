package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/lobby-tracker/models"
	"github.com/lib/pq"
)

// TournamentUpdatesChannel is the LISTEN/NOTIFY channel; the payload is the tournament code.
const TournamentUpdatesChannel = "tournament_updates"

const (
	listenerMinReconnect = 10 * time.Second
	listenerMaxReconnect = time.Minute
)

// PostgresTournamentStore keeps one JSONB document per tournament code.
// Every write notifies TournamentUpdatesChannel; a single pq.Listener turns those
// notifications into full snapshots for the local subscribers.
type PostgresTournamentStore struct {
	db     *sql.DB
	dsn    string
	logger *slog.Logger

	mu          sync.Mutex
	listener    *pq.Listener
	subscribers map[string][]subscriber
	nextSubID   int
	closed      bool
}

var _ TournamentStore = (*PostgresTournamentStore)(nil)

func NewPostgresTournamentStore(db *sql.DB, dsn string, logger *slog.Logger) *PostgresTournamentStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTournamentStore{
		db:          db,
		dsn:         dsn,
		logger:      logger,
		subscribers: make(map[string][]subscriber),
	}
}

func (r *PostgresTournamentStore) Create(ctx context.Context, t *models.Tournament) error {
	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode tournament %s: %w", t.Code, err)
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO tournaments (code, id, format, status, document, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())`
		if _, err := tx.ExecContext(ctx, query, t.Code, t.ID, t.Format, t.Status, doc, t.Created); err != nil {
			return r.handleTournamentError(err)
		}
		return r.notify(ctx, tx, t.Code)
	})
}

func (r *PostgresTournamentStore) Get(ctx context.Context, code string) (*models.Tournament, error) {
	return r.load(ctx, r.db, code, false)
}

func (r *PostgresTournamentStore) Patch(ctx context.Context, code string, patch TournamentPatch) error {
	return r.update(ctx, code, func(t *models.Tournament) error {
		ApplyTournamentPatch(t, patch)
		return nil
	})
}

func (r *PostgresTournamentStore) PatchMatch(ctx context.Context, code string, index int, patch MatchPatch) error {
	return r.update(ctx, code, func(t *models.Tournament) error {
		return ApplyMatchPatch(t, index, patch)
	})
}

func (r *PostgresTournamentStore) Subscribe(ctx context.Context, code string, fn SnapshotFunc) (func(), error) {
	if err := r.ensureListener(); err != nil {
		return nil, err
	}

	current, err := r.Get(ctx, code)
	if err != nil && !errors.Is(err, ErrTournamentNotFound) {
		return nil, err
	}

	r.mu.Lock()
	r.nextSubID++
	id := r.nextSubID
	r.subscribers[code] = append(r.subscribers[code], subscriber{id: id, fn: fn})
	r.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() { r.unsubscribe(code, id) })
	}, nil
}

// Close stops the notification listener. The *sql.DB is owned by the caller.
func (r *PostgresTournamentStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	if r.listener == nil {
		return nil
	}
	err := r.listener.Close()
	r.listener = nil
	return err
}

func (r *PostgresTournamentStore) update(ctx context.Context, code string, mutate func(*models.Tournament) error) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		t, err := r.load(ctx, tx, code, true)
		if err != nil {
			return err
		}
		if err := mutate(t); err != nil {
			return err
		}
		doc, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to encode tournament %s: %w", code, err)
		}

		query := `UPDATE tournaments SET document = $1, status = $2, updated_at = NOW() WHERE code = $3`
		result, err := tx.ExecContext(ctx, query, doc, t.Status, code)
		if err != nil {
			return r.handleTournamentError(err)
		}
		if err := expectRowWritten(result, ErrTournamentNotFound); err != nil {
			return err
		}
		return r.notify(ctx, tx, code)
	})
}

func (r *PostgresTournamentStore) load(ctx context.Context, exec SQLExecutor, code string, forUpdate bool) (*models.Tournament, error) {
	query := `SELECT document FROM tournaments WHERE code = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var doc []byte
	if err := exec.QueryRowContext(ctx, query, code).Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %s: %w", code, err)
	}

	var t models.Tournament
	if err := json.Unmarshal(doc, &t); err != nil {
		return nil, fmt.Errorf("failed to decode tournament %s: %w", code, err)
	}
	return &t, nil
}

func (r *PostgresTournamentStore) notify(ctx context.Context, exec SQLExecutor, code string) error {
	if _, err := exec.ExecContext(ctx, `SELECT pg_notify($1, $2)`, TournamentUpdatesChannel, code); err != nil {
		return fmt.Errorf("failed to notify update of tournament %s: %w", code, err)
	}
	return nil
}

func (r *PostgresTournamentStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("transaction rollback failed", slog.Any("error", rbErr), slog.Any("cause", err))
			}
		} else if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()
	return fn(tx)
}

func (r *PostgresTournamentStore) ensureListener() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errors.New("tournament store is closed")
	}
	if r.listener != nil {
		return nil
	}

	listener := pq.NewListener(r.dsn, listenerMinReconnect, listenerMaxReconnect, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			r.logger.Warn("tournament listener event", slog.Int("event", int(ev)), slog.Any("error", err))
		}
	})
	if err := listener.Listen(TournamentUpdatesChannel); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to listen on %s: %w", TournamentUpdatesChannel, err)
	}
	r.listener = listener
	go r.listen(listener)
	r.logger.Info("tournament listener started", slog.String("channel", TournamentUpdatesChannel))
	return nil
}

func (r *PostgresTournamentStore) listen(listener *pq.Listener) {
	for n := range listener.Notify {
		if n == nil {
			// Соединение восстановлено: уведомления могли потеряться, рассылаем всё заново.
			for _, code := range r.subscribedCodes() {
				r.deliver(code)
			}
			continue
		}
		r.deliver(n.Extra)
	}
}

func (r *PostgresTournamentStore) deliver(code string) {
	r.mu.Lock()
	subs := append([]subscriber(nil), r.subscribers[code]...)
	r.mu.Unlock()
	if len(subs) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	t, err := r.Get(ctx, code)
	if err != nil && !errors.Is(err, ErrTournamentNotFound) {
		r.logger.Error("failed to load tournament for subscribers", slog.String("code", code), slog.Any("error", err))
		return
	}
	for _, sub := range subs {
		sub.fn(t.Clone())
	}
}

func (r *PostgresTournamentStore) subscribedCodes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	codes := make([]string, 0, len(r.subscribers))
	for code := range r.subscribers {
		codes = append(codes, code)
	}
	return codes
}

func (r *PostgresTournamentStore) unsubscribe(code string, id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs := r.subscribers[code]
	for i, sub := range subs {
		if sub.id == id {
			r.subscribers[code] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(r.subscribers[code]) == 0 {
		delete(r.subscribers, code)
	}
}

func (r *PostgresTournamentStore) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return ErrTournamentCodeConflict
	}
	return err
}
