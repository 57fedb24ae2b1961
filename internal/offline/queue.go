// Package offline holds mutations made while the API is unreachable and replays
// them in enqueue order once connectivity returns.
package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hiretrack/internal/cache"
	"github.com/kiranshivaraju/hiretrack/pkg/models"
)

// MaxRetries is the number of failed replays after which an item is dropped.
const MaxRetries = 3

var (
	ErrAbandoned     = errors.New("queue item abandoned after max retries")
	ErrDrainInFlight = errors.New("a drain is already running")
	ErrNoReplayer    = errors.New("queue has no replayer")
)

// Replayer sends a queued mutation to the API.
type Replayer interface {
	Replay(ctx context.Context, item models.QueueItem) error
}

// ReplayerFunc adapts a function to Replayer.
type ReplayerFunc func(ctx context.Context, item models.QueueItem) error

func (f ReplayerFunc) Replay(ctx context.Context, item models.QueueItem) error {
	return f(ctx, item)
}

// DrainResult summarizes one drain pass.
type DrainResult struct {
	Synced    int
	Failed    int
	Abandoned int
	Remaining int
}

// Queue is a durable FIFO stored as a cache list. Every state change is written
// through, so a new Queue over the same cache and name sees the pending items.
type Queue struct {
	cache      cache.Cache
	key        string
	replayer   Replayer
	maxRetries int
	now        func() time.Time

	online   atomic.Bool
	draining sync.Mutex
	wg       sync.WaitGroup
}

type Option func(*Queue)

func WithMaxRetries(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.maxRetries = n
		}
	}
}

func WithReplayer(r Replayer) Option {
	return func(q *Queue) { q.replayer = r }
}

// New opens the queue called name. It starts online.
func New(c cache.Cache, name string, opts ...Option) *Queue {
	q := &Queue{
		cache:      c,
		key:        cache.OfflineQueueKey(name),
		maxRetries: MaxRetries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.online.Store(true)
	return q
}

// SetReplayer binds the replayer after construction, for callers that need the
// queue to build the replayer.
func (q *Queue) SetReplayer(r Replayer) {
	q.replayer = r
}

func validMethod(m string) bool {
	switch m {
	case http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// Enqueue appends a mutation. payload is JSON encoded unless it is already a
// json.RawMessage or nil.
func (q *Queue) Enqueue(ctx context.Context, method, endpoint string, payload any) (models.QueueItem, error) {
	if !validMethod(method) {
		return models.QueueItem{}, fmt.Errorf("method %q cannot be queued", method)
	}

	var raw json.RawMessage
	switch p := payload.(type) {
	case nil:
	case json.RawMessage:
		raw = p
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return models.QueueItem{}, fmt.Errorf("encode payload: %w", err)
		}
		raw = b
	}

	item := models.QueueItem{
		ID:        uuid.New(),
		Method:    method,
		Endpoint:  endpoint,
		Payload:   raw,
		Timestamp: q.now().UTC(),
	}
	data, err := json.Marshal(item)
	if err != nil {
		return models.QueueItem{}, fmt.Errorf("encode queue item: %w", err)
	}
	if err := q.cache.Append(ctx, q.key, data); err != nil {
		return models.QueueItem{}, fmt.Errorf("persist queue item: %w", err)
	}

	slog.Info("mutation queued", "id", item.ID, "method", method, "endpoint", endpoint)
	return item, nil
}

// Pending returns every queued item in replay order.
func (q *Queue) Pending(ctx context.Context) ([]models.QueueItem, error) {
	raw, err := q.cache.Range(ctx, q.key, 0, -1)
	if err != nil {
		return nil, err
	}
	out := make([]models.QueueItem, 0, len(raw))
	for _, r := range raw {
		var item models.QueueItem
		if err := json.Unmarshal(r, &item); err != nil {
			slog.Warn("skipping corrupt queue item", "error", err)
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (q *Queue) Len(ctx context.Context) (int, error) {
	return q.cache.Len(ctx, q.key)
}

func (q *Queue) Clear(ctx context.Context) error {
	return q.cache.Delete(ctx, q.key)
}

func (q *Queue) Online() bool {
	return q.online.Load()
}

// SetOnline flips the connectivity flag. Going from offline to online starts a
// drain in the background; Wait blocks until it finishes.
func (q *Queue) SetOnline(ctx context.Context, online bool) {
	was := q.online.Swap(online)
	if was || !online {
		return
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		res, err := q.Drain(ctx)
		if err != nil && !errors.Is(err, ErrDrainInFlight) {
			slog.Error("background drain failed", "error", err)
			return
		}
		slog.Info("background drain finished",
			"synced", res.Synced, "failed", res.Failed,
			"abandoned", res.Abandoned, "remaining", res.Remaining,
		)
	}()
}

// Wait blocks until background drains started by SetOnline have returned.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Drain replays queued items one at a time from the head. A successful replay
// removes the item. A failed replay bumps its retry count and ends the pass with
// the item still at the head; once the count reaches the ceiling the item is
// dropped and the pass moves on. Draining while offline is a no-op.
func (q *Queue) Drain(ctx context.Context) (DrainResult, error) {
	var res DrainResult
	if q.replayer == nil {
		return res, ErrNoReplayer
	}
	if !q.draining.TryLock() {
		return res, ErrDrainInFlight
	}
	defer q.draining.Unlock()

	for q.Online() {
		if err := ctx.Err(); err != nil {
			return q.finish(ctx, res, err)
		}

		raw, ok, err := q.cache.Head(ctx, q.key)
		if err != nil {
			return q.finish(ctx, res, fmt.Errorf("read queue head: %w", err))
		}
		if !ok {
			break
		}

		var item models.QueueItem
		if err := json.Unmarshal(raw, &item); err != nil {
			slog.Error("dropping corrupt queue item", "error", err)
			if _, _, err := q.cache.PopHead(ctx, q.key); err != nil {
				return q.finish(ctx, res, fmt.Errorf("remove queue item: %w", err))
			}
			continue
		}

		replayErr := q.replayer.Replay(ctx, item)
		if replayErr == nil {
			if _, _, err := q.cache.PopHead(ctx, q.key); err != nil {
				return q.finish(ctx, res, fmt.Errorf("remove queue item: %w", err))
			}
			res.Synced++
			slog.Info("queued mutation replayed", "id", item.ID, "method", item.Method, "endpoint", item.Endpoint)
			continue
		}

		item.Retries++
		if item.Retries >= q.maxRetries {
			if _, _, err := q.cache.PopHead(ctx, q.key); err != nil {
				return q.finish(ctx, res, fmt.Errorf("remove queue item: %w", err))
			}
			res.Abandoned++
			slog.Error("queued mutation abandoned",
				"id", item.ID, "method", item.Method, "endpoint", item.Endpoint,
				"retries", item.Retries, "error", errors.Join(ErrAbandoned, replayErr),
			)
			continue
		}

		data, err := json.Marshal(item)
		if err != nil {
			return q.finish(ctx, res, fmt.Errorf("encode queue item: %w", err))
		}
		if err := q.cache.SetHead(ctx, q.key, data); err != nil {
			return q.finish(ctx, res, fmt.Errorf("update queue item: %w", err))
		}
		res.Failed++
		slog.Warn("queued mutation failed, will retry",
			"id", item.ID, "retries", item.Retries, "error", replayErr,
		)
		break
	}

	return q.finish(ctx, res, nil)
}

func (q *Queue) finish(ctx context.Context, res DrainResult, err error) (DrainResult, error) {
	n, lenErr := q.cache.Len(context.WithoutCancel(ctx), q.key)
	if lenErr == nil {
		res.Remaining = n
	}
	return res, err
}
