package activity

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hiretrack/internal/cache"
	"github.com/kiranshivaraju/hiretrack/pkg/models"
)

const DefaultCapacity = 100

// Recorder is what services use to report mutations.
type Recorder interface {
	Record(ctx context.Context, typ, title, description string, entityID uuid.UUID, entityType string)
}

// Log is a newest-first activity feed capped at a fixed number of records.
// Every append is written through to the cache.
type Log struct {
	cache    cache.Cache
	capacity int
	now      func() time.Time
}

func NewLog(c cache.Cache, capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{cache: c, capacity: capacity, now: time.Now}
}

// Append stores a, filling in the id and timestamp when they are zero. Storage
// failures are logged and dropped; the activity feed never fails a mutation.
func (l *Log) Append(ctx context.Context, a models.Activity) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = l.now().UTC()
	}

	data, err := json.Marshal(a)
	if err != nil {
		slog.Error("failed to encode activity", "type", a.Type, "error", err)
		return
	}
	if err := l.cache.PushFrontCapped(ctx, cache.ActivityKey(), data, l.capacity); err != nil {
		slog.Error("failed to persist activity", "type", a.Type, "error", err)
	}
}

func (l *Log) Record(ctx context.Context, typ, title, description string, entityID uuid.UUID, entityType string) {
	l.Append(ctx, models.Activity{
		Type:        typ,
		Title:       title,
		Description: description,
		EntityID:    entityID,
		EntityType:  entityType,
	})
}

// Recent returns up to limit records, newest first. A non-positive limit returns
// the whole feed. Undecodable records are skipped.
func (l *Log) Recent(ctx context.Context, limit int) ([]models.Activity, error) {
	if limit <= 0 || limit > l.capacity {
		limit = l.capacity
	}
	raw, err := l.cache.Range(ctx, cache.ActivityKey(), 0, limit-1)
	if err != nil {
		return nil, err
	}

	out := make([]models.Activity, 0, len(raw))
	for _, r := range raw {
		var a models.Activity
		if err := json.Unmarshal(r, &a); err != nil {
			slog.Warn("skipping corrupt activity record", "error", err)
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// Clear drops the whole feed.
func (l *Log) Clear(ctx context.Context) error {
	return l.cache.Delete(ctx, cache.ActivityKey())
}

var _ Recorder = (*Log)(nil)
