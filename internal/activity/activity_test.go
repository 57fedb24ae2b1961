package activity_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hiretrack/internal/activity"
	"github.com/kiranshivaraju/hiretrack/internal/cache"
	"github.com/kiranshivaraju/hiretrack/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingCache rejects every list push.
type failingCache struct {
	*cache.MemoryCache
}

func (failingCache) PushFrontCapped(context.Context, string, []byte, int) error {
	return errors.New("quota exceeded")
}

func TestAppend_NewestFirst(t *testing.T) {
	log := activity.NewLog(cache.NewMemoryCache(), 10)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		log.Append(ctx, models.Activity{Type: models.ActivityJobCreated, Title: fmt.Sprintf("job %d", i)})
	}

	got, err := log.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "job 2", got[0].Title)
	assert.Equal(t, "job 1", got[1].Title)
	assert.Equal(t, "job 0", got[2].Title)
}

func TestAppend_FillsIDAndTimestamp(t *testing.T) {
	log := activity.NewLog(cache.NewMemoryCache(), 10)
	ctx := context.Background()

	log.Append(ctx, models.Activity{Type: models.ActivityJobCreated})

	got, err := log.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotEqual(t, uuid.Nil, got[0].ID)
	assert.WithinDuration(t, time.Now(), got[0].Timestamp, 5*time.Second)
}

func TestAppend_CappedAtCapacity(t *testing.T) {
	log := activity.NewLog(cache.NewMemoryCache(), activity.DefaultCapacity)
	ctx := context.Background()

	for i := 0; i < 150; i++ {
		log.Append(ctx, models.Activity{Type: models.ActivityJobUpdated, Title: fmt.Sprintf("%d", i)})
	}

	got, err := log.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 100)
	assert.Equal(t, "149", got[0].Title)
	assert.Equal(t, "50", got[99].Title)
}

func TestRecent_Limit(t *testing.T) {
	log := activity.NewLog(cache.NewMemoryCache(), 10)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		log.Append(ctx, models.Activity{Title: fmt.Sprintf("%d", i)})
	}

	got, err := log.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "4", got[0].Title)
}

func TestRecent_Empty(t *testing.T) {
	log := activity.NewLog(cache.NewMemoryCache(), 10)

	got, err := log.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAppend_StorageFailureIsSwallowed(t *testing.T) {
	log := activity.NewLog(failingCache{cache.NewMemoryCache()}, 10)

	assert.NotPanics(t, func() {
		log.Append(context.Background(), models.Activity{Type: models.ActivityJobCreated})
	})

	got, err := log.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecord(t *testing.T) {
	log := activity.NewLog(cache.NewMemoryCache(), 10)
	ctx := context.Background()
	id := uuid.New()

	log.Record(ctx, models.ActivityCandidateStageChanged, "Stage changed", "Ada moved to tech", id, models.EntityCandidate)

	got, err := log.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.ActivityCandidateStageChanged, got[0].Type)
	assert.Equal(t, id, got[0].EntityID)
	assert.Equal(t, models.EntityCandidate, got[0].EntityType)
}

func TestClear(t *testing.T) {
	log := activity.NewLog(cache.NewMemoryCache(), 10)
	ctx := context.Background()
	log.Append(ctx, models.Activity{Title: "x"})

	require.NoError(t, log.Clear(ctx))

	got, err := log.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
