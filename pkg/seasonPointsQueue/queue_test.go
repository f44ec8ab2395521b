package seasonPointsQueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Layr-Labs/season-points/internal/logger"
	"github.com/Layr-Labs/season-points/pkg/leaderboard"
	"github.com/Layr-Labs/season-points/pkg/seasonPoints"
	"github.com/stretchr/testify/assert"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
	err   error
	block chan struct{}
}

func (r *recorder) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) CalculateSeasonPointsForWeek(ctx context.Context, input *seasonPoints.CalculateSeasonPointsInput) error {
	if r.block != nil {
		<-r.block
	}
	r.record("calculate:" + input.WeekId)
	return r.err
}

func (r *recorder) PopulateAll(ctx context.Context, filters *leaderboard.PopulateFilters) error {
	r.record("populate:" + filters.SeasonId + ":" + filters.WeekId)
	return nil
}

func Test_SeasonPointsQueue(t *testing.T) {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	t.Run("Should calculate and then populate the cache", func(t *testing.T) {
		r := &recorder{}
		q := NewSeasonPointsQueue(r, r, l)
		go q.Process()
		defer q.Close()

		err := q.EnqueueAndWait(context.Background(), QueueData{
			MessageType:   MessageType_CalculateSeasonPoints,
			WeekId:        "w1",
			PopulateCache: true,
		})
		assert.Nil(t, err)
		assert.Equal(t, []string{"calculate:w1", "populate::w1"}, r.calls)
	})
	t.Run("Should not populate the cache when the calculation fails", func(t *testing.T) {
		r := &recorder{err: &seasonPoints.InvalidStateError{Message: "week 'w1' has already been processed"}}
		q := NewSeasonPointsQueue(r, r, l)
		go q.Process()
		defer q.Close()

		err := q.EnqueueAndWait(context.Background(), QueueData{
			MessageType:   MessageType_CalculateSeasonPoints,
			WeekId:        "w1",
			PopulateCache: true,
		})
		assert.True(t, seasonPoints.IsInvalidStateError(err))
		assert.Equal(t, []string{"calculate:w1"}, r.calls)
	})
	t.Run("Should populate the cache for a season", func(t *testing.T) {
		r := &recorder{}
		q := NewSeasonPointsQueue(r, r, l)
		go q.Process()
		defer q.Close()

		err := q.EnqueueAndWait(context.Background(), QueueData{
			MessageType: MessageType_PopulateLeaderboardCache,
			SeasonId:    "s1",
		})
		assert.Nil(t, err)
		assert.Equal(t, []string{"populate:s1:"}, r.calls)
	})
	t.Run("Should reject unknown message types", func(t *testing.T) {
		r := &recorder{}
		q := NewSeasonPointsQueue(r, r, l)
		go q.Process()
		defer q.Close()

		err := q.EnqueueAndWait(context.Background(), QueueData{MessageType: "unknown"})
		assert.NotNil(t, err)
		assert.Empty(t, r.calls)
	})
	t.Run("Should stop waiting when the context is done", func(t *testing.T) {
		r := &recorder{block: make(chan struct{})}
		q := NewSeasonPointsQueue(r, r, l)
		go q.Process()
		defer q.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := q.EnqueueAndWait(ctx, QueueData{MessageType: MessageType_CalculateSeasonPoints, WeekId: "w1"})
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
		close(r.block)
	})
}
