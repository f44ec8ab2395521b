package seasonPointsQueue

import (
	"context"

	"go.uber.org/zap"
)

// NewSeasonPointsQueue creates a queue that runs calculations and cache
// population one message at a time. Call Process in a goroutine to start it.
func NewSeasonPointsQueue(calculator SeasonPointsCalculator, cacheBuilder CacheBuilder, logger *zap.Logger) *SeasonPointsQueue {
	return &SeasonPointsQueue{
		logger:       logger,
		calculator:   calculator,
		cacheBuilder: cacheBuilder,
		// allow the queue to buffer up to 100 messages
		queue: make(chan *QueueMessage, 100),
		done:  make(chan struct{}),
	}
}

// Enqueue adds a new message to the queue and returns immediately
func (spq *SeasonPointsQueue) Enqueue(payload *QueueMessage) {
	spq.logger.Sugar().Infow("Enqueueing season points message", "data", payload.Data)
	spq.queue <- payload
}

// EnqueueAndWait adds a new message to the queue and waits for a response or returns if the context is done
func (spq *SeasonPointsQueue) EnqueueAndWait(ctx context.Context, data QueueData) error {
	responseChan := make(chan *QueueResponse, 1)

	payload := &QueueMessage{
		Ctx:          ctx,
		Data:         data,
		ResponseChan: responseChan,
	}
	spq.Enqueue(payload)

	spq.logger.Sugar().Infow("Waiting for season points response", "data", data)

	select {
	case response := <-responseChan:
		spq.logger.Sugar().Infow("Received season points response", "data", data)
		return response.Error
	case <-ctx.Done():
		spq.logger.Sugar().Infow("Received context.Done()")
		return ctx.Err()
	}
}

func (spq *SeasonPointsQueue) Close() {
	spq.logger.Sugar().Infow("Closing season points queue")
	close(spq.done)
}
