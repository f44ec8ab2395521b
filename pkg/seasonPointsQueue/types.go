package seasonPointsQueue

import (
	"context"

	"github.com/Layr-Labs/season-points/pkg/leaderboard"
	"github.com/Layr-Labs/season-points/pkg/seasonPoints"
	"go.uber.org/zap"
)

type MessageType string

var (
	MessageType_CalculateSeasonPoints    MessageType = "calculateSeasonPoints"
	MessageType_PopulateLeaderboardCache MessageType = "populateLeaderboardCache"
)

type QueueData struct {
	MessageType     MessageType
	WeekId          string
	SeasonId        string
	Force           bool
	MarkAsProcessed bool
	// PopulateCache rebuilds the week's leaderboard scopes after a successful calculation.
	PopulateCache bool
}

type QueueMessage struct {
	Ctx          context.Context
	Data         QueueData
	ResponseChan chan *QueueResponse
}

type QueueResponse struct {
	Error error
}

// SeasonPointsCalculator is the subset of seasonPoints.SeasonPointsCalculator the queue drives.
type SeasonPointsCalculator interface {
	CalculateSeasonPointsForWeek(ctx context.Context, input *seasonPoints.CalculateSeasonPointsInput) error
}

// CacheBuilder is the subset of leaderboard.LeaderboardCacheBuilder the queue drives.
type CacheBuilder interface {
	PopulateAll(ctx context.Context, filters *leaderboard.PopulateFilters) error
}

type SeasonPointsQueue struct {
	logger       *zap.Logger
	calculator   SeasonPointsCalculator
	cacheBuilder CacheBuilder
	queue        chan *QueueMessage
	done         chan struct{}
}
