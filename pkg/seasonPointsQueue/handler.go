package seasonPointsQueue

import (
	"context"
	"fmt"

	"github.com/Layr-Labs/season-points/pkg/leaderboard"
	"github.com/Layr-Labs/season-points/pkg/seasonPoints"
)

func (spq *SeasonPointsQueue) Process() {
	for {
		select {
		case <-spq.done:
			spq.logger.Sugar().Infow("Closing season points queue")
			return
		case msg := <-spq.queue:
			spq.logger.Sugar().Infow("Processing season points message", "data", msg.Data)
			response := spq.processMessage(msg)

			if msg.ResponseChan != nil {
				select {
				case msg.ResponseChan <- response:
					spq.logger.Sugar().Infow("Sent season points response", "data", msg.Data)
				default:
					spq.logger.Sugar().Infow("No receiver for response, dropping", "data", msg.Data)
				}
			} else {
				spq.logger.Sugar().Infow("No response channel, dropping response", "data", msg.Data)
			}
		}
	}
}

func (spq *SeasonPointsQueue) processMessage(msg *QueueMessage) *QueueResponse {
	ctx := msg.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	response := &QueueResponse{}

	switch msg.Data.MessageType {
	case MessageType_CalculateSeasonPoints:
		response.Error = spq.calculator.CalculateSeasonPointsForWeek(ctx, &seasonPoints.CalculateSeasonPointsInput{
			WeekId:          msg.Data.WeekId,
			Force:           msg.Data.Force,
			MarkAsProcessed: msg.Data.MarkAsProcessed,
		})
		if response.Error == nil && msg.Data.PopulateCache {
			response.Error = spq.cacheBuilder.PopulateAll(ctx, &leaderboard.PopulateFilters{WeekId: msg.Data.WeekId})
		}
	case MessageType_PopulateLeaderboardCache:
		response.Error = spq.cacheBuilder.PopulateAll(ctx, &leaderboard.PopulateFilters{
			SeasonId: msg.Data.SeasonId,
			WeekId:   msg.Data.WeekId,
		})
	default:
		response.Error = fmt.Errorf("unknown message type %s", msg.Data.MessageType)
	}
	return response
}
