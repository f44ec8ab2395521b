package cmd

import (
	"context"

	"github.com/Layr-Labs/season-points/internal/config"
	"github.com/Layr-Labs/season-points/internal/shutdown"
	"github.com/Layr-Labs/season-points/pkg/seasonPoints"
	"github.com/Layr-Labs/season-points/pkg/seasonPointsQueue"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Calculate and store season points for a week",
	Run: func(cmd *cobra.Command, args []string) {
		bindCommandFlags(cmd)
		cfg := config.NewConfig()

		a := newApp(cfg)
		defer a.Close()
		l := a.logger

		weekId := viper.GetString(config.CalculateWeekId)
		if weekId == "" {
			l.Sugar().Fatalw("Week id is required", "flag", config.CalculateWeekId)
		}

		ctx, cancel := shutdown.ContextWithGracefulShutdown(context.Background(), l)
		defer cancel()

		err := a.queue.EnqueueAndWait(ctx, seasonPointsQueue.QueueData{
			MessageType:     seasonPointsQueue.MessageType_CalculateSeasonPoints,
			WeekId:          weekId,
			Force:           viper.GetBool(config.CalculateForce),
			MarkAsProcessed: viper.GetBool(config.CalculateMarkAsProcessed),
			PopulateCache:   viper.GetBool(config.CalculatePopulateCache),
		})
		if err != nil {
			switch {
			case seasonPoints.IsValidationError(err):
				l.Sugar().Errorw("Invalid calculation request", "weekId", weekId, zap.Error(err))
			case seasonPoints.IsInvalidStateError(err):
				l.Sugar().Errorw("Week cannot be calculated, rerun with --calculate.force to override", "weekId", weekId, zap.Error(err))
			default:
				l.Sugar().Errorw("Failed to calculate season points", "weekId", weekId, zap.Error(err))
			}
			a.Close()
			cobra.CheckErr(err)
		}

		l.Sugar().Infow("Calculated season points", "weekId", weekId)
	},
}
