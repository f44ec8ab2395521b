package cmd

import (
	"context"
	"fmt"

	"github.com/Layr-Labs/season-points/internal/config"
	"github.com/Layr-Labs/season-points/internal/shutdown"
	"github.com/Layr-Labs/season-points/pkg/leaderboard"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var populateLeaderboardCacheCmd = &cobra.Command{
	Use:   "populate-leaderboard-cache",
	Short: "Rebuild the leaderboard caches from stored points",
	Run: func(cmd *cobra.Command, args []string) {
		bindCommandFlags(cmd)
		cfg := config.NewConfig()

		a := newApp(cfg)
		defer a.Close()
		l := a.logger

		ctx, cancel := shutdown.ContextWithGracefulShutdown(context.Background(), l)
		defer cancel()

		filters := &leaderboard.PopulateFilters{
			SeasonId: viper.GetString(config.PopulateSeasonId),
			WeekId:   viper.GetString(config.PopulateWeekId),
		}

		reporter := &progressBarReporter{}
		if err := a.cacheBuilder.PopulateAllWithProgress(ctx, filters, reporter); err != nil {
			l.Sugar().Errorw("Failed to populate leaderboard cache", "filters", filters, zap.Error(err))
			a.Close()
			cobra.CheckErr(err)
		}
		reporter.Finish()

		l.Sugar().Infow("Populated leaderboard cache", "filters", filters)
	},
}

// progressBarReporter renders cache population progress on stderr.
type progressBarReporter struct {
	bar *progressbar.ProgressBar
}

func (r *progressBarReporter) Planned(total int) {
	r.bar = progressbar.Default(int64(total), "populating leaderboard cache")
}

func (r *progressBarReporter) Completed(scope *leaderboard.CacheScope) {
	if r.bar == nil {
		return
	}
	r.bar.Describe(fmt.Sprintf("populated %s", scope.CacheKey()))
	_ = r.bar.Add(1)
}

func (r *progressBarReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}
