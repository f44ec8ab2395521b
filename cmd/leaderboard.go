package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Layr-Labs/season-points/internal/config"
	"github.com/Layr-Labs/season-points/pkg/leaderboard"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Read cached leaderboards",
}

var leaderboardSeasonCmd = &cobra.Command{
	Use:   "season",
	Short: "Print the season leaderboard as JSON",
	Run: func(cmd *cobra.Command, args []string) {
		bindCommandFlags(cmd)
		cfg := config.NewConfig()

		a := newApp(cfg)
		defer a.Close()

		seasonId := viper.GetString(config.LeaderboardSeasonId)
		if seasonId == "" {
			a.logger.Sugar().Fatalw("Season id is required", "flag", config.LeaderboardSeasonId)
		}

		res, err := a.leaderboards.GetSeasonLeaderboard(context.Background(), seasonId, viper.GetString(config.LeaderboardUserId))
		printLeaderboard(a, res, err)
	},
}

var leaderboardCategoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Print an activity category leaderboard for a week as JSON",
	Run: func(cmd *cobra.Command, args []string) {
		bindCommandFlags(cmd)
		cfg := config.NewConfig()

		a := newApp(cfg)
		defer a.Close()

		categoryId := viper.GetString(config.LeaderboardCategoryId)
		weekId := viper.GetString(config.LeaderboardWeekId)
		if categoryId == "" || weekId == "" {
			a.logger.Sugar().Fatalw("Category id and week id are required",
				"flags", []string{config.LeaderboardCategoryId, config.LeaderboardWeekId},
			)
		}

		res, err := a.leaderboards.GetActivityCategoryLeaderboard(context.Background(), categoryId, weekId, viper.GetString(config.LeaderboardUserId))
		printLeaderboard(a, res, err)
	},
}

func init() {
	leaderboardCmd.AddCommand(leaderboardSeasonCmd)
	leaderboardCmd.AddCommand(leaderboardCategoryCmd)
}

func printLeaderboard(a *app, res interface{}, err error) {
	if err != nil {
		switch {
		case leaderboard.IsNotFoundError(err):
			a.logger.Sugar().Errorw("Leaderboard target does not exist", zap.Error(err))
		case leaderboard.IsCacheNotAvailableError(err):
			a.logger.Sugar().Errorw("Leaderboard cache is not populated, run populate-leaderboard-cache first", zap.Error(err))
		default:
			a.logger.Sugar().Errorw("Failed to read leaderboard", zap.Error(err))
		}
		a.Close()
		cobra.CheckErr(err)
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		a.Close()
		cobra.CheckErr(err)
	}
	fmt.Println(string(out))
}
