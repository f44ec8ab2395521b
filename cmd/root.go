package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Layr-Labs/season-points/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "season-points",
	Short: "Distributes weekly season points and serves season leaderboards",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	initConfig(rootCmd)

	rootCmd.PersistentFlags().Bool(config.Debug, false, `"true" or "false"`)

	rootCmd.PersistentFlags().String(config.DatabaseHost, "localhost", `PostgreSQL host`)
	rootCmd.PersistentFlags().Int(config.DatabasePort, 5432, `PostgreSQL port`)
	rootCmd.PersistentFlags().String(config.DatabaseUser, "season_points", `PostgreSQL username`)
	rootCmd.PersistentFlags().String(config.DatabasePassword, "", `PostgreSQL password`)
	rootCmd.PersistentFlags().String(config.DatabaseDbName, "season_points", `PostgreSQL database name`)
	rootCmd.PersistentFlags().String(config.DatabaseSchemaName, "", `PostgreSQL schema name (default "public")`)
	rootCmd.PersistentFlags().String(config.DatabaseSSLMode, "disable", `PostgreSQL SSL mode (disable, require, verify-ca, verify-full)`)
	rootCmd.PersistentFlags().String(config.DatabaseSSLCert, "", `Path to the client SSL certificate`)
	rootCmd.PersistentFlags().String(config.DatabaseSSLKey, "", `Path to the client SSL key`)
	rootCmd.PersistentFlags().String(config.DatabaseSSLRootCert, "", `Path to the SSL root certificate`)

	rootCmd.PersistentFlags().Int(config.SeasonPointsNumberOfBands, 20, `Number of bands users are split into per category`)
	rootCmd.PersistentFlags().String(config.SeasonPointsPoolShareStart, "0.98", `Pool share of the first band`)
	rootCmd.PersistentFlags().String(config.SeasonPointsPoolShareStep, "1.15", `Multiplicative step between consecutive band shares`)
	rootCmd.PersistentFlags().String(config.SeasonPointsPercentileLowerBound, "0", `Fraction of a category's supply excluded from the bottom`)
	rootCmd.PersistentFlags().String(config.SeasonPointsMinActivityPoints, "0", `Minimum activity points a user needs to be ranked`)
	rootCmd.PersistentFlags().String(config.SeasonPointsMinTwaBalance, "0", `Minimum time-weighted balance an account needs to count`)
	rootCmd.PersistentFlags().Int(config.SeasonPointsUpsertBatchSize, 1000, `Number of rows written per batch`)
	rootCmd.PersistentFlags().Int(config.SeasonPointsUserPageSize, 1000, `Number of users read per page`)

	rootCmd.PersistentFlags().Int(config.LeaderboardTopUsersLimit, 5, `Number of top users returned in a leaderboard`)

	rootCmd.PersistentFlags().Int64(config.ConfigStoreMaxEntries, 1000, `Maximum number of config values kept in memory`)
	rootCmd.PersistentFlags().Duration(config.ConfigStoreTTL, 5*time.Minute, `How long a cached config value is trusted`)

	rootCmd.PersistentFlags().Bool(config.DataDogStatsdEnabled, false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().String(config.DataDogStatsdUrl, "", `e.g. "localhost:8125"`)
	rootCmd.PersistentFlags().Float64(config.DataDogStatsdSampleRate, 1.0, `The sample rate to use for statsd metrics`)

	rootCmd.PersistentFlags().Bool(config.PrometheusEnabled, false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().Int(config.PrometheusPort, 2112, `The port to run the prometheus server on`)

	// setup sub commands
	rootCmd.AddCommand(runVersionCmd)
	rootCmd.AddCommand(runDatabaseCmd)
	rootCmd.AddCommand(calculateCmd)
	rootCmd.AddCommand(populateLeaderboardCacheCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(exportSeasonPointsCmd)
	rootCmd.AddCommand(setConfigCmd)

	// bind any subcommand flags
	calculateCmd.PersistentFlags().String(config.CalculateWeekId, "", "Week to calculate season points for (required)")
	calculateCmd.PersistentFlags().Bool(config.CalculateForce, false, "Recalculate even if the week was processed or the season is completed")
	calculateCmd.PersistentFlags().Bool(config.CalculateMarkAsProcessed, false, "Mark the week as processed once all rows are written")
	calculateCmd.PersistentFlags().Bool(config.CalculatePopulateCache, false, "Rebuild the week's leaderboard caches after calculating")

	populateLeaderboardCacheCmd.PersistentFlags().String(config.PopulateSeasonId, "", "Only rebuild scopes belonging to this season")
	populateLeaderboardCacheCmd.PersistentFlags().String(config.PopulateWeekId, "", "Only rebuild scopes belonging to this week")

	leaderboardCmd.PersistentFlags().String(config.LeaderboardUserId, "", "User to include rank and percentile for")
	leaderboardSeasonCmd.PersistentFlags().String(config.LeaderboardSeasonId, "", "Season to read (required)")
	leaderboardCategoryCmd.PersistentFlags().String(config.LeaderboardCategoryId, "", "Activity category to read (required)")
	leaderboardCategoryCmd.PersistentFlags().String(config.LeaderboardWeekId, "", "Week to read (required)")

	exportSeasonPointsCmd.PersistentFlags().String(config.ExportWeekId, "", "Week to export (required)")
	exportSeasonPointsCmd.PersistentFlags().String(config.ExportOutputFile, "", "Path to write the CSV to (default stdout)")

	setConfigCmd.PersistentFlags().String(config.SetConfigKey, "", "Config key to set (required)")
	setConfigCmd.PersistentFlags().String(config.SetConfigValue, "", "Value to store (required)")

	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		key := config.KebabToSnakeCase(f.Name)
		viper.BindPFlag(key, f) //nolint:errcheck
		viper.BindEnv(key)      //nolint:errcheck
	})
}

func initConfig(cmd *cobra.Command) {
	viper.SetEnvPrefix(config.ENV_PREFIX)

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.AutomaticEnv()
}

// bindCommandFlags binds the flags of the invoked command, including the
// persistent flags of its parents, so they resolve through viper.
func bindCommandFlags(cmd *cobra.Command) {
	bind := func(f *pflag.Flag) {
		key := config.KebabToSnakeCase(f.Name)
		if err := viper.BindPFlag(key, f); err != nil {
			fmt.Printf("Failed to bind flag '%s' - %+v\n", f.Name, err)
		}
		if err := viper.BindEnv(key); err != nil {
			fmt.Printf("Failed to bind env '%s' - %+v\n", f.Name, err)
		}
	}
	cmd.Flags().VisitAll(bind)
	cmd.InheritedFlags().VisitAll(bind)
}
