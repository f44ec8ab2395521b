package metricsTypes

import "time"

type IMetricsClient interface {
	Incr(name string, labels []MetricsLabel, value float64) error
	Gauge(name string, value float64, labels []MetricsLabel) error
	Timing(name string, value time.Duration, labels []MetricsLabel) error
}

type MetricsLabel struct {
	Name  string
	Value string
}

type MetricsType string

var (
	MetricsType_Incr   MetricsType = "incr"
	MetricsType_Gauge  MetricsType = "gauge"
	MetricsType_Timing MetricsType = "timing"
)

type MetricsTypeConfig struct {
	Name   string
	Labels []string
}

// Metric names use underscores so the same name is valid for both statsd and prometheus.
var (
	Metric_Incr_SeasonPointsUsersWritten       = "season_points_users_written"
	Metric_Incr_SeasonPointsCategoryProcessed  = "season_points_category_processed"
	Metric_Incr_SeasonPointsCalculationFailure = "season_points_calculation_failure"

	Metric_Gauge_LeaderboardCacheRows = "leaderboard_cache_rows"

	Metric_Timing_SeasonPointsDuration     = "season_points_duration"
	Metric_Timing_LeaderboardCacheDuration = "leaderboard_cache_duration"
)

var MetricTypes = map[MetricsType][]MetricsTypeConfig{
	MetricsType_Incr: {
		MetricsTypeConfig{
			Name:   Metric_Incr_SeasonPointsUsersWritten,
			Labels: []string{"week_id"},
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_SeasonPointsCategoryProcessed,
			Labels: []string{"category_id"},
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_SeasonPointsCalculationFailure,
			Labels: []string{"reason"},
		},
	},
	MetricsType_Gauge: {
		MetricsTypeConfig{
			Name:   Metric_Gauge_LeaderboardCacheRows,
			Labels: []string{"scope"},
		},
	},
	MetricsType_Timing: {
		MetricsTypeConfig{
			Name:   Metric_Timing_SeasonPointsDuration,
			Labels: []string{},
		},
		MetricsTypeConfig{
			Name:   Metric_Timing_LeaderboardCacheDuration,
			Labels: []string{"scope"},
		},
	},
}
