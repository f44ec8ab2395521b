package config

import (
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const ENV_PREFIX = "SEASON_POINTS"

type Config struct {
	Debug              bool
	DatabaseConfig     DatabaseConfig
	SeasonPointsConfig SeasonPointsConfig
	LeaderboardConfig  LeaderboardConfig
	ConfigStoreConfig  ConfigStoreConfig
	DataDogConfig      DataDogConfig
	PrometheusConfig   PrometheusConfig
}

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DbName      string
	SchemaName  string
	SSLMode     string
	SSLCert     string
	SSLKey      string
	SSLRootCert string
}

// SeasonPointsConfig holds the default pipeline parameters. Values stored in the
// config_values table take precedence over these at calculation time.
type SeasonPointsConfig struct {
	NumberOfBands        int
	PoolShareStart       string
	PoolShareStep        string
	PercentileLowerBound string
	MinActivityPoints    string
	MinTwaBalance        string
	UpsertBatchSize      int
	UserPageSize         int
}

type LeaderboardConfig struct {
	TopUsersLimit int
}

type ConfigStoreConfig struct {
	MaxEntries int64
	TTL        time.Duration
}

type DataDogConfig struct {
	StatsdConfig StatsdConfig
}

type StatsdConfig struct {
	Enabled    bool
	Url        string
	SampleRate float64
}

type PrometheusConfig struct {
	Enabled bool
	Port    int
}

var (
	Debug = "debug"

	DatabaseHost        = "database.host"
	DatabasePort        = "database.port"
	DatabaseUser        = "database.user"
	DatabasePassword    = "database.password"
	DatabaseDbName      = "database.db_name"
	DatabaseSchemaName  = "database.schema_name"
	DatabaseSSLMode     = "database.ssl_mode"
	DatabaseSSLCert     = "database.ssl_cert"
	DatabaseSSLKey      = "database.ssl_key"
	DatabaseSSLRootCert = "database.ssl_root_cert"

	SeasonPointsNumberOfBands        = "season_points.number_of_bands"
	SeasonPointsPoolShareStart       = "season_points.pool_share_start"
	SeasonPointsPoolShareStep        = "season_points.pool_share_step"
	SeasonPointsPercentileLowerBound = "season_points.percentile_lower_bound"
	SeasonPointsMinActivityPoints    = "season_points.min_activity_points"
	SeasonPointsMinTwaBalance        = "season_points.min_twa_balance"
	SeasonPointsUpsertBatchSize      = "season_points.upsert_batch_size"
	SeasonPointsUserPageSize         = "season_points.user_page_size"

	LeaderboardTopUsersLimit = "leaderboard.top_users_limit"

	ConfigStoreMaxEntries = "config_store.max_entries"
	ConfigStoreTTL        = "config_store.ttl"

	DataDogStatsdEnabled    = "datadog.statsd.enabled"
	DataDogStatsdUrl        = "datadog.statsd.url"
	DataDogStatsdSampleRate = "datadog.statsd.sample_rate"

	PrometheusEnabled = "prometheus.enabled"
	PrometheusPort    = "prometheus.port"
)

// Command-scoped flags. These are not part of Config since they describe a
// single invocation rather than the environment.
var (
	CalculateWeekId          = "calculate.week_id"
	CalculateForce           = "calculate.force"
	CalculateMarkAsProcessed = "calculate.mark_as_processed"
	CalculatePopulateCache   = "calculate.populate_cache"

	PopulateSeasonId = "populate.season_id"
	PopulateWeekId   = "populate.week_id"

	LeaderboardSeasonId   = "leaderboard.season_id"
	LeaderboardCategoryId = "leaderboard.category_id"
	LeaderboardWeekId     = "leaderboard.week_id"
	LeaderboardUserId     = "leaderboard.user_id"

	ExportWeekId     = "export.week_id"
	ExportOutputFile = "export.output_file"

	SetConfigKey   = "set_config.key"
	SetConfigValue = "set_config.value"
)

func NewConfig() *Config {
	return &Config{
		Debug: viper.GetBool(normalizeFlagName(Debug)),

		DatabaseConfig: DatabaseConfig{
			Host:        viper.GetString(normalizeFlagName(DatabaseHost)),
			Port:        viper.GetInt(normalizeFlagName(DatabasePort)),
			User:        viper.GetString(normalizeFlagName(DatabaseUser)),
			Password:    viper.GetString(normalizeFlagName(DatabasePassword)),
			DbName:      viper.GetString(normalizeFlagName(DatabaseDbName)),
			SchemaName:  viper.GetString(normalizeFlagName(DatabaseSchemaName)),
			SSLMode:     viper.GetString(normalizeFlagName(DatabaseSSLMode)),
			SSLCert:     viper.GetString(normalizeFlagName(DatabaseSSLCert)),
			SSLKey:      viper.GetString(normalizeFlagName(DatabaseSSLKey)),
			SSLRootCert: viper.GetString(normalizeFlagName(DatabaseSSLRootCert)),
		},

		SeasonPointsConfig: SeasonPointsConfig{
			NumberOfBands:        viper.GetInt(normalizeFlagName(SeasonPointsNumberOfBands)),
			PoolShareStart:       viper.GetString(normalizeFlagName(SeasonPointsPoolShareStart)),
			PoolShareStep:        viper.GetString(normalizeFlagName(SeasonPointsPoolShareStep)),
			PercentileLowerBound: viper.GetString(normalizeFlagName(SeasonPointsPercentileLowerBound)),
			MinActivityPoints:    viper.GetString(normalizeFlagName(SeasonPointsMinActivityPoints)),
			MinTwaBalance:        viper.GetString(normalizeFlagName(SeasonPointsMinTwaBalance)),
			UpsertBatchSize:      viper.GetInt(normalizeFlagName(SeasonPointsUpsertBatchSize)),
			UserPageSize:         viper.GetInt(normalizeFlagName(SeasonPointsUserPageSize)),
		},

		LeaderboardConfig: LeaderboardConfig{
			TopUsersLimit: viper.GetInt(normalizeFlagName(LeaderboardTopUsersLimit)),
		},

		ConfigStoreConfig: ConfigStoreConfig{
			MaxEntries: viper.GetInt64(normalizeFlagName(ConfigStoreMaxEntries)),
			TTL:        viper.GetDuration(normalizeFlagName(ConfigStoreTTL)),
		},

		DataDogConfig: DataDogConfig{
			StatsdConfig: StatsdConfig{
				Enabled:    viper.GetBool(normalizeFlagName(DataDogStatsdEnabled)),
				Url:        viper.GetString(normalizeFlagName(DataDogStatsdUrl)),
				SampleRate: viper.GetFloat64(normalizeFlagName(DataDogStatsdSampleRate)),
			},
		},

		PrometheusConfig: PrometheusConfig{
			Enabled: viper.GetBool(normalizeFlagName(PrometheusEnabled)),
			Port:    viper.GetInt(normalizeFlagName(PrometheusPort)),
		},
	}
}

// NewDefaultConfig returns a Config populated with the same defaults the CLI
// flags carry. Used by tests and by callers embedding the pipeline as a library.
func NewDefaultConfig() *Config {
	return &Config{
		DatabaseConfig: DatabaseConfig{
			Host:   "localhost",
			Port:   5432,
			User:   "season_points",
			DbName: "season_points",
		},
		SeasonPointsConfig: SeasonPointsConfig{
			NumberOfBands:        20,
			PoolShareStart:       "0.98",
			PoolShareStep:        "1.15",
			PercentileLowerBound: "0",
			MinActivityPoints:    "0",
			MinTwaBalance:        "0",
			UpsertBatchSize:      1000,
			UserPageSize:         1000,
		},
		LeaderboardConfig: LeaderboardConfig{
			TopUsersLimit: 5,
		},
		ConfigStoreConfig: ConfigStoreConfig{
			MaxEntries: 1000,
			TTL:        5 * time.Minute,
		},
	}
}

func normalizeFlagName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

func KebabToSnakeCase(str string) string {
	return regexp.MustCompile(`-`).ReplaceAllString(str, "_")
}

func StringWithDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
