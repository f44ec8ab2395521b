package cmd

import (
	"context"
	"time"

	"github.com/Layr-Labs/season-points/internal/config"
	"github.com/Layr-Labs/season-points/internal/logger"
	"github.com/Layr-Labs/season-points/internal/metrics"
	"github.com/Layr-Labs/season-points/internal/metrics/metricsTypes"
	"github.com/Layr-Labs/season-points/internal/metrics/prometheus"
	"github.com/Layr-Labs/season-points/pkg/configStore"
	"github.com/Layr-Labs/season-points/pkg/leaderboard"
	"github.com/Layr-Labs/season-points/pkg/postgres"
	"github.com/Layr-Labs/season-points/pkg/postgres/migrations"
	"github.com/Layr-Labs/season-points/pkg/seasonPoints"
	"github.com/Layr-Labs/season-points/pkg/seasonPointsQueue"
	"github.com/Layr-Labs/season-points/pkg/service/leaderboardDataService"
	"github.com/Layr-Labs/season-points/pkg/service/userDataService"
	pgStorage "github.com/Layr-Labs/season-points/pkg/storage/postgres"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds everything a command needs once the database is reachable and migrated.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	grm    *gorm.DB

	metricsSink      *metrics.MetricsSink
	metricsClients   []metricsTypes.IMetricsClient
	prometheusServer *prometheus.PrometheusServer

	store        *pgStorage.PostgresPointsStore
	configStore  *configStore.ConfigStore
	calculator   *seasonPoints.SeasonPointsCalculator
	cacheBuilder *leaderboard.LeaderboardCacheBuilder
	leaderboards *leaderboardDataService.LeaderboardDataService
	queue        *seasonPointsQueue.SeasonPointsQueue
}

// newApp connects to postgres, runs migrations and builds the services.
// Setup failures are fatal.
func newApp(cfg *config.Config) *app {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})

	metricsClients, err := metrics.InitMetricsSinksFromConfig(cfg, l)
	if err != nil {
		l.Sugar().Fatal("Failed to setup metrics sink", zap.Error(err))
	}

	sink, err := metrics.NewMetricsSink(&metrics.MetricsSinkConfig{}, metricsClients)
	if err != nil {
		l.Sugar().Fatal("Failed to setup metrics sink", zap.Error(err))
	}

	var promServer *prometheus.PrometheusServer
	if cfg.PrometheusConfig.Enabled {
		promServer = prometheus.NewPrometheusServer(&prometheus.PrometheusServerConfig{
			Port: cfg.PrometheusConfig.Port,
		}, l)
		promServer.Start()
	}

	pgConfig := postgres.PostgresConfigFromDbConfig(&cfg.DatabaseConfig)
	pgConfig.CreateDbIfNotExists = true

	pg, err := postgres.NewPostgres(pgConfig)
	if err != nil {
		l.Fatal("Failed to setup postgres connection", zap.Error(err))
	}

	grm, err := postgres.NewGormFromPostgresConnection(pg.Db)
	if err != nil {
		l.Fatal("Failed to create gorm instance", zap.Error(err))
	}

	migrator := migrations.NewMigrator(pg.Db, grm, l, cfg)
	if err = migrator.MigrateAll(); err != nil {
		l.Fatal("Failed to migrate", zap.Error(err))
	}

	store := pgStorage.NewPostgresPointsStore(grm, l, cfg)

	cs, err := configStore.NewConfigStore(grm, l, cfg)
	if err != nil {
		l.Fatal("Failed to create config store", zap.Error(err))
	}

	uds := userDataService.NewUserDataService(grm, l, cfg)
	calculator := seasonPoints.NewSeasonPointsCalculator(store, uds, cs, sink, l, cfg)
	cacheBuilder := leaderboard.NewLeaderboardCacheBuilder(grm, store, sink, l, cfg)
	lds := leaderboardDataService.NewLeaderboardDataService(grm, store, l, cfg)

	queue := seasonPointsQueue.NewSeasonPointsQueue(calculator, cacheBuilder, l)
	go queue.Process()

	return &app{
		cfg:              cfg,
		logger:           l,
		grm:              grm,
		metricsSink:      sink,
		metricsClients:   metricsClients,
		prometheusServer: promServer,
		store:            store,
		configStore:      cs,
		calculator:       calculator,
		cacheBuilder:     cacheBuilder,
		leaderboards:     lds,
		queue:            queue,
	}
}

// Close stops the queue, flushes metrics and releases the database connection.
func (a *app) Close() {
	a.queue.Close()
	a.configStore.Close()

	for _, client := range a.metricsClients {
		if c, ok := client.(interface{ Close() }); ok {
			c.Close()
		}
	}

	if a.prometheusServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.prometheusServer.Shutdown(ctx)
	}

	if db, err := a.grm.DB(); err == nil {
		if err := db.Close(); err != nil {
			a.logger.Sugar().Errorw("Failed to close database connection", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
