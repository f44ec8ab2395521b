package leaderboard

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/Layr-Labs/season-points/internal/config"
	"github.com/Layr-Labs/season-points/internal/logger"
	"github.com/Layr-Labs/season-points/internal/metrics"
	"github.com/Layr-Labs/season-points/internal/tests"
	"github.com/Layr-Labs/season-points/internal/tests/sqlite"
	"github.com/Layr-Labs/season-points/pkg/storage"
	storagePostgres "github.com/Layr-Labs/season-points/pkg/storage/postgres"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setup() (*config.Config, *gorm.DB, *zap.Logger, error) {
	cfg := tests.GetConfig()
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})

	grm, err := sqlite.GetMigratedSqliteDatabaseConnection(cfg, l)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := tests.HydrateLeaderboardFixture(grm); err != nil {
		return nil, nil, nil, err
	}
	return cfg, grm, l, nil
}

// naiveStats computes count, median and mean of the positive per-user season totals in memory.
func naiveStats(seasonId string) (int64, decimal.Decimal, decimal.Decimal) {
	totals := map[string]decimal.Decimal{}
	for _, p := range tests.LeaderboardFixturePoints {
		if p.SeasonId != seasonId {
			continue
		}
		totals[p.UserId] = totals[p.UserId].Add(p.Points)
	}

	values := make([]decimal.Decimal, 0)
	sum := decimal.Zero
	for _, v := range totals {
		if v.IsPositive() {
			values = append(values, v)
			sum = sum.Add(v)
		}
	}
	sort.Slice(values, func(i, j int) bool { return values[i].LessThan(values[j]) })

	n := len(values)
	var median decimal.Decimal
	if n%2 == 1 {
		median = values[n/2]
	} else {
		median = values[n/2-1].Add(values[n/2]).Div(decimal.NewFromInt(2))
	}
	return int64(n), median, sum.Div(decimal.NewFromInt(int64(n)))
}

func getStats(t *testing.T, grm *gorm.DB, cacheKey string) *storage.LeaderboardStatsCache {
	var stats storage.LeaderboardStatsCache
	res := grm.Model(&storage.LeaderboardStatsCache{}).Where("cache_key = ?", cacheKey).Limit(1).Find(&stats)
	assert.Nil(t, res.Error)
	if res.RowsAffected == 0 {
		return nil
	}
	return &stats
}

type countingReporter struct {
	planned   int
	completed []string
}

func (r *countingReporter) Planned(total int) {
	r.planned = total
}

func (r *countingReporter) Completed(scope *CacheScope) {
	r.completed = append(r.completed, scope.CacheKey())
}

func Test_LeaderboardCacheBuilder(t *testing.T) {
	cfg, grm, l, err := setup()
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	store := storagePostgres.NewPostgresPointsStore(grm, l, cfg)
	lcb := NewLeaderboardCacheBuilder(grm, store, metrics.NewNoopMetricsSink(), l, cfg)

	t.Run("Should plan scopes for a week", func(t *testing.T) {
		scopes, err := lcb.PlanScopes(ctx, &PopulateFilters{WeekId: "w1"})
		assert.Nil(t, err)
		assert.Len(t, scopes, 3)
		assert.Equal(t, "season:s1", scopes[0].CacheKey())
		assert.Equal(t, "category:c1:week:w1", scopes[1].CacheKey())
		assert.Equal(t, "category:c2:week:w1", scopes[2].CacheKey())
	})
	t.Run("Should plan scopes for a season", func(t *testing.T) {
		scopes, err := lcb.PlanScopes(ctx, &PopulateFilters{SeasonId: "s1"})
		assert.Nil(t, err)
		assert.Len(t, scopes, 5)
		assert.Equal(t, "season:s1", scopes[0].CacheKey())
	})
	t.Run("Should plan every scope without filters", func(t *testing.T) {
		scopes, err := lcb.PlanScopes(ctx, &PopulateFilters{})
		assert.Nil(t, err)
		assert.Len(t, scopes, 8)
	})
	t.Run("Should fail to plan for unknown scopes", func(t *testing.T) {
		_, err := lcb.PlanScopes(ctx, &PopulateFilters{WeekId: "missing"})
		assert.True(t, IsNotFoundError(err))

		_, err = lcb.PlanScopes(ctx, &PopulateFilters{SeasonId: "missing"})
		assert.True(t, IsNotFoundError(err))

		_, err = lcb.PlanScopes(ctx, &PopulateFilters{SeasonId: "s2", WeekId: "w1"})
		assert.True(t, IsNotFoundError(err))
	})
	t.Run("Should populate every scope and report progress", func(t *testing.T) {
		reporter := &countingReporter{}
		err := lcb.PopulateAllWithProgress(ctx, &PopulateFilters{}, reporter)
		assert.Nil(t, err)
		assert.Equal(t, 8, reporter.planned)
		assert.Len(t, reporter.completed, 8)
	})
	t.Run("Should rank season totals descending and skip users with no points", func(t *testing.T) {
		rows := make([]*storage.SeasonLeaderboardCache, 0)
		res := grm.Model(&storage.SeasonLeaderboardCache{}).Where("season_id = ?", "s1").Order("rank asc").Find(&rows)
		assert.Nil(t, res.Error)
		assert.Len(t, rows, 4)

		expected := []struct {
			userId string
			total  string
		}{
			{"u2", "22"}, {"u1", "15"}, {"u3", "10"}, {"u5", "1"},
		}
		for i, e := range expected {
			assert.Equal(t, int64(i+1), rows[i].Rank)
			assert.Equal(t, e.userId, rows[i].UserId)
			assert.True(t, decimal.RequireFromString(e.total).Equal(rows[i].TotalPoints))
		}
	})
	t.Run("Should break ties by user id", func(t *testing.T) {
		rows := make([]*storage.SeasonLeaderboardCache, 0)
		res := grm.Model(&storage.SeasonLeaderboardCache{}).Where("season_id = ?", "s2").Order("rank asc").Find(&rows)
		assert.Nil(t, res.Error)
		assert.Len(t, rows, 5)
		assert.Equal(t, "u2", rows[0].UserId)
		assert.Equal(t, "u3", rows[1].UserId)
		assert.Equal(t, int64(2), rows[1].Rank)
	})
	t.Run("Should match a naive computation for an even row count", func(t *testing.T) {
		total, median, average := naiveStats("s1")
		stats := getStats(t, grm, "season:s1")
		assert.NotNil(t, stats)

		assert.Equal(t, total, stats.TotalUsers)
		assert.True(t, median.Equal(stats.Median), "expected median %s, got %s", median, stats.Median)
		assert.True(t, average.Equal(stats.Average), "expected average %s, got %s", average, stats.Average)
		assert.True(t, decimal.RequireFromString("12.5").Equal(stats.Median))
	})
	t.Run("Should match a naive computation for an odd row count", func(t *testing.T) {
		total, median, average := naiveStats("s2")
		stats := getStats(t, grm, "season:s2")
		assert.NotNil(t, stats)

		assert.Equal(t, int64(5), stats.TotalUsers)
		assert.Equal(t, total, stats.TotalUsers)
		assert.True(t, median.Equal(stats.Median), "expected median %s, got %s", median, stats.Median)
		assert.True(t, average.Equal(stats.Average), "expected average %s, got %s", average, stats.Average)
	})
	t.Run("Should build the category leaderboard with a per-activity breakdown", func(t *testing.T) {
		rows := make([]*storage.ActivityCategoryLeaderboardCache, 0)
		res := grm.Model(&storage.ActivityCategoryLeaderboardCache{}).
			Where("category_id = ? and week_id = ?", "c1", "w1").
			Order("rank asc").
			Find(&rows)
		assert.Nil(t, res.Error)
		assert.Len(t, rows, 2)

		assert.Equal(t, "u1", rows[0].UserId)
		assert.True(t, decimal.NewFromInt(13).Equal(rows[0].TotalPoints))

		breakdown := map[string]decimal.Decimal{}
		assert.Nil(t, json.Unmarshal([]byte(rows[0].ActivityPoints), &breakdown))
		assert.True(t, decimal.NewFromInt(10).Equal(breakdown["a1"]))
		assert.True(t, decimal.NewFromInt(3).Equal(breakdown["legacy_bridge_volume"]))

		assert.Equal(t, "u2", rows[1].UserId)
		assert.True(t, decimal.NewFromInt(2).Equal(rows[1].TotalPoints))

		stats := getStats(t, grm, "category:c1:week:w1")
		assert.NotNil(t, stats)
		assert.Equal(t, int64(2), stats.TotalUsers)
		assert.True(t, decimal.RequireFromString("7.5").Equal(stats.Median))
	})
	t.Run("Should not write stats for empty scopes", func(t *testing.T) {
		assert.Nil(t, getStats(t, grm, "category:c1:week:w2"))
		assert.Nil(t, getStats(t, grm, "category:c2:week:w1"))
	})
	t.Run("Should replace rows and stats on rebuild", func(t *testing.T) {
		res := grm.Exec(`update user_season_points set points = 0 where user_id = 'u5' and season_id = 's1'`)
		assert.Nil(t, res.Error)

		err := lcb.PopulateAll(ctx, &PopulateFilters{SeasonId: "s1"})
		assert.Nil(t, err)

		var count int64
		grm.Model(&storage.SeasonLeaderboardCache{}).Where("season_id = ?", "s1").Count(&count)
		assert.Equal(t, int64(3), count)

		stats := getStats(t, grm, "season:s1")
		assert.NotNil(t, stats)
		assert.Equal(t, int64(3), stats.TotalUsers)
		assert.True(t, decimal.NewFromInt(15).Equal(stats.Median))
	})
	t.Run("Should remove stale stats when a scope becomes empty", func(t *testing.T) {
		res := grm.Exec(`update user_season_points set points = 0 where season_id = 's2'`)
		assert.Nil(t, res.Error)

		err := lcb.PopulateScope(ctx, &CacheScope{Kind: ScopeKind_Season, SeasonId: "s2"})
		assert.Nil(t, err)

		assert.Nil(t, getStats(t, grm, "season:s2"))
		var count int64
		grm.Model(&storage.SeasonLeaderboardCache{}).Where("season_id = ?", "s2").Count(&count)
		assert.Equal(t, int64(0), count)
	})
}
