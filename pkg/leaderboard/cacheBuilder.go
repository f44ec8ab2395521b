package leaderboard

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Layr-Labs/season-points/internal/config"
	"github.com/Layr-Labs/season-points/internal/metrics"
	"github.com/Layr-Labs/season-points/internal/metrics/metricsTypes"
	"github.com/Layr-Labs/season-points/pkg/postgres/helpers"
	"github.com/Layr-Labs/season-points/pkg/queryUtils"
	"github.com/Layr-Labs/season-points/pkg/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LeaderboardCacheBuilder rebuilds ranked leaderboard snapshots and their
// summary statistics. All aggregation runs in the database.
type LeaderboardCacheBuilder struct {
	grm          *gorm.DB
	store        storage.PointsStore
	metricsSink  *metrics.MetricsSink
	logger       *zap.Logger
	globalConfig *config.Config
}

func NewLeaderboardCacheBuilder(
	grm *gorm.DB,
	store storage.PointsStore,
	ms *metrics.MetricsSink,
	l *zap.Logger,
	cfg *config.Config,
) *LeaderboardCacheBuilder {
	return &LeaderboardCacheBuilder{
		grm:          grm,
		store:        store,
		metricsSink:  ms,
		logger:       l,
		globalConfig: cfg,
	}
}

type PopulateFilters struct {
	SeasonId string
	WeekId   string
}

// PopulateAll rebuilds every cache scope selected by filters, one scope at a time.
func (lcb *LeaderboardCacheBuilder) PopulateAll(ctx context.Context, filters *PopulateFilters) error {
	return lcb.PopulateAllWithProgress(ctx, filters, nil)
}

// PopulateAllWithProgress behaves like PopulateAll and reports the planned scope
// count before starting, then each scope as it completes. progress may be nil.
func (lcb *LeaderboardCacheBuilder) PopulateAllWithProgress(
	ctx context.Context,
	filters *PopulateFilters,
	progress ProgressReporter,
) error {
	scopes, err := lcb.PlanScopes(ctx, filters)
	if err != nil {
		return err
	}
	if progress != nil {
		progress.Planned(len(scopes))
	}

	lcb.logger.Sugar().Infow("Populating leaderboard cache",
		zap.String("seasonId", filters.SeasonId),
		zap.String("weekId", filters.WeekId),
		zap.Int("scopes", len(scopes)),
	)
	for _, scope := range scopes {
		if err := lcb.PopulateScope(ctx, scope); err != nil {
			return err
		}
		if progress != nil {
			progress.Completed(scope)
		}
	}
	return nil
}

type ProgressReporter interface {
	Planned(total int)
	Completed(scope *CacheScope)
}

// PlanScopes lists the scopes a population run will rebuild.
//
// With a week id, every category of that week plus the week's season. With
// only a season id, the season plus every category of each of its weeks.
// With neither, every season and every category of every week.
func (lcb *LeaderboardCacheBuilder) PlanScopes(ctx context.Context, filters *PopulateFilters) ([]*CacheScope, error) {
	if filters == nil {
		filters = &PopulateFilters{}
	}

	categories, err := lcb.store.ListActivityCategories(ctx)
	if err != nil {
		return nil, err
	}
	categoryScopes := func(weekId string) []*CacheScope {
		scopes := make([]*CacheScope, 0, len(categories))
		for _, c := range categories {
			scopes = append(scopes, &CacheScope{Kind: ScopeKind_Category, CategoryId: c.Id, WeekId: weekId})
		}
		return scopes
	}

	if filters.WeekId != "" {
		week, err := lcb.store.GetWeek(ctx, filters.WeekId)
		if err != nil {
			return nil, notFoundOr(err, "week", filters.WeekId)
		}
		if filters.SeasonId != "" && filters.SeasonId != week.SeasonId {
			return nil, &NotFoundError{Entity: "week", Id: filters.WeekId}
		}
		scopes := []*CacheScope{{Kind: ScopeKind_Season, SeasonId: week.SeasonId}}
		return append(scopes, categoryScopes(week.Id)...), nil
	}

	var seasons []*storage.Season
	if filters.SeasonId != "" {
		season, err := lcb.store.GetSeason(ctx, filters.SeasonId)
		if err != nil {
			return nil, notFoundOr(err, "season", filters.SeasonId)
		}
		seasons = []*storage.Season{season}
	} else {
		seasons, err = lcb.store.ListSeasons(ctx)
		if err != nil {
			return nil, err
		}
	}

	scopes := make([]*CacheScope, 0)
	for _, season := range seasons {
		scopes = append(scopes, &CacheScope{Kind: ScopeKind_Season, SeasonId: season.Id})

		weeks, err := lcb.store.ListWeeksForSeason(ctx, season.Id)
		if err != nil {
			return nil, err
		}
		for _, week := range weeks {
			scopes = append(scopes, categoryScopes(week.Id)...)
		}
	}
	return scopes, nil
}

func notFoundOr(err error, entity string, id string) error {
	if errors.Is(err, storage.ErrRecordNotFound) {
		return &NotFoundError{Entity: entity, Id: id}
	}
	return err
}

// PopulateScope replaces the cache rows and the stats row for a single scope in one transaction.
func (lcb *LeaderboardCacheBuilder) PopulateScope(ctx context.Context, scope *CacheScope) error {
	startTime := time.Now()
	cacheKey := scope.CacheKey()
	labels := []metricsTypes.MetricsLabel{{Name: "scope", Value: string(scope.Kind)}}

	rows, err := helpers.WrapTxAndCommit(func(tx *gorm.DB) (int64, error) {
		tx = tx.WithContext(ctx)

		var rows int64
		var err error
		switch scope.Kind {
		case ScopeKind_Season:
			rows, err = lcb.rebuildSeasonRows(tx, scope.SeasonId)
		case ScopeKind_Category:
			rows, err = lcb.rebuildCategoryRows(tx, scope.CategoryId, scope.WeekId)
		default:
			return 0, errors.New("unknown cache scope kind " + string(scope.Kind))
		}
		if err != nil {
			return 0, err
		}

		if err := lcb.rebuildStats(tx, scope); err != nil {
			return 0, err
		}
		return rows, nil
	}, lcb.grm, nil)
	if err != nil {
		lcb.logger.Sugar().Errorw("Failed to populate leaderboard cache", zap.String("cacheKey", cacheKey), zap.Error(err))
		return storage.WrapDataAccessError(err, "PopulateScope", "failed to populate '%s'", cacheKey)
	}

	_ = lcb.metricsSink.Gauge(metricsTypes.Metric_Gauge_LeaderboardCacheRows, float64(rows), labels)
	_ = lcb.metricsSink.Timing(metricsTypes.Metric_Timing_LeaderboardCacheDuration, time.Since(startTime), labels)
	lcb.logger.Sugar().Infow("Populated leaderboard cache",
		zap.String("cacheKey", cacheKey),
		zap.Int64("count", rows),
		zap.Duration("duration", time.Since(startTime)),
	)
	return nil
}

const seasonLeaderboardQuery = `
	insert into season_leaderboard_cache (season_id, user_id, total_points, rank)
	select
		totals.season_id,
		totals.user_id,
		totals.total_points,
		row_number() over (order by totals.total_points desc, totals.user_id asc) as rank
	from (
		select
			usp.season_id,
			usp.user_id,
			sum(usp.points) as total_points
		from user_season_points as usp
		where usp.season_id = @seasonId
		group by usp.season_id, usp.user_id
		having sum(usp.points) > 0
	) as totals
`

func (lcb *LeaderboardCacheBuilder) rebuildSeasonRows(tx *gorm.DB, seasonId string) (int64, error) {
	res := tx.Exec(`delete from season_leaderboard_cache where season_id = @seasonId`, sql.Named("seasonId", seasonId))
	if res.Error != nil {
		return 0, res.Error
	}

	res = tx.Exec(seasonLeaderboardQuery, sql.Named("seasonId", seasonId))
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

const categoryLeaderboardQuery = `
	insert into activity_category_leaderboard_cache (category_id, week_id, user_id, total_points, rank, activity_points)
	select
		act.category_id,
		act.week_id,
		act.user_id,
		act.total_points,
		row_number() over (order by act.total_points desc, act.user_id asc) as rank,
		act.activity_points
	from (
		select
			per_activity.category_id,
			per_activity.week_id,
			per_activity.user_id,
			sum(per_activity.points) as total_points,
			{{ .activityPointsAgg }} as activity_points
		from (
			select
				a.category_id,
				aap.week_id,
				acc.user_id,
				aap.activity_id,
				sum(aap.activity_points * coalesce(aw.multiplier, 1)) as points
			from account_activity_points as aap
			join accounts as acc on (acc.address = aap.account_address)
			join activities as a on (a.id = aap.activity_id)
			left join activity_weeks as aw on (aw.activity_id = aap.activity_id and aw.week_id = aap.week_id)
			where
				aap.week_id = @weekId
				and a.category_id = @categoryId
			group by a.category_id, aap.week_id, acc.user_id, aap.activity_id
		) as per_activity
		group by per_activity.category_id, per_activity.week_id, per_activity.user_id
		having sum(per_activity.points) > 0
	) as act
`

func (lcb *LeaderboardCacheBuilder) rebuildCategoryRows(tx *gorm.DB, categoryId string, weekId string) (int64, error) {
	res := tx.Exec(`delete from activity_category_leaderboard_cache where category_id = @categoryId and week_id = @weekId`,
		sql.Named("categoryId", categoryId),
		sql.Named("weekId", weekId),
	)
	if res.Error != nil {
		return 0, res.Error
	}

	query, err := queryUtils.RenderQueryTemplate(categoryLeaderboardQuery, map[string]string{
		"activityPointsAgg": queryUtils.JsonObjectAgg(tx, "per_activity.activity_id", "per_activity.points"),
	})
	if err != nil {
		return 0, err
	}

	res = tx.Exec(query,
		sql.Named("categoryId", categoryId),
		sql.Named("weekId", weekId),
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// Median averages the middle one or two rows by rank. For an odd count both
// expressions land on the same row.
const statsQuery = `
	select
		count(*) as total_users,
		coalesce(avg(ranked.total_points), 0) as average,
		coalesce(avg(
			case
				when ranked.rank = (ranked.cnt + 1) / 2 or ranked.rank = (ranked.cnt + 2) / 2 then ranked.total_points
			end
		), 0) as median
	from (
		select
			total_points,
			rank,
			count(*) over () as cnt
		from {{ .tableName }}
		where {{ .where }}
	) as ranked
`

type scopeStats struct {
	TotalUsers int64
	Average    decimal.Decimal
	Median     decimal.Decimal
}

func (lcb *LeaderboardCacheBuilder) rebuildStats(tx *gorm.DB, scope *CacheScope) error {
	cacheKey := scope.CacheKey()

	variables := map[string]string{}
	var args []interface{}
	if scope.Kind == ScopeKind_Season {
		variables["tableName"] = "season_leaderboard_cache"
		variables["where"] = "season_id = @seasonId"
		args = []interface{}{sql.Named("seasonId", scope.SeasonId)}
	} else {
		variables["tableName"] = "activity_category_leaderboard_cache"
		variables["where"] = "category_id = @categoryId and week_id = @weekId"
		args = []interface{}{sql.Named("categoryId", scope.CategoryId), sql.Named("weekId", scope.WeekId)}
	}

	query, err := queryUtils.RenderQueryTemplate(statsQuery, variables)
	if err != nil {
		return err
	}

	stats := &scopeStats{}
	if res := tx.Raw(query, args...).Scan(stats); res.Error != nil {
		return res.Error
	}

	if res := tx.Where("cache_key = ?", cacheKey).Delete(&storage.LeaderboardStatsCache{}); res.Error != nil {
		return res.Error
	}
	if stats.TotalUsers == 0 {
		return nil
	}

	res := tx.Create(&storage.LeaderboardStatsCache{
		CacheKey:   cacheKey,
		TotalUsers: stats.TotalUsers,
		Median:     stats.Median,
		Average:    stats.Average,
		UpdatedAt:  time.Now().UTC(),
	})
	return res.Error
}
