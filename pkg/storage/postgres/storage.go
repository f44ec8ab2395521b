package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Layr-Labs/season-points/internal/config"
	"github.com/Layr-Labs/season-points/pkg/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresPointsStore implements storage.PointsStore with gorm. Queries stick
// to SQL shared by Postgres and SQLite.
type PostgresPointsStore struct {
	Db           *gorm.DB
	Logger       *zap.Logger
	GlobalConfig *config.Config
	overlay      map[string]storage.ActivityOverlay
}

func NewPostgresPointsStore(db *gorm.DB, l *zap.Logger, cfg *config.Config) *PostgresPointsStore {
	return &PostgresPointsStore{
		Db:           db,
		Logger:       l,
		GlobalConfig: cfg,
		overlay:      storage.DefaultActivityOverlay,
	}
}

func (s *PostgresPointsStore) first(ctx context.Context, dest interface{}, op string, query string, args ...interface{}) error {
	res := s.Db.WithContext(ctx).Where(query, args...).Limit(1).Find(dest)
	if res.Error != nil {
		return storage.WrapDataAccessError(res.Error, op, "query failed")
	}
	if res.RowsAffected == 0 {
		return storage.ErrRecordNotFound
	}
	return nil
}

func (s *PostgresPointsStore) GetSeason(ctx context.Context, seasonId string) (*storage.Season, error) {
	season := &storage.Season{}
	if err := s.first(ctx, season, "GetSeason", "id = ?", seasonId); err != nil {
		return nil, err
	}
	return season, nil
}

func (s *PostgresPointsStore) GetWeek(ctx context.Context, weekId string) (*storage.Week, error) {
	week := &storage.Week{}
	if err := s.first(ctx, week, "GetWeek", "id = ?", weekId); err != nil {
		return nil, err
	}
	return week, nil
}

func (s *PostgresPointsStore) GetActivityCategory(ctx context.Context, categoryId string) (*storage.ActivityCategory, error) {
	category := &storage.ActivityCategory{}
	if err := s.first(ctx, category, "GetActivityCategory", "id = ?", categoryId); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *PostgresPointsStore) ListSeasons(ctx context.Context) ([]*storage.Season, error) {
	seasons := make([]*storage.Season, 0)
	res := s.Db.WithContext(ctx).Model(&storage.Season{}).Order("id asc").Find(&seasons)
	if res.Error != nil {
		return nil, storage.WrapDataAccessError(res.Error, "ListSeasons", "failed to list seasons")
	}
	return seasons, nil
}

func (s *PostgresPointsStore) ListWeeks(ctx context.Context) ([]*storage.Week, error) {
	weeks := make([]*storage.Week, 0)
	res := s.Db.WithContext(ctx).Model(&storage.Week{}).Order("start_date asc, id asc").Find(&weeks)
	if res.Error != nil {
		return nil, storage.WrapDataAccessError(res.Error, "ListWeeks", "failed to list weeks")
	}
	return weeks, nil
}

func (s *PostgresPointsStore) ListWeeksForSeason(ctx context.Context, seasonId string) ([]*storage.Week, error) {
	weeks := make([]*storage.Week, 0)
	res := s.Db.WithContext(ctx).Model(&storage.Week{}).
		Where("season_id = ?", seasonId).
		Order("start_date asc, id asc").
		Find(&weeks)
	if res.Error != nil {
		return nil, storage.WrapDataAccessError(res.Error, "ListWeeksForSeason", "failed to list weeks for season '%s'", seasonId)
	}
	return weeks, nil
}

func (s *PostgresPointsStore) ListActivityCategories(ctx context.Context) ([]*storage.ActivityCategory, error) {
	categories := make([]*storage.ActivityCategory, 0)
	res := s.Db.WithContext(ctx).Model(&storage.ActivityCategory{}).Order("id asc").Find(&categories)
	if res.Error != nil {
		return nil, storage.WrapDataAccessError(res.Error, "ListActivityCategories", "failed to list activity categories")
	}
	return categories, nil
}

func (s *PostgresPointsStore) ListCategoryPoolsForWeek(ctx context.Context, weekId string) ([]*storage.ActivityCategoryWeek, error) {
	pools := make([]*storage.ActivityCategoryWeek, 0)
	res := s.Db.WithContext(ctx).Model(&storage.ActivityCategoryWeek{}).
		Where("week_id = ? and points_pool > 0", weekId).
		Order("category_id asc").
		Find(&pools)
	if res.Error != nil {
		return nil, storage.WrapDataAccessError(res.Error, "ListCategoryPoolsForWeek", "failed to list category pools for week '%s'", weekId)
	}
	return pools, nil
}

func (s *PostgresPointsStore) ListActivitiesForCategory(ctx context.Context, categoryId string) ([]*storage.Activity, error) {
	activities := make([]*storage.Activity, 0)
	res := s.Db.WithContext(ctx).Model(&storage.Activity{}).
		Where("category_id = ?", categoryId).
		Order("id asc").
		Find(&activities)
	if res.Error != nil {
		return nil, storage.WrapDataAccessError(res.Error, "ListActivitiesForCategory", "failed to list activities for category '%s'", categoryId)
	}
	return storage.ApplyActivityOverlay(activities, s.overlay), nil
}

func (s *PostgresPointsStore) GetActivityMultipliers(ctx context.Context, weekId string) (map[string]decimal.Decimal, error) {
	activityWeeks := make([]*storage.ActivityWeek, 0)
	res := s.Db.WithContext(ctx).Model(&storage.ActivityWeek{}).Where("week_id = ?", weekId).Find(&activityWeeks)
	if res.Error != nil {
		return nil, storage.WrapDataAccessError(res.Error, "GetActivityMultipliers", "failed to fetch activity multipliers for week '%s'", weekId)
	}
	multipliers := make(map[string]decimal.Decimal, len(activityWeeks))
	for _, aw := range activityWeeks {
		multipliers[aw.ActivityId] = aw.Multiplier
	}
	return multipliers, nil
}

const sumActivityPointsByUserQuery = `
	select
		a.user_id as user_id,
		sum(aap.activity_points) as points
	from account_activity_points as aap
	join accounts as a on (a.address = aap.account_address)
	join season_points_multipliers as spm on (spm.user_id = a.user_id and spm.week_id = aap.week_id)
	where
		aap.week_id = @weekId
		and aap.activity_id = @activityId
		and spm.total_twa_balance >= cast(@minBalance as numeric)
	group by a.user_id
	order by points asc, a.user_id asc
`

func (s *PostgresPointsStore) SumActivityPointsByUser(ctx context.Context, weekId string, activityId string, minBalance decimal.Decimal) ([]*storage.UserPoints, error) {
	userPoints := make([]*storage.UserPoints, 0)
	res := s.Db.WithContext(ctx).Raw(sumActivityPointsByUserQuery,
		sql.Named("weekId", weekId),
		sql.Named("activityId", activityId),
		sql.Named("minBalance", minBalance.String()),
	).Scan(&userPoints)
	if res.Error != nil {
		return nil, storage.WrapDataAccessError(res.Error, "SumActivityPointsByUser", "failed to sum points for activity '%s' in week '%s'", activityId, weekId)
	}
	return userPoints, nil
}

func (s *PostgresPointsStore) GetSeasonPointsMultipliers(ctx context.Context, weekId string) (map[string]decimal.Decimal, error) {
	rows := make([]*storage.SeasonPointsMultiplier, 0)
	res := s.Db.WithContext(ctx).Model(&storage.SeasonPointsMultiplier{}).Where("week_id = ?", weekId).Find(&rows)
	if res.Error != nil {
		return nil, storage.WrapDataAccessError(res.Error, "GetSeasonPointsMultipliers", "failed to fetch season points multipliers for week '%s'", weekId)
	}
	multipliers := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		multipliers[r.UserId] = r.Multiplier
	}
	return multipliers, nil
}

func (s *PostgresPointsStore) UpsertUserSeasonPoints(ctx context.Context, rows []*storage.UserSeasonPoints) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, r := range rows {
		r.UpdatedAt = &now
	}
	res := s.Db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "season_id"}, {Name: "week_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"points", "updated_at"}),
	}).Create(&rows)
	if res.Error != nil {
		return storage.WrapDataAccessError(res.Error, "UpsertUserSeasonPoints", "failed to upsert %d user season points rows", len(rows))
	}
	return nil
}

func (s *PostgresPointsStore) ListUserSeasonPointsForWeek(ctx context.Context, weekId string) ([]*storage.UserSeasonPoints, error) {
	rows := make([]*storage.UserSeasonPoints, 0)
	res := s.Db.WithContext(ctx).Model(&storage.UserSeasonPoints{}).
		Where("week_id = ?", weekId).
		Order("points desc, user_id asc").
		Find(&rows)
	if res.Error != nil {
		return nil, storage.WrapDataAccessError(res.Error, "ListUserSeasonPointsForWeek", "failed to list user season points for week '%s'", weekId)
	}
	return rows, nil
}

func (s *PostgresPointsStore) MarkWeekProcessed(ctx context.Context, weekId string) error {
	res := s.Db.WithContext(ctx).Model(&storage.Week{}).
		Where("id = ?", weekId).
		Updates(map[string]interface{}{
			"processed":  true,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return storage.WrapDataAccessError(res.Error, "MarkWeekProcessed", "failed to mark week '%s' as processed", weekId)
	}
	if res.RowsAffected == 0 {
		return storage.WrapDataAccessError(errors.New("no rows affected"), "MarkWeekProcessed", "week '%s' was not updated", weekId)
	}
	return nil
}
