package leaderboardDataService

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/Layr-Labs/season-points/internal/config"
	"github.com/Layr-Labs/season-points/pkg/leaderboard"
	"github.com/Layr-Labs/season-points/pkg/service/baseDataService"
	"github.com/Layr-Labs/season-points/pkg/service/types"
	"github.com/Layr-Labs/season-points/pkg/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultTopUsersLimit = 5

type LeaderboardDataService struct {
	baseDataService.BaseDataService
	db           *gorm.DB
	store        storage.PointsStore
	logger       *zap.Logger
	globalConfig *config.Config
}

func NewLeaderboardDataService(
	db *gorm.DB,
	store storage.PointsStore,
	logger *zap.Logger,
	globalConfig *config.Config,
) *LeaderboardDataService {
	return &LeaderboardDataService{
		BaseDataService: baseDataService.BaseDataService{
			DB: db,
		},
		db:           db,
		store:        store,
		logger:       logger,
		globalConfig: globalConfig,
	}
}

type ActivityPoints struct {
	ActivityId string          `json:"activityId"`
	Points     decimal.Decimal `json:"points"`
	Hide       bool            `json:"hide"`
}

type LeaderboardUser struct {
	UserId         string            `json:"userId"`
	TotalPoints    decimal.Decimal   `json:"totalPoints"`
	Rank           int64             `json:"rank"`
	ActivityPoints []*ActivityPoints `json:"activityPoints,omitempty"`
}

type UserStats struct {
	LeaderboardUser
	Percentile int64 `json:"percentile"`
}

type GlobalStats struct {
	TotalUsers int64           `json:"totalUsers"`
	Median     decimal.Decimal `json:"median"`
	Average    decimal.Decimal `json:"average"`
}

type SeasonInfo struct {
	Id     string               `json:"id"`
	Name   string               `json:"name"`
	Status storage.SeasonStatus `json:"status"`
}

type CategoryInfo struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

type WeekInfo struct {
	Id        string `json:"id"`
	SeasonId  string `json:"seasonId"`
	Processed bool   `json:"processed"`
}

type SeasonLeaderboard struct {
	Season      *SeasonInfo        `json:"season"`
	TopUsers    []*LeaderboardUser `json:"topUsers"`
	UserStats   *UserStats         `json:"userStats"`
	GlobalStats *GlobalStats       `json:"globalStats"`
}

type CategoryLeaderboard struct {
	Category    *CategoryInfo      `json:"category"`
	Week        *WeekInfo          `json:"week"`
	TopUsers    []*LeaderboardUser `json:"topUsers"`
	UserStats   *UserStats         `json:"userStats"`
	GlobalStats *GlobalStats       `json:"globalStats"`
}

func (lds *LeaderboardDataService) topUsersPagination() *types.Pagination {
	limit := lds.globalConfig.LeaderboardConfig.TopUsersLimit
	if limit <= 0 {
		limit = defaultTopUsersLimit
	}
	pagination := types.NewDefaultPagination()
	pagination.Load(types.DefaultPage, uint32(limit))
	return pagination
}

// GetSeasonLeaderboard returns the top of a season's cached leaderboard. When
// userId is set and ranked, UserStats carries that user's rank and percentile.
func (lds *LeaderboardDataService) GetSeasonLeaderboard(ctx context.Context, seasonId string, userId string) (*SeasonLeaderboard, error) {
	season, err := lds.store.GetSeason(ctx, seasonId)
	if err != nil {
		return nil, notFoundOr(err, "season", seasonId)
	}
	cacheKey := leaderboard.SeasonCacheKey(seasonId)

	rows := make([]*storage.SeasonLeaderboardCache, 0)
	query := lds.db.WithContext(ctx).Model(&storage.SeasonLeaderboardCache{}).
		Where("season_id = ?", seasonId).
		Order("rank asc")
	if res := lds.Paginate(query, lds.topUsersPagination()).Find(&rows); res.Error != nil {
		return nil, storage.WrapDataAccessError(res.Error, "GetSeasonLeaderboard", "failed to read '%s'", cacheKey)
	}
	if len(rows) == 0 {
		return nil, &leaderboard.CacheNotAvailableError{CacheKey: cacheKey}
	}

	globalStats, err := lds.getGlobalStats(ctx, cacheKey)
	if err != nil {
		return nil, err
	}

	topUsers := make([]*LeaderboardUser, 0, len(rows))
	for _, r := range rows {
		topUsers = append(topUsers, &LeaderboardUser{UserId: r.UserId, TotalPoints: r.TotalPoints, Rank: r.Rank})
	}

	result := &SeasonLeaderboard{
		Season:      &SeasonInfo{Id: season.Id, Name: season.Name, Status: season.Status},
		TopUsers:    topUsers,
		GlobalStats: globalStats,
	}

	if userId != "" {
		var userRow storage.SeasonLeaderboardCache
		res := lds.db.WithContext(ctx).Model(&storage.SeasonLeaderboardCache{}).
			Where("season_id = ? and user_id = ?", seasonId, userId).
			Limit(1).
			Find(&userRow)
		if res.Error != nil {
			return nil, storage.WrapDataAccessError(res.Error, "GetSeasonLeaderboard", "failed to read user '%s' from '%s'", userId, cacheKey)
		}
		if res.RowsAffected > 0 {
			result.UserStats = &UserStats{
				LeaderboardUser: LeaderboardUser{UserId: userRow.UserId, TotalPoints: userRow.TotalPoints, Rank: userRow.Rank},
				Percentile:      Percentile(userRow.Rank, globalStats.TotalUsers),
			}
		}
	}
	return result, nil
}

// GetActivityCategoryLeaderboard returns the top of a category's cached
// leaderboard for a week, with each user's per-activity breakdown.
func (lds *LeaderboardDataService) GetActivityCategoryLeaderboard(ctx context.Context, categoryId string, weekId string, userId string) (*CategoryLeaderboard, error) {
	category, err := lds.store.GetActivityCategory(ctx, categoryId)
	if err != nil {
		return nil, notFoundOr(err, "category", categoryId)
	}
	week, err := lds.store.GetWeek(ctx, weekId)
	if err != nil {
		return nil, notFoundOr(err, "week", weekId)
	}
	cacheKey := leaderboard.CategoryCacheKey(categoryId, weekId)

	rows := make([]*storage.ActivityCategoryLeaderboardCache, 0)
	query := lds.db.WithContext(ctx).Model(&storage.ActivityCategoryLeaderboardCache{}).
		Where("category_id = ? and week_id = ?", categoryId, weekId).
		Order("rank asc")
	if res := lds.Paginate(query, lds.topUsersPagination()).Find(&rows); res.Error != nil {
		return nil, storage.WrapDataAccessError(res.Error, "GetActivityCategoryLeaderboard", "failed to read '%s'", cacheKey)
	}
	if len(rows) == 0 {
		return nil, &leaderboard.CacheNotAvailableError{CacheKey: cacheKey}
	}

	globalStats, err := lds.getGlobalStats(ctx, cacheKey)
	if err != nil {
		return nil, err
	}

	activities, err := lds.store.ListActivitiesForCategory(ctx, categoryId)
	if err != nil {
		return nil, err
	}
	hidden := make(map[string]bool, len(activities))
	for _, a := range activities {
		hidden[a.Id] = a.Hide
	}

	topUsers := make([]*LeaderboardUser, 0, len(rows))
	for _, r := range rows {
		user, err := lds.categoryUser(r, hidden)
		if err != nil {
			return nil, err
		}
		topUsers = append(topUsers, user)
	}

	result := &CategoryLeaderboard{
		Category:    &CategoryInfo{Id: category.Id, Name: category.Name},
		Week:        &WeekInfo{Id: week.Id, SeasonId: week.SeasonId, Processed: week.Processed},
		TopUsers:    topUsers,
		GlobalStats: globalStats,
	}

	if userId != "" {
		var userRow storage.ActivityCategoryLeaderboardCache
		res := lds.db.WithContext(ctx).Model(&storage.ActivityCategoryLeaderboardCache{}).
			Where("category_id = ? and week_id = ? and user_id = ?", categoryId, weekId, userId).
			Limit(1).
			Find(&userRow)
		if res.Error != nil {
			return nil, storage.WrapDataAccessError(res.Error, "GetActivityCategoryLeaderboard", "failed to read user '%s' from '%s'", userId, cacheKey)
		}
		if res.RowsAffected > 0 {
			user, err := lds.categoryUser(&userRow, hidden)
			if err != nil {
				return nil, err
			}
			result.UserStats = &UserStats{
				LeaderboardUser: *user,
				Percentile:      Percentile(userRow.Rank, globalStats.TotalUsers),
			}
		}
	}
	return result, nil
}

func (lds *LeaderboardDataService) categoryUser(row *storage.ActivityCategoryLeaderboardCache, hidden map[string]bool) (*LeaderboardUser, error) {
	breakdown, err := ExpandActivityPoints(row.ActivityPoints, hidden)
	if err != nil {
		lds.logger.Sugar().Errorw("Failed to decode activity points breakdown",
			zap.String("userId", row.UserId),
			zap.String("categoryId", row.CategoryId),
			zap.Error(err),
		)
		return nil, err
	}
	return &LeaderboardUser{
		UserId:         row.UserId,
		TotalPoints:    row.TotalPoints,
		Rank:           row.Rank,
		ActivityPoints: breakdown,
	}, nil
}

func (lds *LeaderboardDataService) getGlobalStats(ctx context.Context, cacheKey string) (*GlobalStats, error) {
	var stats storage.LeaderboardStatsCache
	res := lds.db.WithContext(ctx).Model(&storage.LeaderboardStatsCache{}).Where("cache_key = ?", cacheKey).Limit(1).Find(&stats)
	if res.Error != nil {
		return nil, storage.WrapDataAccessError(res.Error, "getGlobalStats", "failed to read stats for '%s'", cacheKey)
	}
	if res.RowsAffected == 0 {
		return nil, &leaderboard.CacheNotAvailableError{CacheKey: cacheKey}
	}
	return &GlobalStats{
		TotalUsers: stats.TotalUsers,
		Median:     stats.Median,
		Average:    stats.Average,
	}, nil
}

// ExpandActivityPoints decodes a stored activityId -> points JSON object into a
// list ordered by activity id.
func ExpandActivityPoints(encoded string, hidden map[string]bool) ([]*ActivityPoints, error) {
	decoded := make(map[string]decimal.Decimal)
	if encoded != "" {
		if err := json.Unmarshal([]byte(encoded), &decoded); err != nil {
			return nil, err
		}
	}

	breakdown := make([]*ActivityPoints, 0, len(decoded))
	for activityId, points := range decoded {
		breakdown = append(breakdown, &ActivityPoints{
			ActivityId: activityId,
			Points:     points,
			Hide:       hidden[activityId],
		})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].ActivityId < breakdown[j].ActivityId
	})
	return breakdown, nil
}

var oneHundred = decimal.NewFromInt(100)

// Percentile returns round((1 - (rank-1)/totalUsers) * 100). Rank 1 is the 100th percentile.
func Percentile(rank int64, totalUsers int64) int64 {
	if totalUsers <= 0 {
		return 0
	}
	fraction := decimal.NewFromInt(rank - 1).Div(decimal.NewFromInt(totalUsers))
	return decimal.NewFromInt(1).Sub(fraction).Mul(oneHundred).Round(0).IntPart()
}

func notFoundOr(err error, entity string, id string) error {
	if errors.Is(err, storage.ErrRecordNotFound) {
		return &leaderboard.NotFoundError{Entity: entity, Id: id}
	}
	return err
}
