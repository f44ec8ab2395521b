package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PointsStore is the narrow data-access surface the points pipeline and the
// leaderboard read path depend on.
type PointsStore interface {
	GetSeason(ctx context.Context, seasonId string) (*Season, error)
	GetWeek(ctx context.Context, weekId string) (*Week, error)
	GetActivityCategory(ctx context.Context, categoryId string) (*ActivityCategory, error)
	ListSeasons(ctx context.Context) ([]*Season, error)
	ListWeeks(ctx context.Context) ([]*Week, error)
	ListWeeksForSeason(ctx context.Context, seasonId string) ([]*Week, error)
	ListActivityCategories(ctx context.Context) ([]*ActivityCategory, error)

	// ListCategoryPoolsForWeek returns the categories with a strictly positive points pool for the week.
	ListCategoryPoolsForWeek(ctx context.Context, weekId string) ([]*ActivityCategoryWeek, error)

	// ListActivitiesForCategory returns the activities of a category with the default-data overlay applied.
	ListActivitiesForCategory(ctx context.Context, categoryId string) ([]*Activity, error)

	// GetActivityMultipliers returns activityId -> multiplier for every activity that has a multiplier set for the week.
	GetActivityMultipliers(ctx context.Context, weekId string) (map[string]decimal.Decimal, error)

	// SumActivityPointsByUser sums raw account points per user for a single activity and week,
	// only including users whose time-weighted balance for the week is at least minBalance.
	// Results are ordered by points ascending, then user id.
	SumActivityPointsByUser(ctx context.Context, weekId string, activityId string, minBalance decimal.Decimal) ([]*UserPoints, error)

	// GetSeasonPointsMultipliers returns userId -> multiplier for the week.
	GetSeasonPointsMultipliers(ctx context.Context, weekId string) (map[string]decimal.Decimal, error)

	// UpsertUserSeasonPoints writes rows keyed by (user_id, season_id, week_id); conflicting rows have their points replaced.
	UpsertUserSeasonPoints(ctx context.Context, rows []*UserSeasonPoints) error

	ListUserSeasonPointsForWeek(ctx context.Context, weekId string) ([]*UserSeasonPoints, error)

	MarkWeekProcessed(ctx context.Context, weekId string) error
}

type SeasonStatus string

const (
	SeasonStatus_Upcoming  SeasonStatus = "upcoming"
	SeasonStatus_Active    SeasonStatus = "active"
	SeasonStatus_Completed SeasonStatus = "completed"
)

type WeekStatus string

const (
	WeekStatus_Upcoming  WeekStatus = "upcoming"
	WeekStatus_Active    WeekStatus = "active"
	WeekStatus_Completed WeekStatus = "completed"
)

// Tables.
type Season struct {
	Id        string
	Name      string
	Status    SeasonStatus
	CreatedAt time.Time
	UpdatedAt *time.Time
}

type Week struct {
	Id        string
	SeasonId  string
	StartDate time.Time
	EndDate   time.Time
	Status    WeekStatus
	Processed bool
	CreatedAt time.Time
	UpdatedAt *time.Time
}

type ActivityCategory struct {
	Id   string
	Name string
}

func (ActivityCategory) TableName() string {
	return "activity_categories"
}

type Activity struct {
	Id         string
	Name       string
	CategoryId string
	// Hide comes from DefaultActivityOverlay, it is not persisted.
	Hide bool `gorm:"-"`
}

type ActivityCategoryWeek struct {
	CategoryId string
	WeekId     string
	PointsPool decimal.Decimal
}

type ActivityWeek struct {
	ActivityId string
	WeekId     string
	Multiplier decimal.Decimal
}

type User struct {
	Id        string
	CreatedAt time.Time
}

type Account struct {
	Address string
	UserId  string
	Label   string
}

type AccountActivityPoints struct {
	AccountAddress string
	WeekId         string
	ActivityId     string
	ActivityPoints decimal.Decimal
}

func (AccountActivityPoints) TableName() string {
	return "account_activity_points"
}

type SeasonPointsMultiplier struct {
	UserId          string
	WeekId          string
	TotalTwaBalance decimal.Decimal
	Multiplier      decimal.Decimal
}

type UserSeasonPoints struct {
	UserId    string
	SeasonId  string
	WeekId    string
	Points    decimal.Decimal
	CreatedAt time.Time
	UpdatedAt *time.Time
}

func (UserSeasonPoints) TableName() string {
	return "user_season_points"
}

type SeasonLeaderboardCache struct {
	SeasonId    string
	UserId      string
	TotalPoints decimal.Decimal
	Rank        int64
}

func (SeasonLeaderboardCache) TableName() string {
	return "season_leaderboard_cache"
}

type ActivityCategoryLeaderboardCache struct {
	CategoryId  string
	WeekId      string
	UserId      string
	TotalPoints decimal.Decimal
	Rank        int64
	// ActivityPoints is a JSON object of activityId -> points
	ActivityPoints string
}

func (ActivityCategoryLeaderboardCache) TableName() string {
	return "activity_category_leaderboard_cache"
}

type LeaderboardStatsCache struct {
	CacheKey   string
	TotalUsers int64
	Median     decimal.Decimal
	Average    decimal.Decimal
	UpdatedAt  time.Time
}

func (LeaderboardStatsCache) TableName() string {
	return "leaderboard_stats_cache"
}

type ConfigValue struct {
	ConfigKey string
	Value     string
	UpdatedAt time.Time
}

// UserPoints is a (user, points) pair produced by aggregation queries.
type UserPoints struct {
	UserId string
	Points decimal.Decimal
}
