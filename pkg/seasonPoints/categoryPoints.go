package seasonPoints

import (
	"context"

	"github.com/Layr-Labs/season-points/pkg/distribution"
	"github.com/shopspring/decimal"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

type CategoryUserPoints struct {
	CategoryId string
	PointsPool decimal.Decimal
	// Users holds each user's multiplier-weighted total across the category's activities.
	Users []*distribution.UserPoints
}

var defaultActivityMultiplier = decimal.NewFromInt(1)

// CalculateCategoryPoints builds per-user totals for every category that has a
// positive points pool in the week. Categories without a pool are omitted.
func (spc *SeasonPointsCalculator) CalculateCategoryPoints(ctx context.Context, weekId string, params *PipelineParams) ([]*CategoryUserPoints, error) {
	pools, err := spc.store.ListCategoryPoolsForWeek(ctx, weekId)
	if err != nil {
		spc.logger.Sugar().Errorw("Failed to list category pools", zap.String("weekId", weekId), zap.Error(err))
		return nil, err
	}

	multipliers, err := spc.store.GetActivityMultipliers(ctx, weekId)
	if err != nil {
		spc.logger.Sugar().Errorw("Failed to get activity multipliers", zap.String("weekId", weekId), zap.Error(err))
		return nil, err
	}

	categories := make([]*CategoryUserPoints, 0, len(pools))
	for _, pool := range pools {
		if !pool.PointsPool.IsPositive() {
			continue
		}

		activities, err := spc.store.ListActivitiesForCategory(ctx, pool.CategoryId)
		if err != nil {
			spc.logger.Sugar().Errorw("Failed to list activities", zap.String("categoryId", pool.CategoryId), zap.Error(err))
			return nil, err
		}

		userTotals := orderedmap.New[string, decimal.Decimal]()
		for _, activity := range activities {
			multiplier, ok := multipliers[activity.Id]
			if !ok {
				multiplier = defaultActivityMultiplier
			}

			users, err := spc.AggregateActivityPoints(ctx, &ActivityPointsFilters{
				WeekId:     weekId,
				ActivityId: activity.Id,
				MinPoints:  params.MinActivityPoints,
				MinBalance: params.MinTwaBalance,
			})
			if err != nil {
				return nil, err
			}

			for _, u := range users {
				existing, _ := userTotals.Get(u.UserId)
				userTotals.Set(u.UserId, existing.Add(u.Points.Mul(multiplier)))
			}
		}

		users := make([]*distribution.UserPoints, 0, userTotals.Len())
		for pair := userTotals.Oldest(); pair != nil; pair = pair.Next() {
			if !pair.Value.IsPositive() {
				continue
			}
			users = append(users, &distribution.UserPoints{
				UserId: pair.Key,
				Points: pair.Value,
			})
		}

		spc.logger.Sugar().Infow("Calculated category points",
			zap.String("weekId", weekId),
			zap.String("categoryId", pool.CategoryId),
			zap.String("pointsPool", pool.PointsPool.String()),
			zap.Int("activities", len(activities)),
			zap.Int("users", len(users)),
		)
		categories = append(categories, &CategoryUserPoints{
			CategoryId: pool.CategoryId,
			PointsPool: pool.PointsPool,
			Users:      users,
		})
	}
	return categories, nil
}

// DistributeCategoryPoints runs trim, banding and band distribution for one category.
func DistributeCategoryPoints(category *CategoryUserPoints, params *PipelineParams) []*distribution.UserPoints {
	trimmed := distribution.SupplyPercentileTrim(category.Users, params.PercentileLowerBound)
	bands := distribution.CreateUserBands(trimmed, &distribution.BandConfig{
		NumberOfBands:  params.NumberOfBands,
		PoolShareStart: params.PoolShareStart,
		PoolShareStep:  params.PoolShareStep,
	})
	return distribution.DistributeSeasonPoints(category.PointsPool, bands)
}
