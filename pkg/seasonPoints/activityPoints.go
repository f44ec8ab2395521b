package seasonPoints

import (
	"context"

	"github.com/Layr-Labs/season-points/pkg/distribution"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ActivityPointsFilters struct {
	WeekId     string
	ActivityId string
	// MinPoints applies to the user's total across all of their accounts.
	MinPoints decimal.Decimal
	// MinBalance applies to the user's time-weighted balance for the week.
	MinBalance decimal.Decimal
}

// AggregateActivityPoints sums an activity's raw points per user across every
// account they own. Users below MinPoints or with zero points are dropped.
// The result is ordered by points ascending.
func (spc *SeasonPointsCalculator) AggregateActivityPoints(ctx context.Context, filters *ActivityPointsFilters) ([]*distribution.UserPoints, error) {
	summed, err := spc.store.SumActivityPointsByUser(ctx, filters.WeekId, filters.ActivityId, filters.MinBalance)
	if err != nil {
		spc.logger.Sugar().Errorw("Failed to sum activity points",
			zap.String("weekId", filters.WeekId),
			zap.String("activityId", filters.ActivityId),
			zap.Error(err),
		)
		return nil, err
	}

	users := make([]*distribution.UserPoints, 0, len(summed))
	for _, s := range summed {
		if !s.Points.IsPositive() || s.Points.LessThan(filters.MinPoints) {
			continue
		}
		users = append(users, &distribution.UserPoints{
			UserId: s.UserId,
			Points: s.Points,
		})
	}
	spc.logger.Sugar().Debugw("Aggregated activity points",
		zap.String("weekId", filters.WeekId),
		zap.String("activityId", filters.ActivityId),
		zap.Int("count", len(users)),
	)
	return users, nil
}
