package seasonPoints

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Layr-Labs/season-points/internal/config"
	"github.com/Layr-Labs/season-points/internal/metrics"
	"github.com/Layr-Labs/season-points/internal/metrics/metricsTypes"
	"github.com/Layr-Labs/season-points/pkg/service/types"
	"github.com/Layr-Labs/season-points/pkg/service/userDataService"
	"github.com/Layr-Labs/season-points/pkg/storage"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

const seasonPointsPrecision = 6

// UserLister pages through every known user.
type UserLister interface {
	ListUsers(ctx context.Context, pagination *types.Pagination) (*userDataService.ListUsersResult, error)
}

type SeasonPointsCalculator struct {
	store        storage.PointsStore
	userLister   UserLister
	configReader ConfigReader
	metricsSink  *metrics.MetricsSink
	logger       *zap.Logger
	globalConfig *config.Config
	validate     *validator.Validate
}

func NewSeasonPointsCalculator(
	store storage.PointsStore,
	userLister UserLister,
	configReader ConfigReader,
	ms *metrics.MetricsSink,
	l *zap.Logger,
	cfg *config.Config,
) *SeasonPointsCalculator {
	return &SeasonPointsCalculator{
		store:        store,
		userLister:   userLister,
		configReader: configReader,
		metricsSink:  ms,
		logger:       l,
		globalConfig: cfg,
		validate:     newParamsValidator(),
	}
}

type CalculateSeasonPointsInput struct {
	WeekId          string `validate:"required"`
	Force           bool
	MarkAsProcessed bool
}

// CalculateSeasonPointsForWeek runs the full pipeline for a week and persists
// one row per known user.
//
// The run is refused with an InvalidStateError when the week's season is
// completed or the week was already processed, unless Force is set. Rows are
// written in batches; if a batch fails the remaining batches are skipped and
// the batches already written stay in place. Re-running is safe since every
// write replaces the row for (user, season, week).
func (spc *SeasonPointsCalculator) CalculateSeasonPointsForWeek(ctx context.Context, input *CalculateSeasonPointsInput) error {
	startTime := time.Now()
	err := spc.calculateSeasonPointsForWeek(ctx, input)
	_ = spc.metricsSink.Timing(metricsTypes.Metric_Timing_SeasonPointsDuration, time.Since(startTime), nil)

	if err != nil {
		_ = spc.metricsSink.Incr(metricsTypes.Metric_Incr_SeasonPointsCalculationFailure, []metricsTypes.MetricsLabel{
			{Name: "reason", Value: failureReason(err)},
		}, 1)
	}
	return err
}

func failureReason(err error) string {
	switch {
	case IsValidationError(err):
		return "validation"
	case IsInvalidStateError(err):
		return "invalid_state"
	case storage.IsDataAccessError(err):
		return "data_access"
	default:
		return "unknown"
	}
}

func (spc *SeasonPointsCalculator) calculateSeasonPointsForWeek(ctx context.Context, input *CalculateSeasonPointsInput) error {
	if input == nil {
		return &ValidationError{Message: "input is required"}
	}
	if err := spc.validate.Struct(input); err != nil {
		return newValidationErrorFromValidator(err)
	}

	week, err := spc.store.GetWeek(ctx, input.WeekId)
	if err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return &ValidationError{Message: fmt.Sprintf("week '%s' does not exist", input.WeekId)}
		}
		return err
	}

	season, err := spc.store.GetSeason(ctx, week.SeasonId)
	if err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return &ValidationError{Message: fmt.Sprintf("season '%s' for week '%s' does not exist", week.SeasonId, week.Id)}
		}
		return err
	}

	if !input.Force {
		if season.Status == storage.SeasonStatus_Completed {
			return &InvalidStateError{Message: fmt.Sprintf("season '%s' is completed", season.Id)}
		}
		if week.Processed {
			return &InvalidStateError{Message: fmt.Sprintf("week '%s' has already been processed", week.Id)}
		}
	}

	params, err := spc.LoadPipelineParams(ctx)
	if err != nil {
		return err
	}

	spc.logger.Sugar().Infow("Calculating season points",
		zap.String("weekId", week.Id),
		zap.String("seasonId", season.Id),
		zap.Bool("force", input.Force),
		zap.Int("numberOfBands", params.NumberOfBands),
		zap.String("poolShareStart", params.PoolShareStart.String()),
		zap.String("poolShareStep", params.PoolShareStep.String()),
		zap.String("percentileLowerBound", params.PercentileLowerBound.String()),
	)

	userTotals, err := spc.distributeCategories(ctx, week.Id, params)
	if err != nil {
		return err
	}

	rows, err := spc.buildUserSeasonPoints(ctx, season.Id, week.Id, userTotals, params)
	if err != nil {
		return err
	}

	if err := spc.upsertInBatches(ctx, rows, params.UpsertBatchSize); err != nil {
		return err
	}
	_ = spc.metricsSink.Incr(metricsTypes.Metric_Incr_SeasonPointsUsersWritten, []metricsTypes.MetricsLabel{
		{Name: "week_id", Value: week.Id},
	}, float64(len(rows)))

	if input.MarkAsProcessed {
		if err := spc.store.MarkWeekProcessed(ctx, week.Id); err != nil {
			spc.logger.Sugar().Errorw("Failed to mark week as processed", zap.String("weekId", week.Id), zap.Error(err))
			return err
		}
		spc.logger.Sugar().Infow("Marked week as processed", zap.String("weekId", week.Id))
	}

	spc.logger.Sugar().Infow("Calculated season points",
		zap.String("weekId", week.Id),
		zap.String("seasonId", season.Id),
		zap.Int("count", len(rows)),
	)
	return nil
}

// distributeCategories returns each user's distributed points summed across categories.
func (spc *SeasonPointsCalculator) distributeCategories(ctx context.Context, weekId string, params *PipelineParams) (*orderedmap.OrderedMap[string, decimal.Decimal], error) {
	categories, err := spc.CalculateCategoryPoints(ctx, weekId, params)
	if err != nil {
		return nil, err
	}

	userTotals := orderedmap.New[string, decimal.Decimal]()
	for _, category := range categories {
		distributed := DistributeCategoryPoints(category, params)
		for _, u := range distributed {
			existing, _ := userTotals.Get(u.UserId)
			userTotals.Set(u.UserId, existing.Add(u.Points))
		}

		spc.logger.Sugar().Debugw("Distributed category points",
			zap.String("categoryId", category.CategoryId),
			zap.Int("count", len(distributed)),
		)
		_ = spc.metricsSink.Incr(metricsTypes.Metric_Incr_SeasonPointsCategoryProcessed, []metricsTypes.MetricsLabel{
			{Name: "category_id", Value: category.CategoryId},
		}, 1)
	}
	return userTotals, nil
}

// buildUserSeasonPoints applies each user's season multiplier and adds a zero
// row for every known user that earned nothing.
func (spc *SeasonPointsCalculator) buildUserSeasonPoints(
	ctx context.Context,
	seasonId string,
	weekId string,
	userTotals *orderedmap.OrderedMap[string, decimal.Decimal],
	params *PipelineParams,
) ([]*storage.UserSeasonPoints, error) {
	multipliers, err := spc.store.GetSeasonPointsMultipliers(ctx, weekId)
	if err != nil {
		spc.logger.Sugar().Errorw("Failed to get season points multipliers", zap.String("weekId", weekId), zap.Error(err))
		return nil, err
	}

	rows := make([]*storage.UserSeasonPoints, 0, userTotals.Len())
	for pair := userTotals.Oldest(); pair != nil; pair = pair.Next() {
		// users without a multiplier record earn nothing for the week
		multiplier := multipliers[pair.Key]
		rows = append(rows, &storage.UserSeasonPoints{
			UserId:   pair.Key,
			SeasonId: seasonId,
			WeekId:   weekId,
			Points:   pair.Value.Mul(multiplier).Round(seasonPointsPrecision),
		})
	}

	userIds, err := spc.listAllUserIds(ctx, params.UserPageSize)
	if err != nil {
		return nil, err
	}
	zeroFilled := 0
	for _, userId := range userIds {
		if _, ok := userTotals.Get(userId); ok {
			continue
		}
		rows = append(rows, &storage.UserSeasonPoints{
			UserId:   userId,
			SeasonId: seasonId,
			WeekId:   weekId,
			Points:   decimal.Zero,
		})
		zeroFilled++
	}
	spc.logger.Sugar().Debugw("Zero filled users without points",
		zap.String("weekId", weekId),
		zap.Int("count", zeroFilled),
	)
	return rows, nil
}

func (spc *SeasonPointsCalculator) listAllUserIds(ctx context.Context, pageSize int) ([]string, error) {
	userIds := make([]string, 0)
	pagination := types.NewDefaultPagination()
	pagination.Load(types.DefaultPage, uint32(pageSize))
	for {
		res, err := spc.userLister.ListUsers(ctx, pagination)
		if err != nil {
			spc.logger.Sugar().Errorw("Failed to list users", zap.Uint32("page", pagination.Page), zap.Error(err))
			return nil, err
		}
		for _, u := range res.Users {
			userIds = append(userIds, u.Id)
		}
		if len(res.Users) == 0 || int64(len(userIds)) >= res.Total {
			break
		}
		pagination.Load(pagination.Page+1, 0)
	}
	return userIds, nil
}

func (spc *SeasonPointsCalculator) upsertInBatches(ctx context.Context, rows []*storage.UserSeasonPoints, batchSize int) error {
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := spc.store.UpsertUserSeasonPoints(ctx, rows[start:end]); err != nil {
			spc.logger.Sugar().Errorw("Failed to upsert season points batch",
				zap.Int("batchStart", start),
				zap.Int("batchEnd", end),
				zap.Int("total", len(rows)),
				zap.Error(err),
			)
			return err
		}
		spc.logger.Sugar().Debugw("Upserted season points batch", zap.Int("batchStart", start), zap.Int("batchEnd", end))
	}
	return nil
}
