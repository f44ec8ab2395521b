package seasonPoints

import (
	"context"
	"reflect"

	"github.com/Layr-Labs/season-points/internal/config"
	"github.com/Layr-Labs/season-points/pkg/configStore"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ConfigReader reads runtime overrides for pipeline parameters.
type ConfigReader interface {
	GetDecimal(ctx context.Context, key string, defaultValue decimal.Decimal) (decimal.Decimal, error)
	GetInt(ctx context.Context, key string, defaultValue int) (int, error)
}

type PipelineParams struct {
	NumberOfBands        int             `validate:"gt=0"`
	PoolShareStart       decimal.Decimal `validate:"gt=0"`
	PoolShareStep        decimal.Decimal `validate:"gt=1"`
	PercentileLowerBound decimal.Decimal `validate:"gte=0,lte=1"`
	MinActivityPoints    decimal.Decimal `validate:"gte=0"`
	MinTwaBalance        decimal.Decimal `validate:"gte=0"`
	UpsertBatchSize      int             `validate:"gt=0"`
	UserPageSize         int             `validate:"gt=0"`
}

// newParamsValidator compares decimal fields as float64 so the numeric tags apply to them.
func newParamsValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// configReadError reports unparseable stored values as validation failures.
func configReadError(err error) error {
	if configStore.IsInvalidValueError(err) {
		return &ValidationError{Message: err.Error()}
	}
	return err
}

// LoadPipelineParams resolves each parameter from the config store, falling
// back to the values in SeasonPointsConfig.
func (spc *SeasonPointsCalculator) LoadPipelineParams(ctx context.Context) (*PipelineParams, error) {
	defaults := spc.globalConfig.SeasonPointsConfig
	params := &PipelineParams{}

	decimals := []struct {
		key          string
		defaultValue string
		fallback     string
		dest         *decimal.Decimal
	}{
		{config.SeasonPointsPoolShareStart, defaults.PoolShareStart, "0.98", &params.PoolShareStart},
		{config.SeasonPointsPoolShareStep, defaults.PoolShareStep, "1.15", &params.PoolShareStep},
		{config.SeasonPointsPercentileLowerBound, defaults.PercentileLowerBound, "0", &params.PercentileLowerBound},
		{config.SeasonPointsMinActivityPoints, defaults.MinActivityPoints, "0", &params.MinActivityPoints},
		{config.SeasonPointsMinTwaBalance, defaults.MinTwaBalance, "0", &params.MinTwaBalance},
	}
	for _, d := range decimals {
		defaultValue, err := decimal.NewFromString(config.StringWithDefault(d.defaultValue, d.fallback))
		if err != nil {
			spc.logger.Sugar().Errorw("Invalid default for pipeline parameter", zap.String("key", d.key), zap.Error(err))
			return nil, &ValidationError{Message: "invalid default for '" + d.key + "': " + err.Error()}
		}
		value, err := spc.configReader.GetDecimal(ctx, d.key, defaultValue)
		if err != nil {
			return nil, configReadError(err)
		}
		*d.dest = value
	}

	ints := []struct {
		key          string
		defaultValue int
		dest         *int
	}{
		{config.SeasonPointsNumberOfBands, defaults.NumberOfBands, &params.NumberOfBands},
		{config.SeasonPointsUpsertBatchSize, defaults.UpsertBatchSize, &params.UpsertBatchSize},
		{config.SeasonPointsUserPageSize, defaults.UserPageSize, &params.UserPageSize},
	}
	for _, i := range ints {
		value, err := spc.configReader.GetInt(ctx, i.key, i.defaultValue)
		if err != nil {
			return nil, configReadError(err)
		}
		*i.dest = value
	}

	if err := spc.validate.Struct(params); err != nil {
		return nil, newValidationErrorFromValidator(err)
	}
	return params, nil
}
