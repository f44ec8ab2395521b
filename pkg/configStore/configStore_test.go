package configStore

import (
	"context"
	"errors"
	"testing"

	"github.com/Layr-Labs/season-points/internal/config"
	"github.com/Layr-Labs/season-points/internal/logger"
	"github.com/Layr-Labs/season-points/internal/tests"
	"github.com/Layr-Labs/season-points/internal/tests/sqlite"
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
	return cfg, grm, l, nil
}

func Test_ConfigStore(t *testing.T) {
	cfg, grm, l, err := setup()
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	cs, err := NewConfigStore(grm, l, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer cs.Close()

	t.Run("Should report a missing key as not found", func(t *testing.T) {
		value, found, err := cs.GetValue(ctx, "missing")
		assert.Nil(t, err)
		assert.False(t, found)
		assert.Equal(t, "", value)
	})
	t.Run("Should set and read a value", func(t *testing.T) {
		err := cs.SetValue(ctx, config.SeasonPointsPoolShareStep, "1.2")
		assert.Nil(t, err)

		value, found, err := cs.GetValue(ctx, config.SeasonPointsPoolShareStep)
		assert.Nil(t, err)
		assert.True(t, found)
		assert.Equal(t, "1.2", value)
	})
	t.Run("Should overwrite an existing value and invalidate the cache", func(t *testing.T) {
		_, _, err := cs.GetValue(ctx, config.SeasonPointsPoolShareStep)
		assert.Nil(t, err)

		err = cs.SetValue(ctx, config.SeasonPointsPoolShareStep, "1.3")
		assert.Nil(t, err)

		value, _, err := cs.GetValue(ctx, config.SeasonPointsPoolShareStep)
		assert.Nil(t, err)
		assert.Equal(t, "1.3", value)

		var count int64
		grm.Table("config_values").Where("config_key = ?", config.SeasonPointsPoolShareStep).Count(&count)
		assert.Equal(t, int64(1), count)
	})
	t.Run("Should serve cached values until invalidated", func(t *testing.T) {
		err := cs.SetValue(ctx, "cached.key", "a")
		assert.Nil(t, err)

		value, _, _ := cs.GetValue(ctx, "cached.key")
		assert.Equal(t, "a", value)

		res := grm.Exec(`update config_values set value = 'b' where config_key = 'cached.key'`)
		assert.Nil(t, res.Error)

		value, _, _ = cs.GetValue(ctx, "cached.key")
		assert.Equal(t, "a", value)

		cs.Invalidate("cached.key")
		value, _, _ = cs.GetValue(ctx, "cached.key")
		assert.Equal(t, "b", value)
	})
	t.Run("Should parse typed values with defaults", func(t *testing.T) {
		bands, err := cs.GetInt(ctx, config.SeasonPointsNumberOfBands, 20)
		assert.Nil(t, err)
		assert.Equal(t, 20, bands)

		assert.Nil(t, cs.SetValue(ctx, config.SeasonPointsNumberOfBands, "10"))
		bands, err = cs.GetInt(ctx, config.SeasonPointsNumberOfBands, 20)
		assert.Nil(t, err)
		assert.Equal(t, 10, bands)

		lowerBound, err := cs.GetDecimal(ctx, config.SeasonPointsPercentileLowerBound, decimal.RequireFromString("0.1"))
		assert.Nil(t, err)
		assert.Equal(t, "0.1", lowerBound.String())

		assert.Nil(t, cs.SetValue(ctx, config.SeasonPointsPercentileLowerBound, "not-a-number"))
		_, err = cs.GetDecimal(ctx, config.SeasonPointsPercentileLowerBound, decimal.Zero)
		assert.NotNil(t, err)
		assert.True(t, IsInvalidValueError(err))
	})
	t.Run("Should report an unparseable integer as an invalid value", func(t *testing.T) {
		assert.Nil(t, cs.SetValue(ctx, config.SeasonPointsUpsertBatchSize, "1.5"))

		_, err := cs.GetInt(ctx, config.SeasonPointsUpsertBatchSize, 1000)
		assert.True(t, IsInvalidValueError(err))

		var ive *InvalidValueError
		assert.True(t, errors.As(err, &ive))
		assert.Equal(t, config.SeasonPointsUpsertBatchSize, ive.Key)
		assert.Equal(t, "1.5", ive.Value)
	})
}
