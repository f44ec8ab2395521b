package configStore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Layr-Labs/season-points/internal/config"
	"github.com/Layr-Labs/season-points/pkg/storage"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvalidValueError is returned when a stored value cannot be parsed as the requested type.
type InvalidValueError struct {
	Key   string
	Value string
	Err   error
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("config value '%s' for key '%s' is invalid: %v", e.Value, e.Key, e.Err)
}

func (e *InvalidValueError) Unwrap() error {
	return e.Err
}

func IsInvalidValueError(err error) bool {
	var ive *InvalidValueError
	return errors.As(err, &ive)
}

// ConfigStore reads runtime-tunable values from the config_values table through
// a bounded, TTL'd cache. Construct it once at startup and share it; writes made
// through SetValue invalidate the cached entry.
type ConfigStore struct {
	db           *gorm.DB
	logger       *zap.Logger
	globalConfig *config.Config
	cache        *ristretto.Cache[string, string]
	ttl          time.Duration
}

func NewConfigStore(db *gorm.DB, l *zap.Logger, cfg *config.Config) (*ConfigStore, error) {
	maxEntries := cfg.ConfigStoreConfig.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &ConfigStore{
		db:           db,
		logger:       l,
		globalConfig: cfg,
		cache:        cache,
		ttl:          cfg.ConfigStoreConfig.TTL,
	}, nil
}

// GetValue returns the stored value for key and whether it exists.
func (cs *ConfigStore) GetValue(ctx context.Context, key string) (string, bool, error) {
	if value, ok := cs.cache.Get(key); ok {
		return value, true, nil
	}

	var configValue storage.ConfigValue
	res := cs.db.WithContext(ctx).Model(&storage.ConfigValue{}).Where("config_key = ?", key).Limit(1).Find(&configValue)
	if res.Error != nil {
		return "", false, storage.WrapDataAccessError(res.Error, "GetValue", "failed to read config value '%s'", key)
	}
	if res.RowsAffected == 0 {
		return "", false, nil
	}

	cs.cache.SetWithTTL(key, configValue.Value, 1, cs.ttl)
	cs.cache.Wait()
	return configValue.Value, true, nil
}

func (cs *ConfigStore) SetValue(ctx context.Context, key string, value string) error {
	row := &storage.ConfigValue{
		ConfigKey: key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	res := cs.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "config_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(row)
	if res.Error != nil {
		return storage.WrapDataAccessError(res.Error, "SetValue", "failed to write config value '%s'", key)
	}
	cs.Invalidate(key)
	cs.logger.Sugar().Infow("Updated config value", "key", key, "value", value)
	return nil
}

func (cs *ConfigStore) Invalidate(key string) {
	cs.cache.Del(key)
}

// GetDecimal returns the stored value parsed as a decimal, or defaultValue when unset.
func (cs *ConfigStore) GetDecimal(ctx context.Context, key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	value, found, err := cs.GetValue(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	if !found {
		return defaultValue, nil
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		cs.logger.Sugar().Errorw("Config value is not a decimal", "key", key, "value", value, "error", err)
		return decimal.Zero, &InvalidValueError{Key: key, Value: value, Err: err}
	}
	return parsed, nil
}

// GetInt returns the stored value parsed as an int, or defaultValue when unset.
func (cs *ConfigStore) GetInt(ctx context.Context, key string, defaultValue int) (int, error) {
	value, found, err := cs.GetValue(ctx, key)
	if err != nil {
		return 0, err
	}
	if !found {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		cs.logger.Sugar().Errorw("Config value is not an integer", "key", key, "value", value, "error", err)
		return 0, &InvalidValueError{Key: key, Value: value, Err: err}
	}
	return parsed, nil
}

func (cs *ConfigStore) Close() {
	cs.cache.Close()
}
