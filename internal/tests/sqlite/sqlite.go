package sqlite

import (
	"github.com/Layr-Labs/season-points/internal/config"
	"github.com/Layr-Labs/season-points/pkg/postgres/migrations"
	sqlite2 "github.com/Layr-Labs/season-points/pkg/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GetInMemorySqliteDatabaseConnection opens a uniquely named in-memory database
// so parallel tests never share state.
func GetInMemorySqliteDatabaseConnection(l *zap.Logger) (*gorm.DB, error) {
	return sqlite2.NewGormSqliteFromSqlite(sqlite2.NewSqlite(sqlite2.NewInMemoryPath(uuid.New().String())))
}

// GetMigratedSqliteDatabaseConnection opens an in-memory database and runs every migration against it.
func GetMigratedSqliteDatabaseConnection(cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	grm, err := GetInMemorySqliteDatabaseConnection(l)
	if err != nil {
		return nil, err
	}
	db, err := grm.DB()
	if err != nil {
		return nil, err
	}
	migrator := migrations.NewMigrator(db, grm, l, cfg)
	if err := migrator.MigrateAll(); err != nil {
		l.Sugar().Errorw("Failed to migrate", "error", err)
		return nil, err
	}
	return grm, nil
}
