package migrations

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Layr-Labs/season-points/internal/config"
	_202501100900_seasonsAndActivities "github.com/Layr-Labs/season-points/pkg/postgres/migrations/202501100900_seasonsAndActivities"
	_202501100915_accountActivityPoints "github.com/Layr-Labs/season-points/pkg/postgres/migrations/202501100915_accountActivityPoints"
	_202501101030_userSeasonPoints "github.com/Layr-Labs/season-points/pkg/postgres/migrations/202501101030_userSeasonPoints"
	_202501141200_leaderboardCache "github.com/Layr-Labs/season-points/pkg/postgres/migrations/202501141200_leaderboardCache"
	_202501201100_configValues "github.com/Layr-Labs/season-points/pkg/postgres/migrations/202501201100_configValues"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migration DDL is kept to the subset shared by Postgres and SQLite so the
// same set runs against the in-memory test databases.
type Migration interface {
	Up(db *sql.DB, grm *gorm.DB, cfg *config.Config) error
	GetName() string
}

type Migrator struct {
	Db           *sql.DB
	GDb          *gorm.DB
	Logger       *zap.Logger
	globalConfig *config.Config
}

func NewMigrator(db *sql.DB, gDb *gorm.DB, l *zap.Logger, cfg *config.Config) *Migrator {
	return &Migrator{
		Db:           db,
		GDb:          gDb,
		Logger:       l,
		globalConfig: cfg,
	}
}

func (m *Migrator) MigrateAll() error {
	if err := m.GDb.AutoMigrate(&Migrations{}); err != nil {
		m.Logger.Sugar().Errorw("Failed to create migrations table", zap.Error(err))
		return err
	}

	migrations := []Migration{
		&_202501100900_seasonsAndActivities.Migration{},
		&_202501100915_accountActivityPoints.Migration{},
		&_202501101030_userSeasonPoints.Migration{},
		&_202501141200_leaderboardCache.Migration{},
		&_202501201100_configValues.Migration{},
	}

	for _, migration := range migrations {
		if err := m.Migrate(migration); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) Migrate(migration Migration) error {
	name := migration.GetName()

	var migrationRecord Migrations
	result := m.GDb.Where("name = ?", name).Limit(1).Find(&migrationRecord)

	if result.Error != nil {
		m.Logger.Sugar().Errorw(fmt.Sprintf("Failed to find migration '%s'", name), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected > 0 {
		m.Logger.Sugar().Debugf("Migration %s already run", name)
		return nil
	}

	m.Logger.Sugar().Infof("Running migration '%s'", name)
	if err := migration.Up(m.Db, m.GDb, m.globalConfig); err != nil {
		m.Logger.Sugar().Errorw(fmt.Sprintf("Failed to run migration '%s'", name), zap.Error(err))
		return err
	}

	migrationRecord = Migrations{
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if result = m.GDb.Create(&migrationRecord); result.Error != nil {
		m.Logger.Sugar().Errorw(fmt.Sprintf("Failed to record migration '%s'", name), zap.Error(result.Error))
		return result.Error
	}
	return nil
}

type Migrations struct {
	Name      string    `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"type:timestamp"`
	UpdatedAt time.Time `gorm:"default:null;type:timestamp"`
}
