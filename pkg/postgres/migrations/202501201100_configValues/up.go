package _202501201100_configValues

import (
	"database/sql"

	"github.com/Layr-Labs/season-points/internal/config"
	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(db *sql.DB, grm *gorm.DB, cfg *config.Config) error {
	query := `CREATE TABLE IF NOT EXISTS config_values (
		config_key varchar not null primary key,
		value text not null,
		updated_at timestamp
	)`
	if res := grm.Exec(query); res.Error != nil {
		return res.Error
	}
	return nil
}

func (m *Migration) GetName() string {
	return "202501201100_configValues"
}
