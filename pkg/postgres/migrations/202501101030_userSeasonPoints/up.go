package _202501101030_userSeasonPoints

import (
	"database/sql"

	"github.com/Layr-Labs/season-points/internal/config"
	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(db *sql.DB, grm *gorm.DB, cfg *config.Config) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS user_season_points (
			user_id varchar not null references users(id),
			season_id varchar not null references seasons(id),
			week_id varchar not null references weeks(id),
			points numeric(78, 6) not null default 0,
			created_at timestamp not null default current_timestamp,
			updated_at timestamp
		)`,
		`create unique index if not exists uniq_user_season_points on user_season_points (user_id, season_id, week_id)`,
		`create index if not exists idx_user_season_points_season_id on user_season_points (season_id)`,
		`create index if not exists idx_user_season_points_week_id on user_season_points (week_id)`,
	}
	for _, query := range queries {
		if res := grm.Exec(query); res.Error != nil {
			return res.Error
		}
	}
	return nil
}

func (m *Migration) GetName() string {
	return "202501101030_userSeasonPoints"
}
