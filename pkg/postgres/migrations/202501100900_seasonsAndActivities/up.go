package _202501100900_seasonsAndActivities

import (
	"database/sql"

	"github.com/Layr-Labs/season-points/internal/config"
	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(db *sql.DB, grm *gorm.DB, cfg *config.Config) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS seasons (
			id varchar not null primary key,
			name varchar not null,
			status varchar not null default 'upcoming',
			created_at timestamp not null default current_timestamp,
			updated_at timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS weeks (
			id varchar not null primary key,
			season_id varchar not null references seasons(id),
			start_date timestamp not null,
			end_date timestamp not null,
			status varchar not null default 'upcoming',
			processed boolean not null default false,
			created_at timestamp not null default current_timestamp,
			updated_at timestamp
		)`,
		`create index if not exists idx_weeks_season_id on weeks (season_id)`,
		`CREATE TABLE IF NOT EXISTS activity_categories (
			id varchar not null primary key,
			name varchar not null
		)`,
		`CREATE TABLE IF NOT EXISTS activities (
			id varchar not null primary key,
			name varchar not null,
			category_id varchar not null references activity_categories(id)
		)`,
		`create index if not exists idx_activities_category_id on activities (category_id)`,
		`CREATE TABLE IF NOT EXISTS activity_category_weeks (
			category_id varchar not null references activity_categories(id),
			week_id varchar not null references weeks(id),
			points_pool numeric not null default 0 check (points_pool >= 0),
			primary key (category_id, week_id)
		)`,
		`CREATE TABLE IF NOT EXISTS activity_weeks (
			activity_id varchar not null references activities(id),
			week_id varchar not null references weeks(id),
			multiplier numeric not null default 1,
			primary key (activity_id, week_id)
		)`,
	}
	for _, query := range queries {
		if res := grm.Exec(query); res.Error != nil {
			return res.Error
		}
	}
	return nil
}

func (m *Migration) GetName() string {
	return "202501100900_seasonsAndActivities"
}
