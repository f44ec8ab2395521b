package _202501141200_leaderboardCache

import (
	"database/sql"

	"github.com/Layr-Labs/season-points/internal/config"
	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(db *sql.DB, grm *gorm.DB, cfg *config.Config) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS season_leaderboard_cache (
			season_id varchar not null,
			user_id varchar not null,
			total_points numeric not null,
			rank bigint not null,
			primary key (season_id, user_id)
		)`,
		`create index if not exists idx_season_leaderboard_cache_rank on season_leaderboard_cache (season_id, rank)`,
		`CREATE TABLE IF NOT EXISTS activity_category_leaderboard_cache (
			category_id varchar not null,
			week_id varchar not null,
			user_id varchar not null,
			total_points numeric not null,
			rank bigint not null,
			activity_points text not null default '{}',
			primary key (category_id, week_id, user_id)
		)`,
		`create index if not exists idx_activity_category_leaderboard_cache_rank on activity_category_leaderboard_cache (category_id, week_id, rank)`,
		`CREATE TABLE IF NOT EXISTS leaderboard_stats_cache (
			cache_key varchar not null primary key,
			total_users bigint not null,
			median numeric not null,
			average numeric not null,
			updated_at timestamp
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
	return "202501141200_leaderboardCache"
}
