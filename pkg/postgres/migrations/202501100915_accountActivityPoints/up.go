package _202501100915_accountActivityPoints

import (
	"database/sql"

	"github.com/Layr-Labs/season-points/internal/config"
	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(db *sql.DB, grm *gorm.DB, cfg *config.Config) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id varchar not null primary key,
			created_at timestamp not null default current_timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS accounts (
			address varchar not null primary key,
			user_id varchar not null references users(id),
			label varchar
		)`,
		`create index if not exists idx_accounts_user_id on accounts (user_id)`,
		`CREATE TABLE IF NOT EXISTS account_activity_points (
			account_address varchar not null references accounts(address),
			week_id varchar not null references weeks(id),
			activity_id varchar not null references activities(id),
			activity_points numeric not null default 0,
			primary key (account_address, week_id, activity_id)
		)`,
		`create index if not exists idx_account_activity_points_week_activity on account_activity_points (week_id, activity_id)`,
		`CREATE TABLE IF NOT EXISTS season_points_multipliers (
			user_id varchar not null references users(id),
			week_id varchar not null references weeks(id),
			total_twa_balance numeric not null default 0,
			multiplier numeric not null default 0,
			primary key (user_id, week_id)
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
	return "202501100915_accountActivityPoints"
}
