package tests

import (
	"time"

	"github.com/Layr-Labs/season-points/pkg/storage"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// HydrateLeaderboardFixture loads two seasons of calculated points plus raw activity points for one category.
//
// Season s1 (weeks w1, w2) totals: u2 22, u1 15, u3 10, u5 1, u4 0.
// Season s2 (week w3) totals: u2 7, u3 7, u1 3, u5 2, u4 1.
// Category c1 in w1: u1 13 (a1 10, legacy_bridge_volume 3), u2 2 (a1 2), u3 0.
func HydrateLeaderboardFixture(grm *gorm.DB) error {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	week := 7 * 24 * time.Hour

	records := []interface{}{
		&storage.Season{Id: "s1", Name: "Season 1", Status: storage.SeasonStatus_Active},
		&storage.Season{Id: "s2", Name: "Season 2", Status: storage.SeasonStatus_Upcoming},
		&storage.Week{Id: "w1", SeasonId: "s1", StartDate: start, EndDate: start.Add(week), Status: storage.WeekStatus_Completed},
		&storage.Week{Id: "w2", SeasonId: "s1", StartDate: start.Add(week), EndDate: start.Add(2 * week), Status: storage.WeekStatus_Completed},
		&storage.Week{Id: "w3", SeasonId: "s2", StartDate: start.Add(2 * week), EndDate: start.Add(3 * week), Status: storage.WeekStatus_Active},
		&storage.ActivityCategory{Id: "c1", Name: "Trading"},
		&storage.ActivityCategory{Id: "c2", Name: "Bridging"},
		&storage.Activity{Id: "a1", Name: "Swap volume", CategoryId: "c1"},
		&storage.Activity{Id: "legacy_bridge_volume", Name: "Legacy bridge", CategoryId: "c1"},
		&storage.ActivityWeek{ActivityId: "a1", WeekId: "w1", Multiplier: decimal.NewFromInt(2)},
	}
	for _, u := range []string{"u1", "u2", "u3", "u4", "u5", "u6"} {
		records = append(records,
			&storage.User{Id: u},
			&storage.Account{Address: "0x" + u, UserId: u},
		)
	}

	activityPoints := []struct {
		user     string
		activity string
		points   int64
	}{
		{"u1", "a1", 5},
		{"u1", "legacy_bridge_volume", 3},
		{"u2", "a1", 1},
		{"u3", "legacy_bridge_volume", 0},
	}
	for _, p := range activityPoints {
		records = append(records, &storage.AccountActivityPoints{
			AccountAddress: "0x" + p.user,
			WeekId:         "w1",
			ActivityId:     p.activity,
			ActivityPoints: decimal.NewFromInt(p.points),
		})
	}

	for _, p := range LeaderboardFixturePoints {
		records = append(records, &storage.UserSeasonPoints{
			UserId:   p.UserId,
			SeasonId: p.SeasonId,
			WeekId:   p.WeekId,
			Points:   p.Points,
		})
	}
	return InsertRecords(grm, records...)
}

var LeaderboardFixturePoints = []*storage.UserSeasonPoints{
	{UserId: "u1", SeasonId: "s1", WeekId: "w1", Points: decimal.NewFromInt(10)},
	{UserId: "u2", SeasonId: "s1", WeekId: "w1", Points: decimal.NewFromInt(20)},
	{UserId: "u3", SeasonId: "s1", WeekId: "w1", Points: decimal.NewFromInt(5)},
	{UserId: "u4", SeasonId: "s1", WeekId: "w1", Points: decimal.Zero},
	{UserId: "u5", SeasonId: "s1", WeekId: "w1", Points: decimal.NewFromInt(1)},
	{UserId: "u1", SeasonId: "s1", WeekId: "w2", Points: decimal.NewFromInt(5)},
	{UserId: "u2", SeasonId: "s1", WeekId: "w2", Points: decimal.NewFromInt(2)},
	{UserId: "u3", SeasonId: "s1", WeekId: "w2", Points: decimal.NewFromInt(5)},
	{UserId: "u4", SeasonId: "s1", WeekId: "w2", Points: decimal.Zero},
	{UserId: "u1", SeasonId: "s2", WeekId: "w3", Points: decimal.NewFromInt(3)},
	{UserId: "u2", SeasonId: "s2", WeekId: "w3", Points: decimal.NewFromInt(7)},
	{UserId: "u3", SeasonId: "s2", WeekId: "w3", Points: decimal.NewFromInt(7)},
	{UserId: "u4", SeasonId: "s2", WeekId: "w3", Points: decimal.NewFromInt(1)},
	{UserId: "u5", SeasonId: "s2", WeekId: "w3", Points: decimal.NewFromInt(2)},
}
