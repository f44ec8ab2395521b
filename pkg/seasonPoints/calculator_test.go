package seasonPoints

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Layr-Labs/season-points/internal/config"
	"github.com/Layr-Labs/season-points/internal/logger"
	"github.com/Layr-Labs/season-points/internal/metrics"
	"github.com/Layr-Labs/season-points/internal/tests"
	"github.com/Layr-Labs/season-points/internal/tests/sqlite"
	"github.com/Layr-Labs/season-points/pkg/configStore"
	"github.com/Layr-Labs/season-points/pkg/distribution"
	"github.com/Layr-Labs/season-points/pkg/service/userDataService"
	"github.com/Layr-Labs/season-points/pkg/storage"
	storagePostgres "github.com/Layr-Labs/season-points/pkg/storage/postgres"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func setup() (*config.Config, *gorm.DB, *zap.Logger, error) {
	cfg := tests.GetConfig()
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})

	grm, err := sqlite.GetMigratedSqliteDatabaseConnection(cfg, l)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, grm, l, nil
}

func newCalculator(grm *gorm.DB, l *zap.Logger, cfg *config.Config, store storage.PointsStore) (*SeasonPointsCalculator, *configStore.ConfigStore, error) {
	cs, err := configStore.NewConfigStore(grm, l, cfg)
	if err != nil {
		return nil, nil, err
	}
	uds := userDataService.NewUserDataService(grm, l, cfg)
	return NewSeasonPointsCalculator(store, uds, cs, metrics.NewNoopMetricsSink(), l, cfg), cs, nil
}

// hydrateSeason loads two seasons. w1 and w2 belong to the active season s1, w3 to the completed season s2.
//
// Category c1 has a pool of 1000 for w1 and two activities: a1 with a multiplier of 2 and
// a2 with no multiplier. Category c2 has an empty pool. u4 has no season multiplier record
// and u5 has no activity.
func hydrateSeason(grm *gorm.DB) error {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	week := 7 * 24 * time.Hour

	records := []interface{}{
		&storage.Season{Id: "s1", Name: "Season 1", Status: storage.SeasonStatus_Active},
		&storage.Season{Id: "s2", Name: "Season 0", Status: storage.SeasonStatus_Completed},
		&storage.Week{Id: "w1", SeasonId: "s1", StartDate: start, EndDate: start.Add(week), Status: storage.WeekStatus_Completed},
		&storage.Week{Id: "w2", SeasonId: "s1", StartDate: start.Add(week), EndDate: start.Add(2 * week), Status: storage.WeekStatus_Active},
		&storage.Week{Id: "w3", SeasonId: "s2", StartDate: start.Add(-week), EndDate: start, Status: storage.WeekStatus_Completed},
		&storage.ActivityCategory{Id: "c1", Name: "Trading"},
		&storage.ActivityCategory{Id: "c2", Name: "Bridging"},
		&storage.Activity{Id: "a1", Name: "Swap volume", CategoryId: "c1"},
		&storage.Activity{Id: "a2", Name: "Liquidity", CategoryId: "c1"},
		&storage.Activity{Id: "b1", Name: "Bridge volume", CategoryId: "c2"},
		&storage.ActivityCategoryWeek{CategoryId: "c1", WeekId: "w1", PointsPool: d("1000")},
		&storage.ActivityCategoryWeek{CategoryId: "c2", WeekId: "w1", PointsPool: decimal.Zero},
		&storage.ActivityWeek{ActivityId: "a1", WeekId: "w1", Multiplier: d("2")},
	}
	for _, u := range []string{"u1", "u2", "u3", "u4", "u5"} {
		records = append(records, &storage.User{Id: u})
	}
	accounts := map[string]string{"0x1a": "u1", "0x1b": "u1", "0x2": "u2", "0x3": "u3", "0x4": "u4", "0x5": "u5"}
	for _, address := range []string{"0x1a", "0x1b", "0x2", "0x3", "0x4", "0x5"} {
		records = append(records, &storage.Account{Address: address, UserId: accounts[address]})
	}
	points := []struct {
		address  string
		activity string
		points   string
	}{
		{"0x1a", "a1", "5"},
		{"0x1b", "a1", "5"},
		{"0x2", "a1", "20"},
		{"0x3", "a1", "1"},
		{"0x3", "a2", "10"},
		{"0x4", "a2", "7"},
		{"0x2", "b1", "100"},
	}
	for _, p := range points {
		records = append(records, &storage.AccountActivityPoints{
			AccountAddress: p.address,
			WeekId:         "w1",
			ActivityId:     p.activity,
			ActivityPoints: d(p.points),
		})
	}
	records = append(records,
		&storage.SeasonPointsMultiplier{UserId: "u1", WeekId: "w1", TotalTwaBalance: d("100"), Multiplier: d("1")},
		&storage.SeasonPointsMultiplier{UserId: "u2", WeekId: "w1", TotalTwaBalance: d("100"), Multiplier: d("2")},
		&storage.SeasonPointsMultiplier{UserId: "u3", WeekId: "w1", TotalTwaBalance: d("100"), Multiplier: d("1.5")},
		&storage.SeasonPointsMultiplier{UserId: "u5", WeekId: "w1", TotalTwaBalance: d("100"), Multiplier: d("1")},
	)
	return tests.InsertRecords(grm, records...)
}

func pointsByUser(t *testing.T, grm *gorm.DB, weekId string) map[string]decimal.Decimal {
	rows := make([]*storage.UserSeasonPoints, 0)
	res := grm.Model(&storage.UserSeasonPoints{}).Where("week_id = ?", weekId).Find(&rows)
	assert.Nil(t, res.Error)

	byUser := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		_, duplicate := byUser[r.UserId]
		assert.False(t, duplicate, "duplicate row for user %s", r.UserId)
		byUser[r.UserId] = r.Points
	}
	return byUser
}

func Test_SeasonPointsCalculator(t *testing.T) {
	cfg, grm, l, err := setup()
	if err != nil {
		t.Fatal(err)
	}
	if err := hydrateSeason(grm); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	store := storagePostgres.NewPostgresPointsStore(grm, l, cfg)
	spc, cs, err := newCalculator(grm, l, cfg, store)
	if err != nil {
		t.Fatal(err)
	}
	defer cs.Close()

	// c1 totals: u2 = 20*2 = 40, u1 = (5+5)*2 = 20, u3 = 1*2 + 10 = 12.
	// With 20 bands the three users land in bands 18, 19 and 20.
	expected := map[string]string{
		"u3": "15819",   // 1000 * 10.546 * 1.5
		"u1": "12127.9", // 1000 * 12.1279 * 1
		"u2": "27894.2", // 1000 * 13.9471 * 2
		"u4": "0",
		"u5": "0",
	}

	t.Run("Should aggregate activity points across accounts with an inclusive minimum", func(t *testing.T) {
		users, err := spc.AggregateActivityPoints(ctx, &ActivityPointsFilters{
			WeekId:     "w1",
			ActivityId: "a1",
			MinPoints:  d("10"),
			MinBalance: decimal.Zero,
		})
		assert.Nil(t, err)
		assert.Len(t, users, 2)
		assert.Equal(t, "u1", users[0].UserId)
		assert.True(t, d("10").Equal(users[0].Points))
		assert.Equal(t, "u2", users[1].UserId)
	})
	t.Run("Should exclude users below the minimum balance", func(t *testing.T) {
		users, err := spc.AggregateActivityPoints(ctx, &ActivityPointsFilters{
			WeekId:     "w1",
			ActivityId: "a2",
			MinPoints:  decimal.Zero,
			MinBalance: d("150"),
		})
		assert.Nil(t, err)
		assert.Empty(t, users)
	})
	t.Run("Should skip categories with an empty pool", func(t *testing.T) {
		params, err := spc.LoadPipelineParams(ctx)
		assert.Nil(t, err)

		categories, err := spc.CalculateCategoryPoints(ctx, "w1", params)
		assert.Nil(t, err)
		assert.Len(t, categories, 1)
		assert.Equal(t, "c1", categories[0].CategoryId)

		totals := map[string]decimal.Decimal{}
		for _, u := range categories[0].Users {
			totals[u.UserId] = u.Points
		}
		assert.Len(t, totals, 3)
		assert.True(t, d("20").Equal(totals["u1"]))
		assert.True(t, d("40").Equal(totals["u2"]))
		assert.True(t, d("12").Equal(totals["u3"]))
	})
	t.Run("Should reject missing input", func(t *testing.T) {
		err := spc.CalculateSeasonPointsForWeek(ctx, &CalculateSeasonPointsInput{})
		assert.True(t, IsValidationError(err))

		err = spc.CalculateSeasonPointsForWeek(ctx, nil)
		assert.True(t, IsValidationError(err))
	})
	t.Run("Should reject an unknown week", func(t *testing.T) {
		err := spc.CalculateSeasonPointsForWeek(ctx, &CalculateSeasonPointsInput{WeekId: "missing"})
		assert.True(t, IsValidationError(err))
		assert.False(t, IsInvalidStateError(err))
	})
	t.Run("Should refuse a completed season unless forced", func(t *testing.T) {
		err := spc.CalculateSeasonPointsForWeek(ctx, &CalculateSeasonPointsInput{WeekId: "w3"})
		assert.True(t, IsInvalidStateError(err))

		err = spc.CalculateSeasonPointsForWeek(ctx, &CalculateSeasonPointsInput{WeekId: "w3", Force: true})
		assert.Nil(t, err)
		assert.Len(t, pointsByUser(t, grm, "w3"), 5)
	})
	t.Run("Should write a row for every user", func(t *testing.T) {
		err := spc.CalculateSeasonPointsForWeek(ctx, &CalculateSeasonPointsInput{WeekId: "w1"})
		assert.Nil(t, err)

		byUser := pointsByUser(t, grm, "w1")
		assert.Len(t, byUser, len(expected))
		for userId, points := range expected {
			assert.True(t, d(points).Equal(byUser[userId]), "user %s: expected %s, got %s", userId, points, byUser[userId])
		}
	})
	t.Run("Should produce identical rows when re-run", func(t *testing.T) {
		err := spc.CalculateSeasonPointsForWeek(ctx, &CalculateSeasonPointsInput{WeekId: "w1", Force: true})
		assert.Nil(t, err)

		byUser := pointsByUser(t, grm, "w1")
		assert.Len(t, byUser, len(expected))
		for userId, points := range expected {
			assert.True(t, d(points).Equal(byUser[userId]))
		}
	})
	t.Run("Should apply parameter overrides from the config store", func(t *testing.T) {
		assert.Nil(t, cs.SetValue(ctx, config.SeasonPointsPercentileLowerBound, "0.5"))
		defer func() {
			assert.Nil(t, cs.SetValue(ctx, config.SeasonPointsPercentileLowerBound, "0"))
		}()

		err := spc.CalculateSeasonPointsForWeek(ctx, &CalculateSeasonPointsInput{WeekId: "w1"})
		assert.Nil(t, err)

		// cumulative shares are 12/72, 32/72 and 72/72, so only u2 survives the trim
		byUser := pointsByUser(t, grm, "w1")
		assert.Len(t, byUser, 5)
		assert.True(t, d("27894.2").Equal(byUser["u2"]))
		assert.True(t, byUser["u1"].IsZero())
		assert.True(t, byUser["u3"].IsZero())
	})
	t.Run("Should mark the week processed and refuse to run again", func(t *testing.T) {
		err := spc.CalculateSeasonPointsForWeek(ctx, &CalculateSeasonPointsInput{WeekId: "w1", MarkAsProcessed: true})
		assert.Nil(t, err)

		week, err := store.GetWeek(ctx, "w1")
		assert.Nil(t, err)
		assert.True(t, week.Processed)

		err = spc.CalculateSeasonPointsForWeek(ctx, &CalculateSeasonPointsInput{WeekId: "w1"})
		assert.True(t, IsInvalidStateError(err))

		err = spc.CalculateSeasonPointsForWeek(ctx, &CalculateSeasonPointsInput{WeekId: "w1", Force: true})
		assert.Nil(t, err)
	})
	t.Run("Should export season points as csv", func(t *testing.T) {
		var buf bytes.Buffer
		err := spc.ExportUserSeasonPoints(ctx, "w1", &buf)
		assert.Nil(t, err)

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		assert.Len(t, lines, 6)
		assert.Equal(t, "user_id,season_id,week_id,points", lines[0])
		assert.Equal(t, "u2,s1,w1,27894.200000", lines[1])

		err = spc.ExportUserSeasonPoints(ctx, "missing", &buf)
		assert.True(t, IsValidationError(err))
	})
}

type failingUpsertStore struct {
	storage.PointsStore
	calls  int
	failOn int
}

func (s *failingUpsertStore) UpsertUserSeasonPoints(ctx context.Context, rows []*storage.UserSeasonPoints) error {
	s.calls++
	if s.calls == s.failOn {
		return storage.WrapDataAccessError(errors.New("connection reset"), "UpsertUserSeasonPoints", "batch %d failed", s.calls)
	}
	return s.PointsStore.UpsertUserSeasonPoints(ctx, rows)
}

func Test_SeasonPointsCalculator_BatchFailure(t *testing.T) {
	cfg, grm, l, err := setup()
	if err != nil {
		t.Fatal(err)
	}
	if err := hydrateSeason(grm); err != nil {
		t.Fatal(err)
	}
	cfg.SeasonPointsConfig.UpsertBatchSize = 2
	cfg.SeasonPointsConfig.UserPageSize = 2

	store := &failingUpsertStore{
		PointsStore: storagePostgres.NewPostgresPointsStore(grm, l, cfg),
		failOn:      2,
	}
	spc, cs, err := newCalculator(grm, l, cfg, store)
	if err != nil {
		t.Fatal(err)
	}
	defer cs.Close()

	t.Run("Should stop at the first failing batch and keep earlier batches", func(t *testing.T) {
		err := spc.CalculateSeasonPointsForWeek(context.Background(), &CalculateSeasonPointsInput{WeekId: "w2"})
		assert.NotNil(t, err)
		assert.True(t, storage.IsDataAccessError(err))
		assert.Equal(t, 2, store.calls)

		assert.Len(t, pointsByUser(t, grm, "w2"), 2)

		week, err := store.GetWeek(context.Background(), "w2")
		assert.Nil(t, err)
		assert.False(t, week.Processed)
	})
}

func Test_DistributeCategoryPoints(t *testing.T) {
	params := &PipelineParams{
		NumberOfBands:        20,
		PoolShareStart:       d("0.98"),
		PoolShareStep:        d("1.15"),
		PercentileLowerBound: decimal.Zero,
	}

	t.Run("Should reward a single user at the top band", func(t *testing.T) {
		distributed := DistributeCategoryPoints(&CategoryUserPoints{
			CategoryId: "c1",
			PointsPool: d("100"),
			Users:      []*distribution.UserPoints{{UserId: "u1", Points: d("5")}},
		}, params)
		assert.Len(t, distributed, 1)
		assert.True(t, d("1394.71").Equal(distributed[0].Points))
	})
	t.Run("Should return nothing for a category without users", func(t *testing.T) {
		distributed := DistributeCategoryPoints(&CategoryUserPoints{CategoryId: "c1", PointsPool: d("100")}, params)
		assert.Empty(t, distributed)
	})
}

func Test_SeasonPointsCalculator_MultipleCategories(t *testing.T) {
	cfg, grm, l, err := setup()
	if err != nil {
		t.Fatal(err)
	}
	if err := hydrateSeason(grm); err != nil {
		t.Fatal(err)
	}
	res := grm.Model(&storage.ActivityCategoryWeek{}).
		Where("category_id = ? and week_id = ?", "c2", "w1").
		Update("points_pool", d("500"))
	if res.Error != nil {
		t.Fatal(res.Error)
	}

	ctx := context.Background()
	store := storagePostgres.NewPostgresPointsStore(grm, l, cfg)
	spc, cs, err := newCalculator(grm, l, cfg, store)
	if err != nil {
		t.Fatal(err)
	}
	defer cs.Close()

	t.Run("Should distribute every category with a pool", func(t *testing.T) {
		params, err := spc.LoadPipelineParams(ctx)
		assert.Nil(t, err)

		categories, err := spc.CalculateCategoryPoints(ctx, "w1", params)
		assert.Nil(t, err)
		assert.Len(t, categories, 2)

		byId := map[string]*CategoryUserPoints{}
		for _, c := range categories {
			byId[c.CategoryId] = c
		}
		assert.Len(t, byId["c2"].Users, 1)
		assert.Equal(t, "u2", byId["c2"].Users[0].UserId)
		assert.True(t, d("100").Equal(byId["c2"].Users[0].Points))
	})
	t.Run("Should sum a user's points across categories before the season multiplier", func(t *testing.T) {
		err := spc.CalculateSeasonPointsForWeek(ctx, &CalculateSeasonPointsInput{WeekId: "w1"})
		assert.Nil(t, err)

		// u2: c1 1000 * 13.9471 + c2 500 * 13.9471 = 20920.65, times 2
		expected := map[string]string{
			"u2": "41841.3",
			"u1": "12127.9",
			"u3": "15819",
			"u4": "0",
			"u5": "0",
		}
		byUser := pointsByUser(t, grm, "w1")
		assert.Len(t, byUser, len(expected))
		for userId, points := range expected {
			assert.True(t, d(points).Equal(byUser[userId]), "user %s: expected %s, got %s", userId, points, byUser[userId])
		}
	})
}

func Test_LoadPipelineParams(t *testing.T) {
	cfg, grm, l, err := setup()
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	store := storagePostgres.NewPostgresPointsStore(grm, l, cfg)
	spc, cs, err := newCalculator(grm, l, cfg, store)
	if err != nil {
		t.Fatal(err)
	}
	defer cs.Close()

	t.Run("Should load the configured defaults", func(t *testing.T) {
		params, err := spc.LoadPipelineParams(ctx)
		assert.Nil(t, err)
		assert.Equal(t, 20, params.NumberOfBands)
		assert.True(t, d("0.98").Equal(params.PoolShareStart))
		assert.True(t, d("1.15").Equal(params.PoolShareStep))
		assert.True(t, params.PercentileLowerBound.IsZero())
	})

	outOfRange := []struct {
		name  string
		key   string
		value string
		reset string
	}{
		{"a pool share step of 1", config.SeasonPointsPoolShareStep, "1", "1.15"},
		{"a pool share step below 1", config.SeasonPointsPoolShareStep, "0.9", "1.15"},
		{"a pool share start of 0", config.SeasonPointsPoolShareStart, "0", "0.98"},
		{"a negative pool share start", config.SeasonPointsPoolShareStart, "-0.5", "0.98"},
		{"a negative percentile lower bound", config.SeasonPointsPercentileLowerBound, "-0.1", "0"},
		{"a percentile lower bound above 1", config.SeasonPointsPercentileLowerBound, "1.5", "0"},
		{"a negative minimum balance", config.SeasonPointsMinTwaBalance, "-1", "0"},
		{"zero bands", config.SeasonPointsNumberOfBands, "0", "20"},
		{"an unparseable decimal", config.SeasonPointsPoolShareStep, "steep", "1.15"},
		{"an unparseable integer", config.SeasonPointsUpsertBatchSize, "many", "1000"},
	}
	for _, tc := range outOfRange {
		t.Run("Should reject "+tc.name, func(t *testing.T) {
			assert.Nil(t, cs.SetValue(ctx, tc.key, tc.value))
			defer func() {
				assert.Nil(t, cs.SetValue(ctx, tc.key, tc.reset))
			}()

			params, err := spc.LoadPipelineParams(ctx)
			assert.Nil(t, params)
			assert.True(t, IsValidationError(err), "expected a validation error, got %v", err)
		})
	}
	t.Run("Should count a rejected parameter as a validation failure of the run", func(t *testing.T) {
		assert.Nil(t, cs.SetValue(ctx, config.SeasonPointsPoolShareStep, "1"))
		defer func() {
			assert.Nil(t, cs.SetValue(ctx, config.SeasonPointsPoolShareStep, "1.15"))
		}()
		if err := hydrateSeason(grm); err != nil {
			t.Fatal(err)
		}

		err := spc.CalculateSeasonPointsForWeek(ctx, &CalculateSeasonPointsInput{WeekId: "w1"})
		assert.True(t, IsValidationError(err))
		assert.Equal(t, "validation", failureReason(err))
		assert.Empty(t, pointsByUser(t, grm, "w1"))
	})
}
