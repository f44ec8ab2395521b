package userDataService

import (
	"context"
	"fmt"
	"testing"

	"github.com/Layr-Labs/season-points/internal/logger"
	"github.com/Layr-Labs/season-points/internal/tests"
	"github.com/Layr-Labs/season-points/internal/tests/sqlite"
	"github.com/Layr-Labs/season-points/pkg/service/types"
	"github.com/Layr-Labs/season-points/pkg/storage"
	"github.com/stretchr/testify/assert"
)

func Test_UserDataService(t *testing.T) {
	cfg := tests.GetConfig()
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})

	grm, err := sqlite.GetMigratedSqliteDatabaseConnection(cfg, l)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		if err := tests.InsertRecords(grm, &storage.User{Id: fmt.Sprintf("user-%d", i)}); err != nil {
			t.Fatal(err)
		}
	}

	uds := NewUserDataService(grm, l, cfg)

	t.Run("Should page through users in id order", func(t *testing.T) {
		first, err := uds.ListUsers(context.Background(), &types.Pagination{Page: 0, PageSize: 2})
		assert.Nil(t, err)
		assert.Equal(t, int64(5), first.Total)
		assert.Len(t, first.Users, 2)
		assert.Equal(t, "user-0", first.Users[0].Id)

		last, err := uds.ListUsers(context.Background(), &types.Pagination{Page: 2, PageSize: 2})
		assert.Nil(t, err)
		assert.Len(t, last.Users, 1)
		assert.Equal(t, "user-4", last.Users[0].Id)

		past, err := uds.ListUsers(context.Background(), &types.Pagination{Page: 3, PageSize: 2})
		assert.Nil(t, err)
		assert.Empty(t, past.Users)
	})
	t.Run("Should use the default page size when none is given", func(t *testing.T) {
		res, err := uds.ListUsers(context.Background(), nil)
		assert.Nil(t, err)
		assert.Len(t, res.Users, 5)
	})
}
