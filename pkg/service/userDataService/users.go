package userDataService

import (
	"context"

	"github.com/Layr-Labs/season-points/internal/config"
	"github.com/Layr-Labs/season-points/pkg/service/baseDataService"
	"github.com/Layr-Labs/season-points/pkg/service/types"
	"github.com/Layr-Labs/season-points/pkg/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserDataService struct {
	baseDataService.BaseDataService
	db           *gorm.DB
	logger       *zap.Logger
	globalConfig *config.Config
}

func NewUserDataService(
	db *gorm.DB,
	logger *zap.Logger,
	globalConfig *config.Config,
) *UserDataService {
	return &UserDataService{
		BaseDataService: baseDataService.BaseDataService{
			DB: db,
		},
		db:           db,
		logger:       logger,
		globalConfig: globalConfig,
	}
}

type ListUsersResult struct {
	Users []*storage.User `json:"users"`
	Total int64           `json:"total"`
}

// ListUsers returns one page of users ordered by id along with the total user count.
func (uds *UserDataService) ListUsers(ctx context.Context, pagination *types.Pagination) (*ListUsersResult, error) {
	var total int64
	res := uds.db.WithContext(ctx).Model(&storage.User{}).Count(&total)
	if res.Error != nil {
		return nil, storage.WrapDataAccessError(res.Error, "ListUsers", "failed to count users")
	}

	users := make([]*storage.User, 0)
	query := uds.db.WithContext(ctx).Model(&storage.User{}).Order("id asc")
	res = uds.Paginate(query, pagination).Find(&users)
	if res.Error != nil {
		return nil, storage.WrapDataAccessError(res.Error, "ListUsers", "failed to list users")
	}

	return &ListUsersResult{
		Users: users,
		Total: total,
	}, nil
}
