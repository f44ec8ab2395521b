package baseDataService

import (
	"github.com/Layr-Labs/season-points/pkg/service/types"
	"gorm.io/gorm"
)

type BaseDataService struct {
	DB *gorm.DB
}

// Paginate applies limit/offset from pagination, falling back to the default page size.
func (b *BaseDataService) Paginate(query *gorm.DB, pagination *types.Pagination) *gorm.DB {
	if pagination == nil {
		pagination = types.NewDefaultPagination()
	}
	if pagination.PageSize == 0 {
		pagination.PageSize = types.DefaultPageSize
	}
	return query.Limit(int(pagination.PageSize)).Offset(pagination.Offset())
}
