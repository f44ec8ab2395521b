package distribution

import "github.com/shopspring/decimal"

// DistributeSeasonPoints gives every member of a band pool*poolShare divided
// evenly among the band. Shares are not normalized, so the total handed out
// is pool * sum(poolShare of populated bands).
func DistributeSeasonPoints(pool decimal.Decimal, bands []*Band) []*UserPoints {
	distributed := make([]*UserPoints, 0)
	for _, band := range bands {
		if len(band.UserIds) == 0 {
			continue
		}
		bandTotal := pool.Mul(band.PoolShare)
		perUser := bandTotal.Div(decimal.NewFromInt(int64(len(band.UserIds))))
		for _, userId := range band.UserIds {
			distributed = append(distributed, &UserPoints{
				UserId: userId,
				Points: perUser,
			})
		}
	}
	return distributed
}
