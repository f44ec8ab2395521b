package distribution

import "github.com/shopspring/decimal"

const poolSharePrecision = 4

// PoolShareForBand returns start * step^(bandNumber-1) rounded to 4 places.
func PoolShareForBand(bandNumber int, start decimal.Decimal, step decimal.Decimal) decimal.Decimal {
	share := start
	for i := 1; i < bandNumber; i++ {
		share = share.Mul(step)
	}
	return share.Round(poolSharePrecision)
}

// CreateUserBands partitions users into cfg.NumberOfBands ordinal bands by
// ascending points. Band 1 holds the lowest earners.
//
// When there are at least as many users as bands, every band gets
// len(users)/NumberOfBands members and the remainder is handed out one per
// band starting at band 1. When there are fewer users than bands, each user
// gets a band of their own at the top of the range, so the result covers
// bands NumberOfBands-len(users)+1 through NumberOfBands. Only populated bands
// are returned.
func CreateUserBands(users []*UserPoints, cfg *BandConfig) []*Band {
	bands := make([]*Band, 0)
	if len(users) == 0 || cfg.NumberOfBands <= 0 {
		return bands
	}

	sorted := sortedAscending(users)
	numberOfBands := cfg.NumberOfBands
	count := len(sorted)

	if count < numberOfBands {
		firstBand := numberOfBands - count + 1
		for i, u := range sorted {
			bandNumber := firstBand + i
			bands = append(bands, &Band{
				BandNumber: bandNumber,
				UserIds:    []string{u.UserId},
				PoolShare:  PoolShareForBand(bandNumber, cfg.PoolShareStart, cfg.PoolShareStep),
			})
		}
		return bands
	}

	baseSize := count / numberOfBands
	remainder := count % numberOfBands
	offset := 0
	for bandNumber := 1; bandNumber <= numberOfBands; bandNumber++ {
		size := baseSize
		if bandNumber <= remainder {
			size++
		}
		userIds := make([]string, 0, size)
		for _, u := range sorted[offset : offset+size] {
			userIds = append(userIds, u.UserId)
		}
		offset += size

		bands = append(bands, &Band{
			BandNumber: bandNumber,
			UserIds:    userIds,
			PoolShare:  PoolShareForBand(bandNumber, cfg.PoolShareStart, cfg.PoolShareStep),
		})
	}
	return bands
}
