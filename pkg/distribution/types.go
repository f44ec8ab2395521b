// Package distribution holds the pure arithmetic stages of the season points
// pipeline. Nothing here touches storage; every value is an exact decimal.
package distribution

import "github.com/shopspring/decimal"

type UserPoints struct {
	UserId string
	Points decimal.Decimal
}

type WeightedItem struct {
	Id     string
	Weight decimal.Decimal
}

type AllocatedPoints struct {
	Id     string
	Points decimal.Decimal
}

type Band struct {
	BandNumber int
	// UserIds are in ascending points order.
	UserIds   []string
	PoolShare decimal.Decimal
}

type BandConfig struct {
	NumberOfBands  int
	PoolShareStart decimal.Decimal
	PoolShareStep  decimal.Decimal
}
