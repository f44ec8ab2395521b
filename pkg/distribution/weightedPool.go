package distribution

import "github.com/shopspring/decimal"

// DistributeWeightedPoints splits pool across items in proportion to weight.
//
// Items with a weight of zero or less are dropped from the result. The last
// remaining item receives pool minus everything allocated before it, so the
// returned points always sum to pool exactly.
func DistributeWeightedPoints(pool decimal.Decimal, items []*WeightedItem) []*AllocatedPoints {
	weighted := make([]*WeightedItem, 0, len(items))
	totalWeight := decimal.Zero
	for _, item := range items {
		if !item.Weight.IsPositive() {
			continue
		}
		weighted = append(weighted, item)
		totalWeight = totalWeight.Add(item.Weight)
	}

	allocated := make([]*AllocatedPoints, 0, len(weighted))
	if len(weighted) == 0 {
		return allocated
	}

	distributed := decimal.Zero
	for i, item := range weighted {
		var points decimal.Decimal
		if i == len(weighted)-1 {
			points = pool.Sub(distributed)
		} else {
			points = pool.Mul(item.Weight).Div(totalWeight)
		}
		distributed = distributed.Add(points)
		allocated = append(allocated, &AllocatedPoints{
			Id:     item.Id,
			Points: points,
		})
	}
	return allocated
}
