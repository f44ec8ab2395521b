package distribution

import "github.com/shopspring/decimal"

// SupplyPercentileTrim drops the low-contribution tail of users.
//
// Users are stably sorted ascending by points and kept once their cumulative
// sum reaches lowerBound of the total (inclusive). A lowerBound above 1 keeps
// nobody. If the total is zero the result is empty.
func SupplyPercentileTrim(users []*UserPoints, lowerBound decimal.Decimal) []*UserPoints {
	sorted := sortedAscending(users)

	total := decimal.Zero
	for _, u := range sorted {
		total = total.Add(u.Points)
	}

	kept := make([]*UserPoints, 0, len(sorted))
	if !total.IsPositive() {
		return kept
	}

	// cumulative/total >= lowerBound, compared without dividing
	threshold := total.Mul(lowerBound)
	cumulative := decimal.Zero
	for _, u := range sorted {
		cumulative = cumulative.Add(u.Points)
		if cumulative.GreaterThanOrEqual(threshold) {
			kept = append(kept, u)
		}
	}
	return kept
}
