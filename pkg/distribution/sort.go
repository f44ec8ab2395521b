package distribution

import "sort"

// sortedAscending returns a copy of users stably sorted by points ascending.
// Users with equal points keep their input order.
func sortedAscending(users []*UserPoints) []*UserPoints {
	sorted := make([]*UserPoints, len(users))
	copy(sorted, users)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Points.LessThan(sorted[j].Points)
	})
	return sorted
}
