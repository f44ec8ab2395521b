package leaderboard

import "fmt"

type ScopeKind string

const (
	ScopeKind_Season   ScopeKind = "season"
	ScopeKind_Category ScopeKind = "category"
)

type CacheScope struct {
	Kind       ScopeKind
	SeasonId   string
	CategoryId string
	WeekId     string
}

func SeasonCacheKey(seasonId string) string {
	return fmt.Sprintf("season:%s", seasonId)
}

func CategoryCacheKey(categoryId string, weekId string) string {
	return fmt.Sprintf("category:%s:week:%s", categoryId, weekId)
}

func (s *CacheScope) CacheKey() string {
	if s.Kind == ScopeKind_Season {
		return SeasonCacheKey(s.SeasonId)
	}
	return CategoryCacheKey(s.CategoryId, s.WeekId)
}
