package leaderboard

import (
	"errors"
	"fmt"
)

// NotFoundError means the referenced season, week or category does not exist.
type NotFoundError struct {
	Entity string
	Id     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Entity, e.Id)
}

// CacheNotAvailableError means the scope exists but its cache has not been
// built yet. Callers should retry after the next cache population.
type CacheNotAvailableError struct {
	CacheKey string
}

func (e *CacheNotAvailableError) Error() string {
	return fmt.Sprintf("leaderboard cache '%s' is not available yet", e.CacheKey)
}

func IsNotFoundError(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

func IsCacheNotAvailableError(err error) bool {
	var cna *CacheNotAvailableError
	return errors.As(err, &cna)
}
