package queryUtils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_RenderQueryTemplate(t *testing.T) {
	t.Run("Should substitute variables", func(t *testing.T) {
		query, err := RenderQueryTemplate(`select {{ .column }} from {{ .table }}`, map[string]string{
			"column": "user_id",
			"table":  "season_leaderboard_cache",
		})
		assert.Nil(t, err)
		assert.Equal(t, "select user_id from season_leaderboard_cache", query)
	})
	t.Run("Should return an error for a malformed template", func(t *testing.T) {
		_, err := RenderQueryTemplate(`select {{ .column `, map[string]string{})
		assert.NotNil(t, err)
	})
}
