package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Pagination(t *testing.T) {
	t.Run("Should start at the first page with the default size", func(t *testing.T) {
		p := NewDefaultPagination()
		assert.Equal(t, uint32(DefaultPage), p.Page)
		assert.Equal(t, uint32(DefaultPageSize), p.PageSize)
		assert.Equal(t, 0, p.Offset())
	})
	t.Run("Should keep the page size when loading a page without one", func(t *testing.T) {
		p := NewDefaultPagination()
		p.Load(0, 25)
		p.Load(p.Page+1, 0)

		assert.Equal(t, uint32(1), p.Page)
		assert.Equal(t, uint32(25), p.PageSize)
		assert.Equal(t, 25, p.Offset())
	})
}
