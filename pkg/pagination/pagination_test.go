package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromQuery(t *testing.T) {
	assert.Nil(t, FromQuery("", ""))

	params := FromQuery("3", "")
	require.NotNil(t, params)
	assert.Equal(t, 3, params.Page)
	assert.Equal(t, DefaultPerPage, params.PerPage)
	assert.Equal(t, 2*DefaultPerPage, params.Offset())

	params = FromQuery("abc", "1000")
	require.NotNil(t, params)
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, MaxPerPage, params.PerPage)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 25)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)

	h := p.Headers()
	assert.Equal(t, "25", h["X-Total-Count"])
	assert.Equal(t, "2", h["X-Page"])
	assert.Equal(t, "3", h["X-Total-Pages"])
}
