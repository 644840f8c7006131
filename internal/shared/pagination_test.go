package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPaginationComputesTotalPages(t *testing.T) {
	p := NewPagination(1, 10, 47)
	require.Equal(t, 1, p.Page)
	require.Equal(t, 10, p.PerPage)
	require.Equal(t, 47, p.Total)
	require.Equal(t, 5, p.TotalPages)

	p = NewPagination(1, 10, 50)
	require.Equal(t, 5, p.TotalPages)

	p = NewPagination(1, 10, 0)
	require.Equal(t, 0, p.TotalPages)
}

func TestNewPaginationClampsPage(t *testing.T) {
	p := NewPagination(9, 10, 47)
	require.Equal(t, 5, p.Page)

	p = NewPagination(0, 10, 47)
	require.Equal(t, 1, p.Page)

	p = NewPagination(3, 0, 47)
	require.Equal(t, DefaultPageSize, p.PerPage)
}

func TestClampPage(t *testing.T) {
	require.Equal(t, 1, ClampPage(0, 5))
	require.Equal(t, 1, ClampPage(-3, 5))
	require.Equal(t, 5, ClampPage(9, 5))
	require.Equal(t, 3, ClampPage(3, 5))
	require.Equal(t, 7, ClampPage(7, 0))
}
