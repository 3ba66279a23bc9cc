package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTotalPages(t *testing.T) {
	require.Equal(t, 1, TotalPages(0, 10))
	require.Equal(t, 1, TotalPages(10, 10))
	require.Equal(t, 2, TotalPages(11, 10))
	require.Equal(t, 1, TotalPages(5, 0))
}

func TestClampAndValidatePage(t *testing.T) {
	require.Equal(t, 1, ClampPage(0, 25, 10))
	require.Equal(t, 3, ClampPage(9, 25, 10))
	require.Equal(t, 2, ClampPage(2, 25, 10))

	require.NoError(t, ValidatePage(3, 25, 10))
	require.ErrorIs(t, ValidatePage(4, 25, 10), ErrPageOutOfRange)
	require.ErrorIs(t, ValidatePage(0, 25, 10), ErrPageOutOfRange)
	require.NoError(t, ValidatePage(1, 0, 10))
}
