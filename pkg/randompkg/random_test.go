package randompkg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntBetween(t *testing.T) {
	t.Parallel()

	for i := 0; i < 1000; i++ {
		got := IntBetween(1, 100)
		require.GreaterOrEqual(t, got, int32(1))
		require.Less(t, got, int32(100))
	}
}

func TestString(t *testing.T) {
	t.Parallel()

	require.Len(t, String(32), 32)
}
