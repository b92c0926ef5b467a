package tlsf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapSizeLowClassIsSixteenWaySplit(t *testing.T) {
	cases := []struct {
		size   uint32
		l1, l2 int
	}{
		{0, 0, 0},
		{1, 0, 0},
		{63, 0, 0},
		{64, 0, 1},
		{65, 0, 1},
		{1023, 0, 15},
	}
	for _, c := range cases {
		l1, l2 := mapSize(c.size)
		require.Equal(t, c.l1, l1, "size %d l1", c.size)
		require.Equal(t, c.l2, l2, "size %d l2", c.size)
	}
}

func TestMapSizeAtClassBoundaries(t *testing.T) {
	l1, l2 := mapSize(1024)
	require.Equal(t, 1, l1)
	require.Equal(t, 0, l2)

	l1, l2 = mapSize(65536)
	require.Equal(t, 7, l1)
	require.Equal(t, 0, l2)
}

func TestMapSizeIsMonotonicInClassIndex(t *testing.T) {
	prevL1, prevL2 := 0, 0
	for size := uint32(1); size < 1<<20; size += 17 {
		l1, l2 := mapSize(size)
		require.False(t, l1 < prevL1 || (l1 == prevL1 && l2 < prevL2),
			"mapSize regressed at size %d: (%d,%d) < (%d,%d)", size, l1, l2, prevL1, prevL2)
		prevL1, prevL2 = l1, l2
	}
}

func TestBinRangeCoversTheSizeThatMapsIntoIt(t *testing.T) {
	for size := uint32(1); size < 1<<24; size += 131 {
		l1, l2 := mapSize(size)
		lo, hi := binRange(l1, l2)
		require.True(t, uint64(size) >= lo && uint64(size) < hi,
			"size %d maps to (%d,%d)=[%d,%d) which does not contain it", size, l1, l2, lo, hi)
	}
}
