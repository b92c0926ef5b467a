package tlsf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBinDirectoryStartsEmpty(t *testing.T) {
	d := newBinDirectory()
	require.Equal(t, int32(noBlock), d.head(0, 0))
	require.Equal(t, int32(noBlock), d.head(21, 15))
	require.Equal(t, -1, d.findNextL1(0))
}

func TestSetHeadAndBitmapsAgree(t *testing.T) {
	d := newBinDirectory()
	d.setHead(3, 5, 42)
	d.setL2(3, 5)

	require.Equal(t, int32(42), d.head(3, 5))
	require.Equal(t, 3, d.findNextL1(0))
	require.Equal(t, 5, d.findNextL2(3, 0))
}

func TestClearL2ReportsWhenWordBecomesZero(t *testing.T) {
	d := newBinDirectory()
	d.setL2(2, 0)
	d.setL2(2, 1)

	require.False(t, d.clearL2(2, 0))
	require.Equal(t, 2, d.findNextL1(0), "L1 bit must still be set while L2 bit 1 remains")

	require.True(t, d.clearL2(2, 1))
	require.Equal(t, -1, d.findNextL1(0), "L1 bit must clear once the last L2 bit clears")
}

func TestFindNextL1SkipsToHigherClass(t *testing.T) {
	d := newBinDirectory()
	d.setL2(10, 0)
	require.Equal(t, 10, d.findNextL1(0))
	require.Equal(t, 10, d.findNextL1(10))
	require.Equal(t, -1, d.findNextL1(11))
}

func TestFindNextL2SkipsToHigherSubclass(t *testing.T) {
	d := newBinDirectory()
	d.setL2(0, 3)
	d.setL2(0, 9)

	require.Equal(t, 3, d.findNextL2(0, 0))
	require.Equal(t, 9, d.findNextL2(0, 4))
	require.Equal(t, -1, d.findNextL2(0, 10))
}
