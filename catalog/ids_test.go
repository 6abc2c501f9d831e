package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComposeFIDLayout(t *testing.T) {
	fid, err := ComposeFID(3, 5, 7)
	require.NoError(t, err)
	require.Equal(t, int64(3), SlotOf(fid))
	require.Equal(t, uint64(5), (fid>>24)&0xffffff)
	require.Equal(t, uint64(7), fid&0xffffff)
	require.Positive(t, fid)
}

func TestComposeFIDOverflow(t *testing.T) {
	cases := []struct {
		slot, file, fn int64
	}{
		{0, 1, 1},
		{1 << 16, 1, 1},
		{1, 0, 1},
		{1, 1 << 24, 1},
		{1, 1, 0},
		{1, 1, 1 << 24},
	}
	for _, c := range cases {
		_, err := ComposeFID(c.slot, c.file, c.fn)
		require.ErrorIs(t, err, ErrIdOverflow)
	}
}

func TestComposeBBIDLayout(t *testing.T) {
	bbid, err := ComposeBBID(3, 42)
	require.NoError(t, err)
	require.Equal(t, int64(3), SlotOf(bbid))
	require.Equal(t, uint64(42), bbid&0xffffffffffff)
	require.Positive(t, bbid)
}

func TestComposeBBIDOverflow(t *testing.T) {
	_, err := ComposeBBID(0, 1)
	require.ErrorIs(t, err, ErrIdOverflow)
	_, err = ComposeBBID(1, 0)
	require.ErrorIs(t, err, ErrIdOverflow)
	_, err = ComposeBBID(1, 1<<48)
	require.ErrorIs(t, err, ErrIdOverflow)
}
