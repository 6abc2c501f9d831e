package runtimelib

import (
	"path/filepath"
	"testing"

	"github.com/maoif/trec/config"
	"github.com/stretchr/testify/require"
)

func TestReadSnapshotRoundTripsWriteSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")

	rows := map[uint64][]int64{
		7:  make([]int64, config.BucketCount),
		11: make([]int64, config.BucketCount),
	}
	rows[7][0] = 3
	rows[11][config.BucketCount-1] = 9

	want := Header{Cmdline: "trec-run ./app", Binpath: "/opt/app", Pwd: "/home/x", Mode: ModeByte(config.ModeCycle)}
	require.NoError(t, WriteSnapshot(path, want, rows))

	got, gotRows, err := ReadSnapshot(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, rows, gotRows)
}
