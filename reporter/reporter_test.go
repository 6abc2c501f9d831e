package reporter

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/maoif/trec/config"
	"github.com/maoif/trec/runtimelib"
	"github.com/stretchr/testify/require"
)

func TestBrokersFromEnv(t *testing.T) {
	require.Nil(t, BrokersFromEnv(""))
	require.Equal(t, []string{"a:9092", "b:9092"}, BrokersFromEnv("a:9092,b:9092"))
}

func TestCollectAggregatesAcrossSnapshotFiles(t *testing.T) {
	dir := t.TempDir()

	rowsA := map[uint64][]int64{5: make([]int64, config.BucketCount)}
	rowsA[5][1] = 2 // two observations in bucket 1

	rowsB := map[uint64][]int64{5: make([]int64, config.BucketCount)}
	rowsB[5][3] = 1 // one observation in bucket 3

	header := runtimelib.Header{Mode: runtimelib.ModeByte(config.ModeTime)}
	require.NoError(t, runtimelib.WriteSnapshot(filepath.Join(dir, "trec_perf_app_1.bin"), header, rowsA))
	require.NoError(t, runtimelib.WriteSnapshot(filepath.Join(dir, "trec_perf_app_2.bin"), header, rowsB))

	summary, err := Collect(dir, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	require.Len(t, summary.Functions, 1)

	f := summary.Functions[0]
	require.Equal(t, uint64(5), f.ID)
	require.Equal(t, int64(3), f.Observations)
	require.InDelta(t, (2.0*1+1.0*3)/3.0, f.MeanBucket, 0.0001)
}

func TestCollectEmptyDirYieldsNoFunctions(t *testing.T) {
	dir := t.TempDir()
	summary, err := Collect(dir, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	require.Empty(t, summary.Functions)
	require.NotEmpty(t, summary.UUID)
}

func TestCollectRejectsMissingDir(t *testing.T) {
	_, err := Collect(filepath.Join(t.TempDir(), "absent"), time.Now())
	require.Error(t, err)
}
