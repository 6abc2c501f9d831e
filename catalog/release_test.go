package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildReleaseChecksumsBinaryAndSlots(t *testing.T) {
	dir := t.TempDir()
	slot, err := AcquireSlot(dir)
	require.NoError(t, err)
	defer ReleaseSlot(dir, slot)

	store, err := OpenStore(dir, slot)
	require.NoError(t, err)
	_, err = store.GetFileID("/src/main.c")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	binPath := filepath.Join(dir, "app")
	require.NoError(t, os.WriteFile(binPath, []byte("not really an elf file"), 0o755))

	rel, err := BuildRelease(dir, binPath, []int64{slot}, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	require.NotEmpty(t, rel.BinaryChecksum)
	require.Len(t, rel.Slots, 1)
	require.Equal(t, slot, rel.Slots[0].Slot)
	require.NotEmpty(t, rel.Slots[0].Checksum)
}

func TestReleasePublish(t *testing.T) {
	var got Release
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	rel := &Release{BinaryChecksum: "deadbeef", Timestamp: time.Unix(1000, 0).UTC()}
	require.NoError(t, rel.Publish(srv.URL))
	require.Equal(t, "deadbeef", got.BinaryChecksum)
}

func TestReleasePublishRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	rel := &Release{BinaryChecksum: "deadbeef"}
	require.Error(t, rel.Publish(srv.URL))
}
