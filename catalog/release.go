package catalog

import (
	"bytes"
	"crypto/sha512"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// SlotManifest records the checksum of one job slot's debuginfo<slot>.db,
// so that external post-mortem tooling (out of scope for this module) can
// confirm it has the catalog generation matching a given binary, without
// this module carrying any symbolication logic itself.
type SlotManifest struct {
	Slot     int64  `json:"slot"`
	Checksum string `json:"checksum"`
}

// Release is the manifest published after a build's job slots have all
// been released. It is grounded on the teacher's release/release.go
// Release type, with ELF/DWARF symbol extraction dropped: this catalog
// already carries file and function names textually, so re-deriving
// them from a compiled binary would be link-time symbolication, which
// is out of scope for this profiler (spec.md §1 Non-goals).
type Release struct {
	BinaryChecksum string         `json:"binary_checksum"`
	Slots          []SlotManifest `json:"slots"`
	Timestamp      time.Time      `json:"timestamp"`
}

func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "open file for checksum")
	}
	defer f.Close()

	h := sha512.New512_224()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrap(err, "hash file")
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// BuildRelease checksums binaryPath and every slot's debuginfo<slot>.db
// under dir, producing a Release manifest. ts is supplied by the caller
// (rather than time.Now()) so callers can make the manifest's timestamp
// deterministic in tests.
func BuildRelease(dir, binaryPath string, slots []int64, ts time.Time) (*Release, error) {
	binSum, err := checksumFile(binaryPath)
	if err != nil {
		return nil, err
	}

	rel := &Release{BinaryChecksum: binSum, Timestamp: ts}
	for _, slot := range slots {
		path := debuginfoPath(dir, slot)
		sum, err := checksumFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "checksum slot %d", slot)
		}
		rel.Slots = append(rel.Slots, SlotManifest{Slot: slot, Checksum: sum})
	}
	return rel, nil
}

// Publish POSTs the release manifest as JSON to url. It is a thin,
// synchronous HTTP call, matching the teacher's cmd/release/main.go POST
// flow; failures are returned to the caller rather than terminating the
// process, since publishing a release manifest is advisory tooling, not
// part of the catalog's correctness (spec.md §7 only treats CatalogIO
// during compilation as fatal).
func (r *Release) Publish(url string) error {
	body, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return errors.Wrap(err, "marshal release manifest")
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build release request")
	}
	req.Header.Set("content-type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "send release request")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errors.Errorf("release endpoint returned %s", resp.Status)
	}
	return nil
}

// WriteFile writes the manifest as indented JSON to path, used by
// cmd/trec-release when TREC_RELEASE_URL is unset.
func (r *Release) WriteFile(path string) error {
	body, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return errors.Wrap(err, "marshal release manifest")
	}
	return os.WriteFile(path, body, 0o644)
}

// AbsBinaryPath resolves path the way cmd/trec-release receives it on the
// command line: relative to the process's working directory.
func AbsBinaryPath(path string) (string, error) {
	return filepath.Abs(path)
}
