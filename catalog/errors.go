package catalog

import "github.com/pkg/errors"

// ErrIdOverflow is returned when a slot, file, function, or basic-block
// identifier would not fit in its bit budget (spec.md §3, §4.2). It is
// fatal at compile time.
var ErrIdOverflow = errors.New("IdOverflow: identifier component exceeds its bit budget")

// wrapIO tags an underlying storage error as CatalogIO (spec.md §7):
// fatal, because the instrumentation engine cannot produce consistent
// IDs without the catalog.
func wrapIO(op string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, "CatalogIO: %s", op)
}
