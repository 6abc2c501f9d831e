package runtimelib

import "github.com/pkg/errors"

// wrapIO tags an I/O failure from the runtime library's flush path the
// way config.FatalDiagnostic expects to report it: a short operation
// label plus the underlying cause.
func wrapIO(op string, err error) error {
	return errors.Wrapf(err, "PerfRTIO: %s", op)
}

func errInvalidMode(mode string) error {
	return errors.Errorf("unsupported clock source mode %q", mode)
}
