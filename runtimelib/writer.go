package runtimelib

import (
	"bufio"
	"encoding/binary"
	"os"

	"github.com/maoif/trec/config"
)

// etx is the field separator the output format uses between the three
// leading text fields, matching the original's use of the ASCII ETX
// control character so that a cmdline or path containing a literal
// newline cannot be mistaken for a field boundary.
const etx = 0x03

// ModeByte encodes RuntimeConfig.Mode as the single byte the output
// format's header carries: 0 for time, 1 for cycle, 2 for insn, per
// spec.md §6 item 7.
func ModeByte(mode string) byte {
	switch mode {
	case "time":
		return 0
	case "cycle":
		return 1
	case "insn":
		return 2
	default:
		return 0xff
	}
}

// Header is the non-histogram prefix of one flush file.
type Header struct {
	Cmdline string
	Binpath string
	Pwd     string
	Mode    byte
}

// WriteSnapshot writes the full output file format to path: the header
// fields ETX-separated, a mode byte and the fixed per-histogram bucket
// count, then every recorded id followed by its bucket row, in the
// order iteration over rows yields them, read until EOF by the
// consumer. Each flush truncates and rewrites the file whole — there
// is no incremental append — per spec.md §4.8.
func WriteSnapshot(path string, h Header, rows map[uint64][]int64) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return wrapIO("open flush output", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	if err := writeField(w, h.Cmdline); err != nil {
		return err
	}
	if err := writeField(w, h.Binpath); err != nil {
		return err
	}
	if err := writeField(w, h.Pwd); err != nil {
		return err
	}
	if err := w.WriteByte(h.Mode); err != nil {
		return wrapIO("write mode byte", err)
	}

	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(config.BucketCount))
	if _, err := w.Write(countBuf[:]); err != nil {
		return wrapIO("write bucket count", err)
	}

	var idBuf [8]byte
	var bucketBuf [8]byte
	for id, row := range rows {
		binary.LittleEndian.PutUint64(idBuf[:], id)
		if _, err := w.Write(idBuf[:]); err != nil {
			return wrapIO("write id", err)
		}
		for _, v := range row {
			binary.LittleEndian.PutUint64(bucketBuf[:], uint64(v))
			if _, err := w.Write(bucketBuf[:]); err != nil {
				return wrapIO("write bucket", err)
			}
		}
	}

	if err := w.Flush(); err != nil {
		return wrapIO("flush output", err)
	}
	return f.Sync()
}

func writeField(w *bufio.Writer, s string) error {
	if _, err := w.WriteString(s); err != nil {
		return wrapIO("write field", err)
	}
	return w.WriteByte(etx)
}
