package runtimelib

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
)

// ReadSnapshot parses a file written by WriteSnapshot back into its
// Header and per-id bucket rows. It is the reporter package's only way
// to inspect flushed data, since runtimelib itself never reads its own
// output back in the profiled process.
func ReadSnapshot(path string) (Header, map[uint64][]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, wrapIO("open snapshot", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var h Header
	if h.Cmdline, err = readField(r); err != nil {
		return Header{}, nil, err
	}
	if h.Binpath, err = readField(r); err != nil {
		return Header{}, nil, err
	}
	if h.Pwd, err = readField(r); err != nil {
		return Header{}, nil, err
	}
	if h.Mode, err = r.ReadByte(); err != nil {
		return Header{}, nil, wrapIO("read mode byte", err)
	}

	var countBuf [4]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return Header{}, nil, wrapIO("read bucket count", err)
	}
	bucketCount := int(binary.LittleEndian.Uint32(countBuf[:]))

	rows := make(map[uint64][]int64)
	var idBuf [8]byte
	var bucketBuf [8]byte
	for {
		_, err := io.ReadFull(r, idBuf[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return Header{}, nil, wrapIO("read id", err)
		}
		id := binary.LittleEndian.Uint64(idBuf[:])

		row := make([]int64, bucketCount)
		for i := 0; i < bucketCount; i++ {
			if _, err := io.ReadFull(r, bucketBuf[:]); err != nil {
				return Header{}, nil, wrapIO("read bucket", err)
			}
			row[i] = int64(binary.LittleEndian.Uint64(bucketBuf[:]))
		}
		rows[id] = row
	}

	return h, rows, nil
}

func readField(r *bufio.Reader) (string, error) {
	s, err := r.ReadString(etx)
	if err != nil {
		return "", wrapIO("read field", err)
	}
	return s[:len(s)-1], nil
}
