package fsutil

import (
	"bytes"
	"io"
	"os"
)

// BinaryPrefixSize is the maximum number of leading bytes inspected when
// classifying a file as text or binary (spec.md §4.2).
const BinaryPrefixSize = 8 * 1024

// ReadFileHead returns up to limit bytes from the beginning of path.
func ReadFileHead(path string, limit int64) ([]byte, error) {
	if limit <= 0 {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	return io.ReadAll(io.LimitReader(f, limit))
}

// IsBinaryPrefix classifies a byte prefix as binary. A file is binary iff
// any NUL byte appears in the prefix; this is the entire rule spec.md §4.2
// specifies, deliberately simpler than extension allow-lists or
// printable-byte ratios.
func IsBinaryPrefix(prefix []byte) bool {
	return bytes.IndexByte(prefix, 0) != -1
}

// IsBinaryFile reads up to BinaryPrefixSize bytes of path and classifies it.
func IsBinaryFile(path string) (bool, error) {
	head, err := ReadFileHead(path, BinaryPrefixSize)
	if err != nil {
		return false, err
	}
	return IsBinaryPrefix(head), nil
}
