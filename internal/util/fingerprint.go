package util

import (
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

const fingerprintTail = 2048

// CalculateFileFingerprint returns the CRC32 of the last 2KB of a file.
// Fragment files are append-only JSONL, so the tail changes on every write.
func CalculateFileFingerprint(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return "", err
	}

	size := stat.Size()
	readSize := int64(fingerprintTail)
	if size < readSize {
		readSize = size
	}

	data := make([]byte, readSize)
	if _, err := file.ReadAt(data, size-readSize); err != nil && err != io.EOF {
		return "", err
	}

	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(data)), nil
}
