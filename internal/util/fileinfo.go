package util

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// FileInfo identifies one version of a fragment file on disk.
type FileInfo struct {
	ModTime int64  // Unix seconds
	Size    int64  // Bytes
	Inode   uint64 // Changes when the file is replaced rather than appended to
}

// GetFileInfo stats path and returns its identity. Supported on Linux and macOS.
func GetFileInfo(path string) (*FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return nil, fmt.Errorf("failed to get file system information: %s: %w", path, err)
	}

	return &FileInfo{
		ModTime: stat.ModTime().Unix(),
		Size:    stat.Size(),
		Inode:   uint64(st.Ino),
	}, nil
}
