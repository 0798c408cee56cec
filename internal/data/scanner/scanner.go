package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/penwyp/go-trend-sift/internal/util"
)

const fragmentExt = ".jsonl"

// FileScanner finds fragment files below a directory.
type FileScanner struct {
	baseDir string
	ext     string
}

// NewFileScanner creates a scanner for baseDir
func NewFileScanner(baseDir string) *FileScanner {
	return &FileScanner{
		baseDir: baseDir,
		ext:     fragmentExt,
	}
}

// Scan returns every fragment file below the base directory in lexical
// order. Hidden directories are skipped and unreadable entries are
// logged and ignored.
func (s *FileScanner) Scan() ([]string, error) {
	start := time.Now()
	var files []string
	dirCount := 0
	totalCount := 0

	util.LogDebugf("Start scanning directory: %s", s.baseDir)

	err := filepath.Walk(s.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			util.LogDebugf("Skip file (error): %s - %v", path, err)
			return nil
		}

		if info.IsDir() {
			if path != s.baseDir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			dirCount++
			return nil
		}

		totalCount++
		if strings.HasSuffix(strings.ToLower(path), s.ext) {
			files = append(files, path)
		}
		return nil
	})

	sort.Strings(files)

	util.LogDebug("File scan completed",
		util.F("duration", time.Since(start)),
		util.F("dirs", dirCount),
		util.F("files", totalCount),
		util.F("fragment_files", len(files)))

	return files, err
}
