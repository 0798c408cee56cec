package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root, rel string) string {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte("{}\n"), 0644))
	return full
}

func TestNewFileScanner(t *testing.T) {
	s := NewFileScanner("/tmp/fragments")

	assert.Equal(t, "/tmp/fragments", s.baseDir)
	assert.Equal(t, ".jsonl", s.ext)
}

func TestScanEmptyDirectory(t *testing.T) {
	files, err := NewFileScanner(t.TempDir()).Scan()

	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScanNonExistentDirectory(t *testing.T) {
	files, err := NewFileScanner("/path/that/does/not/exist").Scan()

	require.NoError(t, err, "missing directories are skipped, not fatal")
	assert.Empty(t, files)
}

func TestScanFindsFragmentFiles(t *testing.T) {
	dir := t.TempDir()
	want := []string{
		touch(t, dir, "flu/US.jsonl"),
		touch(t, dir, "flu/world.JSONL"),
		touch(t, dir, "covid.jsonl"),
	}
	touch(t, dir, "notes.txt")
	touch(t, dir, "flu/export.csv")

	files, err := NewFileScanner(dir).Scan()

	require.NoError(t, err)
	assert.ElementsMatch(t, want, files)
}

func TestScanIsSorted(t *testing.T) {
	dir := t.TempDir()
	c := touch(t, dir, "c.jsonl")
	a := touch(t, dir, "a.jsonl")
	b := touch(t, dir, "b/x.jsonl")

	files, err := NewFileScanner(dir).Scan()

	require.NoError(t, err)
	assert.Equal(t, []string{a, b, c}, files)
}

func TestScanSkipsHiddenDirectories(t *testing.T) {
	dir := t.TempDir()
	visible := touch(t, dir, "kw.jsonl")
	touch(t, dir, ".cache/kw.jsonl")

	files, err := NewFileScanner(dir).Scan()

	require.NoError(t, err)
	assert.Equal(t, []string{visible}, files)
}

func TestScanHiddenBaseDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".fragments")
	f := touch(t, dir, "kw.jsonl")

	files, err := NewFileScanner(dir).Scan()

	require.NoError(t, err)
	assert.Equal(t, []string{f}, files)
}
