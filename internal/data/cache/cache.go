package cache

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/penwyp/go-trend-sift/internal/data/aggregator"
	"github.com/penwyp/go-trend-sift/internal/util"
)

const cacheExt = ".json.zst"

type CacheMissReason int

const (
	MissReasonNone CacheMissReason = iota
	MissReasonError
	MissReasonInode
	MissReasonSize
	MissReasonModTime
	MissReasonFingerprint
	MissReasonNoFingerprint
	MissReasonNotFound
)

func (r CacheMissReason) String() string {
	switch r {
	case MissReasonNone:
		return "none"
	case MissReasonError:
		return "error"
	case MissReasonInode:
		return "inode"
	case MissReasonSize:
		return "size"
	case MissReasonModTime:
		return "modtime"
	case MissReasonFingerprint:
		return "fingerprint"
	case MissReasonNoFingerprint:
		return "no_fingerprint"
	case MissReasonNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

type CacheResult struct {
	Data       *aggregator.AggregatedData
	Found      bool
	MissReason CacheMissReason
}

type Cache interface {
	Get(filePath string) CacheResult
	Set(data *aggregator.AggregatedData) error
	Clear() error
	Preload() error
}

// FileCache keeps entries on disk, one compressed file per source file,
// with an in-memory layer in front.
type FileCache struct {
	baseDir     string
	codec       *codec
	mu          sync.RWMutex
	memoryCache map[string]*aggregator.AggregatedData
}

// NewFileCache creates baseDir if needed. level selects the zstd preset (1-4).
func NewFileCache(baseDir string, level int) (*FileCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	c, err := newCodec(level)
	if err != nil {
		return nil, err
	}

	return &FileCache{
		baseDir:     baseDir,
		codec:       c,
		memoryCache: make(map[string]*aggregator.AggregatedData),
	}, nil
}

// Close releases the compressor.
func (c *FileCache) Close() {
	c.codec.close()
}

// cacheKey names the cache file for a source path. Source files in different
// directories often share a base name, so the path hash comes first.
// e.g. "/data/flu/US.jsonl" -> "1f3a9c0e5b7d2a64-US"
func cacheKey(filePath string) string {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		abs = filePath
	}
	h := fnv.New64a()
	h.Write([]byte(abs))
	base := filepath.Base(filePath)
	return fmt.Sprintf("%016x-%s", h.Sum64(), strings.TrimSuffix(base, filepath.Ext(base)))
}

func (c *FileCache) pathFor(key string) string {
	return filepath.Join(c.baseDir, key+cacheExt)
}

func (c *FileCache) Get(filePath string) CacheResult {
	key := cacheKey(filePath)

	c.mu.Lock()
	defer c.mu.Unlock()

	if memData, exists := c.memoryCache[key]; exists {
		if ret := c.validateCachedData(memData); ret.cached {
			return CacheResult{Data: memData, Found: true, MissReason: MissReasonNone}
		}
		delete(c.memoryCache, key)
	}

	return c.getFromFile(key)
}

// getFromFile must be called with c.mu held for writing.
func (c *FileCache) getFromFile(key string) CacheResult {
	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		return CacheResult{MissReason: MissReasonNotFound}
	}

	entry, err := c.codec.decode(data)
	if err != nil {
		util.LogDebugf("Cache entry %s unreadable: %v", key, err)
		return CacheResult{MissReason: MissReasonError}
	}

	if ret := c.validateCachedData(entry); !ret.cached {
		return CacheResult{MissReason: ret.reason}
	}

	c.memoryCache[key] = entry
	return CacheResult{Data: entry, Found: true, MissReason: MissReasonNone}
}

type ValidateResult struct {
	cached bool
	reason CacheMissReason
}

func (c *FileCache) validateCachedData(data *aggregator.AggregatedData) ValidateResult {
	currentInfo, err := util.GetFileInfo(data.FilePath)
	if err != nil {
		util.LogDebugf("Cache validation failed for %s: unable to get file info: %v", data.FilePath, err)
		return ValidateResult{cached: false, reason: MissReasonError}
	}

	// Step 1: Check inode/size/modtime
	if currentInfo.Inode != data.Inode {
		util.LogDebugf("Cache invalidated for %s: inode changed (cached: %d, current: %d)",
			data.FilePath, data.Inode, currentInfo.Inode)
		return ValidateResult{cached: false, reason: MissReasonInode}
	}
	if currentInfo.Size != data.FileSize {
		util.LogDebugf("Cache invalidated for %s: size changed (cached: %d, current: %d)",
			data.FilePath, data.FileSize, currentInfo.Size)
		return ValidateResult{cached: false, reason: MissReasonSize}
	}
	if currentInfo.ModTime != data.LastModified {
		util.LogDebugf("Cache invalidated for %s: modtime changed (cached: %d, current: %d)",
			data.FilePath, data.LastModified, currentInfo.ModTime)
		return ValidateResult{cached: false, reason: MissReasonModTime}
	}

	// Step 2: Files untouched for two days are settled
	modTime := time.Unix(currentInfo.ModTime, 0)
	if time.Since(modTime) > 48*time.Hour {
		return ValidateResult{cached: true, reason: MissReasonNone}
	}

	// Step 3: Check content fingerprint
	if data.ContentFingerprint == "" {
		util.LogDebugf("Cache invalidated for %s: no fingerprint in cached data", data.FilePath)
		return ValidateResult{cached: false, reason: MissReasonNoFingerprint}
	}

	fingerprint, err := util.CalculateFileFingerprint(data.FilePath)
	if err != nil {
		util.LogDebugf("Cache invalidated for %s: unable to calculate fingerprint: %v", data.FilePath, err)
		return ValidateResult{cached: false, reason: MissReasonNoFingerprint}
	}
	if fingerprint != data.ContentFingerprint {
		util.LogDebugf("Cache invalidated for %s: fingerprint mismatch (cached: %s, current: %s)",
			data.FilePath, data.ContentFingerprint, fingerprint)
		return ValidateResult{cached: false, reason: MissReasonFingerprint}
	}
	return ValidateResult{cached: true, reason: MissReasonNone}
}

// Set stamps entry with the current identity of its source file and stores it.
func (c *FileCache) Set(entry *aggregator.AggregatedData) error {
	fileInfo, err := util.GetFileInfo(entry.FilePath)
	if err != nil {
		return err
	}

	entry.LastModified = fileInfo.ModTime
	entry.FileSize = fileInfo.Size
	entry.Inode = fileInfo.Inode
	if fingerprint, err := util.CalculateFileFingerprint(entry.FilePath); err == nil {
		entry.ContentFingerprint = fingerprint
	}

	data, err := c.codec.encode(entry)
	if err != nil {
		return err
	}

	key := cacheKey(entry.FilePath)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.WriteFile(c.pathFor(key), data, 0644); err != nil {
		return err
	}
	c.memoryCache[key] = entry
	return nil
}

func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.memoryCache = make(map[string]*aggregator.AggregatedData)

	return filepath.Walk(c.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, cacheExt) {
			os.Remove(path)
		}
		return nil
	})
}

func (c *FileCache) listCacheFiles() ([]string, error) {
	var files []string
	err := filepath.Walk(c.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, cacheExt) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// Preload decodes every cache file concurrently and keeps the entries that
// still match their source file.
func (c *FileCache) Preload() error {
	util.LogDebug("Start preloading cache files into memory")

	cacheFiles, err := c.listCacheFiles()
	if err != nil {
		return fmt.Errorf("failed to scan cache directory: %w", err)
	}
	if len(cacheFiles) == 0 {
		util.LogDebug("Cache directory is empty, skipping preload")
		return nil
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > len(cacheFiles) {
		numWorkers = len(cacheFiles)
	}
	util.LogDebugf("Found %d cache files, loading with %d workers", len(cacheFiles), numWorkers)

	filesChan := make(chan string, len(cacheFiles))
	resultsChan := make(chan preloadResult, len(cacheFiles))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go c.preloadWorker(filesChan, resultsChan, &wg)
	}

	for _, file := range cacheFiles {
		filesChan <- file
	}
	close(filesChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	loaded, invalid, errs := 0, 0, 0

	c.mu.Lock()
	for result := range resultsChan {
		switch {
		case result.err != nil:
			errs++
			util.LogWarn("Failed to preload cache file", util.F("file", result.filePath), util.F("error", result.err))
		case c.validateCachedData(result.entry).cached:
			c.memoryCache[result.key] = result.entry
			loaded++
		default:
			invalid++
		}
	}
	c.mu.Unlock()

	util.LogDebug("Cache preload complete",
		util.F("loaded", loaded),
		util.F("invalid", invalid),
		util.F("errors", errs),
		util.F("total", len(cacheFiles)))
	return nil
}

type preloadResult struct {
	filePath string
	key      string
	entry    *aggregator.AggregatedData
	err      error
}

func (c *FileCache) preloadWorker(filesChan <-chan string, resultsChan chan<- preloadResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for filePath := range filesChan {
		result := preloadResult{
			filePath: filePath,
			key:      strings.TrimSuffix(filepath.Base(filePath), cacheExt),
		}

		data, err := os.ReadFile(filePath)
		if err != nil {
			result.err = err
			resultsChan <- result
			continue
		}

		result.entry, result.err = c.codec.decode(data)
		resultsChan <- result
	}
}

// GetCacheStats reports how many entries are in memory and on disk.
func (c *FileCache) GetCacheStats() (memoryCount, fileCount int) {
	c.mu.RLock()
	memoryCount = len(c.memoryCache)
	c.mu.RUnlock()

	files, _ := c.listCacheFiles()
	return memoryCount, len(files)
}
