package analyzer

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/penwyp/go-trend-sift/internal/data/cache"
	"github.com/penwyp/go-trend-sift/internal/util"
)

// cacheMissReasonString describes a miss reason for humans.
func cacheMissReasonString(r cache.CacheMissReason) string {
	switch r {
	case cache.MissReasonNone:
		return "none"
	case cache.MissReasonError:
		return "Cache read error"
	case cache.MissReasonInode:
		return "Fragment file replaced"
	case cache.MissReasonSize:
		return "Fragment file size changed"
	case cache.MissReasonModTime:
		return "Modification time changed"
	case cache.MissReasonFingerprint:
		return "Fragment file content changed"
	case cache.MissReasonNoFingerprint:
		return "Cached entry has no fingerprint"
	case cache.MissReasonNotFound:
		return "Cache not found"
	default:
		return "Unknown reason"
	}
}

// CacheStats counts how fragment files were loaded during one run.
type CacheStats struct {
	totalFiles  int64
	cacheHits   int64
	cacheMisses int64
	failures    int64
	mu          sync.Mutex
	missDetails []MissDetail
}

// MissDetail records why one file had to be parsed again
type MissDetail struct {
	FilePath string
	Reason   cache.CacheMissReason
}

func NewCacheStats() *CacheStats {
	return &CacheStats{
		missDetails: make([]MissDetail, 0),
	}
}

func (cs *CacheStats) IncrementTotal() {
	atomic.AddInt64(&cs.totalFiles, 1)
}

func (cs *CacheStats) IncrementHit() {
	atomic.AddInt64(&cs.cacheHits, 1)
}

// IncrementMiss counts a miss and remembers its reason
func (cs *CacheStats) IncrementMiss(filePath string, reason cache.CacheMissReason) {
	atomic.AddInt64(&cs.cacheMisses, 1)

	cs.mu.Lock()
	cs.missDetails = append(cs.missDetails, MissDetail{
		FilePath: filePath,
		Reason:   reason,
	})
	cs.mu.Unlock()
}

func (cs *CacheStats) IncrementFailure() {
	atomic.AddInt64(&cs.failures, 1)
}

// GetStats returns the counters and the hit rate in percent
func (cs *CacheStats) GetStats() (total, hits, misses, failures int64, hitRate float64) {
	total = atomic.LoadInt64(&cs.totalFiles)
	hits = atomic.LoadInt64(&cs.cacheHits)
	misses = atomic.LoadInt64(&cs.cacheMisses)
	failures = atomic.LoadInt64(&cs.failures)

	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	return
}

// MissReasons counts misses per reason.
func (cs *CacheStats) MissReasons() map[cache.CacheMissReason]int {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	counts := make(map[cache.CacheMissReason]int)
	for _, d := range cs.missDetails {
		counts[d.Reason]++
	}
	return counts
}

// LogProgress logs how many fragment files have been loaded so far
func (cs *CacheStats) LogProgress(processed int64) {
	total, hits, misses, failures, hitRate := cs.GetStats()
	util.LogDebugf("Fragment file progress: processed %d/%d files, cache hit rate: %.1f%% (%d hits/%d misses/%d failures)",
		processed, total, hitRate, hits, misses, failures)
}

// LogFinalStats logs the totals and one line per miss reason
func (cs *CacheStats) LogFinalStats() {
	total, hits, misses, failures, hitRate := cs.GetStats()

	util.LogDebug("Cache statistics complete",
		util.F("files", total),
		util.F("hits", hits),
		util.F("misses", misses),
		util.F("failures", failures),
		util.F("hit_rate", hitRate))

	if misses == 0 {
		return
	}

	reasons := cs.MissReasons()
	keys := make([]cache.CacheMissReason, 0, len(reasons))
	for r := range reasons {
		keys = append(keys, r)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, r := range keys {
		util.LogDebugf("  %s: %d files", cacheMissReasonString(r), reasons[r])
	}
}
