package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-trend-sift/internal/core/model"
	"github.com/penwyp/go-trend-sift/internal/util"
)

// Parser decodes fragment files: one JSON encoded model.RawFragment per line.
type Parser struct {
	concurrency int
}

// FileFragments is what one file yields. Skipped counts lines that were not
// valid fragment records.
type FileFragments struct {
	Fragments []model.RawFragment
	Skipped   int
}

// ParseResult represents the result of parsing a single file.
type ParseResult struct {
	File    string
	Content FileFragments
	Error   error
}

// NewParser creates a new Parser instance.
func NewParser(concurrency int) *Parser {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Parser{concurrency: concurrency}
}

// ParseFile reads every record in path. Lines that fail to decode, or that
// describe an empty or inverted window, are skipped.
func (p *Parser) ParseFile(path string) (FileFragments, error) {
	util.LogDebugf("Start parsing file: %s", path)

	file, err := os.Open(path)
	if err != nil {
		util.LogDebugf("Failed to open file: %s - %v", path, err)
		return FileFragments{}, err
	}
	defer file.Close()

	var out FileFragments
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	lineCount := 0
	for scanner.Scan() {
		lineCount++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var raw model.RawFragment
		if err := sonic.Unmarshal(line, &raw); err != nil {
			util.LogDebugf("Skip invalid JSON line %s:%d - %v", path, lineCount, err)
			out.Skipped++
			continue
		}
		if err := checkRecord(raw); err != nil {
			util.LogDebugf("Skip invalid record %s:%d - %v", path, lineCount, err)
			out.Skipped++
			continue
		}
		out.Fragments = append(out.Fragments, raw)
	}

	if err := scanner.Err(); err != nil {
		util.LogDebugf("Error scanning file: %s - %v", path, err)
		return FileFragments{}, err
	}

	return out, nil
}

func checkRecord(raw model.RawFragment) error {
	if raw.Keyword == "" {
		return fmt.Errorf("missing keyword")
	}
	if raw.Start.IsZero() || raw.End.IsZero() {
		return fmt.Errorf("missing window bounds")
	}
	if !raw.End.After(raw.Start) {
		return fmt.Errorf("window end %s is not after start %s", raw.End, raw.Start)
	}
	return nil
}

// ParseFiles parses files with bounded concurrency. The channel is closed
// once every file has been reported.
func (p *Parser) ParseFiles(files []string) <-chan ParseResult {
	start := time.Now()
	results := make(chan ParseResult, len(files))
	var wg sync.WaitGroup

	util.LogDebugf("Start concurrent parsing of %d files, concurrency: %d", len(files), p.concurrency)

	semaphore := make(chan struct{}, p.concurrency)

	for _, file := range files {
		wg.Add(1)
		go func(f string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			fileStart := time.Now()
			content, err := p.ParseFile(f)
			if err != nil {
				util.LogDebugf("File parsing failed: %s, duration %v - %v", f, time.Since(fileStart), err)
			}

			results <- ParseResult{
				File:    f,
				Content: content,
				Error:   err,
			}
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
		util.LogDebugf("Concurrent parsing finished, total duration: %v", time.Since(start))
	}()

	return results
}
