package util

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
)

// render turns an entry into a single line
func render(entry LogEntry, format LogFormat) (string, error) {
	if format == FormatJSON {
		data, err := sonic.Marshal(entry)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	line := fmt.Sprintf("%s [%s] %s", entry.Timestamp.Format("2006/01/02 15:04:05"), entry.Level, entry.Message)
	if len(entry.Fields) == 0 {
		return line, nil
	}

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, entry.Fields[k])
	}
	return line + " " + strings.Join(parts, " "), nil
}

// WriterOutput writes log lines to an io.Writer
type WriterOutput struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	format LogFormat
}

// NewConsoleOutput writes to w (usually stderr)
func NewConsoleOutput(w io.Writer, format LogFormat) *WriterOutput {
	return &WriterOutput{w: w, format: format}
}

// NewFileOutput appends to the file at path
func NewFileOutput(path string, format LogFormat) (*WriterOutput, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &WriterOutput{w: file, closer: file, format: format}, nil
}

func (o *WriterOutput) Write(entry LogEntry) error {
	line, err := render(entry, o.format)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	_, err = fmt.Fprintln(o.w, line)
	return err
}

func (o *WriterOutput) Close() error {
	if o.closer == nil {
		return nil
	}
	return o.closer.Close()
}
