// Package scan extracts tagged lines from source files.
package scan

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/phobologic/itodo/internal/model"
)

// ErrNotText is returned for files that are not valid UTF-8.
var ErrNotText = errors.New("file is not valid UTF-8 text")

// Options configures tag matching.
type Options struct {
	// Tags in priority order; the first tag found on a line wins.
	Tags []string
	// MaxSearchLen is the number of leading characters searched per line.
	MaxSearchLen int
	// ContextLines is the size of the context window, current line
	// included. Zero disables context.
	ContextLines int
}

// File returns the items found in the file at path.
func File(path string, opts Options) ([]model.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotText)
	}
	return Lines(path, splitLines(string(data)), opts), nil
}

// Lines scans already-split lines attributed to file.
func Lines(file string, lines []string, opts Options) []model.Item {
	var items []model.Item
	for i, line := range lines {
		window := prefix(line, opts.MaxSearchLen)
		for _, tag := range opts.Tags {
			if tag == "" || !strings.Contains(window, tag) {
				continue
			}
			var context string
			if opts.ContextLines > 0 {
				context = Context(lines, i, opts.ContextLines)
			}
			items = append(items, model.NewItem(tag, file, i+1, line, context))
			break
		}
	}
	return items
}

// Context joins lines[idx:idx+max], stopping before the first blank line
// after idx.
func Context(lines []string, idx, max int) string {
	end := min(idx+max, len(lines))
	var out []string
	for i := idx; i < end; i++ {
		if strings.TrimSpace(lines[i]) == "" {
			if i > idx {
				break
			}
			continue
		}
		out = append(out, lines[i])
	}
	return strings.Join(out, "\n")
}

// Files scans each path in order. A failing file aborts the scan unless
// skipUnreadable is set, in which case it is logged and skipped.
func Files(paths []string, opts Options, skipUnreadable bool, logger *zap.Logger) ([]model.Item, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var items []model.Item
	for _, p := range paths {
		found, err := File(p, opts)
		if err != nil {
			if skipUnreadable {
				logger.Warn("skipping unreadable file", zap.String("file", p), zap.Error(err))
				continue
			}
			return nil, fmt.Errorf("scanning %s: %w", p, err)
		}
		logger.Debug("scanned file", zap.String("file", p), zap.Int("items", len(found)))
		items = append(items, found...)
	}
	return items, nil
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// prefix returns the first n characters of s.
func prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
