// Package discover finds the source files itodo scans.
package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// Options selects which files under the root are returned.
type Options struct {
	// Extensions without the leading dot, matched case-sensitively.
	Extensions []string
	// Exclude entries are joined to the root (absolute entries are used as
	// is) and any file whose path starts with the result is dropped.
	Exclude []string
	// Gitignore drops files matched by <root>/.gitignore.
	Gitignore bool
}

// Files returns forward-slash paths of the matching files under root,
// each prefixed by root the same way filepath.Join would. Hidden files,
// hidden directories and symlinks are skipped. The result is sorted.
func Files(root string, opts Options) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("search root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}

	prefixes := ExcludePrefixes(root, opts.Exclude)

	var gi *ignore.GitIgnore
	if opts.Gitignore {
		gi = loadGitignore(root)
	}

	var results []string

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		if !hasExtension(name, opts.Extensions) {
			return nil
		}

		if gi != nil {
			rel, err := filepath.Rel(root, path)
			if err == nil && gi.MatchesPath(rel) {
				return nil
			}
		}

		p := filepath.ToSlash(path)
		if Excluded(p, prefixes) {
			return nil
		}

		results = append(results, p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(results)
	return results, nil
}

// ExcludePrefixes converts exclude entries into forward-slash path prefixes
// comparable with the paths Files returns. A trailing slash on an entry is
// kept so "build/" does not also exclude "builder.py".
func ExcludePrefixes(root string, exclude []string) []string {
	prefixes := make([]string, 0, len(exclude))
	for _, ex := range exclude {
		if ex == "" {
			continue
		}
		p := ex
		if !filepath.IsAbs(ex) {
			p = filepath.Join(root, ex)
		}
		p = filepath.ToSlash(filepath.Clean(p))
		if strings.HasSuffix(filepath.ToSlash(ex), "/") && !strings.HasSuffix(p, "/") {
			p += "/"
		}
		prefixes = append(prefixes, p)
	}
	return prefixes
}

// Excluded reports whether path starts with any of the prefixes.
func Excluded(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func hasExtension(name string, exts []string) bool {
	for _, ext := range exts {
		ext = strings.TrimPrefix(ext, ".")
		if ext != "" && strings.HasSuffix(name, "."+ext) {
			return true
		}
	}
	return false
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
