// Package lang maps source file extensions to the language names used in
// fenced code block attributes.
package lang

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrUnknownExtension is returned when no language is registered for a file.
var ErrUnknownExtension = errors.New("no language registered for extension")

var builtin = map[string]string{
	"c":    "c",
	"h":    "c",
	"cpp":  "cpp",
	"hpp":  "cpp",
	"cxx":  "cpp",
	"hxx":  "cpp",
	"py":   "python",
	"m":    "c",
	"tex":  "latex",
	"tikz": "latex",
	"sh":   "shell",
	"java": "java",
	"js":   "javascript",
}

// Registry maps extensions (without the leading dot) to language names.
type Registry map[string]string

// NewRegistry returns the built-in table extended by extra.
// Entries in extra win over built-ins.
func NewRegistry(extra map[string]string) Registry {
	r := make(Registry, len(builtin)+len(extra))
	for ext, name := range builtin {
		r[ext] = name
	}
	for ext, name := range extra {
		r[strings.TrimPrefix(ext, ".")] = name
	}
	return r
}

// ForExtension returns the language for ext, or "" if unsupported.
func (r Registry) ForExtension(ext string) string {
	return r[strings.TrimPrefix(ext, ".")]
}

// ForPath returns the language for the extension of a forward-slash path.
func (r Registry) ForPath(p string) (string, error) {
	ext := Extension(p)
	name := r.ForExtension(ext)
	if name == "" {
		return "", fmt.Errorf("%w %q (%s)", ErrUnknownExtension, ext, p)
	}
	return name, nil
}

// Extension returns the final extension of p without the dot.
func Extension(p string) string {
	return strings.TrimPrefix(path.Ext(p), ".")
}
