// Package config resolves itodo's effective configuration from built-in
// defaults, optional YAML config files and command-line overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/itodo/internal/model"
	"github.com/phobologic/itodo/internal/render"
)

// ErrInvalid reports a merged configuration that cannot drive a run.
var ErrInvalid = errors.New("invalid configuration")

// FileConfig names the config files read and written by a run.
type FileConfig struct {
	// FileIn is an additional YAML config file to merge.
	FileIn string `yaml:"file_in"`
	// FileOut, when set, receives the resolved configuration.
	FileOut string `yaml:"file_out"`
}

// TagsConfig lists the recognised tags in priority order.
type TagsConfig struct {
	List []string `yaml:"list"`
}

// ContextConfig controls the snippet captured after each match.
type ContextConfig struct {
	Enabled bool `yaml:"enabled"`
	Lines   int  `yaml:"lines"`
}

// ReadConfig controls discovery and scanning.
type ReadConfig struct {
	Tags           TagsConfig    `yaml:"tags"`
	SourceFiles    []string      `yaml:"SOURCE_FILES"`
	Exclude        []string      `yaml:"EXCLUDE"`
	MaxSearchLen   int           `yaml:"MAX_SEARCH_LEN"`
	Context        ContextConfig `yaml:"context"`
	Gitignore      bool          `yaml:"gitignore"`
	SkipUnreadable bool          `yaml:"skip_unreadable"`
}

// WriteConfig controls grouping and rendering of the report.
type WriteConfig struct {
	AttrSortOrder []string          `yaml:"attr_sort_order"`
	ItemFormat    string            `yaml:"item_format"`
	Languages     map[string]string `yaml:"languages"`
	HTML          string            `yaml:"html"`
}

// Config is the effective configuration of one run.
type Config struct {
	Config    FileConfig  `yaml:"config"`
	SearchDir string      `yaml:"searchDir"`
	FileTodo  string      `yaml:"file_todo"`
	Verbose   bool        `yaml:"verbose"`
	Read      ReadConfig  `yaml:"read"`
	Write     WriteConfig `yaml:"write"`
}

// DefaultTags is the built-in tag list, highest priority first.
var DefaultTags = []string{
	"CRIT",
	"TODO",
	"FIXME",
	"FIX",
	"BUG",
	"DEBUG",
	"UGLY",
	"HACK",
	"NOTE",
	"IDEA",
	"REVIEW",
	"OPTIMIZE",
	"CONFIG",
	"!!!",
	"OLD",
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Config: FileConfig{
			FileIn: "itodo.yml",
		},
		SearchDir: ".",
		FileTodo:  "todo-inline.md",
		Read: ReadConfig{
			Tags:         TagsConfig{List: append([]string(nil), DefaultTags...)},
			SourceFiles:  []string{"c", "cpp", "h", "hpp", "py", "m", "tex", "sh", "java", "js"},
			Exclude:      []string{"inline_todo.py", "itodo.yml", "todo-inline.md"},
			MaxSearchLen: 15,
			Context: ContextConfig{
				Enabled: true,
				Lines:   5,
			},
		},
		Write: WriteConfig{
			AttrSortOrder: []string{"tag", "file", "lineNum"},
			ItemFormat:    string(render.Detailed),
			Languages:     map[string]string{},
		},
	}
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	if len(c.Read.Tags.List) == 0 {
		return fmt.Errorf("%w: read.tags.list is empty", ErrInvalid)
	}
	for i, tag := range c.Read.Tags.List {
		if tag == "" {
			return fmt.Errorf("%w: read.tags.list[%d] is empty", ErrInvalid, i)
		}
	}
	if c.Read.MaxSearchLen < 1 {
		return fmt.Errorf("%w: read.MAX_SEARCH_LEN must be >= 1, got %d", ErrInvalid, c.Read.MaxSearchLen)
	}
	if c.Read.Context.Enabled && c.Read.Context.Lines < 1 {
		return fmt.Errorf("%w: read.context.lines must be >= 1, got %d", ErrInvalid, c.Read.Context.Lines)
	}
	if len(c.Write.AttrSortOrder) == 0 {
		return fmt.Errorf("%w: write.attr_sort_order is empty", ErrInvalid)
	}
	if _, err := model.ParseAttrs(c.Write.AttrSortOrder); err != nil {
		return fmt.Errorf("%w: write.attr_sort_order: %v", ErrInvalid, err)
	}
	if _, err := render.ParseFormat(c.Write.ItemFormat); err != nil {
		return fmt.Errorf("%w: write.item_format: %v (want %s or %s)", ErrInvalid, err, render.Terse, render.Detailed)
	}
	if c.FileTodo == "" {
		return fmt.Errorf("%w: file_todo is empty", ErrInvalid)
	}
	return nil
}

// Attrs returns the parsed write.attr_sort_order.
func (c *Config) Attrs() ([]model.Attr, error) {
	return model.ParseAttrs(c.Write.AttrSortOrder)
}

// YAML serializes the configuration in the same schema config files use.
func (c *Config) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}
