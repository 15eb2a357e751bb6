package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrBadOverride reports a command-line override that cannot be applied.
var ErrBadOverride = errors.New("bad config override")

// Options controls Resolve.
type Options struct {
	// Args are command-line overrides in key.subkey=value form.
	Args []string
	// Executable is the running binary, excluded from scanning when set.
	Executable string
	// DefaultFile is the config file always tried first. Empty means
	// the built-in config.file_in.
	DefaultFile string
	Logger      *zap.Logger
}

// Resolve merges, in increasing priority, the built-in defaults, the
// default config file, the config file named on the command line and the
// command-line overrides. Config files that are missing or malformed are
// skipped with a warning.
func Resolve(opts Options) (*Config, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cli, err := ParseOverrides(opts.Args)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	defaultFile := opts.DefaultFile
	if defaultFile == "" {
		defaultFile = cfg.Config.FileIn
	}

	layers := []*Layer{loadOptional(defaultFile, false, logger)}
	if cli.Config != nil && cli.Config.FileIn != nil && *cli.Config.FileIn != defaultFile {
		layers = append(layers, loadOptional(*cli.Config.FileIn, true, logger))
	}
	layers = append(layers, cli)

	for _, l := range layers {
		cfg.Apply(l)
	}

	cfg.addDefaultExcludes(opts.Executable)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("resolved configuration",
		zap.String("searchDir", cfg.SearchDir),
		zap.String("file_todo", cfg.FileTodo),
		zap.Strings("exclude", cfg.Read.Exclude))
	return cfg, nil
}

// addDefaultExcludes keeps the report, the config files and the tool
// itself out of the scan. Empty entries are dropped.
func (c *Config) addDefaultExcludes(executable string) {
	candidates := append(c.Read.Exclude, c.FileTodo, c.Config.FileIn, c.Config.FileOut, executable)
	excludes := make([]string, 0, len(candidates))
	for _, ex := range candidates {
		if ex != "" {
			excludes = append(excludes, ex)
		}
	}
	c.Read.Exclude = excludes
}

func loadOptional(path string, explicit bool, logger *zap.Logger) *Layer {
	l, err := LoadFile(path)
	switch {
	case err == nil:
		logger.Debug("loaded config file", zap.String("file", path))
		return l
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		logger.Debug("no config file", zap.String("file", path))
		return nil
	default:
		logger.Warn("ignoring config file", zap.String("file", path), zap.Error(err))
		return nil
	}
}

// LoadFile reads a YAML config file into a Layer. Unknown keys and
// mistyped values are errors.
func LoadFile(path string) (*Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	l, err := decodeLayer(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return l, nil
}

func decodeLayer(data []byte) (*Layer, error) {
	var l Layer
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&l); err != nil {
		if errors.Is(err, io.EOF) {
			return &Layer{}, nil
		}
		return nil, err
	}
	return &l, nil
}

// ParseOverrides turns key.subkey=value arguments into a Layer. Values of
// string settings are taken verbatim. Lists accept YAML flow form,
// read.tags.list=[TODO,BUG], and other settings are decoded as YAML.
func ParseOverrides(args []string) (*Layer, error) {
	tree := map[string]any{}
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q is not key=value", ErrBadOverride, arg)
		}
		path := strings.Split(key, ".")
		if err := insert(tree, path, parseValue(path, raw)); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadOverride, key, err)
		}
	}
	if len(tree) == 0 {
		return &Layer{}, nil
	}

	data, err := yaml.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadOverride, err)
	}
	l, err := decodeLayer(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadOverride, err)
	}
	return l, nil
}

// parseValue converts raw according to the type of the setting at path.
// "null" and "~" leave any setting absent. Unknown paths are decoded as
// YAML and rejected later by decodeLayer.
func parseValue(path []string, raw string) any {
	if raw == "null" || raw == "~" {
		return nil
	}
	t, ok := settingType(path)
	switch {
	case ok && t.Kind() == reflect.String:
		return raw
	case ok && t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.String:
		return parseList(raw)
	}
	return parseYAML(raw)
}

func parseYAML(raw string) any {
	if raw == "" {
		return ""
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

// parseList reads a string list. Flow sequences that are not valid YAML,
// such as [TODO,!!!], are split on commas; a bare value is a one-item list.
func parseList(raw string) []string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return []string{}
	}
	var list []string
	if err := yaml.Unmarshal([]byte(s), &list); err == nil {
		return list
	}
	inner, ok := strings.CutPrefix(s, "[")
	if ok {
		inner, ok = strings.CutSuffix(inner, "]")
	}
	if !ok {
		return []string{s}
	}
	list = []string{}
	for _, part := range strings.Split(inner, ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	return list
}

// settingType returns the type of the Layer setting named by path, with
// pointers removed.
func settingType(path []string) (reflect.Type, bool) {
	t := reflect.TypeOf(Layer{})
	for _, part := range path {
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		switch t.Kind() {
		case reflect.Struct:
			f, ok := fieldByYAMLName(t, part)
			if !ok {
				return nil, false
			}
			t = f.Type
		case reflect.Map:
			t = t.Elem()
		default:
			return nil, false
		}
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t, true
}

func fieldByYAMLName(t reflect.Type, name string) (reflect.StructField, bool) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if tag == name {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

func insert(tree map[string]any, path []string, value any) error {
	for i, part := range path {
		if part == "" {
			return errors.New("empty key segment")
		}
		if i == len(path)-1 {
			if _, isMap := tree[part].(map[string]any); isMap {
				return fmt.Errorf("%q already has sub-keys", part)
			}
			tree[part] = value
			return nil
		}
		next, exists := tree[part]
		if !exists {
			child := map[string]any{}
			tree[part] = child
			tree = child
			continue
		}
		child, isMap := next.(map[string]any)
		if !isMap {
			return fmt.Errorf("%q is already set to a value", part)
		}
		tree = child
	}
	return nil
}

// Save writes the configuration as YAML to path.
func (c *Config) Save(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
