// Package report assembles the output document: YAML front matter with
// run metadata followed by the rendered markdown body.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/itodo/internal/model"
)

// Delimiter opens and closes the front matter block.
const Delimiter = "---"

// TimeLayout is the format of the updated field.
const TimeLayout = "2006-01-02 15:04:05"

const (
	defaultTitle  = "todo-inline"
	defaultSource = "https://github.com/knc-neural-calculus/knc-tools"
	defaultStyle  = "<style>\nbody {\n  max-width: 50em;\n}\n</style>"
	cmdComment    = "suggested command for conversion to html"
)

// Metadata summarizes one run.
type Metadata struct {
	SearchedFiles  int `yaml:"searched_files"`
	FilesWithTodos int `yaml:"files_with_todos"`
	NumItems       int `yaml:"num_items"`
	NumUniqueTags  int `yaml:"num_unique_tags"`
}

// Summarize counts searched files, files with items, items and distinct tags.
func Summarize(searched []string, items []model.Item) Metadata {
	files := make(map[string]struct{})
	tags := make(map[string]struct{})
	for _, it := range items {
		files[it.File] = struct{}{}
		tags[it.Tag] = struct{}{}
	}
	return Metadata{
		SearchedFiles:  len(searched),
		FilesWithTodos: len(files),
		NumItems:       len(items),
		NumUniqueTags:  len(tags),
	}
}

// Header is the front matter of a report.
type Header struct {
	Title          string   `yaml:"title"`
	Updated        string   `yaml:"updated"`
	Source         string   `yaml:"source"`
	HeaderIncludes string   `yaml:"header-includes"`
	Metadata       Metadata `yaml:"metadata"`
	Cmd            string   `yaml:"cmd"`
}

// NewHeader builds the front matter for a report written to fileTodo.
func NewHeader(fileTodo string, meta Metadata, now time.Time) Header {
	return Header{
		Title:          defaultTitle,
		Updated:        now.Format(TimeLayout),
		Source:         defaultSource,
		HeaderIncludes: defaultStyle,
		Metadata:       meta,
		Cmd:            SuggestedCommand(fileTodo),
	}
}

// SuggestedCommand is the pandoc invocation that converts fileTodo to HTML.
func SuggestedCommand(fileTodo string) string {
	name := filepath.Base(fileTodo)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return fmt.Sprintf(
		"pandoc %s -o %s.html --from markdown+backtick_code_blocks+fenced_code_attributes --standalone --toc --toc-depth 1",
		name, stem,
	)
}

// FrontMatter encodes h as YAML, with a comment above the cmd key.
func FrontMatter(h Header) ([]byte, error) {
	var node yaml.Node
	if err := node.Encode(h); err != nil {
		return nil, fmt.Errorf("encoding front matter: %w", err)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "cmd" {
			node.Content[i].HeadComment = cmdComment
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("encoding front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding front matter: %w", err)
	}
	return buf.Bytes(), nil
}

// Document returns the full report: delimited front matter, then body.
func Document(h Header, body string) ([]byte, error) {
	fm, err := FrontMatter(h)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(Delimiter + "\n")
	buf.Write(fm)
	buf.WriteString(Delimiter + "\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

// WriteFile writes the report to path, creating parent directories.
func WriteFile(path string, h Header, body string) error {
	doc, err := Document(h, body)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// ReadFrontMatter parses the front matter of an existing report. It
// returns an error wrapping os.ErrNotExist when there is no such file.
func ReadFrontMatter(path string) (*Header, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fm, _ := SplitFrontMatter(content)
	if fm == nil {
		return nil, fmt.Errorf("%s: no front matter", path)
	}
	var h Header
	if err := yaml.Unmarshal(fm, &h); err != nil {
		return nil, fmt.Errorf("%s: parsing front matter: %w", path, err)
	}
	return &h, nil
}

// SplitFrontMatter separates the front matter from the body. The front
// matter is nil when content does not open with a delimiter line.
func SplitFrontMatter(content []byte) ([]byte, []byte) {
	lines := strings.Split(string(content), "\n")
	if len(lines) < 3 || strings.TrimSpace(lines[0]) != Delimiter {
		return nil, content
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == Delimiter {
			frontmatter := []byte(strings.Join(lines[1:i], "\n"))
			body := []byte(strings.Join(lines[i+1:], "\n"))
			return frontmatter, body
		}
	}

	return nil, content
}
