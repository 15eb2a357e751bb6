// Package render turns items and grouping trees into markdown.
package render

import (
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/phobologic/itodo/internal/lang"
	"github.com/phobologic/itodo/internal/model"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown item format")

// Format selects how a single item is written.
type Format string

const (
	// Terse writes a checkbox with the content and line number.
	Terse Format = "terse"
	// Detailed adds a collapsible, line-numbered code block of the context.
	Detailed Format = "detailed"
)

// TabWidth is the number of spaces a tab expands to in context blocks.
const TabWidth = 4

const terseItem = " - [ ] {{.Content}} \n\t(line {{.LineNum}})\n"

const detailedItem = terseItem +
	"\t\n" +
	"\t<details>\n" +
	"\t```{.{{.Lang}} .numberLines startFrom=\"{{.LineNum}}\"}\n" +
	"{{.Context}}\n" +
	"\t```\n" +
	"\t</details>\n"

// ParseFormat accepts a format name or one of its legacy aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.TrimSpace(name) {
	case string(Terse), "md":
		return Terse, nil
	case string(Detailed), "md_det":
		return Detailed, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownFormat, name)
}

// Renderer writes items in one format.
type Renderer struct {
	format Format
	tmpl   *template.Template
	langs  lang.Registry
}

type itemData struct {
	Content string
	LineNum int
	Lang    string
	Context string
}

// New returns a Renderer for format. langs is consulted only by the
// detailed format; nil means the built-in table.
func New(format Format, langs lang.Registry) (*Renderer, error) {
	var text string
	switch format {
	case Terse:
		text = terseItem
	case Detailed:
		text = detailedItem
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, string(format))
	}
	if langs == nil {
		langs = lang.NewRegistry(nil)
	}
	tmpl, err := template.New(string(format)).Parse(text)
	if err != nil {
		return nil, err
	}
	return &Renderer{format: format, tmpl: tmpl, langs: langs}, nil
}

// Item renders one item. The detailed format fails for files whose
// extension has no registered language.
func (r *Renderer) Item(it model.Item) (string, error) {
	data := itemData{Content: it.Content(), LineNum: it.LineNum}
	if r.format == Detailed {
		name, err := r.langs.ForPath(it.File)
		if err != nil {
			return "", err
		}
		data.Lang = name
		data.Context = ProcessContext(it.Context, TabWidth)
	}

	var b strings.Builder
	if err := r.tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("executing %s template: %w", r.format, err)
	}
	return b.String(), nil
}

// ProcessContext expands tabs, removes the indentation shared by every
// line and indents each line by one tab.
func ProcessContext(context string, tabWidth int) string {
	lines := strings.Split(context, "\n")
	spaces := strings.Repeat(" ", tabWidth)

	shared := -1
	for i, l := range lines {
		l = strings.ReplaceAll(l, "\t", spaces)
		lines[i] = l
		lead := len(l) - len(strings.TrimLeft(l, " "))
		if shared < 0 || lead < shared {
			shared = lead
		}
	}

	for i, l := range lines {
		lines[i] = "\t" + l[shared:]
	}
	return strings.Join(lines, "\n")
}

// Body writes the grouping tree as markdown. Branch labels become headers
// one level deeper than their parent; each item is followed by a newline.
func Body(root *model.Branch) string {
	var b strings.Builder
	for _, c := range root.Children {
		writeNode(&b, c, 1)
	}
	return b.String()
}

func writeNode(b *strings.Builder, n model.Node, level int) {
	switch v := n.(type) {
	case *model.Branch:
		fmt.Fprintf(b, "%s %s\n", strings.Repeat("#", level), v.Label)
		for _, c := range v.Children {
			writeNode(b, c, level+1)
		}
	case *model.Leaf:
		for _, item := range v.Items {
			b.WriteString(item)
			b.WriteString("\n")
		}
	}
}
