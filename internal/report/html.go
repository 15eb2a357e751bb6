package report

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	// Detailed items embed <details> blocks.
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

// fenceAttrs matches a fence opener carrying a pandoc attribute block,
// such as ```{.python .numberLines startFrom="10"}.
var fenceAttrs = regexp.MustCompile("(?m)^([ \\t]*```)\\{\\.([\\w+#-]+)[^}\\n]*\\}[ \\t]*$")

// plainFences reduces pandoc attribute blocks to the bare language name
// goldmark understands. Line numbering is lost in the HTML rendering.
func plainFences(body string) string {
	return fenceAttrs.ReplaceAllString(body, "${1}${2}")
}

// HTML converts a report body to a standalone HTML page titled and styled
// from h.
func HTML(h Header, body string) ([]byte, error) {
	var content bytes.Buffer
	if err := markdown.Convert([]byte(plainFences(body)), &content); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&buf, "<title>%s</title>\n", html.EscapeString(h.Title))
	if h.HeaderIncludes != "" {
		buf.WriteString(h.HeaderIncludes)
		buf.WriteString("\n")
	}
	buf.WriteString("</head>\n<body>\n")
	buf.Write(content.Bytes())
	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes(), nil
}

// WriteHTML writes the HTML rendering of a report to path.
func WriteHTML(path string, h Header, body string) error {
	page, err := HTML(h, body)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, page, 0o644); err != nil {
		return fmt.Errorf("writing html: %w", err)
	}
	return nil
}
