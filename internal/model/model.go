// Package model defines core data structures for itodo.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownAttr is returned by ParseAttr for names outside the closed set.
var ErrUnknownAttr = errors.New("unknown item attribute")

// Item is one tag occurrence found in a source file.
type Item struct {
	Tag     string
	File    string // forward-slash path as returned by discovery
	LineNum int    // 1-based
	Line    string // raw line text without the line terminator
	Context string

	content string
}

// NewItem builds an Item and derives its content from line and tag.
// An empty context falls back to the line itself.
func NewItem(tag, file string, lineNum int, line, context string) Item {
	if context == "" {
		context = line
	}
	return Item{
		Tag:     tag,
		File:    file,
		LineNum: lineNum,
		Line:    line,
		Context: context,
		content: extractContent(line, tag),
	}
}

// Content is the text following the tag, with leading colons and
// surrounding whitespace removed. It is computed once in NewItem.
func (it Item) Content() string {
	return it.content
}

func (it Item) String() string {
	return fmt.Sprintf("[ %s\t:\t%s\t:\t%d ]\t%s", it.Tag, it.File, it.LineNum, it.content)
}

func extractContent(line, tag string) string {
	idx := strings.Index(line, tag)
	if idx < 0 || tag == "" {
		return strings.TrimSpace(line)
	}
	rest := strings.TrimSpace(line[idx+len(tag):])
	return strings.TrimSpace(strings.TrimLeft(rest, ":"))
}

// Attr names an item attribute that items can be grouped and sorted by.
type Attr int

const (
	AttrTag Attr = iota
	AttrFile
	AttrLineNum
	AttrLine
	AttrContent
)

var attrNames = map[Attr]string{
	AttrTag:     "tag",
	AttrFile:    "file",
	AttrLineNum: "lineNum",
	AttrLine:    "line",
	AttrContent: "content",
}

var attrAliases = map[string]Attr{
	"tag":         AttrTag,
	"file":        AttrFile,
	"lineNum":     AttrLineNum,
	"line-number": AttrLineNum,
	"line_num":    AttrLineNum,
	"linenum":     AttrLineNum,
	"line":        AttrLine,
	"content":     AttrContent,
}

// ParseAttr maps a configured attribute name to an Attr.
func ParseAttr(name string) (Attr, error) {
	a, ok := attrAliases[strings.TrimSpace(name)]
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownAttr, name)
	}
	return a, nil
}

// ParseAttrs parses an ordered attribute list.
func ParseAttrs(names []string) ([]Attr, error) {
	attrs := make([]Attr, 0, len(names))
	for _, n := range names {
		a, err := ParseAttr(n)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

func (a Attr) String() string {
	if n, ok := attrNames[a]; ok {
		return n
	}
	return fmt.Sprintf("Attr(%d)", int(a))
}

// Value extracts the attribute from an item as a grouping key.
func (a Attr) Value(it Item) string {
	switch a {
	case AttrTag:
		return it.Tag
	case AttrFile:
		return it.File
	case AttrLineNum:
		return fmt.Sprintf("%d", it.LineNum)
	case AttrLine:
		return it.Line
	case AttrContent:
		return it.Content()
	}
	return ""
}

// Node is one element of a grouping tree: a *Branch or a *Leaf.
type Node interface {
	node()
}

// Branch is a labelled group of child nodes.
type Branch struct {
	Label    string
	Children []Node
}

// Leaf holds rendered item text in display order.
type Leaf struct {
	Items []string
}

func (*Branch) node() {}
func (*Leaf) node()   {}

// Depth returns the number of branch levels below n.
func Depth(n Node) int {
	b, ok := n.(*Branch)
	if !ok || len(b.Children) == 0 {
		return 0
	}
	deepest := 0
	for _, c := range b.Children {
		if _, isBranch := c.(*Branch); !isBranch {
			continue
		}
		if d := Depth(c) + 1; d > deepest {
			deepest = d
		}
	}
	return deepest
}

// CountItems returns the number of rendered items under n.
func CountItems(n Node) int {
	switch v := n.(type) {
	case *Leaf:
		return len(v.Items)
	case *Branch:
		total := 0
		for _, c := range v.Children {
			total += CountItems(c)
		}
		return total
	}
	return 0
}
