// Package organize groups found items into a labelled tree.
package organize

import (
	"cmp"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/phobologic/itodo/internal/model"
)

// Options controls ordering and labels.
type Options struct {
	// TagOrder ranks tags; tags earlier in the list sort first.
	TagOrder []string
	// SearchDir is trimmed from file paths shown in headers.
	SearchDir string
	// LinkBase is the directory file links are made relative to.
	LinkBase string
	// Render turns an item into leaf text. Defaults to Item.String.
	Render func(model.Item) (string, error)
}

// Organize groups items by attrs. Every attribute but the last becomes a
// level of branches; the last one only orders the items inside each leaf,
// so the tree has len(attrs)-1 branch levels under the returned root.
func Organize(items []model.Item, attrs []model.Attr, opts Options) (*model.Branch, error) {
	if len(attrs) == 0 {
		return nil, errors.New("organize: no attributes given")
	}
	o := &organizer{
		attrs:   attrs,
		opts:    opts,
		tagRank: make(map[string]int, len(opts.TagOrder)),
	}
	for i, tag := range opts.TagOrder {
		if _, dup := o.tagRank[tag]; !dup {
			o.tagRank[tag] = i
		}
	}

	children, err := o.level(items, 0)
	if err != nil {
		return nil, err
	}
	return &model.Branch{Children: children}, nil
}

type organizer struct {
	attrs   []model.Attr
	opts    Options
	tagRank map[string]int
}

type bucket struct {
	value string
	items []model.Item
}

func (o *organizer) level(items []model.Item, lvl int) ([]model.Node, error) {
	attr := o.attrs[lvl]

	if lvl >= len(o.attrs)-1 {
		sorted := slices.Clone(items)
		slices.SortStableFunc(sorted, o.itemCompare(attr))
		leaf := &model.Leaf{Items: make([]string, 0, len(sorted))}
		for _, it := range sorted {
			text, err := o.render(it)
			if err != nil {
				return nil, err
			}
			leaf.Items = append(leaf.Items, text)
		}
		return []model.Node{leaf}, nil
	}

	buckets := split(items, attr)
	slices.SortStableFunc(buckets, func(a, b *bucket) int {
		return o.bucketCompare(attr, a, b)
	})

	children := make([]model.Node, 0, len(buckets))
	for _, b := range buckets {
		slices.SortStableFunc(b.items, o.itemCompare(attr))
		sub, err := o.level(b.items, lvl+1)
		if err != nil {
			return nil, err
		}
		children = append(children, &model.Branch{
			Label:    o.header(attr, b.value, len(b.items)),
			Children: sub,
		})
	}
	return children, nil
}

// split buckets items by their value of attr, in order of first appearance.
func split(items []model.Item, attr model.Attr) []*bucket {
	var buckets []*bucket
	index := make(map[string]*bucket)
	for _, it := range items {
		v := attr.Value(it)
		b, ok := index[v]
		if !ok {
			b = &bucket{value: v}
			index[v] = b
			buckets = append(buckets, b)
		}
		b.items = append(b.items, it)
	}
	return buckets
}

// itemCompare is the canonical order for attr: tag priority for tags,
// line number for lines, the item's string form otherwise.
func (o *organizer) itemCompare(attr model.Attr) func(a, b model.Item) int {
	return func(a, b model.Item) int {
		var c int
		switch attr {
		case model.AttrTag:
			c = cmp.Compare(o.rank(a.Tag), o.rank(b.Tag))
		case model.AttrLineNum, model.AttrLine:
			c = cmp.Compare(a.LineNum, b.LineNum)
		default:
			c = strings.Compare(a.String(), b.String())
		}
		if c != 0 {
			return c
		}
		return o.natural(a, b)
	}
}

// bucketCompare orders sibling branches by the value they group on.
func (o *organizer) bucketCompare(attr model.Attr, a, b *bucket) int {
	x, y := a.items[0], b.items[0]
	var c int
	switch attr {
	case model.AttrTag:
		c = cmp.Compare(o.rank(x.Tag), o.rank(y.Tag))
	case model.AttrLineNum:
		c = cmp.Compare(x.LineNum, y.LineNum)
	}
	if c != 0 {
		return c
	}
	return strings.Compare(a.value, b.value)
}

func (o *organizer) natural(a, b model.Item) int {
	if c := strings.Compare(a.File, b.File); c != 0 {
		return c
	}
	if c := cmp.Compare(a.LineNum, b.LineNum); c != 0 {
		return c
	}
	return cmp.Compare(o.rank(a.Tag), o.rank(b.Tag))
}

func (o *organizer) rank(tag string) int {
	if r, ok := o.tagRank[tag]; ok {
		return r
	}
	return len(o.opts.TagOrder)
}

func (o *organizer) render(it model.Item) (string, error) {
	if o.opts.Render == nil {
		return it.String(), nil
	}
	text, err := o.opts.Render(it)
	if err != nil {
		return "", fmt.Errorf("rendering %s:%d: %w", it.File, it.LineNum, err)
	}
	return text, nil
}

func (o *organizer) header(attr model.Attr, value string, n int) string {
	switch attr {
	case model.AttrTag:
		return fmt.Sprintf("**%s** -- %s", value, countLabel(n))
	case model.AttrFile:
		return fmt.Sprintf("[`%s`](%s) -- %s", o.displayPath(value), o.linkPath(value), countLabel(n))
	}
	return value
}

func (o *organizer) displayPath(p string) string {
	dir := filepath.ToSlash(filepath.Clean(o.opts.SearchDir))
	if dir == "." || dir == "" {
		return p
	}
	return strings.TrimPrefix(p, strings.TrimSuffix(dir, "/")+"/")
}

func (o *organizer) linkPath(p string) string {
	if o.opts.LinkBase == "" {
		return p
	}
	base, target := o.opts.LinkBase, filepath.FromSlash(p)
	if filepath.IsAbs(base) != filepath.IsAbs(target) {
		var errBase, errTarget error
		base, errBase = filepath.Abs(base)
		target, errTarget = filepath.Abs(target)
		if errBase != nil || errTarget != nil {
			return p
		}
	}
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}

func countLabel(n int) string {
	switch n {
	case 0:
		return "no items"
	case 1:
		return "1 item"
	}
	return fmt.Sprintf("%d items", n)
}
