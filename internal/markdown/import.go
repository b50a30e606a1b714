package markdown

import (
	"strings"
	"time"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/starford/catatan/internal/editor"
	"github.com/starford/catatan/internal/models"
)

var md = goldmark.New(goldmark.WithExtensions(extension.TaskList, extension.Strikethrough))

// Document is an imported Markdown note.
type Document struct {
	Meta   Frontmatter
	Blocks []editor.Block
}

// Import parses Markdown into editor blocks. Headings of any level become
// heading blocks, task list items become checklist items, other list items
// become bullet items and /images/ links become image blocks.
func Import(src []byte) (*Document, error) {
	fm, body, err := splitFrontmatter(src)
	if err != nil {
		return nil, err
	}
	im := &importer{src: body}
	doc := md.Parser().Parse(text.NewReader(body))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		im.block(n)
	}
	return &Document{Meta: fm, Blocks: im.blocks}, nil
}

// Session turns d into a new editing session. A missing title falls back
// to the first heading; unknown progress or category keep the defaults.
func (d *Document) Session(owner string, loc *time.Location) *editor.Session {
	s := editor.NewSession(owner, loc)
	s.Title = d.Meta.Title
	if s.Title == "" {
		for _, b := range d.Blocks {
			if b.Kind == editor.KindHeading {
				s.Title = b.Text
				break
			}
		}
	}
	if p, err := models.ParseProgress(d.Meta.Progress); err == nil {
		s.Progress = p
	}
	if c, err := models.ParseCategory(d.Meta.Category); err == nil {
		s.Category = c
	}
	s.Target = d.Meta.Target
	s.DueDate = d.Meta.Due
	s.Buffer = editor.BufferOf(d.Blocks)
	return s
}

type importer struct {
	src    []byte
	blocks []editor.Block
}

func (im *importer) block(n ast.Node) {
	switch v := n.(type) {
	case *ast.Heading:
		im.emit(editor.KindHeading, im.inline(v))
	case *ast.Paragraph, *ast.TextBlock:
		im.emit(editor.KindParagraph, im.inline(v))
	case *ast.List:
		for item := v.FirstChild(); item != nil; item = item.NextSibling() {
			im.listItem(item)
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		var sb strings.Builder
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			sb.Write(seg.Value(im.src))
		}
		im.emit(editor.KindParagraph, &inlineText{text: strings.TrimSpace(sb.String())})
	case *ast.ThematicBreak, *ast.HTMLBlock:
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			im.block(c)
		}
	}
}

func (im *importer) listItem(item ast.Node) {
	first := item.FirstChild()
	if first == nil {
		return
	}
	switch first.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		c := im.inline(first)
		kind := editor.KindBulletItem
		if c.checkbox != nil {
			kind = editor.KindChecklistItem
		}
		im.emit(kind, c)
		first = first.NextSibling()
	}
	for n := first; n != nil; n = n.NextSibling() {
		im.block(n)
	}
}

// emit appends a text block for c followed by any images it carried.
// Checklist items are kept even when blank.
func (im *importer) emit(kind editor.Kind, c *inlineText) {
	if c.text != "" || kind == editor.KindChecklistItem {
		b := editor.Block{Kind: kind, Text: c.text}
		switch kind {
		case editor.KindChecklistItem:
			b.Checked = *c.checkbox
		default:
			b.Bold = c.total > 0 && c.bold == c.total
			b.Italic = c.total > 0 && c.italic == c.total
		}
		im.blocks = append(im.blocks, b)
	}
	for i := range c.images {
		ref := c.images[i]
		im.blocks = append(im.blocks, editor.Block{Kind: editor.KindImage, Image: &ref})
	}
}

// inlineText accumulates the inline content of one block. total, bold and
// italic count non-space runes so emphasis is whole-block only.
type inlineText struct {
	text     string
	sb       strings.Builder
	total    int
	bold     int
	italic   int
	images   []models.ImageRef
	checkbox *bool
}

func (im *importer) inline(n ast.Node) *inlineText {
	c := &inlineText{}
	im.collect(c, n, false, false)
	c.text = strings.TrimSpace(c.sb.String())
	return c
}

func (im *importer) collect(c *inlineText, n ast.Node, bold, italic bool) {
	for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
		switch v := ch.(type) {
		case *ast.Text:
			c.add(string(util.UnescapePunctuations(v.Segment.Value(im.src))), bold, italic)
			switch {
			case v.HardLineBreak():
				c.sb.WriteByte('\n')
			case v.SoftLineBreak():
				c.sb.WriteByte(' ')
			}
		case *ast.String:
			c.add(string(v.Value), bold, italic)
		case *ast.Emphasis:
			im.collect(c, v, bold || v.Level >= 2, italic || v.Level == 1)
		case *ast.Image:
			if ref, ok := imageRef(string(v.Destination)); ok {
				c.images = append(c.images, ref)
			}
		case *ast.AutoLink:
			c.add(string(v.URL(im.src)), bold, italic)
		case *extast.TaskCheckBox:
			checked := v.IsChecked
			c.checkbox = &checked
		case *ast.RawHTML:
		default:
			im.collect(c, ch, bold, italic)
		}
	}
}

func (c *inlineText) add(s string, bold, italic bool) {
	c.sb.WriteString(s)
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		c.total++
		if bold {
			c.bold++
		}
		if italic {
			c.italic++
		}
	}
}

// imageRef accepts /images/{key} links and bare keys.
func imageRef(dest string) (models.ImageRef, bool) {
	key := strings.TrimPrefix(dest, "/images/")
	if key == "" || strings.ContainsAny(key, "/:?#") {
		return models.ImageRef{}, false
	}
	return models.ImageRef{Key: key}, true
}
