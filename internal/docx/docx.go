// Package docx is a minimal WordprocessingML codec: enough of the .docx
// format to open a document, walk its paragraphs (text, style, run
// formatting) and tables, set core properties, and write a new package back
// out. It is pure Go (archive/zip + encoding/xml) and deliberately ignores
// everything outside that surface: numbering, images, headers, sections.
package docx

import "strings"

// Block is one body-level element of a document, in document order.
// Concrete types: *Paragraph, *Table.
type Block interface {
	block()
}

// Run is a span of text with uniform character formatting.
type Run struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool

	// Size is the explicit font size in half-points; zero means the run
	// inherits its size.
	Size int

	// PageBreak marks a run carrying a page break before any text.
	PageBreak bool
}

// Paragraph is an ordered sequence of runs with an optional named style.
type Paragraph struct {
	// Style is the style name (e.g. "Normal", "Heading 1"); empty means
	// the document default.
	Style string
	Runs  []*Run
}

func (p *Paragraph) block() {}

// AddRun appends a run with the given text and returns it for styling.
func (p *Paragraph) AddRun(text string) *Run {
	r := &Run{Text: text}
	p.Runs = append(p.Runs, r)
	return r
}

// Text returns the concatenated text of all runs.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// Table holds cell text by row and column. Shape is preserved as parsed;
// rows may be ragged if the source was.
type Table struct {
	Rows [][]string
}

func (t *Table) block() {}

// CoreProperties are the document metadata fields carried in
// docProps/core.xml.
type CoreProperties struct {
	Title  string
	Author string
}

// Document is an in-memory .docx document.
type Document struct {
	Properties CoreProperties

	body []Block

	// styles maps style name to style ID for every style the document
	// catalogue defines.
	styles map[string]string
}

// defaultStyles is the catalogue a freshly created document carries,
// mirroring the styles the tools rely on being present.
func defaultStyles() map[string]string {
	m := map[string]string{
		"Normal":     "Normal",
		"Title":      "Title",
		"Table Grid": "TableGrid",
	}
	headings := []string{"Heading 1", "Heading 2", "Heading 3", "Heading 4",
		"Heading 5", "Heading 6", "Heading 7", "Heading 8", "Heading 9"}
	for i, name := range headings {
		m[name] = "Heading" + string(rune('1'+i))
	}
	return m
}

// New creates an empty document with the default style catalogue.
func New() *Document {
	return &Document{styles: defaultStyles()}
}

// HasStyle reports whether the document's style catalogue defines the named
// style.
func (d *Document) HasStyle(name string) bool {
	_, ok := d.styles[name]
	return ok
}

// styleID resolves a style name to its catalogue ID, falling back to the
// name itself for unknown styles.
func (d *Document) styleID(name string) string {
	if id, ok := d.styles[name]; ok {
		return id
	}
	return name
}

// Blocks returns the body elements in document order.
func (d *Document) Blocks() []Block {
	return d.body
}

// Paragraphs returns the top-level paragraphs in document order. Paragraphs
// inside table cells are not included.
func (d *Document) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, b := range d.body {
		if p, ok := b.(*Paragraph); ok {
			out = append(out, p)
		}
	}
	return out
}

// Tables returns the top-level tables in document order.
func (d *Document) Tables() []*Table {
	var out []*Table
	for _, b := range d.body {
		if t, ok := b.(*Table); ok {
			out = append(out, t)
		}
	}
	return out
}

// AddParagraph appends a paragraph. A non-empty text becomes its first run.
func (d *Document) AddParagraph(text string) *Paragraph {
	p := &Paragraph{}
	if text != "" {
		p.AddRun(text)
	}
	d.body = append(d.body, p)
	return p
}

// AddHeading appends a paragraph styled "Heading <level>" (level clamped to
// 1..9).
func (d *Document) AddHeading(text string, level int) *Paragraph {
	if level < 1 {
		level = 1
	}
	if level > 9 {
		level = 9
	}
	p := d.AddParagraph(text)
	p.Style = "Heading " + string(rune('0'+level))
	return p
}

// AddTable appends a table with the given cell text.
func (d *Document) AddTable(rows [][]string) *Table {
	t := &Table{Rows: rows}
	d.body = append(d.body, t)
	return t
}

// AddPageBreak appends a paragraph holding a single page-break run.
func (d *Document) AddPageBreak() {
	p := &Paragraph{}
	p.Runs = append(p.Runs, &Run{PageBreak: true})
	d.body = append(d.body, p)
}

// PageBreakCount returns the number of page breaks in the body.
func (d *Document) PageBreakCount() int {
	n := 0
	for _, p := range d.Paragraphs() {
		for _, r := range p.Runs {
			if r.PageBreak {
				n++
			}
		}
	}
	return n
}
