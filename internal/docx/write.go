package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/spf13/afero"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const contentTypesXML = xmlHeader +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
	`</Types>`

const packageRelsXML = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`</Relationships>`

const documentRelsXML = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`</Relationships>`

// Wire types for encoding. Prefixed tags emit the w: namespace directly.

type wVal struct {
	Val string `xml:"w:val,attr"`
}

type wRunProps struct {
	Bold      *struct{} `xml:"w:b"`
	Italic    *struct{} `xml:"w:i"`
	Underline *wVal     `xml:"w:u"`
	Size      *wVal     `xml:"w:sz"`
}

type wBreak struct {
	Type string `xml:"w:type,attr"`
}

type wText struct {
	Space string `xml:"xml:space,attr"`
	Text  string `xml:",chardata"`
}

type wRun struct {
	XMLName xml.Name   `xml:"w:r"`
	Props   *wRunProps `xml:"w:rPr"`
	Break   *wBreak    `xml:"w:br"`
	Text    *wText     `xml:"w:t"`
}

type wParaProps struct {
	Style *wVal `xml:"w:pStyle"`
}

type wParagraph struct {
	XMLName xml.Name    `xml:"w:p"`
	Props   *wParaProps `xml:"w:pPr"`
	Runs    []wRun      `xml:"w:r"`
}

type wCell struct {
	Paragraphs []wParagraph `xml:"w:p"`
}

type wRow struct {
	Cells []wCell `xml:"w:tc"`
}

type wTableProps struct {
	Style *wVal `xml:"w:tblStyle"`
}

type wTable struct {
	XMLName xml.Name    `xml:"w:tbl"`
	Props   wTableProps `xml:"w:tblPr"`
	Rows    []wRow      `xml:"w:tr"`
}

// Bytes serializes the document into a .docx package.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write serializes the document into w as a .docx package.
func (d *Document) Write(w io.Writer) error {
	body, err := d.marshalBody()
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	parts := []struct {
		name string
		data string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", packageRelsXML},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/document.xml", body},
		{"word/styles.xml", d.marshalStyles()},
		{"docProps/core.xml", d.marshalCoreProperties()},
	}

	zw := zip.NewWriter(w)
	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("create part %s: %w", p.name, err)
		}
		if _, err := f.Write([]byte(p.data)); err != nil {
			return fmt.Errorf("write part %s: %w", p.name, err)
		}
	}
	return zw.Close()
}

// Save writes the document to a path on the filesystem.
func (d *Document) Save(fs afero.Fs, path string) error {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := d.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (d *Document) marshalBody() (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	buf.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, b := range d.body {
		var (
			out []byte
			err error
		)
		switch t := b.(type) {
		case *Paragraph:
			out, err = xml.Marshal(d.encodeParagraph(t))
		case *Table:
			out, err = xml.Marshal(encodeTable(t))
		}
		if err != nil {
			return "", err
		}
		buf.Write(out)
	}
	buf.WriteString(`<w:sectPr/></w:body></w:document>`)
	return buf.String(), nil
}

func (d *Document) encodeParagraph(p *Paragraph) wParagraph {
	wp := wParagraph{}
	if p.Style != "" && p.Style != "Normal" {
		wp.Props = &wParaProps{Style: &wVal{Val: d.styleID(p.Style)}}
	}
	for _, r := range p.Runs {
		wr := wRun{}
		if r.Bold || r.Italic || r.Underline || r.Size > 0 {
			props := &wRunProps{}
			if r.Bold {
				props.Bold = &struct{}{}
			}
			if r.Italic {
				props.Italic = &struct{}{}
			}
			if r.Underline {
				props.Underline = &wVal{Val: "single"}
			}
			if r.Size > 0 {
				props.Size = &wVal{Val: strconv.Itoa(r.Size)}
			}
			wr.Props = props
		}
		if r.PageBreak {
			wr.Break = &wBreak{Type: "page"}
		}
		if r.Text != "" || !r.PageBreak {
			wr.Text = &wText{Space: "preserve", Text: r.Text}
		}
		wp.Runs = append(wp.Runs, wr)
	}
	return wp
}

func encodeTable(t *Table) wTable {
	wt := wTable{Props: wTableProps{Style: &wVal{Val: "TableGrid"}}}
	for _, row := range t.Rows {
		wr := wRow{}
		for _, cell := range row {
			wc := wCell{Paragraphs: []wParagraph{{
				Runs: []wRun{{Text: &wText{Space: "preserve", Text: cell}}},
			}}}
			wr.Cells = append(wr.Cells, wc)
		}
		wt.Rows = append(wt.Rows, wr)
	}
	return wt
}

func (d *Document) marshalStyles() string {
	names := make([]string, 0, len(d.styles))
	for name := range d.styles {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	buf.WriteString(`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`)
	for _, name := range names {
		styleType := "paragraph"
		if name == "Table Grid" || d.styles[name] == "TableGrid" {
			styleType = "table"
		}
		buf.WriteString(`<w:style w:type="` + styleType + `" w:styleId="`)
		xml.EscapeText(&buf, []byte(d.styles[name]))
		buf.WriteString(`"><w:name w:val="`)
		xml.EscapeText(&buf, []byte(name))
		buf.WriteString(`"/></w:style>`)
	}
	buf.WriteString(`</w:styles>`)
	return buf.String()
}

func (d *Document) marshalCoreProperties() string {
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	buf.WriteString(`<cp:coreProperties` +
		` xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"` +
		` xmlns:dc="http://purl.org/dc/elements/1.1/">`)
	buf.WriteString(`<dc:title>`)
	xml.EscapeText(&buf, []byte(d.Properties.Title))
	buf.WriteString(`</dc:title><dc:creator>`)
	xml.EscapeText(&buf, []byte(d.Properties.Author))
	buf.WriteString(`</dc:creator></cp:coreProperties>`)
	return buf.String()
}
