package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/afero"
)

// Open reads and parses a .docx file from the filesystem.
func Open(fs afero.Fs, path string) (*Document, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a .docx payload.
func Parse(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx package: %w", err)
	}

	doc := &Document{styles: map[string]string{}}

	if raw, err := readZipPart(zr, "word/styles.xml"); err == nil {
		if err := parseStyles(raw, doc.styles); err != nil {
			return nil, fmt.Errorf("styles.xml: %w", err)
		}
	}
	if raw, err := readZipPart(zr, "docProps/core.xml"); err == nil {
		if err := parseCoreProperties(raw, &doc.Properties); err != nil {
			return nil, fmt.Errorf("core.xml: %w", err)
		}
	}

	raw, err := readZipPart(zr, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("word/document.xml missing: %w", err)
	}
	if err := parseBody(raw, doc); err != nil {
		return nil, fmt.Errorf("document.xml: %w", err)
	}
	return doc, nil
}

// RawXML extracts the verbatim word/document.xml part of a .docx payload.
func RawXML(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx package: %w", err)
	}
	raw, err := readZipPart(zr, "word/document.xml")
	if err != nil {
		return "", fmt.Errorf("word/document.xml missing: %w", err)
	}
	return string(raw), nil
}

func readZipPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("part %s not found", name)
}

// Wire types for decoding. Tags carry local names only; the decoder matches
// them against the w: namespace elements.

type xmlVal struct {
	Val string `xml:"val,attr"`
}

// on reports whether a toggle property value means enabled. Absent val means
// the property element itself turns the toggle on.
func (v *xmlVal) on() bool {
	if v == nil {
		return false
	}
	switch v.Val {
	case "", "1", "true", "on":
		return true
	default:
		return false
	}
}

type xmlRunProps struct {
	Bold      *xmlVal `xml:"b"`
	Italic    *xmlVal `xml:"i"`
	Underline *xmlVal `xml:"u"`
	Size      *xmlVal `xml:"sz"`
}

type xmlBreak struct {
	Type string `xml:"type,attr"`
}

type xmlRun struct {
	Props  *xmlRunProps `xml:"rPr"`
	Texts  []string     `xml:"t"`
	Breaks []xmlBreak   `xml:"br"`
}

type xmlParaProps struct {
	Style *xmlVal `xml:"pStyle"`
}

type xmlParagraph struct {
	Props *xmlParaProps `xml:"pPr"`
	Runs  []xmlRun      `xml:"r"`
}

type xmlCell struct {
	Paragraphs []xmlParagraph `xml:"p"`
}

type xmlRow struct {
	Cells []xmlCell `xml:"tc"`
}

type xmlTable struct {
	Rows []xmlRow `xml:"tr"`
}

type xmlStyle struct {
	Type string  `xml:"type,attr"`
	ID   string  `xml:"styleId,attr"`
	Name *xmlVal `xml:"name"`
}

type xmlStyles struct {
	Styles []xmlStyle `xml:"style"`
}

type xmlCoreProps struct {
	Title   string `xml:"title"`
	Creator string `xml:"creator"`
}

func parseStyles(raw []byte, into map[string]string) error {
	var st xmlStyles
	if err := xml.Unmarshal(raw, &st); err != nil {
		return err
	}
	for _, s := range st.Styles {
		if s.ID == "" {
			continue
		}
		name := s.ID
		if s.Name != nil && s.Name.Val != "" {
			name = s.Name.Val
		}
		into[name] = s.ID
	}
	return nil
}

func parseCoreProperties(raw []byte, into *CoreProperties) error {
	var cp xmlCoreProps
	if err := xml.Unmarshal(raw, &cp); err != nil {
		return err
	}
	into.Title = cp.Title
	into.Author = cp.Creator
	return nil
}

// parseBody walks the document body token by token so that paragraph and
// table order is preserved.
func parseBody(raw []byte, doc *Document) error {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	inBody := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch {
			case el.Name.Local == "body":
				inBody = true
			case inBody && el.Name.Local == "p":
				var xp xmlParagraph
				if err := dec.DecodeElement(&xp, &el); err != nil {
					return err
				}
				doc.body = append(doc.body, convertParagraph(xp, doc))
			case inBody && el.Name.Local == "tbl":
				var xt xmlTable
				if err := dec.DecodeElement(&xt, &el); err != nil {
					return err
				}
				doc.body = append(doc.body, convertTable(xt))
			case inBody:
				// sectPr, bookmarks and anything else at body level
				if err := dec.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if el.Name.Local == "body" {
				return nil
			}
		}
	}
}

func convertParagraph(xp xmlParagraph, doc *Document) *Paragraph {
	p := &Paragraph{}
	if xp.Props != nil && xp.Props.Style != nil {
		p.Style = styleNameByID(doc.styles, xp.Props.Style.Val)
	}
	for _, xr := range xp.Runs {
		r := &Run{}
		for _, br := range xr.Breaks {
			if br.Type == "page" {
				r.PageBreak = true
			}
		}
		var text bytes.Buffer
		for _, t := range xr.Texts {
			text.WriteString(t)
		}
		r.Text = text.String()
		if xr.Props != nil {
			r.Bold = xr.Props.Bold.on()
			r.Italic = xr.Props.Italic.on()
			if u := xr.Props.Underline; u != nil && u.Val != "none" && u.Val != "0" {
				r.Underline = true
			}
			if xr.Props.Size != nil {
				if n, err := strconv.Atoi(xr.Props.Size.Val); err == nil {
					r.Size = n
				}
			}
		}
		if r.Text == "" && !r.PageBreak {
			continue
		}
		p.Runs = append(p.Runs, r)
	}
	return p
}

func convertTable(xt xmlTable) *Table {
	t := &Table{}
	for _, xr := range xt.Rows {
		row := make([]string, 0, len(xr.Cells))
		for _, xc := range xr.Cells {
			var cell bytes.Buffer
			for i, xp := range xc.Paragraphs {
				if i > 0 {
					cell.WriteString("\n")
				}
				for _, run := range xp.Runs {
					for _, txt := range run.Texts {
						cell.WriteString(txt)
					}
				}
			}
			row = append(row, cell.String())
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// styleNameByID reverses the name→ID catalogue; unknown IDs come back
// verbatim so the caller still sees something matchable.
func styleNameByID(styles map[string]string, id string) string {
	for name, sid := range styles {
		if sid == id {
			return name
		}
	}
	return id
}
