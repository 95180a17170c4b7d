// Package merge combines N source documents into one target document,
// reconciling paragraph styles, run formatting, and tables.
package merge

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"wordapi/internal/docx"
	"wordapi/internal/fetch"
)

// ValidationError reports precondition failures: an unwritable target or
// missing source documents. Missing sources are collected across the whole
// list before the operation is rejected; Err carries the per-path aggregate
// for callers that unwrap.
type ValidationError struct {
	Reason       string
	MissingPaths []string
	Err          error
}

func (e *ValidationError) Error() string {
	if len(e.MissingPaths) > 0 {
		return fmt.Sprintf("source files do not exist: %s", strings.Join(e.MissingPaths, ", "))
	}
	return e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// AssemblyError wraps an unexpected failure while copying document structure.
type AssemblyError struct {
	Err error
}

func (e *AssemblyError) Error() string { return fmt.Sprintf("merge assembly failed: %v", e.Err) }
func (e *AssemblyError) Unwrap() error { return e.Err }

// Summary describes a completed merge.
type Summary struct {
	SourceCount int    `json:"source_count"`
	Target      string `json:"target"`
}

func (s Summary) String() string {
	return fmt.Sprintf("Successfully merged %d documents into %s", s.SourceCount, s.Target)
}

// Engine merges documents on the given filesystem.
type Engine struct {
	fs afero.Fs
}

// NewEngine creates a merge engine over fs.
func NewEngine(fs afero.Fs) *Engine {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Engine{fs: fs}
}

// Merge combines the source documents, in order, into a new document at
// target. When addPageBreaks is set, a page break separates consecutive
// sources. The target writability check runs first; then every source is
// checked for existence and all missing paths are reported together. No
// output is produced unless all preconditions pass. A failed assembly may
// leave a partial target behind; cleanup is the caller's responsibility.
func (e *Engine) Merge(target string, sources []string, addPageBreaks bool) (*Summary, error) {
	target = fetch.EnsureDocxExtension(target)

	if err := e.checkWritable(target); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("cannot create target document: %v", err)}
	}

	normalized := make([]string, len(sources))
	var missing *multierror.Error
	var missingPaths []string
	for i, src := range sources {
		normalized[i] = fetch.EnsureDocxExtension(src)
		if ok, err := afero.Exists(e.fs, normalized[i]); err != nil || !ok {
			missing = multierror.Append(missing, fmt.Errorf("missing source: %s", normalized[i]))
			missingPaths = append(missingPaths, normalized[i])
		}
	}
	if agg := missing.ErrorOrNil(); agg != nil {
		return nil, &ValidationError{MissingPaths: missingPaths, Err: agg}
	}

	out := docx.New()
	for i, src := range normalized {
		doc, err := docx.Open(e.fs, src)
		if err != nil {
			return nil, &AssemblyError{Err: err}
		}
		if addPageBreaks && i > 0 {
			out.AddPageBreak()
		}
		appendDocument(out, doc)
	}

	if err := out.Save(e.fs, target); err != nil {
		return nil, &AssemblyError{Err: err}
	}
	return &Summary{SourceCount: len(sources), Target: target}, nil
}

// appendDocument copies src's paragraphs and tables onto the end of dst.
func appendDocument(dst *docx.Document, src *docx.Document) {
	for _, para := range src.Paragraphs() {
		copyParagraph(dst, para)
	}
	for _, table := range src.Tables() {
		rows := make([][]string, len(table.Rows))
		for i, row := range table.Rows {
			rows[i] = append([]string(nil), row...)
		}
		dst.AddTable(rows)
	}
}

// copyParagraph recreates a source paragraph in dst. Each target run is
// constructed directly from its source run and then styled, so formatting
// never depends on positional correspondence. The paragraph style defaults
// to Normal; the source's style name is preferred only when dst's catalogue
// defines it, and an unknown style falls back silently.
func copyParagraph(dst *docx.Document, src *docx.Paragraph) {
	p := dst.AddParagraph("")
	p.Style = "Normal"
	if src.Style != "" && dst.HasStyle(src.Style) {
		p.Style = src.Style
	}
	for _, run := range src.Runs {
		if run.PageBreak && run.Text == "" {
			continue
		}
		r := p.AddRun(run.Text)
		r.Bold = run.Bold
		r.Italic = run.Italic
		r.Underline = run.Underline
		if run.Size > 0 {
			r.Size = run.Size
		}
	}
}

// checkWritable verifies the target can be created or overwritten without
// truncating an existing file.
func (e *Engine) checkWritable(target string) error {
	if ok, _ := afero.Exists(e.fs, target); ok {
		f, err := e.fs.OpenFile(target, os.O_WRONLY, 0)
		if err != nil {
			return err
		}
		return f.Close()
	}
	f, err := e.fs.Create(target)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return e.fs.Remove(target)
}
