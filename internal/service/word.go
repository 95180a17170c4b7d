package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"wordapi/internal/docx"
	"wordapi/internal/fetch"
	"wordapi/internal/links"
	"wordapi/internal/merge"
	"wordapi/internal/model"
	"wordapi/internal/repository"
	"wordapi/internal/storage"
	"wordapi/internal/store"
)

var (
	ErrFilenameRequired = errors.New("filename is required")
	ErrURLRequired      = errors.New("url is required")
	ErrNoSources        = errors.New("at least one source document is required")
	ErrDocumentNotFound = errors.New("document not found")
	ErrPublishDisabled  = errors.New("object storage is not configured")
	ErrAuditDisabled    = errors.New("ingestion audit log is not configured")
)

// Fetcher retrieves a remote Word document. Satisfied by *fetch.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, filenameOverride string) (*fetch.Result, error)
}

// Merger combines documents on disk. Satisfied by *merge.Engine.
type Merger interface {
	Merge(target string, sources []string, addPageBreaks bool) (*merge.Summary, error)
}

// Converter produces a PDF from a document. Satisfied by *convert.Converter.
type Converter interface {
	ToPDF(ctx context.Context, source, outputPath string) (string, error)
}

// Outline is the structural summary of a document.
type Outline struct {
	Paragraphs []OutlineParagraph `json:"paragraphs"`
	Tables     []OutlineTable     `json:"tables"`
}

// OutlineParagraph is one paragraph entry of an outline, with a short text
// preview.
type OutlineParagraph struct {
	Index   int    `json:"index"`
	Style   string `json:"style"`
	Preview string `json:"preview"`
}

// OutlineTable describes a table's position and shape.
type OutlineTable struct {
	Index   int `json:"index"`
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

// FileEntry is one document of a directory listing.
type FileEntry struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
}

// PublishResult describes a document published to object storage.
type PublishResult struct {
	Key          string `json:"key"`
	URL          string `json:"url"`
	ExpiresInSec int    `json:"expires_in_sec"`
}

// IngestionListResult is the service-level DTO for paginated audit records.
type IngestionListResult struct {
	Items []model.Ingestion `json:"data"`
	Total int               `json:"total"`
}

// WordService defines the document tool operations exposed over HTTP.
type WordService interface {
	// CreateDocument writes a new empty document to disk and returns its
	// resolved path.
	CreateDocument(ctx context.Context, filename, title, author string) (string, error)

	// CreateDocumentTemp builds a new document in memory, places it in the
	// temporary store, and returns a download link.
	CreateDocumentTemp(ctx context.Context, filename, title, author string) (*model.DownloadInfo, error)

	// LoadFromURL fetches a remote document into the temporary store and
	// returns a download link.
	LoadFromURL(ctx context.Context, rawURL, filenameOverride string) (*model.DownloadInfo, error)

	// GetInfo returns core properties and basic statistics of a document.
	GetInfo(ctx context.Context, filename string) (*model.DocumentInfo, error)

	// GetText returns the plain text of all paragraphs, newline separated.
	GetText(ctx context.Context, filename string) (string, error)

	// GetOutline returns the document's paragraph and table structure.
	GetOutline(ctx context.Context, filename string) (*Outline, error)

	// GetXML returns the raw word/document.xml of a document.
	GetXML(ctx context.Context, filename string) (string, error)

	// ListDocuments lists the .docx files in the working directory.
	ListDocuments(ctx context.Context) ([]FileEntry, error)

	// CopyDocument duplicates a document; an empty destination derives
	// "<source>_copy.docx". Returns the destination path.
	CopyDocument(ctx context.Context, source, destination string) (string, error)

	// Merge combines the sources, in order, into target.
	Merge(ctx context.Context, target string, sources []string, addPageBreaks bool) (*merge.Summary, error)

	// ConvertToPDF converts a document; an empty outputPath derives the
	// source name with a .pdf extension. Returns where the PDF landed.
	ConvertToPDF(ctx context.Context, filename, outputPath string) (string, error)

	// PublishDocument uploads a stored payload to object storage and returns
	// a presigned GET URL.
	PublishDocument(ctx context.Context, fileID string) (*PublishResult, error)

	// Download returns the stored document for a download-link identifier.
	Download(ctx context.Context, fileID string) (model.StoredDocument, error)

	// ListIngestions returns audit records using limit/offset and a total count.
	ListIngestions(ctx context.Context, limit, offset int) (*IngestionListResult, error)
}

// Deps are the collaborators a WordService is assembled from. Objects and
// Audit are optional; the matching operations report a disabled-feature error
// when they are nil.
type Deps struct {
	Fs            afero.Fs
	DocumentsDir  string
	Store         *store.TempStore
	Fetcher       Fetcher
	Links         *links.Issuer
	Merger        Merger
	Converter     Converter
	Objects       storage.Storage
	PresignExpiry time.Duration
	Audit         repository.IngestionRepository
	Log           *logrus.Logger
}

type wordService struct {
	fs            afero.Fs
	docsDir       string
	store         *store.TempStore
	fetcher       Fetcher
	links         *links.Issuer
	merger        Merger
	converter     Converter
	objects       storage.Storage
	presignExpiry time.Duration
	audit         repository.IngestionRepository
	log           *logrus.Entry
}

// NewWordService constructs a WordService from its collaborators.
func NewWordService(d Deps) WordService {
	if d.Fs == nil {
		d.Fs = afero.NewOsFs()
	}
	if d.DocumentsDir == "" {
		d.DocumentsDir = "."
	}
	if d.PresignExpiry <= 0 {
		d.PresignExpiry = time.Hour
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	return &wordService{
		fs:            d.Fs,
		docsDir:       d.DocumentsDir,
		store:         d.Store,
		fetcher:       d.Fetcher,
		links:         d.Links,
		merger:        d.Merger,
		converter:     d.Converter,
		objects:       d.Objects,
		presignExpiry: d.PresignExpiry,
		audit:         d.Audit,
		log:           d.Log.WithField("component", "service"),
	}
}

// resolvePath anchors a relative document name to the working directory.
func (s *wordService) resolvePath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.docsDir, name)
}

// newDocument assembles an empty document with the given core properties.
func newDocument(title, author string) *docx.Document {
	doc := docx.New()
	doc.Properties.Title = title
	doc.Properties.Author = author
	return doc
}

func (s *wordService) CreateDocument(ctx context.Context, filename, title, author string) (string, error) {
	if filename == "" {
		return "", ErrFilenameRequired
	}
	path := s.resolvePath(fetch.EnsureDocxExtension(filename))
	doc := newDocument(title, author)
	if err := doc.Save(s.fs, path); err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}
	s.log.WithField("path", path).Info("created document")
	return path, nil
}

func (s *wordService) CreateDocumentTemp(ctx context.Context, filename, title, author string) (*model.DownloadInfo, error) {
	if filename == "" {
		return nil, ErrFilenameRequired
	}
	filename = fetch.EnsureDocxExtension(filename)
	doc := newDocument(title, author)
	payload, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	id := s.store.Put(filename, payload)
	s.recordIngestion(ctx, id, filename, "created", int64(len(payload)))
	return &model.DownloadInfo{
		DownloadURL: s.links.DownloadURL(id),
		FileID:      id,
		Filename:    filename,
	}, nil
}

func (s *wordService) LoadFromURL(ctx context.Context, rawURL, filenameOverride string) (*model.DownloadInfo, error) {
	if rawURL == "" {
		return nil, ErrURLRequired
	}
	res, err := s.fetcher.Fetch(ctx, rawURL, filenameOverride)
	if err != nil {
		return nil, err
	}
	id := s.store.Put(res.Filename, res.Payload)
	s.recordIngestion(ctx, id, res.Filename, rawURL, int64(len(res.Payload)))
	return &model.DownloadInfo{
		DownloadURL: s.links.DownloadURL(id),
		FileID:      id,
		Filename:    res.Filename,
	}, nil
}

func (s *wordService) GetInfo(ctx context.Context, filename string) (*model.DocumentInfo, error) {
	path, data, err := s.readDocument(filename)
	if err != nil {
		return nil, err
	}
	doc, err := docx.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	words := 0
	for _, p := range doc.Paragraphs() {
		words += len(strings.Fields(p.Text()))
	}
	for _, t := range doc.Tables() {
		for _, row := range t.Rows {
			for _, cell := range row {
				words += len(strings.Fields(cell))
			}
		}
	}

	return &model.DocumentInfo{
		Filename:       filepath.Base(path),
		Title:          doc.Properties.Title,
		Author:         doc.Properties.Author,
		ParagraphCount: len(doc.Paragraphs()),
		TableCount:     len(doc.Tables()),
		WordCount:      words,
		SizeBytes:      int64(len(data)),
	}, nil
}

func (s *wordService) GetText(ctx context.Context, filename string) (string, error) {
	path, data, err := s.readDocument(filename)
	if err != nil {
		return "", err
	}
	doc, err := docx.Parse(data)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}
	lines := make([]string, 0, len(doc.Paragraphs()))
	for _, p := range doc.Paragraphs() {
		lines = append(lines, p.Text())
	}
	return strings.Join(lines, "\n"), nil
}

const outlinePreviewLen = 80

// truncatePreview caps s at outlinePreviewLen bytes without splitting a
// multi-byte rune, so previews stay valid UTF-8.
func truncatePreview(s string) string {
	if len(s) <= outlinePreviewLen {
		return s
	}
	cut := outlinePreviewLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func (s *wordService) GetOutline(ctx context.Context, filename string) (*Outline, error) {
	path, data, err := s.readDocument(filename)
	if err != nil {
		return nil, err
	}
	doc, err := docx.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := &Outline{
		Paragraphs: make([]OutlineParagraph, 0),
		Tables:     make([]OutlineTable, 0),
	}
	for i, p := range doc.Paragraphs() {
		style := p.Style
		if style == "" {
			style = "Normal"
		}
		preview := truncatePreview(p.Text())
		out.Paragraphs = append(out.Paragraphs, OutlineParagraph{
			Index:   i,
			Style:   style,
			Preview: preview,
		})
	}
	for i, t := range doc.Tables() {
		cols := 0
		if len(t.Rows) > 0 {
			cols = len(t.Rows[0])
		}
		out.Tables = append(out.Tables, OutlineTable{
			Index:   i,
			Rows:    len(t.Rows),
			Columns: cols,
		})
	}
	return out, nil
}

func (s *wordService) GetXML(ctx context.Context, filename string) (string, error) {
	path, data, err := s.readDocument(filename)
	if err != nil {
		return "", err
	}
	xml, err := docx.RawXML(data)
	if err != nil {
		return "", fmt.Errorf("extract xml from %s: %w", path, err)
	}
	return xml, nil
}

func (s *wordService) ListDocuments(ctx context.Context) ([]FileEntry, error) {
	infos, err := afero.ReadDir(s.fs, s.docsDir)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	entries := make([]FileEntry, 0)
	for _, fi := range infos {
		if fi.IsDir() || !strings.HasSuffix(strings.ToLower(fi.Name()), ".docx") {
			continue
		}
		entries = append(entries, FileEntry{Name: fi.Name(), SizeBytes: fi.Size()})
	}
	return entries, nil
}

func (s *wordService) CopyDocument(ctx context.Context, source, destination string) (string, error) {
	if source == "" {
		return "", ErrFilenameRequired
	}
	srcPath := s.resolvePath(fetch.EnsureDocxExtension(source))
	if ok, err := afero.Exists(s.fs, srcPath); err != nil || !ok {
		return "", fmt.Errorf("%w: %s", ErrDocumentNotFound, srcPath)
	}

	if destination == "" {
		base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
		destination = base + "_copy.docx"
	}
	dstPath := s.resolvePath(fetch.EnsureDocxExtension(destination))

	data, err := afero.ReadFile(s.fs, srcPath)
	if err != nil {
		return "", fmt.Errorf("copy document: %w", err)
	}
	if err := afero.WriteFile(s.fs, dstPath, data, 0o644); err != nil {
		return "", fmt.Errorf("copy document: %w", err)
	}
	s.log.WithFields(logrus.Fields{"source": srcPath, "destination": dstPath}).Info("copied document")
	return dstPath, nil
}

func (s *wordService) Merge(ctx context.Context, target string, sources []string, addPageBreaks bool) (*merge.Summary, error) {
	if target == "" {
		return nil, ErrFilenameRequired
	}
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	resolved := make([]string, len(sources))
	for i, src := range sources {
		resolved[i] = s.resolvePath(src)
	}
	return s.merger.Merge(s.resolvePath(target), resolved, addPageBreaks)
}

func (s *wordService) ConvertToPDF(ctx context.Context, filename, outputPath string) (string, error) {
	if filename == "" {
		return "", ErrFilenameRequired
	}
	srcPath := s.resolvePath(fetch.EnsureDocxExtension(filename))
	if outputPath == "" {
		outputPath = strings.TrimSuffix(srcPath, filepath.Ext(srcPath)) + ".pdf"
	} else {
		outputPath = s.resolvePath(outputPath)
	}
	return s.converter.ToPDF(ctx, srcPath, outputPath)
}

func (s *wordService) PublishDocument(ctx context.Context, fileID string) (*PublishResult, error) {
	if s.objects == nil {
		return nil, ErrPublishDisabled
	}
	doc, err := s.store.Get(fileID)
	if err != nil {
		return nil, err
	}

	key := filepath.ToSlash(filepath.Join("published", doc.ID, doc.Filename))
	_, err = s.objects.Put(ctx, key, bytes.NewReader(doc.Payload), storage.PutObjectOptions{
		Size:        int64(len(doc.Payload)),
		ContentType: model.WordMIME,
		Metadata: map[string]string{
			"original-filename": doc.Filename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("publish to storage: %w", err)
	}

	url, err := s.objects.PresignGet(ctx, key, s.presignExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign published object: %w", err)
	}

	s.log.WithFields(logrus.Fields{"file_id": fileID, "key": key}).Info("published document")
	return &PublishResult{
		Key:          key,
		URL:          url,
		ExpiresInSec: int(s.presignExpiry.Seconds()),
	}, nil
}

func (s *wordService) Download(ctx context.Context, fileID string) (model.StoredDocument, error) {
	return s.store.Get(fileID)
}

func (s *wordService) ListIngestions(ctx context.Context, limit, offset int) (*IngestionListResult, error) {
	if s.audit == nil {
		return nil, ErrAuditDisabled
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	res, err := s.audit.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &IngestionListResult{Items: res.Items, Total: res.Total}, nil
}

// readDocument resolves a filename, verifies it exists, and returns the
// resolved path alongside the raw bytes.
func (s *wordService) readDocument(filename string) (string, []byte, error) {
	if filename == "" {
		return "", nil, ErrFilenameRequired
	}
	path := s.resolvePath(fetch.EnsureDocxExtension(filename))
	if ok, err := afero.Exists(s.fs, path); err != nil || !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, path)
	}
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", path, err)
	}
	return path, data, nil
}

// recordIngestion appends an audit row when the audit log is configured.
// Failures are logged and swallowed; the store insertion has already
// succeeded and the audit log is advisory.
func (s *wordService) recordIngestion(ctx context.Context, fileID, filename, source string, size int64) {
	if s.audit == nil {
		return
	}
	_, err := s.audit.Create(ctx, &model.Ingestion{
		ID:          uuid.NewString(),
		FileID:      fileID,
		Filename:    filename,
		Source:      source,
		Size:        size,
		ContentType: model.WordMIME,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		s.log.WithError(err).WithField("file_id", fileID).Warn("failed to record ingestion")
	}
}
