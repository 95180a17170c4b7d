// Package fetch retrieves Word documents from caller-supplied URLs and
// validates them before they are admitted to the temporary store.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wordapi/internal/model"
)

// ErrNotWordDocument is returned when a URL resolves but does not serve a
// Word document content type. It is a validation failure, distinct from
// transport errors.
var ErrNotWordDocument = errors.New("the URL does not point to a valid Word document")

// ErrDocumentTooLarge is returned when the response body exceeds the
// configured size cap. A truncated document would be corrupt, so the fetch is
// rejected outright instead.
var ErrDocumentTooLarge = errors.New("the document exceeds the maximum allowed size")

// TransportError is a network failure or non-2xx response during remote
// fetch. Callers can tell "could not reach the URL" apart from "reached it
// but it wasn't a Word document".
type TransportError struct {
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Result is a fetched document ready for the store.
type Result struct {
	Filename string
	Payload  []byte
}

// Fetcher downloads documents over HTTP with a bounded timeout.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	log      *logrus.Entry
}

// New creates a Fetcher. client may carry a Timeout; maxBytes caps the
// response body size (<=0 means no cap).
func New(client *http.Client, maxBytes int64, log *logrus.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Fetcher{
		client:   client,
		maxBytes: maxBytes,
		log:      log.WithField("component", "fetch"),
	}
}

// Fetch retrieves the document at rawURL. filenameOverride, when non-empty,
// takes precedence over any derived name. The returned filename always ends
// in .docx.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, filenameOverride string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	// Status is rejected before the content type is even inspected.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{URL: rawURL, Status: resp.StatusCode}
	}

	if !strings.Contains(resp.Header.Get("Content-Type"), model.WordMIME) {
		return nil, ErrNotWordDocument
	}

	body := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		// One byte past the cap distinguishes "at the limit" from "over it".
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	payload, err := io.ReadAll(body)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	if f.maxBytes > 0 && int64(len(payload)) > f.maxBytes {
		return nil, fmt.Errorf("%w: response body over %d bytes", ErrDocumentTooLarge, f.maxBytes)
	}

	filename := deriveFilename(filenameOverride, resp.Header.Get("Content-Disposition"), rawURL)

	f.log.WithFields(logrus.Fields{
		"url":      rawURL,
		"filename": filename,
		"size":     len(payload),
	}).Info("fetched remote document")

	return &Result{Filename: EnsureDocxExtension(filename), Payload: payload}, nil
}

// deriveFilename applies the resolution order: explicit override,
// content-disposition filename, last URL path segment, generated fallback.
func deriveFilename(override, contentDisposition, rawURL string) string {
	if override != "" {
		return override
	}
	if name := filenameFromDisposition(contentDisposition); name != "" {
		return name
	}
	if name := filenameFromURL(rawURL); name != "" {
		return name
	}
	return fmt.Sprintf("document_%s.docx", uuid.NewString()[:8])
}

func filenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := params["filename"]; name != "" {
			return name
		}
	}
	// Fall back to a loose parse for headers ParseMediaType rejects.
	if idx := strings.Index(header, "filename="); idx >= 0 {
		name := header[idx+len("filename="):]
		if end := strings.IndexByte(name, ';'); end >= 0 {
			name = name[:end]
		}
		return strings.Trim(strings.TrimSpace(name), `"'`)
	}
	return ""
}

func filenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	p, err := url.PathUnescape(u.Path)
	if err != nil {
		p = u.Path
	}
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// EnsureDocxExtension appends .docx when the name does not already carry it
// (case-insensitive).
func EnsureDocxExtension(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".docx") {
		return name
	}
	return name + ".docx"
}
