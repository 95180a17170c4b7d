package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wordapi/internal/model"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newFetcher() *Fetcher {
	return New(&http.Client{Timeout: 2 * time.Second}, 0, quietLogger())
}

func TestFetchHappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", model.WordMIME)
		w.Header().Set("Content-Disposition", `attachment; filename="report.docx"`)
		w.Write([]byte("PK\x03\x04docx"))
	}))
	defer srv.Close()

	res, err := newFetcher().Fetch(context.Background(), srv.URL, "")
	require.NoError(t, err)
	assert.Equal(t, "report.docx", res.Filename)
	assert.Equal(t, []byte("PK\x03\x04docx"), res.Payload)
}

func TestFetchRejectsWrongContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>error page</html>"))
	}))
	defer srv.Close()

	_, err := newFetcher().Fetch(context.Background(), srv.URL, "")
	assert.ErrorIs(t, err, ErrNotWordDocument)
}

func TestFetchRejectsNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Word content type on an error status must still be a
		// transport error: status wins.
		w.Header().Set("Content-Type", model.WordMIME)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newFetcher().Fetch(context.Background(), srv.URL, "")
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusNotFound, te.Status)
}

func TestFetchRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", model.WordMIME)
		w.Write(make([]byte, 100))
	}))
	defer srv.Close()

	capped := New(&http.Client{Timeout: 2 * time.Second}, 50, quietLogger())
	_, err := capped.Fetch(context.Background(), srv.URL, "")
	assert.ErrorIs(t, err, ErrDocumentTooLarge)
}

func TestFetchBodyAtCapIsAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", model.WordMIME)
		w.Write(make([]byte, 50))
	}))
	defer srv.Close()

	capped := New(&http.Client{Timeout: 2 * time.Second}, 50, quietLogger())
	res, err := capped.Fetch(context.Background(), srv.URL, "")
	require.NoError(t, err)
	assert.Len(t, res.Payload, 50)
}

func TestFetchTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately unreachable

	_, err := newFetcher().Fetch(context.Background(), srv.URL, "")
	var te *TransportError
	assert.ErrorAs(t, err, &te)
}

func TestFetchFilenameOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", model.WordMIME)
		w.Header().Set("Content-Disposition", `attachment; filename="server.docx"`)
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	res, err := newFetcher().Fetch(context.Background(), srv.URL, "mine")
	require.NoError(t, err)
	assert.Equal(t, "mine.docx", res.Filename)
}

func TestFetchFilenameFromURLPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", model.WordMIME)
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	res, err := newFetcher().Fetch(context.Background(), srv.URL+"/files/annual%20report.docx", "")
	require.NoError(t, err)
	assert.Equal(t, "annual report.docx", res.Filename)
}

func TestFetchGeneratedFallbackName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", model.WordMIME)
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	res, err := newFetcher().Fetch(context.Background(), srv.URL+"/", "")
	require.NoError(t, err)
	assert.Regexp(t, `^document_[0-9a-f-]{8}\.docx$`, res.Filename)
}

func TestDeriveFilenameQuoteStripping(t *testing.T) {
	assert.Equal(t, "r.docx", filenameFromDisposition(`attachment; filename="r.docx"`))
	assert.Equal(t, "r.docx", filenameFromDisposition(`attachment; filename=r.docx`))
	assert.Equal(t, "", filenameFromDisposition(`inline`))
}

func TestEnsureDocxExtension(t *testing.T) {
	assert.Equal(t, "a.docx", EnsureDocxExtension("a"))
	assert.Equal(t, "a.docx", EnsureDocxExtension("a.docx"))
	assert.Equal(t, "a.DOCX", EnsureDocxExtension("a.DOCX"))
}
