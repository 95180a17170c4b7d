package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wordapi/internal/docx"
	"wordapi/internal/fetch"
	"wordapi/internal/links"
	"wordapi/internal/merge"
	"wordapi/internal/model"
	"wordapi/internal/repository"
	repoMocks "wordapi/internal/repository/mocks"
	"wordapi/internal/storage"
	storeMocks "wordapi/internal/storage/mocks"
	"wordapi/internal/store"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, rawURL, filenameOverride string) (*fetch.Result, error) {
	args := m.Called(ctx, rawURL, filenameOverride)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fetch.Result), args.Error(1)
}

type mockMerger struct {
	mock.Mock
}

func (m *mockMerger) Merge(target string, sources []string, addPageBreaks bool) (*merge.Summary, error) {
	args := m.Called(target, sources, addPageBreaks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*merge.Summary), args.Error(1)
}

type mockConverter struct {
	mock.Mock
}

func (m *mockConverter) ToPDF(ctx context.Context, source, outputPath string) (string, error) {
	args := m.Called(ctx, source, outputPath)
	return args.String(0), args.Error(1)
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(new(strings.Builder))
	return log
}

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	issuer, err := links.NewIssuer("http://127.0.0.1:8080")
	require.NoError(t, err)
	ts := store.New(testLogger())
	t.Cleanup(ts.Close)
	return Deps{
		Fs:           afero.NewMemMapFs(),
		DocumentsDir: "/docs",
		Store:        ts,
		Links:        issuer,
		Log:          testLogger(),
	}
}

func writeSampleDoc(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	doc := docx.New()
	doc.Properties.Title = "Sample"
	doc.Properties.Author = "Tester"
	doc.AddHeading("Intro", 1)
	doc.AddParagraph("one two three")
	doc.AddTable([][]string{{"a", "b"}, {"c", "d"}})
	require.NoError(t, doc.Save(fs, path))
}

func TestWordService_CreateDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path appends extension and writes file", func(t *testing.T) {
		deps := newTestDeps(t)
		svc := NewWordService(deps)

		path, err := svc.CreateDocument(ctx, "report", "Title", "Author")

		assert.NoError(t, err)
		assert.Equal(t, "/docs/report.docx", path)

		exists, err := afero.Exists(deps.Fs, path)
		assert.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("empty filename", func(t *testing.T) {
		svc := NewWordService(newTestDeps(t))

		_, err := svc.CreateDocument(ctx, "", "", "")

		assert.ErrorIs(t, err, ErrFilenameRequired)
	})
}

func TestWordService_CreateDocumentTemp(t *testing.T) {
	ctx := context.Background()

	t.Run("stores payload and issues link", func(t *testing.T) {
		svc := NewWordService(newTestDeps(t))

		info, err := svc.CreateDocumentTemp(ctx, "draft", "Draft", "")

		assert.NoError(t, err)
		assert.Equal(t, "draft.docx", info.Filename)
		assert.Equal(t, "http://127.0.0.1:8080/mcp/download/"+info.FileID, info.DownloadURL)

		stored, err := svc.Download(ctx, info.FileID)
		assert.NoError(t, err)
		assert.Equal(t, "draft.docx", stored.Filename)
		assert.NotEmpty(t, stored.Payload)
	})

	t.Run("records ingestion when audit log configured", func(t *testing.T) {
		deps := newTestDeps(t)
		mRepo := new(repoMocks.MockIngestionRepository)
		mRepo.On("Create", ctx, mock.MatchedBy(func(ing *model.Ingestion) bool {
			return ing.Filename == "draft.docx" && ing.Source == "created" && ing.Size > 0
		})).Return(&model.Ingestion{}, nil)
		deps.Audit = mRepo
		svc := NewWordService(deps)

		_, err := svc.CreateDocumentTemp(ctx, "draft", "", "")

		assert.NoError(t, err)
		mRepo.AssertExpectations(t)
	})

	t.Run("audit failure does not fail the operation", func(t *testing.T) {
		deps := newTestDeps(t)
		mRepo := new(repoMocks.MockIngestionRepository)
		mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db down"))
		deps.Audit = mRepo
		svc := NewWordService(deps)

		info, err := svc.CreateDocumentTemp(ctx, "draft", "", "")

		assert.NoError(t, err)
		assert.NotEmpty(t, info.FileID)
	})
}

func TestWordService_LoadFromURL(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		deps := newTestDeps(t)
		mFetch := new(mockFetcher)
		mFetch.On("Fetch", ctx, "https://example.com/report.docx", "").
			Return(&fetch.Result{Filename: "report.docx", Payload: []byte("payload")}, nil)
		deps.Fetcher = mFetch
		svc := NewWordService(deps)

		info, err := svc.LoadFromURL(ctx, "https://example.com/report.docx", "")

		assert.NoError(t, err)
		assert.Equal(t, "report.docx", info.Filename)
		assert.Contains(t, info.DownloadURL, "/mcp/download/"+info.FileID)

		stored, err := svc.Download(ctx, info.FileID)
		assert.NoError(t, err)
		assert.Equal(t, []byte("payload"), stored.Payload)
		mFetch.AssertExpectations(t)
	})

	t.Run("fetch error propagates", func(t *testing.T) {
		deps := newTestDeps(t)
		mFetch := new(mockFetcher)
		mFetch.On("Fetch", ctx, "https://example.com/page", "").
			Return(nil, fetch.ErrNotWordDocument)
		deps.Fetcher = mFetch
		svc := NewWordService(deps)

		_, err := svc.LoadFromURL(ctx, "https://example.com/page", "")

		assert.ErrorIs(t, err, fetch.ErrNotWordDocument)
	})

	t.Run("empty url", func(t *testing.T) {
		svc := NewWordService(newTestDeps(t))

		_, err := svc.LoadFromURL(ctx, "", "")

		assert.ErrorIs(t, err, ErrURLRequired)
	})
}

func TestWordService_GetInfo(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		deps := newTestDeps(t)
		writeSampleDoc(t, deps.Fs, "/docs/sample.docx")
		svc := NewWordService(deps)

		info, err := svc.GetInfo(ctx, "sample")

		assert.NoError(t, err)
		assert.Equal(t, "sample.docx", info.Filename)
		assert.Equal(t, "Sample", info.Title)
		assert.Equal(t, "Tester", info.Author)
		assert.Equal(t, 2, info.ParagraphCount)
		assert.Equal(t, 1, info.TableCount)
		// "Intro" + "one two three" + four table cells
		assert.Equal(t, 8, info.WordCount)
		assert.Greater(t, info.SizeBytes, int64(0))
	})

	t.Run("missing document", func(t *testing.T) {
		svc := NewWordService(newTestDeps(t))

		_, err := svc.GetInfo(ctx, "missing")

		assert.ErrorIs(t, err, ErrDocumentNotFound)
	})
}

func TestWordService_GetText(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps(t)
	writeSampleDoc(t, deps.Fs, "/docs/sample.docx")
	svc := NewWordService(deps)

	text, err := svc.GetText(ctx, "sample.docx")

	assert.NoError(t, err)
	assert.Equal(t, "Intro\none two three", text)
}

func TestWordService_GetOutline(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps(t)
	writeSampleDoc(t, deps.Fs, "/docs/sample.docx")
	svc := NewWordService(deps)

	outline, err := svc.GetOutline(ctx, "sample")

	assert.NoError(t, err)
	require.Len(t, outline.Paragraphs, 2)
	assert.Equal(t, "Heading 1", outline.Paragraphs[0].Style)
	assert.Equal(t, "Intro", outline.Paragraphs[0].Preview)
	assert.Equal(t, "Normal", outline.Paragraphs[1].Style)
	require.Len(t, outline.Tables, 1)
	assert.Equal(t, 2, outline.Tables[0].Rows)
	assert.Equal(t, 2, outline.Tables[0].Columns)
}

func TestWordService_GetOutlinePreviewKeepsValidUTF8(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps(t)

	doc := docx.New()
	// 3 bytes per rune, so the byte cap lands mid-rune.
	doc.AddParagraph(strings.Repeat("€", 40))
	require.NoError(t, doc.Save(deps.Fs, "/docs/euros.docx"))

	svc := NewWordService(deps)
	outline, err := svc.GetOutline(ctx, "euros.docx")

	assert.NoError(t, err)
	require.Len(t, outline.Paragraphs, 1)
	preview := outline.Paragraphs[0].Preview
	assert.True(t, utf8.ValidString(preview))
	assert.LessOrEqual(t, len(preview), 80)
	assert.Equal(t, strings.Repeat("€", 26), preview)
}

func TestWordService_GetXML(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps(t)
	writeSampleDoc(t, deps.Fs, "/docs/sample.docx")
	svc := NewWordService(deps)

	xml, err := svc.GetXML(ctx, "sample")

	assert.NoError(t, err)
	assert.Contains(t, xml, "<w:document")
	assert.Contains(t, xml, "one two three")
}

func TestWordService_ListDocuments(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps(t)
	require.NoError(t, afero.WriteFile(deps.Fs, "/docs/a.docx", []byte("aa"), 0o644))
	require.NoError(t, afero.WriteFile(deps.Fs, "/docs/b.DOCX", []byte("bbbb"), 0o644))
	require.NoError(t, afero.WriteFile(deps.Fs, "/docs/notes.txt", []byte("x"), 0o644))
	require.NoError(t, deps.Fs.MkdirAll("/docs/archive.docx.d", 0o755))
	svc := NewWordService(deps)

	entries, err := svc.ListDocuments(ctx)

	assert.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.docx", entries[0].Name)
	assert.Equal(t, int64(2), entries[0].SizeBytes)
	assert.Equal(t, "b.DOCX", entries[1].Name)
}

func TestWordService_CopyDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("default destination", func(t *testing.T) {
		deps := newTestDeps(t)
		require.NoError(t, afero.WriteFile(deps.Fs, "/docs/orig.docx", []byte("content"), 0o644))
		svc := NewWordService(deps)

		dst, err := svc.CopyDocument(ctx, "orig", "")

		assert.NoError(t, err)
		assert.Equal(t, "/docs/orig_copy.docx", dst)

		data, err := afero.ReadFile(deps.Fs, dst)
		assert.NoError(t, err)
		assert.Equal(t, []byte("content"), data)
	})

	t.Run("explicit destination", func(t *testing.T) {
		deps := newTestDeps(t)
		require.NoError(t, afero.WriteFile(deps.Fs, "/docs/orig.docx", []byte("content"), 0o644))
		svc := NewWordService(deps)

		dst, err := svc.CopyDocument(ctx, "orig", "backup")

		assert.NoError(t, err)
		assert.Equal(t, "/docs/backup.docx", dst)
	})

	t.Run("missing source", func(t *testing.T) {
		svc := NewWordService(newTestDeps(t))

		_, err := svc.CopyDocument(ctx, "ghost", "")

		assert.ErrorIs(t, err, ErrDocumentNotFound)
	})
}

func TestWordService_Merge(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves paths and delegates", func(t *testing.T) {
		deps := newTestDeps(t)
		mMerge := new(mockMerger)
		mMerge.On("Merge", "/docs/out.docx", []string{"/docs/a.docx", "/docs/b.docx"}, true).
			Return(&merge.Summary{SourceCount: 2, Target: "/docs/out.docx"}, nil)
		deps.Merger = mMerge
		svc := NewWordService(deps)

		sum, err := svc.Merge(ctx, "out.docx", []string{"a.docx", "b.docx"}, true)

		assert.NoError(t, err)
		assert.Equal(t, 2, sum.SourceCount)
		mMerge.AssertExpectations(t)
	})

	t.Run("no sources", func(t *testing.T) {
		svc := NewWordService(newTestDeps(t))

		_, err := svc.Merge(ctx, "out.docx", nil, false)

		assert.ErrorIs(t, err, ErrNoSources)
	})

	t.Run("empty target", func(t *testing.T) {
		svc := NewWordService(newTestDeps(t))

		_, err := svc.Merge(ctx, "", []string{"a.docx"}, false)

		assert.ErrorIs(t, err, ErrFilenameRequired)
	})
}

func TestWordService_ConvertToPDF(t *testing.T) {
	ctx := context.Background()

	t.Run("derives default output path", func(t *testing.T) {
		deps := newTestDeps(t)
		mConv := new(mockConverter)
		mConv.On("ToPDF", mock.Anything, "/docs/report.docx", "/docs/report.pdf").
			Return("/docs/report.pdf", nil)
		deps.Converter = mConv
		svc := NewWordService(deps)

		out, err := svc.ConvertToPDF(ctx, "report", "")

		assert.NoError(t, err)
		assert.Equal(t, "/docs/report.pdf", out)
		mConv.AssertExpectations(t)
	})

	t.Run("explicit output path", func(t *testing.T) {
		deps := newTestDeps(t)
		mConv := new(mockConverter)
		mConv.On("ToPDF", mock.Anything, "/docs/report.docx", "/docs/final.pdf").
			Return("/docs/final.pdf", nil)
		deps.Converter = mConv
		svc := NewWordService(deps)

		out, err := svc.ConvertToPDF(ctx, "report.docx", "final.pdf")

		assert.NoError(t, err)
		assert.Equal(t, "/docs/final.pdf", out)
	})
}

func TestWordService_PublishDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		deps := newTestDeps(t)
		mStore := new(storeMocks.MockStorage)
		deps.Objects = mStore
		deps.PresignExpiry = 30 * time.Minute
		svc := NewWordService(deps)

		id := deps.Store.Put("report.docx", []byte("payload"))
		key := "published/" + id + "/report.docx"

		mStore.On("Put", ctx, key, mock.Anything, storage.PutObjectOptions{
			Size:        7,
			ContentType: model.WordMIME,
			Metadata:    map[string]string{"original-filename": "report.docx"},
		}).Return(storage.ObjectInfo{Key: key}, nil)
		mStore.On("PresignGet", ctx, key, 30*time.Minute).
			Return("https://minio.example.com/presigned", nil)

		res, err := svc.PublishDocument(ctx, id)

		assert.NoError(t, err)
		assert.Equal(t, key, res.Key)
		assert.Equal(t, "https://minio.example.com/presigned", res.URL)
		assert.Equal(t, 1800, res.ExpiresInSec)
		mStore.AssertExpectations(t)
	})

	t.Run("storage not configured", func(t *testing.T) {
		svc := NewWordService(newTestDeps(t))

		_, err := svc.PublishDocument(ctx, "any-id")

		assert.ErrorIs(t, err, ErrPublishDisabled)
	})

	t.Run("unknown file id", func(t *testing.T) {
		deps := newTestDeps(t)
		deps.Objects = new(storeMocks.MockStorage)
		svc := NewWordService(deps)

		_, err := svc.PublishDocument(ctx, "missing-id")

		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestWordService_ListIngestions(t *testing.T) {
	ctx := context.Background()

	t.Run("audit disabled", func(t *testing.T) {
		svc := NewWordService(newTestDeps(t))

		_, err := svc.ListIngestions(ctx, 10, 0)

		assert.ErrorIs(t, err, ErrAuditDisabled)
	})

	t.Run("defaults applied and result mapped", func(t *testing.T) {
		deps := newTestDeps(t)
		mRepo := new(repoMocks.MockIngestionRepository)
		mRepo.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0}).
			Return(&repository.PageResult[model.Ingestion]{
				Items: []model.Ingestion{{ID: "1"}},
				Total: 1,
			}, nil)
		deps.Audit = mRepo
		svc := NewWordService(deps)

		res, err := svc.ListIngestions(ctx, 0, -5)

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Len(t, res.Items, 1)
		mRepo.AssertExpectations(t)
	})
}
