package service_test

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/config"
	"docvault/internal/database"
	"docvault/internal/database/migration"
	"docvault/internal/logger"
	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/repository/sqlrepo"
	"docvault/internal/service"
	"docvault/internal/storage"
)

type harness struct {
	db        *sql.DB
	repo      repository.DocumentRepository
	store     storage.Storage
	uploadDir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()

	db, err := database.NewSQLite(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(dir, "data", "documents.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migration.EnsureMigrated(context.Background(), db, config.DriverSQLite, logger.Nop()))

	uploadDir := filepath.Join(dir, "uploads")
	store, err := storage.NewLocal(uploadDir)
	require.NoError(t, err)

	return &harness{db: db, repo: sqlrepo.NewDocumentSQL(db), store: store, uploadDir: uploadDir}
}

// tickingClock advances one second per call so creation order is unambiguous.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func (h *harness) service(repo repository.DocumentRepository) service.DocumentService {
	if repo == nil {
		repo = h.repo
	}
	return service.NewDocumentService(h.store, repo, service.Options{Now: tickingClock()})
}

func (h *harness) blobCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(h.uploadDir)
	require.NoError(t, err)
	return len(entries)
}

func pdfBytes(n int) []byte {
	b := bytes.Repeat([]byte{'x'}, n)
	copy(b, "%PDF-1.7\n")
	return b
}

func upload(t *testing.T, svc service.DocumentService, name string, body []byte) *model.Document {
	t.Helper()
	doc, err := svc.Upload(context.Background(), bytes.NewReader(body), name, service.PDFContentType, int64(len(body)))
	require.NoError(t, err)
	return doc
}

func TestUpload_PreservesSizeAndName(t *testing.T) {
	h := newHarness(t)
	svc := h.service(nil)
	ctx := context.Background()

	name := `Résumé – "final" (v2) & <notes> 100%.pdf`
	body := pdfBytes(4321)

	doc := upload(t, svc, name, body)
	assert.Positive(t, doc.ID)
	assert.Equal(t, name, doc.OriginalName)
	assert.Equal(t, int64(len(body)), doc.SizeBytes)
	assert.NotEqual(t, name, doc.StoredName)

	dl, err := svc.Open(ctx, doc.ID)
	require.NoError(t, err)
	defer dl.Body.Close()

	got, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, body, got)
	assert.Equal(t, name, dl.Document.OriginalName)
	assert.Equal(t, int64(len(body)), dl.Size)
}

func TestUpload_SameOriginalNameTwice(t *testing.T) {
	h := newHarness(t)
	svc := h.service(nil)

	a := upload(t, svc, "report.pdf", pdfBytes(10))
	b := upload(t, svc, "report.pdf", pdfBytes(20))

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.StoredName, b.StoredName)
	assert.Equal(t, 2, h.blobCount(t))
}

func TestUpload_RejectsNonPDFWithoutSideEffects(t *testing.T) {
	h := newHarness(t)
	svc := h.service(nil)
	ctx := context.Background()

	_, err := svc.Upload(ctx, bytes.NewReader([]byte("plain text")), "notes.txt", "text/plain", 10)
	assert.ErrorIs(t, err, service.ErrInvalidFileType)

	docs, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, 0, h.blobCount(t))
}

func TestUpload_SizeBoundary(t *testing.T) {
	h := newHarness(t)
	svc := h.service(nil)
	ctx := context.Background()

	limit := int(config.DefaultMaxUploadBytes)

	doc := upload(t, svc, "exact.pdf", pdfBytes(limit))
	assert.Equal(t, int64(limit), doc.SizeBytes)

	over := pdfBytes(limit + 1)
	_, err := svc.Upload(ctx, bytes.NewReader(over), "over.pdf", service.PDFContentType, int64(len(over)))
	assert.ErrorIs(t, err, service.ErrFileTooLarge)

	// Declared size within the limit, body past it.
	_, err = svc.Upload(ctx, bytes.NewReader(over), "lying.pdf", service.PDFContentType, 100)
	assert.ErrorIs(t, err, service.ErrFileTooLarge)

	docs, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, doc.ID, docs[0].ID)
	assert.Equal(t, 1, h.blobCount(t))
}

func TestDelete_RemovesFromListingAndDownload(t *testing.T) {
	h := newHarness(t)
	svc := h.service(nil)
	ctx := context.Background()

	doc := upload(t, svc, "gone.pdf", pdfBytes(64))

	res, err := svc.Delete(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, res.BlobRemoved)
	assert.Empty(t, res.Warning)

	docs, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = svc.Open(ctx, doc.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Equal(t, 0, h.blobCount(t))
}

func TestOpen_BlobRemovedOutOfBand(t *testing.T) {
	h := newHarness(t)
	svc := h.service(nil)
	ctx := context.Background()

	doc := upload(t, svc, "vanished.pdf", pdfBytes(64))
	require.NoError(t, os.Remove(doc.StoragePath))

	_, err := svc.Open(ctx, doc.ID)
	assert.ErrorIs(t, err, service.ErrFileNotFound)

	// Metadata is still listed, and delete cleans it up without a warning.
	docs, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	res, err := svc.Delete(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Warning)
}

func TestList_NewestFirst(t *testing.T) {
	h := newHarness(t)
	svc := h.service(nil)

	a := upload(t, svc, "A.pdf", pdfBytes(10))
	b := upload(t, svc, "B.pdf", pdfBytes(10))
	c := upload(t, svc, "C.pdf", pdfBytes(10))

	docs, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []int64{c.ID, b.ID, a.ID}, []int64{docs[0].ID, docs[1].ID, docs[2].ID})
}

func TestDelete_UnknownIDIsIdempotent(t *testing.T) {
	h := newHarness(t)
	svc := h.service(nil)
	ctx := context.Background()

	kept := upload(t, svc, "keep.pdf", pdfBytes(10))

	for i := 0; i < 2; i++ {
		_, err := svc.Delete(ctx, 999)
		assert.ErrorIs(t, err, service.ErrNotFound)
	}

	docs, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, kept.ID, docs[0].ID)
}

func TestDelete_ConcurrentOnlyOneWins(t *testing.T) {
	h := newHarness(t)
	svc := h.service(nil)
	ctx := context.Background()

	doc := upload(t, svc, "race.pdf", pdfBytes(10))

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Delete(ctx, doc.ID)
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, service.ErrNotFound)
	}
	assert.Equal(t, 1, ok)
}

// failingCreate wraps a repository and fails every insert.
type failingCreate struct {
	repository.DocumentRepository
}

func (failingCreate) Create(context.Context, *model.Document) (*model.Document, error) {
	return nil, errors.New("disk I/O error")
}

func TestUpload_MetadataFailureRemovesBlob(t *testing.T) {
	h := newHarness(t)
	svc := h.service(failingCreate{h.repo})

	body := pdfBytes(128)
	_, err := svc.Upload(context.Background(), bytes.NewReader(body), "a.pdf", service.PDFContentType, int64(len(body)))
	assert.ErrorIs(t, err, service.ErrMetadataWriteFailed)
	assert.Equal(t, 0, h.blobCount(t))
}
