package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docvault/internal/config"
	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/storage"
)

// PDFContentType is the only MIME type accepted on upload and the one sent on download.
const PDFContentType = "application/pdf"

// PartialDeleteWarning is attached to a delete whose row is gone but whose blob could not be removed.
const PartialDeleteWarning = "Physical file may still exist"

// Limits describes what an upload must satisfy. The UI fetches it to mirror the checks.
type Limits struct {
	MaxUploadBytes  int64  `json:"maxUploadBytes"`
	AllowedMimeType string `json:"allowedMimeType"`
}

// Download is an open document blob. The caller must close Body.
type Download struct {
	Document *model.Document
	Body     io.ReadCloser
	Size     int64
}

// DeleteResult reports a successful delete. Warning is set when the row was
// removed but the blob may still be on disk.
type DeleteResult struct {
	Document    *model.Document
	BlobRemoved bool
	Warning     string
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload validates the file, writes the blob, then inserts metadata.
	// If the insert fails the blob is deleted again.
	Upload(ctx context.Context, r io.Reader, originalName string, contentType string, size int64) (*model.Document, error)

	// List returns all documents, newest first.
	List(ctx context.Context) ([]model.Document, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id int64) (*model.Document, error)

	// Open returns the document together with a reader over its blob.
	Open(ctx context.Context, id int64) (*Download, error)

	// Delete removes the metadata row, then the blob. Blob removal failure is a warning.
	Delete(ctx context.Context, id int64) (*DeleteResult, error)

	// Limits returns the upload constraints enforced by Upload.
	Limits() Limits
}

// Options configures a DocumentService. Zero values fall back to defaults.
type Options struct {
	MaxUploadBytes int64
	Logger         *zap.Logger
	Metrics        *Metrics
	Now            func() time.Time
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store    storage.Storage
	repo     repository.DocumentRepository
	maxBytes int64
	log      *zap.Logger
	metrics  *Metrics
	now      func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, opts Options) DocumentService {
	s := &documentService{
		store:    store,
		repo:     repo,
		maxBytes: opts.MaxUploadBytes,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		now:      opts.Now,
	}
	if s.maxBytes <= 0 {
		s.maxBytes = config.DefaultMaxUploadBytes
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *documentService) Limits() Limits {
	return Limits{MaxUploadBytes: s.maxBytes, AllowedMimeType: PDFContentType}
}

// newStoredName returns a collision-resistant blob name that does not depend on the
// user's filename. UUIDv7 keeps names roughly time ordered on disk.
func newStoredName() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String() + ".pdf"
}

func (s *documentService) Upload(ctx context.Context, r io.Reader, originalName string, contentType string, size int64) (doc *model.Document, err error) {
	defer func() { s.metrics.observe("upload", err) }()

	if r == nil || size == 0 {
		return nil, ErrNoFileProvided
	}
	if contentType != PDFContentType {
		return nil, ErrInvalidFileType
	}
	if size > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	name := newStoredName()

	// Read at most one byte past the ceiling so an understated size is still caught.
	limited := &io.LimitedReader{R: r, N: s.maxBytes + 1}
	info, err := s.store.Put(ctx, name, limited, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageWriteFailed, err)
	}

	switch {
	case info.Size > s.maxBytes:
		s.discard(ctx, info.Key, "oversized")
		return nil, ErrFileTooLarge
	case info.Size == 0:
		s.discard(ctx, info.Key, "empty")
		return nil, ErrNoFileProvided
	}

	record := &model.Document{
		StoredName:   name,
		OriginalName: originalName,
		StoragePath:  info.Key,
		SizeBytes:    info.Size,
		CreatedAt:    s.now().UTC(),
	}
	stored, err := s.repo.Create(ctx, record)
	if err != nil {
		// Compensate: the blob must not outlive a failed insert.
		if delErr := s.store.Delete(ctx, info.Key); delErr != nil {
			s.log.Error("upload_rollback_failed",
				zap.String("storage_path", info.Key),
				zap.NamedError("db_error", err),
				zap.NamedError("delete_error", delErr),
			)
			return nil, fmt.Errorf("%w: %w; rollback delete failed: %v", ErrMetadataWriteFailed, err, delErr)
		}
		s.log.Warn("upload_rolled_back", zap.String("storage_path", info.Key), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrMetadataWriteFailed, err)
	}

	s.metrics.uploaded(stored.SizeBytes)
	s.log.Info("document_uploaded",
		zap.Int64("id", stored.ID),
		zap.String("stored_name", stored.StoredName),
		zap.Int64("size_bytes", stored.SizeBytes),
	)
	return stored, nil
}

// discard removes a blob that failed post-write validation.
func (s *documentService) discard(ctx context.Context, key, reason string) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.log.Error("upload_discard_failed", zap.String("storage_path", key), zap.String("reason", reason), zap.Error(err))
	}
}

func (s *documentService) List(ctx context.Context) (docs []model.Document, err error) {
	defer func() { s.metrics.observe("list", err) }()

	docs, err = s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func (s *documentService) Get(ctx context.Context, id int64) (*model.Document, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return doc, nil
}

func (s *documentService) Open(ctx context.Context, id int64) (dl *Download, err error) {
	defer func() { s.metrics.observe("download", err) }()

	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	body, info, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.log.Warn("orphaned_metadata", zap.Int64("id", doc.ID), zap.String("storage_path", doc.StoragePath))
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return &Download{Document: doc, Body: body, Size: info.Size}, nil
}

func (s *documentService) Delete(ctx context.Context, id int64) (res *DeleteResult, err error) {
	defer func() { s.metrics.observe("delete", err) }()

	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// Metadata goes first: once the row is gone the document disappears from
	// listings even if the disk cleanup below fails.
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete metadata: %w", err)
	}

	res = &DeleteResult{Document: doc, BlobRemoved: true}
	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.log.Debug("blob_already_absent", zap.Int64("id", id), zap.String("storage_path", doc.StoragePath))
			return res, nil
		}
		s.log.Warn("blob_delete_failed", zap.Int64("id", id), zap.String("storage_path", doc.StoragePath), zap.Error(err))
		s.metrics.warn("delete")
		res.BlobRemoved = false
		res.Warning = PartialDeleteWarning
		return res, nil
	}

	s.log.Info("document_deleted", zap.Int64("id", id))
	return res, nil
}
