package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"docvault/internal/repository"
	"docvault/internal/storage"
)

// ReconcileReport summarizes one sweep over the two stores.
type ReconcileReport struct {
	// OrphanedBlobs are blob keys with no metadata row. They are deleted unless DryRun.
	OrphanedBlobs []string `json:"orphanedBlobs"`
	// OrphanedMetadata are document IDs whose blob is missing. Metadata is authoritative,
	// so these rows are only reported.
	OrphanedMetadata []int64 `json:"orphanedMetadata"`
	// SkippedRecent counts unmatched blobs younger than the grace period; they may
	// belong to an upload whose insert has not committed yet.
	SkippedRecent int      `json:"skippedRecent"`
	Failed        []string `json:"failed"`
	DryRun        bool     `json:"dryRun"`
}

// Reconciler removes blobs left behind by crashes between blob write and metadata
// insert, and reports rows whose blob was removed out of band.
type Reconciler struct {
	store   storage.Storage
	repo    repository.DocumentRepository
	grace   time.Duration
	log     *zap.Logger
	metrics *Metrics
	now     func() time.Time
}

// NewReconciler constructs a Reconciler. Blobs modified within grace are never removed.
func NewReconciler(store storage.Storage, repo repository.DocumentRepository, grace time.Duration, log *zap.Logger, metrics *Metrics) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{store: store, repo: repo, grace: grace, log: log, metrics: metrics, now: time.Now}
}

// blobName is the identity shared by a row and its blob: the stored file name.
func blobName(key string) string {
	return path.Base(filepath.ToSlash(key))
}

// Run performs one sweep. Blobs are listed before rows so a document inserted
// mid-sweep is never mistaken for an orphan.
func (r *Reconciler) Run(ctx context.Context, dryRun bool) (*ReconcileReport, error) {
	start := r.now()

	blobs, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	docs, err := r.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	known := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		known[d.StoredName] = struct{}{}
	}
	present := make(map[string]struct{}, len(blobs))
	for _, b := range blobs {
		present[blobName(b.Key)] = struct{}{}
	}

	report := &ReconcileReport{
		OrphanedBlobs:    make([]string, 0),
		OrphanedMetadata: make([]int64, 0),
		Failed:           make([]string, 0),
		DryRun:           dryRun,
	}
	cutoff := start.Add(-r.grace)

	for _, b := range blobs {
		if _, ok := known[blobName(b.Key)]; ok {
			continue
		}
		if b.LastModified.After(cutoff) {
			report.SkippedRecent++
			continue
		}
		report.OrphanedBlobs = append(report.OrphanedBlobs, b.Key)
		if dryRun {
			continue
		}
		if err := r.store.Delete(ctx, b.Key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			r.log.Warn("orphan_blob_delete_failed", zap.String("storage_path", b.Key), zap.Error(err))
			report.Failed = append(report.Failed, b.Key)
		}
	}

	for _, d := range docs {
		if _, ok := present[d.StoredName]; !ok {
			report.OrphanedMetadata = append(report.OrphanedMetadata, d.ID)
		}
	}

	r.metrics.orphan("blob", len(report.OrphanedBlobs))
	r.metrics.orphan("metadata", len(report.OrphanedMetadata))
	r.log.Info("reconcile_complete",
		zap.Bool("dry_run", dryRun),
		zap.Int("blobs", len(blobs)),
		zap.Int("documents", len(docs)),
		zap.Int("orphaned_blobs", len(report.OrphanedBlobs)),
		zap.Int("orphaned_metadata", len(report.OrphanedMetadata)),
		zap.Int("skipped_recent", report.SkippedRecent),
		zap.Int("failed", len(report.Failed)),
		zap.Duration("duration_ms", r.now().Sub(start)),
	)
	return report, nil
}
