package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/model"
	repoMocks "docvault/internal/repository/mocks"
	"docvault/internal/storage"
	storeMocks "docvault/internal/storage/mocks"
)

func TestReconciler_Run(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	old := now.Add(-2 * time.Hour)

	blobs := []storage.ObjectInfo{
		{Key: "/data/uploads/a.pdf", LastModified: old},
		{Key: "/data/uploads/orphan-old.pdf", LastModified: old},
		{Key: "/data/uploads/orphan-new.pdf", LastModified: now.Add(-time.Minute)},
	}
	docs := []model.Document{
		{ID: 1, StoredName: "a.pdf", StoragePath: "/data/uploads/a.pdf"},
		{ID: 2, StoredName: "b.pdf", StoragePath: "/data/uploads/b.pdf"},
	}

	tests := []struct {
		name       string
		dryRun     bool
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository)
		want       *ReconcileReport
		wantErr    string
	}{
		{
			name:   "dry run reports without deleting",
			dryRun: true,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mStore.On("List", ctx).Return(blobs, nil)
				mRepo.On("List", ctx).Return(docs, nil)
			},
			want: &ReconcileReport{
				OrphanedBlobs:    []string{"/data/uploads/orphan-old.pdf"},
				OrphanedMetadata: []int64{2},
				SkippedRecent:    1,
				Failed:           []string{},
				DryRun:           true,
			},
		},
		{
			name: "removes old orphaned blobs only",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mStore.On("List", ctx).Return(blobs, nil)
				mRepo.On("List", ctx).Return(docs, nil)
				mStore.On("Delete", ctx, "/data/uploads/orphan-old.pdf").Return(nil)
			},
			want: &ReconcileReport{
				OrphanedBlobs:    []string{"/data/uploads/orphan-old.pdf"},
				OrphanedMetadata: []int64{2},
				SkippedRecent:    1,
				Failed:           []string{},
			},
		},
		{
			name: "failed blob delete is reported",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mStore.On("List", ctx).Return(blobs, nil)
				mRepo.On("List", ctx).Return(docs, nil)
				mStore.On("Delete", ctx, "/data/uploads/orphan-old.pdf").Return(errors.New("permission denied"))
			},
			want: &ReconcileReport{
				OrphanedBlobs:    []string{"/data/uploads/orphan-old.pdf"},
				OrphanedMetadata: []int64{2},
				SkippedRecent:    1,
				Failed:           []string{"/data/uploads/orphan-old.pdf"},
			},
		},
		{
			name: "blob listing error",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mStore.On("List", ctx).Return(nil, errors.New("io error"))
			},
			wantErr: "list blobs: io error",
		},
		{
			name: "document listing error",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mStore.On("List", ctx).Return(blobs, nil)
				mRepo.On("List", ctx).Return(nil, errors.New("db fail"))
			},
			wantErr: "list documents: db fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockDocumentRepository)
			tt.setupMocks(mStore, mRepo)

			r := NewReconciler(mStore, mRepo, time.Hour, nil, nil)
			r.now = func() time.Time { return now }

			got, err := r.Run(ctx, tt.dryRun)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestReconciler_CountsOrphans(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockDocumentRepository)
	mStore.On("List", ctx).Return([]storage.ObjectInfo{}, nil)
	mRepo.On("List", ctx).Return([]model.Document{{ID: 7, StoredName: "x.pdf"}}, nil)

	_, err = NewReconciler(mStore, mRepo, 0, nil, metrics).Run(ctx, true)
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.orphans.WithLabelValues("metadata")))
}
