package sqlrepo

import (
	"context"
	"database/sql"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// DocumentSQL is a database/sql implementation of repository.DocumentRepository.
// The queries use $N placeholders and RETURNING, which both PostgreSQL and SQLite
// (3.35+) accept, so one implementation serves either driver.
type DocumentSQL struct {
	db *sql.DB
}

// NewDocumentSQL creates a new DocumentSQL repository.
func NewDocumentSQL(db *sql.DB) *DocumentSQL {
	return &DocumentSQL{db: db}
}

var _ repository.DocumentRepository = (*DocumentSQL)(nil)

const documentColumns = `id, stored_name, original_name, storage_path, size_bytes, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var d model.Document
	if err := row.Scan(
		&d.ID,
		&d.StoredName,
		&d.OriginalName,
		&d.StoragePath,
		&d.SizeBytes,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentSQL) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (stored_name, original_name, storage_path, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.StoredName,
		doc.OriginalName,
		doc.StoragePath,
		doc.SizeBytes,
		doc.CreatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentSQL) FindByID(ctx context.Context, id int64) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// List returns all documents ordered by creation time, newest first.
func (r *DocumentSQL) List(ctx context.Context) ([]model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes a document by ID. A missing row is reported as sql.ErrNoRows so
// callers racing another delete see the same outcome as an unknown ID.
func (r *DocumentSQL) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
