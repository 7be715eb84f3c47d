package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/agendadocs/agenda-server/internal/models"
)

// Document repository methods
func (r *SQLiteRepository) ListDocumentsByTab(ctx context.Context, tabID int64) ([]models.Document, error) {
	var docs []models.Document
	err := r.db.SelectContext(ctx, &docs,
		`SELECT * FROM documents WHERE tab_id = ? ORDER BY lower(original_name) ASC, id ASC`,
		tabID)
	return docs, err
}

func (r *SQLiteRepository) GetDocumentByID(ctx context.Context, id int64) (*models.Document, error) {
	return r.getDocument(ctx, `SELECT * FROM documents WHERE id = ?`, id)
}

func (r *SQLiteRepository) GetDocumentByTabAndFilename(ctx context.Context, tabID int64, filename string) (*models.Document, error) {
	return r.getDocument(ctx,
		`SELECT * FROM documents WHERE tab_id = ? AND filename = ?`, tabID, filename)
}

func (r *SQLiteRepository) getDocument(ctx context.Context, query string, args ...interface{}) (*models.Document, error) {
	var doc models.Document
	err := r.db.GetContext(ctx, &doc, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Document not found
		}
		return nil, err
	}
	return &doc, nil
}

// InsertDocuments inserts the whole batch in one transaction; either every
// row exists afterwards or none does.
func (r *SQLiteRepository) InsertDocuments(ctx context.Context, docs []*models.Document) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, doc := range docs {
			if doc.CreatedAt.IsZero() {
				doc.CreatedAt = time.Now().UTC()
			}

			res, err := tx.ExecContext(ctx,
				`INSERT INTO documents
					(tab_id, filename, original_name, file_path, file_size, mime_type, file_hash, uploaded_by, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				doc.TabID, doc.Filename, doc.OriginalName, doc.FilePath,
				doc.FileSize, doc.MimeType, doc.FileHash, doc.UploadedBy, doc.CreatedAt)
			if err != nil {
				return err
			}

			doc.ID, err = res.LastInsertId()
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) DeleteDocument(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.NewNotFoundError("document")
	}
	return nil
}

// UpdateDocumentPath persists a corrected storage path after fallback
// resolution (self-healing after storage relocation).
func (r *SQLiteRepository) UpdateDocumentPath(ctx context.Context, id int64, path string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE documents SET file_path = ? WHERE id = ?`, path, id)
	return err
}
