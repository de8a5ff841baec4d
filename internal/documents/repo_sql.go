package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"filing-backend/internal/fields"
)

// SQLRepo implements Repo on Postgres or SQLite through sqlx.
type SQLRepo struct {
	DB *sqlx.DB
}

// NewSQLRepo constructs a SQLRepo.
func NewSQLRepo(db *sqlx.DB) *SQLRepo {
	return &SQLRepo{DB: db}
}

const documentColumns = `id, user_id, doc_type, file_name, mime_type, size_bytes, storage_key, content_hash, status, error, uploaded_at, processed_at`

type recordRow struct {
	DocumentID      string         `db:"document_id"`
	UserID          string         `db:"user_id"`
	DocType         fields.DocType `db:"doc_type"`
	Fields          string         `db:"fields"`
	RawText         string         `db:"raw_text"`
	Method          Method         `db:"method"`
	MissingCritical string         `db:"missing_critical"`
	NeedsReview     bool           `db:"needs_review"`
	CreatedAt       time.Time      `db:"created_at"`
}

func toRow(rec ExtractedRecord) (recordRow, error) {
	fieldsJSON, err := json.Marshal(rec.Fields)
	if err != nil {
		return recordRow{}, fmt.Errorf("marshal fields: %w", err)
	}
	missing := rec.MissingCritical
	if missing == nil {
		missing = []string{}
	}
	missingJSON, err := json.Marshal(missing)
	if err != nil {
		return recordRow{}, fmt.Errorf("marshal missing critical: %w", err)
	}
	return recordRow{
		DocumentID:      rec.DocumentID,
		UserID:          rec.UserID,
		DocType:         rec.DocType,
		Fields:          string(fieldsJSON),
		RawText:         rec.RawText,
		Method:          rec.Method,
		MissingCritical: string(missingJSON),
		NeedsReview:     rec.NeedsReview,
		CreatedAt:       rec.CreatedAt,
	}, nil
}

func (r recordRow) record() (ExtractedRecord, error) {
	rec := ExtractedRecord{
		DocumentID:  r.DocumentID,
		UserID:      r.UserID,
		DocType:     r.DocType,
		RawText:     r.RawText,
		Method:      r.Method,
		NeedsReview: r.NeedsReview,
		CreatedAt:   r.CreatedAt,
	}
	if err := json.Unmarshal([]byte(r.Fields), &rec.Fields); err != nil {
		return ExtractedRecord{}, fmt.Errorf("decode fields of %s: %w", r.DocumentID, err)
	}
	if r.MissingCritical != "" {
		if err := json.Unmarshal([]byte(r.MissingCritical), &rec.MissingCritical); err != nil {
			return ExtractedRecord{}, fmt.Errorf("decode missing critical of %s: %w", r.DocumentID, err)
		}
	}
	return rec, nil
}

// Create inserts a new document.
func (r *SQLRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (` + documentColumns + `)
VALUES (:id, :user_id, :doc_type, :file_name, :mime_type, :size_bytes, :storage_key, :content_hash, :status, :error, :uploaded_at, :processed_at)`
	_, err := r.DB.NamedExecContext(ctx, query, doc)
	return err
}

// Get fetches a document by ID for a user.
func (r *SQLRepo) Get(ctx context.Context, userID, documentID string) (Document, error) {
	query := r.DB.Rebind(`SELECT ` + documentColumns + ` FROM documents WHERE user_id = ? AND id = ?`)
	var doc Document
	if err := r.DB.GetContext(ctx, &doc, query, userID, documentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// List lists documents ordered newest-first.
func (r *SQLRepo) List(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := r.DB.Rebind(`
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = ?
ORDER BY uploaded_at DESC, id DESC
LIMIT ? OFFSET ?`)
	out := []Document{}
	if err := r.DB.SelectContext(ctx, &out, query, userID, limit, offset); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkFailed records a processing failure.
func (r *SQLRepo) MarkFailed(ctx context.Context, userID, documentID, reason string) error {
	query := r.DB.Rebind(`UPDATE documents SET status = ?, error = ? WHERE user_id = ? AND id = ?`)
	return r.updateOne(ctx, query, StatusFailed, reason, userID, documentID)
}

func (r *SQLRepo) updateOne(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveRecord upserts the extracted record and marks the document processed.
func (r *SQLRepo) SaveRecord(ctx context.Context, rec ExtractedRecord, processedAt time.Time) (err error) {
	row, err := toRow(rec)
	if err != nil {
		return err
	}
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const upsert = `
INSERT INTO extracted_data (document_id, user_id, doc_type, fields, raw_text, method, missing_critical, needs_review, created_at)
VALUES (:document_id, :user_id, :doc_type, :fields, :raw_text, :method, :missing_critical, :needs_review, :created_at)
ON CONFLICT (document_id) DO UPDATE SET
    fields = excluded.fields,
    raw_text = excluded.raw_text,
    method = excluded.method,
    missing_critical = excluded.missing_critical,
    needs_review = excluded.needs_review`
	if _, err = tx.NamedExecContext(ctx, upsert, row); err != nil {
		return fmt.Errorf("save record: %w", err)
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE documents SET status = ?, error = NULL, processed_at = ? WHERE user_id = ? AND id = ?`),
		StatusProcessed, processedAt, rec.UserID, rec.DocumentID)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotFound
		return err
	}
	return tx.Commit()
}

// GetRecord returns the extracted record of a document.
func (r *SQLRepo) GetRecord(ctx context.Context, userID, documentID string) (ExtractedRecord, error) {
	query := r.DB.Rebind(`
SELECT document_id, user_id, doc_type, fields, raw_text, method, missing_critical, needs_review, created_at
FROM extracted_data
WHERE user_id = ? AND document_id = ?`)
	var row recordRow
	if err := r.DB.GetContext(ctx, &row, query, userID, documentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ExtractedRecord{}, ErrNotFound
		}
		return ExtractedRecord{}, err
	}
	return row.record()
}

// Delete removes a document and its record.
func (r *SQLRepo) Delete(ctx context.Context, userID, documentID string) (err error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM extracted_data WHERE user_id = ? AND document_id = ?`), userID, documentID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM documents WHERE user_id = ? AND id = ?`), userID, documentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotFound
		return err
	}
	return tx.Commit()
}

// ListProcessed returns the user's processed documents with their records,
// ordered by upload time then id.
func (r *SQLRepo) ListProcessed(ctx context.Context, userID string) ([]Replay, error) {
	query := r.DB.Rebind(`
SELECT e.document_id, e.user_id, e.doc_type, e.fields, e.raw_text, e.method, e.missing_critical, e.needs_review, e.created_at
FROM extracted_data e
JOIN documents d ON d.id = e.document_id
WHERE d.user_id = ? AND d.status = ?
ORDER BY d.uploaded_at ASC, d.id ASC`)
	var rows []recordRow
	if err := r.DB.SelectContext(ctx, &rows, query, userID, StatusProcessed); err != nil {
		return nil, err
	}
	out := make([]Replay, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		doc, err := r.Get(ctx, userID, rec.DocumentID)
		if err != nil {
			return nil, err
		}
		out = append(out, Replay{Document: doc, Record: rec})
	}
	return out, nil
}

var _ Repo = (*SQLRepo)(nil)
