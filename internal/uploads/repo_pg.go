package uploads

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cv-ingest/internal/cv"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const recordColumns = `id, user_id, file_name, original_name, original_size, compressed_size,
	compression_ratio, file_path, processing_status, extracted_text, markdown_content,
	extracted_data, error_code, error_message, upload_date, updated_at`

// Create inserts a new record.
func (r *PGRepo) Create(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO cv_uploads (` + recordColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	data, err := marshalJSONB(rec.ExtractedData)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		rec.FileName,
		rec.OriginalName,
		rec.OriginalSize,
		rec.CompressedSize,
		rec.CompressionRatio,
		rec.FilePath,
		rec.Status,
		rec.ExtractedText,
		rec.MarkdownContent,
		data,
		rec.ErrorCode,
		rec.ErrorMessage,
		rec.UploadedAt,
		rec.UpdatedAt,
	)
	return err
}

// Update writes every mutable column of an existing record.
func (r *PGRepo) Update(ctx context.Context, rec Record) error {
	const query = `
UPDATE cv_uploads
SET file_name = $1,
	compressed_size = $2,
	compression_ratio = $3,
	file_path = $4,
	processing_status = $5,
	extracted_text = $6,
	markdown_content = $7,
	extracted_data = $8,
	error_code = $9,
	error_message = $10,
	updated_at = $11
WHERE id = $12`
	data, err := marshalJSONB(rec.ExtractedData)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query,
		rec.FileName,
		rec.CompressedSize,
		rec.CompressionRatio,
		rec.FilePath,
		rec.Status,
		rec.ExtractedText,
		rec.MarkdownContent,
		data,
		rec.ErrorCode,
		rec.ErrorMessage,
		rec.UpdatedAt,
		rec.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns a record owned by userID.
func (r *PGRepo) GetByID(ctx context.Context, userID, id string) (Record, error) {
	// The id column is UUID; anything else cannot match a row.
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, ErrNotFound
	}
	query := `SELECT ` + recordColumns + ` FROM cv_uploads WHERE id = $1 AND user_id = $2`
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// ListByUser returns the user's records newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM cv_uploads
WHERE user_id = $1
ORDER BY upload_date DESC, id DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PGRepo) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM cv_uploads WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) CountByUserSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cv_uploads WHERE user_id = $1 AND upload_date >= $2`,
		userID, since,
	).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec             Record
		filePath        sql.NullString
		extractedText   sql.NullString
		markdownContent sql.NullString
		extractedData   sql.NullString
		errorCode       sql.NullString
		errorMessage    sql.NullString
	)
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.FileName,
		&rec.OriginalName,
		&rec.OriginalSize,
		&rec.CompressedSize,
		&rec.CompressionRatio,
		&filePath,
		&rec.Status,
		&extractedText,
		&markdownContent,
		&extractedData,
		&errorCode,
		&errorMessage,
		&rec.UploadedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	rec.FilePath = nullStringPtr(filePath)
	rec.ExtractedText = nullStringPtr(extractedText)
	rec.MarkdownContent = nullStringPtr(markdownContent)
	rec.ErrorCode = nullStringPtr(errorCode)
	rec.ErrorMessage = nullStringPtr(errorMessage)
	if extractedData.Valid && extractedData.String != "" {
		var profile cv.Profile
		if err := json.Unmarshal([]byte(extractedData.String), &profile); err != nil {
			return Record{}, fmt.Errorf("decode extracted_data: %w", err)
		}
		rec.ExtractedData = &profile
	}
	return rec, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func marshalJSONB(profile *cv.Profile) (any, error) {
	if profile == nil {
		return nil, nil
	}
	b, err := json.Marshal(profile)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

var _ Repo = (*PGRepo)(nil)
