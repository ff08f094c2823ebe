package uploads

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var recordColumnNames = []string{
	"id", "user_id", "file_name", "original_name", "original_size", "compressed_size",
	"compression_ratio", "file_path", "processing_status", "extracted_text", "markdown_content",
	"extracted_data", "error_code", "error_message", "upload_date", "updated_at",
}

const testUploadID = "3f8d2c1a-6b4e-4a7d-9c2f-1e5b7a9d0c34"

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreatePendingRecord(t *testing.T) {
	repo, mock := newMockRepo(t)
	tmp := "/tmp/upload-123.pdf"
	now := time.Now().UTC()
	rec := Record{
		ID:           testUploadID,
		UserID:       "user-1",
		OriginalName: "cv.pdf",
		OriginalSize: 2048,
		FilePath:     &tmp,
		Status:       StatusPending,
		UploadedAt:   now,
		UpdatedAt:    now,
	}

	mock.ExpectExec("INSERT INTO cv_uploads").
		WithArgs(
			rec.ID,
			rec.UserID,
			"",
			rec.OriginalName,
			rec.OriginalSize,
			int64(0),
			float64(0),
			tmp,
			StatusPending,
			nil, // extracted_text
			nil, // markdown_content
			nil, // extracted_data
			nil, // error_code
			nil, // error_message
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateMissingRecord(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE cv_uploads").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), Record{ID: "missing", Status: StatusFailed})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoGetByIDDecodesProfile(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(recordColumnNames).AddRow(
		testUploadID, "user-1", "abc/123_cv.pdf", "cv.pdf", int64(2048), int64(1024),
		0.5, nil, StatusCompleted, "Jane", "Jane",
		`{"personalInfo":{"fullName":"Jane Q. Public"},"keywords":["go"]}`, nil, nil, now, now,
	)
	mock.ExpectQuery("SELECT (.+) FROM cv_uploads WHERE id").
		WithArgs(testUploadID, "user-1").
		WillReturnRows(rows)

	rec, err := repo.GetByID(context.Background(), "user-1", testUploadID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if rec.FilePath != nil {
		t.Fatalf("expected nil file path, got %v", *rec.FilePath)
	}
	if rec.ExtractedData == nil || rec.ExtractedData.PersonalInfo.FullName != "Jane Q. Public" {
		t.Fatalf("unexpected extracted data %+v", rec.ExtractedData)
	}
	if rec.ExtractedText == nil || *rec.ExtractedText != "Jane" {
		t.Fatalf("unexpected extracted text %v", rec.ExtractedText)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM cv_uploads WHERE id").
		WithArgs(testUploadID, "someone-else").
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), "someone-else", testUploadID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoCountByUserSince(t *testing.T) {
	repo, mock := newMockRepo(t)
	since := time.Now().Add(-24 * time.Hour)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("user-1", since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountByUserSince(context.Background(), "user-1", since)
	if err != nil {
		t.Fatalf("CountByUserSince: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
}

func TestPGRepoDelete(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM cv_uploads").
		WithArgs(testUploadID, "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM cv_uploads").
		WithArgs(testUploadID, "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "user-1", testUploadID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(context.Background(), "user-1", testUploadID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestPGRepoRejectsMalformedIDsWithoutQuerying(t *testing.T) {
	repo, mock := newMockRepo(t)

	if _, err := repo.GetByID(context.Background(), "user-1", "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from GetByID, got %v", err)
	}
	if err := repo.Delete(context.Background(), "user-1", "../etc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Delete, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
