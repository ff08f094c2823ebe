// Package uploads runs the CV ingestion pipeline and keeps its records.
package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"cv-ingest/internal/compress"
	"cv-ingest/internal/cv"
	"cv-ingest/internal/cvtext"
	"cv-ingest/internal/extract"
	"cv-ingest/internal/quota"
	"cv-ingest/internal/shared/metrics"
	"cv-ingest/internal/shared/storage/object"
	"cv-ingest/internal/shared/telemetry"
)

const maxErrorMessageRunes = 500

// Parser produces the AI view of a CV from its normalized text.
type Parser interface {
	Parse(ctx context.Context, text string) (*cv.Profile, error)
}

// Service orchestrates ingestion and serves stored results.
type Service struct {
	Repo   Repo
	Quota  quota.Checker
	Store  object.ObjectStore
	Parser Parser

	now func() time.Time
}

// IngestInput describes an uploaded file already written to TempPath.
// Ingest owns TempPath and removes it before returning.
type IngestInput struct {
	UserID       string
	OriginalName string
	TempPath     string
	Size         int64
}

// QuotaError carries the refused quota decision.
type QuotaError struct {
	Decision quota.Decision
}

func (e *QuotaError) Error() string {
	if e.Decision.Message != "" {
		return e.Decision.Message
	}
	return ErrQuotaExceeded.Error()
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }

// Ingest runs one upload from PENDING to COMPLETED or FAILED. On failure the
// returned record holds the FAILED state when one was written.
func (s *Service) Ingest(ctx context.Context, in IngestInput) (Record, error) {
	start := time.Now()
	defer removeTemp(in.TempPath)

	if strings.TrimSpace(in.UserID) == "" {
		return Record{}, errors.New("userID is required")
	}

	decision, err := s.Quota.CheckUploadQuota(ctx, in.UserID)
	if err != nil {
		return Record{}, fmt.Errorf("check upload quota: %w", err)
	}
	if !decision.Allowed {
		metrics.IncUploadFailure(ErrorCodeQuotaExceeded)
		telemetry.Warn("upload.quota.exceeded", map[string]any{
			"user_id": in.UserID,
			"used":    decision.Used,
			"limit":   decision.Limit,
		})
		return Record{}, &QuotaError{Decision: decision}
	}

	now := s.clock()
	tempPath := in.TempPath
	rec := Record{
		ID:           uuid.NewString(),
		UserID:       in.UserID,
		OriginalName: in.OriginalName,
		OriginalSize: in.Size,
		FilePath:     &tempPath,
		Status:       StatusPending,
		UploadedAt:   now,
		UpdatedAt:    now,
	}
	if err := s.Repo.Create(ctx, rec); err != nil {
		metrics.IncUploadFailure(ErrorCodePersistence)
		return Record{}, fmt.Errorf("%w: create record: %v", ErrPersistence, err)
	}
	logStatus(rec, nil)

	rec, err = s.process(ctx, rec, in.TempPath)
	if err != nil {
		return s.fail(ctx, rec, err, start)
	}

	rec.UpdatedAt = s.clock()
	if err := s.Repo.Update(ctx, rec); err != nil {
		return s.fail(ctx, rec, fmt.Errorf("%w: complete record: %v", ErrPersistence, err), start)
	}

	metrics.IncUpload(StatusCompleted)
	metrics.ObserveUploadDuration(time.Since(start))
	logStatus(rec, nil)
	return rec, nil
}

// process stores the compressed original, runs both parsers and returns the
// COMPLETED record without persisting it.
func (s *Service) process(ctx context.Context, rec Record, tempPath string) (Record, error) {
	data, err := os.ReadFile(tempPath)
	if err != nil {
		return rec, fmt.Errorf("%w: read upload: %v", extract.ErrExtractionFailure, err)
	}
	rec.OriginalSize = int64(len(data))

	compressed, err := compress.Compress(data)
	if err != nil {
		return rec, err
	}
	key, _, _, err := s.Store.Save(ctx, rec.UserID, rec.OriginalName+".gz", bytes.NewReader(compressed))
	if err != nil {
		return rec, fmt.Errorf("%w: save original: %v", ErrStorage, err)
	}
	rec.FileName = key
	rec.CompressedSize = int64(len(compressed))
	rec.CompressionRatio = compress.Ratio(rec.OriginalSize, rec.CompressedSize)
	metrics.ObserveCompressionRatio(rec.CompressionRatio)

	format, err := extract.FormatFromName(rec.OriginalName)
	if err != nil {
		return rec, err
	}
	raw, err := extract.FromBytes(ctx, data, format)
	if err != nil {
		return rec, err
	}
	text := cvtext.Normalize(raw)
	if text == "" {
		return rec, fmt.Errorf("%w: no text after normalization", extract.ErrExtractionFailure)
	}

	markdown := cvtext.ToMarkdown(text)
	sections := cvtext.Segment(text)
	heuristic := cv.FromHeuristics(
		cvtext.ExtractContact(text),
		sections,
		cvtext.ExtractKeywords(text),
		cvtext.ComputeMetadata(text, sections),
	)

	ai, err := s.Parser.Parse(ctx, text)
	if err != nil {
		return rec, err
	}
	merged := cv.Merge(ai, &heuristic)

	rec.Status = StatusCompleted
	rec.FilePath = nil
	rec.ExtractedText = &text
	rec.MarkdownContent = &markdown
	rec.ExtractedData = &merged
	return rec, nil
}

// fail writes the FAILED state best-effort and returns cause unchanged.
func (s *Service) fail(ctx context.Context, rec Record, cause error, start time.Time) (Record, error) {
	code := ClassifyFailure(cause)
	msg := sanitizeError(cause)

	rec.Status = StatusFailed
	rec.FilePath = nil
	rec.ExtractedText = nil
	rec.MarkdownContent = nil
	rec.ExtractedData = nil
	rec.ErrorCode = &code
	rec.ErrorMessage = &msg
	rec.UpdatedAt = s.clock()

	// The request may already be cancelled; the terminal write must still land.
	if err := s.Repo.Update(context.WithoutCancel(ctx), rec); err != nil {
		telemetry.Error("upload.fail.persist", map[string]any{
			"upload_id": rec.ID,
			"user_id":   rec.UserID,
			"err":       err,
		})
	}

	metrics.IncUpload(StatusFailed)
	metrics.IncUploadFailure(code)
	metrics.ObserveUploadDuration(time.Since(start))
	logStatus(rec, cause)
	return rec, cause
}

// List returns the caller's uploads, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Record, error) {
	if userID == "" {
		return nil, errors.New("userID is required")
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) Get(ctx context.Context, userID, id string) (Record, error) {
	if id == "" {
		return Record{}, errors.New("upload id is required")
	}
	return s.Repo.GetByID(ctx, userID, id)
}

// Markdown returns the rendered markdown of a COMPLETED upload.
func (s *Service) Markdown(ctx context.Context, userID, id string) (string, error) {
	rec, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	if rec.Status != StatusCompleted || rec.MarkdownContent == nil {
		return "", ErrNotCompleted
	}
	return *rec.MarkdownContent, nil
}

// Original is the decompressed uploaded file.
type Original struct {
	Name        string
	ContentType string
	Data        []byte
}

// Original loads and decompresses the stored copy of the uploaded file.
func (s *Service) Original(ctx context.Context, userID, id string) (Original, error) {
	rec, err := s.Get(ctx, userID, id)
	if err != nil {
		return Original{}, err
	}
	if rec.FileName == "" {
		return Original{}, ErrNotFound
	}

	body, err := s.Store.Open(ctx, rec.FileName)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return Original{}, ErrNotFound
		}
		return Original{}, fmt.Errorf("%w: open original: %v", ErrStorage, err)
	}
	defer body.Close()

	compressed, err := io.ReadAll(body)
	if err != nil {
		return Original{}, fmt.Errorf("%w: read original: %v", ErrStorage, err)
	}
	data, err := compress.Decompress(compressed)
	if err != nil {
		return Original{}, err
	}

	contentType := "application/octet-stream"
	if format, err := extract.FormatFromName(rec.OriginalName); err == nil {
		contentType = format.MimeType()
	}
	return Original{Name: rec.OriginalName, ContentType: contentType, Data: data}, nil
}

// Delete removes the stored blob and then the record.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	rec, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if rec.FileName != "" {
		if err := s.Store.Delete(ctx, rec.FileName); err != nil && !errors.Is(err, object.ErrNotFound) {
			return fmt.Errorf("%w: delete original: %v", ErrStorage, err)
		}
	}
	if err := s.Repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	telemetry.Info("upload.deleted", map[string]any{
		"upload_id": id,
		"user_id":   userID,
	})
	return nil
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

func logStatus(rec Record, cause error) {
	fields := map[string]any{
		"upload_id": rec.ID,
		"user_id":   rec.UserID,
		"status":    rec.Status,
	}
	if rec.ErrorCode != nil {
		fields["error_code"] = *rec.ErrorCode
	}
	if cause != nil {
		fields["err"] = cause
		telemetry.Warn("upload.status", fields)
		return
	}
	telemetry.Info("upload.status", fields)
}

func removeTemp(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		telemetry.Warn("upload.cleanup.failed", map[string]any{
			"path": path,
			"err":  err,
		})
	}
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	if utf8.RuneCountInString(msg) > maxErrorMessageRunes {
		msg = string([]rune(msg)[:maxErrorMessageRunes])
	}
	return msg
}
