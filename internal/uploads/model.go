package uploads

import (
	"time"

	"cv-ingest/internal/cv"
)

const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Record is one ingestion attempt. It is created PENDING and moved to a
// terminal status exactly once.
type Record struct {
	ID               string      `json:"id"`
	UserID           string      `json:"userId"`
	FileName         string      `json:"fileName"`
	OriginalName     string      `json:"originalName"`
	OriginalSize     int64       `json:"originalSize"`
	CompressedSize   int64       `json:"compressedSize"`
	CompressionRatio float64     `json:"compressionRatio"`
	FilePath         *string     `json:"filePath,omitempty"`
	Status           string      `json:"processingStatus"`
	ExtractedText    *string     `json:"extractedText,omitempty"`
	MarkdownContent  *string     `json:"markdownContent,omitempty"`
	ExtractedData    *cv.Profile `json:"extractedData,omitempty"`
	ErrorCode        *string     `json:"errorCode,omitempty"`
	ErrorMessage     *string     `json:"errorMessage,omitempty"`
	UploadedAt       time.Time   `json:"uploadDate"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// Terminal reports whether the record reached COMPLETED or FAILED.
func (r Record) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}
