package uploads

import (
	"time"

	"cv-ingest/internal/cv"
)

// UploadResponse is returned when an upload finishes processing.
type UploadResponse struct {
	ID               string      `json:"id"`
	FileName         string      `json:"fileName"`
	ProcessingStatus string      `json:"processingStatus"`
	UploadDate       time.Time   `json:"uploadDate"`
	ExtractedData    *cv.Profile `json:"extractedData,omitempty"`
}

// SummaryResponse is one entry of the upload history.
type SummaryResponse struct {
	ID               string    `json:"id"`
	FileName         string    `json:"fileName"`
	OriginalName     string    `json:"originalName"`
	ProcessingStatus string    `json:"processingStatus"`
	UploadDate       time.Time `json:"uploadDate"`
	ErrorCode        *string   `json:"errorCode,omitempty"`
}

// DetailResponse is the full stored view of one upload.
type DetailResponse struct {
	ID               string      `json:"id"`
	FileName         string      `json:"fileName"`
	OriginalName     string      `json:"originalName"`
	OriginalSize     int64       `json:"originalSize"`
	CompressedSize   int64       `json:"compressedSize"`
	CompressionRatio float64     `json:"compressionRatio"`
	ProcessingStatus string      `json:"processingStatus"`
	UploadDate       time.Time   `json:"uploadDate"`
	UpdatedAt        time.Time   `json:"updatedAt"`
	ExtractedText    *string     `json:"extractedText,omitempty"`
	ExtractedData    *cv.Profile `json:"extractedData,omitempty"`
	ErrorCode        *string     `json:"errorCode,omitempty"`
	ErrorMessage     *string     `json:"errorMessage,omitempty"`
}

func toUploadResponse(rec Record) UploadResponse {
	return UploadResponse{
		ID:               rec.ID,
		FileName:         rec.FileName,
		ProcessingStatus: rec.Status,
		UploadDate:       rec.UploadedAt,
		ExtractedData:    rec.ExtractedData,
	}
}

func toSummaryResponse(rec Record) SummaryResponse {
	return SummaryResponse{
		ID:               rec.ID,
		FileName:         rec.FileName,
		OriginalName:     rec.OriginalName,
		ProcessingStatus: rec.Status,
		UploadDate:       rec.UploadedAt,
		ErrorCode:        rec.ErrorCode,
	}
}

func toDetailResponse(rec Record) DetailResponse {
	return DetailResponse{
		ID:               rec.ID,
		FileName:         rec.FileName,
		OriginalName:     rec.OriginalName,
		OriginalSize:     rec.OriginalSize,
		CompressedSize:   rec.CompressedSize,
		CompressionRatio: rec.CompressionRatio,
		ProcessingStatus: rec.Status,
		UploadDate:       rec.UploadedAt,
		UpdatedAt:        rec.UpdatedAt,
		ExtractedText:    rec.ExtractedText,
		ExtractedData:    rec.ExtractedData,
		ErrorCode:        rec.ErrorCode,
		ErrorMessage:     rec.ErrorMessage,
	}
}
