package uploads

import (
	"errors"

	"cv-ingest/internal/aiparse"
	"cv-ingest/internal/compress"
	"cv-ingest/internal/extract"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrQuotaExceeded = errors.New("upload quota exceeded")
	ErrPersistence   = errors.New("persistence failure")
	ErrStorage       = errors.New("object storage failure")
	ErrNotCompleted  = errors.New("upload not completed")
)

const (
	ErrorCodeUnsupportedFormat    = "UNSUPPORTED_FORMAT"
	ErrorCodeExtractionFailed     = "EXTRACTION_FAILED"
	ErrorCodeQuotaExceeded        = "QUOTA_EXCEEDED"
	ErrorCodeAIConfiguration      = "AI_CONFIGURATION_ERROR"
	ErrorCodeAIServiceUnavailable = "AI_SERVICE_UNAVAILABLE"
	ErrorCodeAIParsingFailed      = "AI_PARSING_FAILED"
	ErrorCodePersistence          = "PERSISTENCE_FAILED"
	ErrorCodeCompression          = "COMPRESSION_FAILED"
	ErrorCodeDecompression        = "DECOMPRESSION_FAILED"
	ErrorCodeStorage              = "STORAGE_ERROR"
	ErrorCodeInternal             = "INTERNAL_ERROR"
)

var failureCodes = []struct {
	target error
	code   string
}{
	{extract.ErrUnsupportedFormat, ErrorCodeUnsupportedFormat},
	{extract.ErrExtractionFailure, ErrorCodeExtractionFailed},
	{ErrQuotaExceeded, ErrorCodeQuotaExceeded},
	{aiparse.ErrConfiguration, ErrorCodeAIConfiguration},
	{aiparse.ErrServiceUnavailable, ErrorCodeAIServiceUnavailable},
	{aiparse.ErrParsingFailure, ErrorCodeAIParsingFailed},
	{ErrPersistence, ErrorCodePersistence},
	{compress.ErrCompress, ErrorCodeCompression},
	{compress.ErrDecompress, ErrorCodeDecompression},
	{ErrStorage, ErrorCodeStorage},
}

// ClassifyFailure maps a pipeline error to the code stored on a FAILED record.
func ClassifyFailure(err error) string {
	if err == nil {
		return ErrorCodeInternal
	}
	for _, fc := range failureCodes {
		if errors.Is(err, fc.target) {
			return fc.code
		}
	}
	return ErrorCodeInternal
}
