package extract

import "errors"

var (
	// ErrUnsupportedFormat is returned for any file type other than PDF and DOCX.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrExtractionFailure is returned when a supported file cannot be parsed or holds no text.
	ErrExtractionFailure = errors.New("text extraction failed")
)
