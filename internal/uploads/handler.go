package uploads

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"cv-ingest/internal/extract"
	"cv-ingest/internal/shared/config"
	"cv-ingest/internal/shared/server/middleware"
	"cv-ingest/internal/shared/server/respond"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	// multipart boundaries and headers on top of the file itself
	multipartOverhead = 1 << 20
)

var uploadRateRule = middleware.RateLimitRule{Rate: 0.5, Burst: 5}

var failureMessages = map[string]string{
	ErrorCodeExtractionFailed:     "Could not extract text from the uploaded file",
	ErrorCodeAIConfiguration:      "CV parsing is not configured",
	ErrorCodeAIServiceUnavailable: "CV parsing service is temporarily unavailable, please try again later",
	ErrorCodeAIParsingFailed:      "Could not parse the CV",
	ErrorCodePersistence:          "Failed to save the upload",
	ErrorCodeCompression:          "Failed to store the uploaded file",
	ErrorCodeStorage:              "Failed to store the uploaded file",
}

// Handler wires HTTP handlers to the uploads service.
type Handler struct {
	Svc      *Service
	TmpDir   string
	MaxBytes int64
	Limiter  *middleware.RateLimiter
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, cfg config.UploadConfig) *Handler {
	return &Handler{
		Svc:      svc,
		TmpDir:   cfg.TmpDir,
		MaxBytes: cfg.MaxBytes,
		Limiter:  middleware.NewRateLimiter(nil),
	}
}

// RegisterRoutes attaches upload routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/cv-uploads", middleware.RateLimit(h.Limiter, "cv-upload", uploadRateRule), h.upload)
	rg.GET("/cv-uploads", h.list)
	rg.GET("/cv-uploads/:id", h.get)
	rg.GET("/cv-uploads/:id/markdown", h.markdown)
	rg.GET("/cv-uploads/:id/original", h.original)
	rg.DELETE("/cv-uploads/:id", h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if h.MaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxBytes+multipartOverhead)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			h.tooLarge(c)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if h.MaxBytes > 0 && fileHeader.Size > h.MaxBytes {
		h.tooLarge(c)
		return
	}
	if _, err := extract.FormatFromName(fileHeader.Filename); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeUnsupportedFormat, "Only PDF and DOCX files are supported", nil)
		return
	}

	tempPath, err := saveTemp(fileHeader, h.TmpDir)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "unable to read file", nil)
		return
	}

	rec, err := h.Svc.Ingest(c.Request.Context(), IngestInput{
		UserID:       userID,
		OriginalName: filepath.Base(fileHeader.Filename),
		TempPath:     tempPath,
		Size:         fileHeader.Size,
	})
	middleware.AnnotateUpload(c, rec.ID, rec.Status)
	if err != nil {
		writeIngestError(c, err)
		return
	}
	respond.Created(c, toUploadResponse(rec))
}

func writeIngestError(c *gin.Context, err error) {
	var quotaErr *QuotaError
	if errors.As(err, &quotaErr) {
		respond.Error(c, http.StatusTooManyRequests, ErrorCodeQuotaExceeded, quotaErr.Error(), gin.H{
			"used":  quotaErr.Decision.Used,
			"limit": quotaErr.Decision.Limit,
		})
		return
	}

	code := ClassifyFailure(err)
	if code == ErrorCodeUnsupportedFormat {
		respond.Error(c, http.StatusBadRequest, code, "Only PDF and DOCX files are supported", nil)
		return
	}
	msg, ok := failureMessages[code]
	if !ok {
		msg = "Failed to process CV"
	}
	respond.Error(c, http.StatusInternalServerError, code, msg, nil)
}

func (h *Handler) tooLarge(c *gin.Context) {
	respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large",
		"File exceeds the maximum upload size of "+strconv.FormatInt(h.MaxBytes, 10)+" bytes", nil)
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

// saveTemp copies the multipart file to a temp file that keeps its extension.
func saveTemp(fileHeader *multipart.FileHeader, dir string) (string, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	dst, err := os.CreateTemp(dir, "cv-upload-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := defaultListLimit
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	records, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list uploads", nil)
		return
	}

	items := make([]SummaryResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, toSummaryResponse(rec))
	}
	respond.OK(c, gin.H{
		"items":  items,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) get(c *gin.Context) {
	rec, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		writeLookupError(c, err, "failed to fetch upload")
		return
	}
	middleware.AnnotateUpload(c, rec.ID, rec.Status)
	respond.OK(c, toDetailResponse(rec))
}

func (h *Handler) markdown(c *gin.Context) {
	md, err := h.Svc.Markdown(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		writeLookupError(c, err, "failed to fetch markdown")
		return
	}
	respond.Markdown(c, md)
}

func (h *Handler) original(c *gin.Context) {
	orig, err := h.Svc.Original(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		writeLookupError(c, err, "failed to fetch original file")
		return
	}
	respond.Attachment(c, orig.Name, orig.ContentType, orig.Data)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		writeLookupError(c, err, "failed to delete upload")
		return
	}
	respond.NoContent(c)
}

func writeLookupError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "upload not found", nil)
	case errors.Is(err, ErrNotCompleted):
		respond.Error(c, http.StatusConflict, "not_completed", "upload has not completed processing", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
