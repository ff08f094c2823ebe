package bootstrap

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"cv-ingest/internal/quota"
	"cv-ingest/internal/shared/config"
	"cv-ingest/internal/shared/telemetry"
	"cv-ingest/internal/uploads"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Port:            "8080",
		Env:             "dev",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		Upload:          config.UploadConfig{TmpDir: t.TempDir(), MaxBytes: 1 << 20},
		Quota:           config.QuotaConfig{Limit: 5, Window: 24 * time.Hour},
		LLM:             config.LLMConfig{Provider: "openai", Model: "gpt-4o-mini"},
		AI:              config.AIParseConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxInputChars: 15000},
	}
}

func TestBuildWiresInMemoryStack(t *testing.T) {
	gin.SetMode(gin.TestMode)
	telemetry.SetOutput(io.Discard)
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })

	app, err := Build(testConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if app.DB != nil || app.Redis != nil {
		t.Fatalf("expected no external connections in dev without urls")
	}
	if _, ok := app.UploadsRepo.(*uploads.MemoryRepo); !ok {
		t.Fatalf("expected memory repo, got %T", app.UploadsRepo)
	}
	if _, ok := app.Quota.(*quota.Service); !ok {
		t.Fatalf("expected record-count quota, got %T", app.Quota)
	}

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected health 200, got %d", w.Code)
	}
}

func TestUploadWithoutAPIKeyFailsAsConfigurationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	telemetry.SetOutput(io.Discard)
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })

	app, err := Build(testConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "cv.docx")
	fw.Write(minimalDOCX(t, "Jane Q. Public"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cv-uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Guest-Id", "g-1")
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != uploads.ErrorCodeAIConfiguration {
		t.Fatalf("expected %s, got %q", uploads.ErrorCodeAIConfiguration, resp.Error.Code)
	}

	records, _ := app.UploadsService.List(req.Context(), "guest:g-1", 10, 0)
	if len(records) != 1 || records[0].Status != uploads.StatusFailed {
		t.Fatalf("expected one FAILED record, got %+v", records)
	}
}

func minimalDOCX(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`))
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}
