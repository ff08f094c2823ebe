// Package respond holds the response writers shared by every HTTP handler.
package respond

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

const markdownContentType = "text/markdown; charset=utf-8"

// JSON writes payload with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

func Created(c *gin.Context, payload any) {
	JSON(c, http.StatusCreated, payload)
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Markdown writes a markdown document as the whole body.
func Markdown(c *gin.Context, doc string) {
	c.Data(http.StatusOK, markdownContentType, []byte(doc))
}

// Attachment sends data as a download named fileName.
func Attachment(c *gin.Context, fileName, contentType string, data []byte) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": fileName})
	if disposition == "" {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", disposition)
	c.Data(http.StatusOK, contentType, data)
}
