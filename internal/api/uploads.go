package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/domain"
)

// Límite de las columnas binarias (16 MiB).
const maxUploadBytes = 16<<20 - 1

// readUpload returns the bytes of an optional multipart file; nil when the field is absent.
func readUpload(c *gin.Context, field string) ([]byte, error) {
	if c.ContentType() != binding.MIMEMultipartPOSTForm {
		return nil, nil
	}
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fh.Size > maxUploadBytes {
		return nil, domain.NewValidationError(field, fmt.Sprintf("el archivo supera %d bytes", maxUploadBytes))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxUploadBytes {
		return nil, domain.NewValidationError(field, fmt.Sprintf("el archivo supera %d bytes", maxUploadBytes))
	}
	return data, nil
}

// formValueMissing reports whether a form post left the field out or blank.
func formValueMissing(c *gin.Context, field string) bool {
	if c.ContentType() == binding.MIMEJSON {
		return false
	}
	return strings.TrimSpace(c.PostForm(field)) == ""
}

// writeBinary answers with raw image bytes, or 404 when there are none.
func writeBinary(c *gin.Context, data []byte, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "sin imagen"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}
