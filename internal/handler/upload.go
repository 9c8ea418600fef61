package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casebuddy/casebuddy-api/internal/service"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
	"github.com/casebuddy/casebuddy-api/pkg/response"
)

const (
	uploadField = "file"
	// multipartOverhead leaves room for form fields around the file part.
	multipartOverhead = 1 << 20
)

// readUpload opens the multipart file part. The caller closes the returned file.
func readUpload(c *gin.Context, maxSize int64) (service.DocumentUpload, multipart.File, bool) {
	if maxSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+multipartOverhead)
	}
	header, err := c.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrPayloadTooLarge.Code, appErrors.ErrPayloadTooLarge.Status, "file too large"))
			return service.DocumentUpload{}, nil, false
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return service.DocumentUpload{}, nil, false
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload"))
		return service.DocumentUpload{}, nil, false
	}
	return service.DocumentUpload{Filename: header.Filename, Size: header.Size, Body: file}, file, true
}
