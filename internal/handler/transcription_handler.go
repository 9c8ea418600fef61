package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/internal/service"
	"github.com/casebuddy/casebuddy-api/pkg/response"
)

type transcriptionService interface {
	Transcribe(ctx context.Context, upload service.DocumentUpload) (*dto.TranscriptionResult, error)
}

// TranscriptionHandler accepts recordings for transcription.
type TranscriptionHandler struct {
	service   transcriptionService
	maxUpload int64
}

// NewTranscriptionHandler constructs the handler.
func NewTranscriptionHandler(svc transcriptionService, maxUpload int64) *TranscriptionHandler {
	return &TranscriptionHandler{service: svc, maxUpload: maxUpload}
}

// Transcribe godoc
// @Summary Transcribe a recording
// @Description Uploads audio or video and waits for the transcript
// @Tags Transcription
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Recording"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /transcription [post]
func (h *TranscriptionHandler) Transcribe(c *gin.Context) {
	upload, file, ok := readUpload(c, h.maxUpload)
	if !ok {
		return
	}
	defer file.Close()

	res, err := h.service.Transcribe(c.Request.Context(), upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
