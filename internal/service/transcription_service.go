package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
	"github.com/casebuddy/casebuddy-api/pkg/storage"
)

const (
	transcriptionDone   = "done"
	transcriptionFailed = "failed"
	demoTranscriptID    = "demo"
)

// TranscriptionConfig configures the hosted transcription API client.
type TranscriptionConfig struct {
	BaseURL      string
	APIToken     string
	PollInterval time.Duration
	MaxPolls     int
	MaxFileSize  int64
}

type interactionResponse struct {
	ID        string `json:"id"`
	UploadURL string `json:"uploadUrl"`
	Status    string `json:"status"`
	Error     string `json:"error"`
}

type transcriptResponse struct {
	Text     string                  `json:"text"`
	Segments []dto.TranscriptSegment `json:"segments"`
}

// TranscriptionService sends recordings to the hosted transcription API.
type TranscriptionService struct {
	client *http.Client
	cfg    TranscriptionConfig
	logger *zap.Logger
}

// NewTranscriptionService constructs the service. A nil client uses http.DefaultClient.
func NewTranscriptionService(client *http.Client, cfg TranscriptionConfig, logger *zap.Logger) *TranscriptionService {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = 100
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &TranscriptionService{client: client, cfg: cfg, logger: logger}
}

// Demo reports whether the service answers with a canned transcript.
func (s *TranscriptionService) Demo() bool {
	return s.cfg.APIToken == ""
}

// Transcribe declares an interaction, uploads the media, waits for processing
// and returns the transcript.
func (s *TranscriptionService) Transcribe(ctx context.Context, upload DocumentUpload) (*dto.TranscriptionResult, error) {
	if upload.Body == nil || strings.TrimSpace(upload.Filename) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if s.cfg.MaxFileSize > 0 && upload.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds the %d byte limit", s.cfg.MaxFileSize))
	}
	if s.Demo() {
		return demoTranscript(), nil
	}

	var interaction interactionResponse
	if err := s.call(ctx, http.MethodPost, s.cfg.BaseURL+"/interactions", map[string]string{"name": upload.Filename}, &interaction); err != nil {
		return nil, s.failure("declare interaction", err)
	}
	if interaction.ID == "" || interaction.UploadURL == "" {
		return nil, s.failure("declare interaction", fmt.Errorf("response missing id or upload url"))
	}

	if err := s.upload(ctx, interaction.UploadURL, upload); err != nil {
		return nil, s.failure("upload media", err)
	}
	if err := s.await(ctx, interaction.ID); err != nil {
		return nil, err
	}

	var transcript transcriptResponse
	if err := s.call(ctx, http.MethodGet, s.cfg.BaseURL+"/interactions/"+interaction.ID+"/transcript", nil, &transcript); err != nil {
		return nil, s.failure("fetch transcript", err)
	}
	segments := transcript.Segments
	if segments == nil {
		segments = []dto.TranscriptSegment{}
	}
	return &dto.TranscriptionResult{
		ID:       interaction.ID,
		Status:   transcriptionDone,
		Text:     transcript.Text,
		Segments: segments,
	}, nil
}

func (s *TranscriptionService) await(ctx context.Context, id string) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for poll := 0; poll < s.cfg.MaxPolls; poll++ {
		select {
		case <-ctx.Done():
			return s.failure("poll interaction", ctx.Err())
		case <-timer.C:
		}
		var status interactionResponse
		if err := s.call(ctx, http.MethodGet, s.cfg.BaseURL+"/interactions/"+id, nil, &status); err != nil {
			return s.failure("poll interaction", err)
		}
		switch strings.ToLower(status.Status) {
		case transcriptionDone:
			return nil
		case transcriptionFailed:
			msg := "transcription failed"
			if status.Error != "" {
				msg = "transcription failed: " + status.Error
			}
			return appErrors.Clone(appErrors.ErrTranscriptionFailed, msg)
		}
		timer.Reset(s.cfg.PollInterval)
	}
	return appErrors.Clone(appErrors.ErrTranscriptionFailed, "transcription did not finish in time")
}

func (s *TranscriptionService) upload(ctx context.Context, url string, upload DocumentUpload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, upload.Body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", storage.ContentType(upload.Filename))
	if upload.Size > 0 {
		req.ContentLength = upload.Size
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("upload returned %s", resp.Status)
	}
	return nil
}

func (s *TranscriptionService) call(ctx context.Context, method, url string, body interface{}, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s returned %s: %s", method, url, resp.Status, strings.TrimSpace(string(snippet)))
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s response: %w", url, err)
	}
	return nil
}

func (s *TranscriptionService) failure(step string, err error) error {
	s.logger.Error("transcription request failed", zap.String("step", step), zap.Error(err))
	return appErrors.WrapAs(appErrors.ErrTranscriptionFailed, err, "")
}

func demoTranscript() *dto.TranscriptionResult {
	segments := []dto.TranscriptSegment{
		{Speaker: "Attorney", Start: 0, End: 4.2, Text: "Please state your name for the record."},
		{Speaker: "Witness", Start: 4.2, End: 7.8, Text: "Jordan Avery."},
		{Speaker: "Attorney", Start: 7.8, End: 13.5, Text: "This is a demo transcript. Configure TRANSCRIPTION_API_TOKEN to transcribe real recordings."},
	}
	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		texts = append(texts, seg.Speaker+": "+seg.Text)
	}
	return &dto.TranscriptionResult{
		ID:       demoTranscriptID,
		Status:   transcriptionDone,
		Text:     strings.Join(texts, "\n"),
		Segments: segments,
		Demo:     true,
	}
}
