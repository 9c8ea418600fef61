package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/internal/models"
	"github.com/casebuddy/casebuddy-api/pkg/ai"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
	"github.com/casebuddy/casebuddy-api/pkg/extract"
	"github.com/casebuddy/casebuddy-api/pkg/jobs"
	"github.com/casebuddy/casebuddy-api/pkg/storage"
)

// JobTypeOCR labels asynchronous document processing jobs.
const JobTypeOCR = "ocr"

const (
	structuringInputSize   = 6000
	fallbackAnalysisLength = 500
	unknownDocumentType    = "unknown"
)

// DocumentUpload is a file received from a client.
type DocumentUpload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

type textExtractor interface {
	ExtractFile(ctx context.Context, path string) (extract.Result, error)
}

type documentCatalog interface {
	Put(doc models.IndexedDocument) models.IndexedDocument
	Modify(id string, fn func(*models.IndexedDocument)) (models.IndexedDocument, bool)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// OCRServiceParams groups OCRService dependencies.
type OCRServiceParams struct {
	Store       storage.DocumentStore
	Extractor   textExtractor
	Completer   ai.Completer
	Catalog     documentCatalog
	Cases       caseFinder
	Queue       jobDispatcher
	Validator   *validator.Validate
	Logger      *zap.Logger
	MaxFileSize int64
	TempDir     string
	Now         func() time.Time
}

// documentProcessor turns a stored upload into text and a structured reading.
type documentProcessor struct {
	store     storage.DocumentStore
	extractor textExtractor
	completer ai.Completer
	logger    *zap.Logger
	tempDir   string
	now       func() time.Time
}

// OCRService extracts, structures and optionally indexes uploaded documents.
type OCRService struct {
	proc      *documentProcessor
	catalog   documentCatalog
	cases     caseFinder
	queue     jobDispatcher
	validator *validator.Validate
	logger    *zap.Logger
	maxSize   int64
}

// NewOCRService constructs an OCRService.
func NewOCRService(p OCRServiceParams) *OCRService {
	validate := p.Validator
	if validate == nil {
		validate = validator.New()
	}
	proc := newDocumentProcessor(p)
	return &OCRService{
		proc:      proc,
		catalog:   p.Catalog,
		cases:     p.Cases,
		queue:     p.Queue,
		validator: validate,
		logger:    proc.logger,
		maxSize:   p.MaxFileSize,
	}
}

func newDocumentProcessor(p OCRServiceParams) *documentProcessor {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &documentProcessor{
		store:     p.Store,
		extractor: p.Extractor,
		completer: p.Completer,
		logger:    logger,
		tempDir:   p.TempDir,
		now:       now,
	}
}

// Analyze stores the upload, extracts its text and asks the model to structure it.
func (s *OCRService) Analyze(ctx context.Context, actor Actor, upload DocumentUpload, opts dto.UploadOptions) (*dto.OCRAnalysisResponse, error) {
	if err := s.accept(ctx, actor, upload, opts); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	key, err := s.proc.persist(ctx, actor.UserID, id, upload)
	if err != nil {
		return nil, err
	}
	indexed := false
	defer func() {
		if !indexed {
			s.proc.discard(key)
		}
	}()

	result, err := s.proc.extract(ctx, key, upload.Filename)
	if err != nil {
		return nil, err
	}
	analysis, err := s.proc.structure(ctx, result.Text)
	if err != nil {
		return nil, err
	}
	meta := s.proc.metadata(result)

	resp := &dto.OCRAnalysisResponse{DocumentID: id, Text: result.Text, Analysis: analysis, OCR: meta}
	if opts.Index {
		s.catalog.Put(models.IndexedDocument{
			ID:         id,
			UserID:     actor.UserID,
			CaseID:     opts.CaseID,
			Title:      documentTitle(opts.Title, upload.Filename),
			Type:       documentType(opts.Type, analysis.DocumentType),
			Content:    result.Text,
			OCR:        &meta,
			StorageKey: key,
			Status:     models.DocumentStatusIndexed,
		})
		indexed = true
		resp.Indexed = true
	}
	return resp, nil
}

// Submit stores the upload and queues it for background processing. The
// returned status is pending; poll the document status for progress.
func (s *OCRService) Submit(ctx context.Context, actor Actor, upload DocumentUpload, opts dto.UploadOptions) (*dto.DocumentStatusResponse, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "background processing is not configured")
	}
	if err := s.accept(ctx, actor, upload, opts); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	key, err := s.proc.persist(ctx, actor.UserID, id, upload)
	if err != nil {
		return nil, err
	}
	doc := s.catalog.Put(models.IndexedDocument{
		ID:         id,
		UserID:     actor.UserID,
		CaseID:     opts.CaseID,
		Title:      documentTitle(opts.Title, upload.Filename),
		Type:       opts.Type,
		StorageKey: key,
		Status:     models.DocumentStatusPending,
	})
	job := jobs.Job{ID: id, Type: JobTypeOCR, Payload: ocrJobPayload{Filename: upload.Filename, Type: opts.Type}}
	if err := s.queue.Enqueue(job); err != nil {
		s.catalog.Modify(id, func(d *models.IndexedDocument) {
			d.Status = models.DocumentStatusFailed
			d.Error = "failed to enqueue document"
		})
		status := http.StatusInternalServerError
		if errors.Is(err, jobs.ErrQueueFull) {
			status = http.StatusServiceUnavailable
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, status, "failed to enqueue document")
	}
	return &dto.DocumentStatusResponse{ID: doc.ID, Status: doc.Status}, nil
}

func (s *OCRService) accept(ctx context.Context, actor Actor, upload DocumentUpload, opts dto.UploadOptions) error {
	if err := s.validator.Struct(opts); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid upload options")
	}
	if upload.Body == nil || strings.TrimSpace(upload.Filename) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if s.maxSize > 0 && upload.Size > s.maxSize {
		return appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds the %d byte limit", s.maxSize))
	}
	if !extract.Supported(upload.Filename) {
		return appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported file format %q", filepath.Ext(upload.Filename)))
	}
	if opts.CaseID != "" && s.cases != nil {
		if _, err := authorizeCase(ctx, s.cases, actor, opts.CaseID); err != nil {
			return err
		}
	}
	return nil
}

type ocrJobPayload struct {
	Filename string
	Type     string
}

// OCRWorker processes queued uploads.
type OCRWorker struct {
	proc    *documentProcessor
	catalog documentCatalog
	logger  *zap.Logger
}

// NewOCRWorker constructs a worker sharing the OCRService pipeline configuration.
func NewOCRWorker(p OCRServiceParams) *OCRWorker {
	proc := newDocumentProcessor(p)
	return &OCRWorker{proc: proc, catalog: p.Catalog, logger: proc.logger}
}

// Handle processes one queued upload. Errors are returned so the queue can retry.
func (w *OCRWorker) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(ocrJobPayload)
	if !ok {
		return fmt.Errorf("ocr job %s: unexpected payload %T", job.ID, job.Payload)
	}
	doc, ok := w.catalog.Modify(job.ID, func(d *models.IndexedDocument) {
		d.Status = models.DocumentStatusProcessing
		d.Error = ""
	})
	if !ok {
		w.logger.Warn("ocr job for removed document", zap.String("document_id", job.ID))
		return nil
	}

	result, err := w.proc.extract(ctx, doc.StorageKey, payload.Filename)
	if err == nil {
		var analysis dto.DocumentAnalysis
		if analysis, err = w.proc.structure(ctx, result.Text); err == nil {
			meta := w.proc.metadata(result)
			w.catalog.Modify(job.ID, func(d *models.IndexedDocument) {
				d.Content = result.Text
				d.OCR = &meta
				d.Type = documentType(payload.Type, analysis.DocumentType)
				d.Status = models.DocumentStatusIndexed
				d.Error = ""
			})
			return nil
		}
	}
	w.catalog.Modify(job.ID, func(d *models.IndexedDocument) {
		d.Status = models.DocumentStatusPending
		d.Error = err.Error()
	})
	return err
}

// Fail marks a document whose job exhausted its retries.
func (w *OCRWorker) Fail(job jobs.Job, err error) {
	w.catalog.Modify(job.ID, func(d *models.IndexedDocument) {
		d.Status = models.DocumentStatusFailed
		d.Error = appErrors.FromError(err).Message
	})
}

func (p *documentProcessor) persist(ctx context.Context, ownerID, id string, upload DocumentUpload) (string, error) {
	key := storage.ObjectKey(ownerID, id, upload.Filename)
	if err := p.store.Put(ctx, key, upload.Body); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document")
	}
	return key, nil
}

func (p *documentProcessor) discard(key string) {
	if err := p.store.Delete(context.Background(), key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		p.logger.Warn("discard stored document", zap.String("key", key), zap.Error(err))
	}
}

// extract copies the stored object to a temporary file, since the converters
// only read from paths, and runs the matching converter on it.
func (p *documentProcessor) extract(ctx context.Context, key, filename string) (extract.Result, error) {
	src, err := p.store.Open(ctx, key)
	if err != nil {
		return extract.Result{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read stored document")
	}
	defer src.Close()

	tmp, err := os.CreateTemp(p.tempDir, "casebuddy-upload-*"+strings.ToLower(filepath.Ext(filename)))
	if err != nil {
		return extract.Result{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stage document")
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return extract.Result{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stage document")
	}
	if err := tmp.Close(); err != nil {
		return extract.Result{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stage document")
	}

	result, err := p.extractor.ExtractFile(ctx, tmp.Name())
	switch {
	case err == nil:
		return result, nil
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return extract.Result{}, appErrors.WrapAs(appErrors.ErrUnsupportedFormat, err, "")
	case errors.Is(err, extract.ErrToolMissing):
		p.logger.Error("text extraction tool missing", zap.Error(err))
		return extract.Result{}, appErrors.WrapAs(appErrors.ErrExtractionFailed, err, "text extraction tool is not installed")
	default:
		p.logger.Error("text extraction failed", zap.String("file", filename), zap.Error(err))
		return extract.Result{}, appErrors.WrapAs(appErrors.ErrExtractionFailed, err, "")
	}
}

func (p *documentProcessor) structure(ctx context.Context, text string) (dto.DocumentAnalysis, error) {
	var analysis dto.DocumentAnalysis
	parsed, err := completeJSON(ctx, p.completer, p.logger, ai.CompletionRequest{
		Operation: "structure_document",
		System:    legalSystemPrompt,
		Prompt: fmt.Sprintf(`Extract structured information from this legal document.

Document text:
%s

Respond with a JSON object:
{"documentType": string, "summary": string, "parties": [string], "dates": [string],
 "keyTerms": [string], "amounts": [string]}`, ai.Truncate(text, structuringInputSize)),
		Temperature: ai.Temperature(0.1),
	}, &analysis)
	if err != nil {
		return dto.DocumentAnalysis{}, err
	}
	if !parsed {
		analysis = dto.DocumentAnalysis{Summary: ai.Truncate(text, fallbackAnalysisLength)}
	}
	if strings.TrimSpace(analysis.DocumentType) == "" {
		analysis.DocumentType = unknownDocumentType
	}
	analysis.Parties = nonNilStrings(analysis.Parties)
	analysis.Dates = nonNilStrings(analysis.Dates)
	analysis.KeyTerms = nonNilStrings(analysis.KeyTerms)
	analysis.Amounts = nonNilStrings(analysis.Amounts)
	return analysis, nil
}

// metadata describes an extraction. Converter output carries no confidence
// score, so plain text reads count as exact and converted text as unrated.
func (p *documentProcessor) metadata(result extract.Result) models.OCRMetadata {
	confidence := 0.0
	if result.Engine == extract.EnginePlainText {
		confidence = 1
	}
	return models.OCRMetadata{
		Engine:      result.Engine,
		PageCount:   result.Pages,
		Confidence:  confidence,
		ExtractedAt: p.now().UTC(),
	}
}

func documentTitle(title, filename string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
}

func documentType(requested, detected string) string {
	if t := strings.TrimSpace(requested); t != "" {
		return t
	}
	if t := strings.TrimSpace(detected); t != "" {
		return t
	}
	return unknownDocumentType
}
