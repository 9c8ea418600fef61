package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/internal/models"
	"github.com/casebuddy/casebuddy-api/pkg/ai"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
	"github.com/casebuddy/casebuddy-api/pkg/storage"
)

const (
	// RelevanceFloor is the minimum score a document needs to be returned.
	RelevanceFloor     = 0.2
	defaultSearchLimit = 10
	rankingExcerptSize = 3000
	similarQuerySize   = 1000
	previewSize        = 200
)

type documentIndex interface {
	Add(doc models.IndexedDocument) models.IndexedDocument
	Update(id string, fn func(*models.IndexedDocument)) (models.IndexedDocument, bool)
	Get(id string) (models.IndexedDocument, bool)
	Remove(id string) (models.IndexedDocument, bool)
	Filter(f models.DocumentFilter) []models.IndexedDocument
	Len() int
}

type objectRemover interface {
	Delete(ctx context.Context, key string) error
}

type indexSizeRecorder interface {
	SetIndexSize(n int)
}

type relevanceReply struct {
	RelevanceScore  float64  `json:"relevanceScore"`
	MatchedExcerpts []string `json:"matchedExcerpts"`
	Reasoning       string   `json:"reasoning"`
}

// SearchServiceParams groups SearchService dependencies.
type SearchServiceParams struct {
	Index     documentIndex
	Store     objectRemover
	Cases     caseFinder
	Completer ai.Completer
	Metrics   indexSizeRecorder
	Validator *validator.Validate
	Logger    *zap.Logger
}

// SearchService indexes documents and ranks them against free-text queries.
type SearchService struct {
	index     documentIndex
	store     objectRemover
	cases     caseFinder
	completer ai.Completer
	metrics   indexSizeRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSearchService constructs a SearchService.
func NewSearchService(p SearchServiceParams) *SearchService {
	validate := p.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{
		index:     p.Index,
		store:     p.Store,
		cases:     p.Cases,
		completer: p.Completer,
		metrics:   p.Metrics,
		validator: validate,
		logger:    logger,
	}
}

// Search filters the caller's documents and ranks every candidate with one model call.
func (s *SearchService) Search(ctx context.Context, actor Actor, req dto.SearchRequest) (*dto.SearchResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid search payload")
	}
	if req.DateFrom != nil && req.DateTo != nil && req.DateTo.Before(*req.DateFrom) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dateTo must not be before dateFrom")
	}

	candidates := searchable(s.index.Filter(models.DocumentFilter{
		UserID: s.scope(actor),
		CaseID: req.CaseID,
		Types:  req.DocumentTypes,
		From:   req.DateFrom,
		To:     req.DateTo,
	}), "")
	results, err := s.rank(ctx, req.Query, candidates, req.Limit)
	if err != nil {
		return nil, err
	}
	return &dto.SearchResponse{
		Results:         results.hits,
		TotalCandidates: len(candidates),
		TotalMatches:    results.matches,
		Query:           req.Query,
	}, nil
}

// FindSimilar ranks the caller's other documents against the opening text of id.
func (s *SearchService) FindSimilar(ctx context.Context, actor Actor, id string, limit int) (*dto.SearchResponse, error) {
	doc, err := s.load(actor, id)
	if err != nil {
		return nil, err
	}
	query := ai.Truncate(doc.Content, similarQuerySize)
	if query == "" {
		query = doc.Title
	}

	candidates := searchable(s.index.Filter(models.DocumentFilter{UserID: doc.UserID}), doc.ID)
	results, err := s.rank(ctx, query, candidates, limit)
	if err != nil {
		return nil, err
	}
	return &dto.SearchResponse{
		Results:         results.hits,
		TotalCandidates: len(candidates),
		TotalMatches:    results.matches,
		Query:           query,
	}, nil
}

// searchable keeps the indexed documents of docs other than excludeID.
func searchable(docs []models.IndexedDocument, excludeID string) []models.IndexedDocument {
	out := make([]models.IndexedDocument, 0, len(docs))
	for _, d := range docs {
		if d.Status == models.DocumentStatusIndexed && d.ID != excludeID {
			out = append(out, d)
		}
	}
	return out
}

type ranking struct {
	hits    []dto.SearchResult
	matches int
}

func (s *SearchService) rank(ctx context.Context, query string, candidates []models.IndexedDocument, limit int) (ranking, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	hits := make([]dto.SearchResult, 0, len(candidates))
	for _, doc := range candidates {
		if err := ctx.Err(); err != nil {
			return ranking{}, err
		}
		if doc.Content == "" {
			continue
		}
		var reply relevanceReply
		parsed, err := completeJSON(ctx, s.completer, s.logger, ai.CompletionRequest{
			Operation: "rate_relevance",
			Prompt: fmt.Sprintf(`Rate how relevant the document below is to the search query.

Query: %s

Document title: %s
Document type: %s
Document text:
%s

Respond with a JSON object:
{"relevanceScore": number between 0 and 1, "matchedExcerpts": [short quotes from the document], "reasoning": string}`,
				query, doc.Title, doc.Type, ai.Truncate(doc.Content, rankingExcerptSize)),
			Temperature: ai.Temperature(0),
		}, &reply)
		if err != nil {
			return ranking{}, err
		}
		if !parsed {
			continue
		}
		score := ai.Clamp(reply.RelevanceScore, 0, 1)
		if score < RelevanceFloor {
			continue
		}
		hits = append(hits, dto.SearchResult{
			Document:        documentItem(doc),
			RelevanceScore:  score,
			MatchedExcerpts: nonNilStrings(reply.MatchedExcerpts),
			Reasoning:       reply.Reasoning,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].RelevanceScore > hits[j].RelevanceScore })
	matches := len(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return ranking{hits: hits, matches: matches}, nil
}

// IndexDocument adds caller-supplied text to the index.
func (s *SearchService) IndexDocument(ctx context.Context, actor Actor, req dto.IndexDocumentRequest) (*dto.DocumentItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document payload")
	}
	if err := s.checkCase(ctx, actor, req.CaseID); err != nil {
		return nil, err
	}
	doc := s.Put(models.IndexedDocument{
		UserID:  actor.UserID,
		CaseID:  req.CaseID,
		Title:   req.Title,
		Type:    req.Type,
		Content: req.Content,
		Status:  models.DocumentStatusIndexed,
	})
	item := documentItem(doc)
	return &item, nil
}

// List returns the caller's documents in index order.
func (s *SearchService) List(ctx context.Context, actor Actor, query dto.DocumentListQuery) []dto.DocumentItem {
	docs := s.index.Filter(models.DocumentFilter{UserID: s.scope(actor), CaseID: query.CaseID, Types: query.Types})
	items := make([]dto.DocumentItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, documentItem(doc))
	}
	return items
}

// Get returns a document with its full text.
func (s *SearchService) Get(ctx context.Context, actor Actor, id string) (*dto.DocumentDetail, error) {
	doc, err := s.load(actor, id)
	if err != nil {
		return nil, err
	}
	return &dto.DocumentDetail{DocumentItem: documentItem(doc), Content: doc.Content}, nil
}

// Status reports the processing state of an upload.
func (s *SearchService) Status(ctx context.Context, actor Actor, id string) (*dto.DocumentStatusResponse, error) {
	doc, err := s.load(actor, id)
	if err != nil {
		return nil, err
	}
	return &dto.DocumentStatusResponse{ID: doc.ID, Status: doc.Status, Error: doc.Error}, nil
}

// Delete removes a document from the index together with its stored file.
func (s *SearchService) Delete(ctx context.Context, actor Actor, id string) error {
	if _, err := s.load(actor, id); err != nil {
		return err
	}
	doc, ok := s.index.Remove(id)
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}
	s.recordSize()
	if doc.StorageKey != "" && s.store != nil {
		if err := s.store.Delete(ctx, doc.StorageKey); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.Warn("delete stored document", zap.String("document_id", id), zap.Error(err))
		}
	}
	return nil
}

// Put stores doc in the index and returns the stored copy.
func (s *SearchService) Put(doc models.IndexedDocument) models.IndexedDocument {
	stored := s.index.Add(doc)
	s.recordSize()
	return stored
}

// Modify updates a stored document in place.
func (s *SearchService) Modify(id string, fn func(*models.IndexedDocument)) (models.IndexedDocument, bool) {
	return s.index.Update(id, fn)
}

func (s *SearchService) load(actor Actor, id string) (models.IndexedDocument, error) {
	doc, ok := s.index.Get(id)
	if !ok || (!actor.IsAdmin() && doc.UserID != actor.UserID) {
		return models.IndexedDocument{}, appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}
	return doc, nil
}

func (s *SearchService) checkCase(ctx context.Context, actor Actor, caseID string) error {
	if caseID == "" || s.cases == nil {
		return nil
	}
	_, err := authorizeCase(ctx, s.cases, actor, caseID)
	return err
}

func (s *SearchService) scope(actor Actor) string {
	if actor.IsAdmin() {
		return ""
	}
	return actor.UserID
}

func (s *SearchService) recordSize() {
	if s.metrics != nil {
		s.metrics.SetIndexSize(s.index.Len())
	}
}

func documentItem(doc models.IndexedDocument) dto.DocumentItem {
	return dto.DocumentItem{
		ID:        doc.ID,
		CaseID:    doc.CaseID,
		Title:     doc.Title,
		Type:      doc.Type,
		Status:    doc.Status,
		Preview:   ai.Truncate(doc.Content, previewSize),
		OCR:       doc.OCR,
		Error:     doc.Error,
		IndexedAt: doc.IndexedAt,
	}
}
