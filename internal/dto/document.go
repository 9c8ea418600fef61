package dto

import (
	"time"

	"github.com/casebuddy/casebuddy-api/internal/models"
)

// DocumentItem is the public view of an indexed document.
type DocumentItem struct {
	ID        string                `json:"id"`
	CaseID    string                `json:"caseId,omitempty"`
	Title     string                `json:"title"`
	Type      string                `json:"type"`
	Status    models.DocumentStatus `json:"status"`
	Preview   string                `json:"preview,omitempty"`
	OCR       *models.OCRMetadata   `json:"ocr,omitempty"`
	Error     string                `json:"error,omitempty"`
	IndexedAt time.Time             `json:"indexedAt"`
}

// DocumentDetail adds the full text to DocumentItem.
type DocumentDetail struct {
	DocumentItem
	Content string `json:"content"`
}

// DocumentAnalysis is the structured reading of an uploaded document.
type DocumentAnalysis struct {
	DocumentType string   `json:"documentType"`
	Summary      string   `json:"summary"`
	Parties      []string `json:"parties"`
	Dates        []string `json:"dates"`
	KeyTerms     []string `json:"keyTerms"`
	Amounts      []string `json:"amounts"`
}

// UploadOptions are the form fields sent alongside an uploaded file.
type UploadOptions struct {
	CaseID string `form:"caseId" validate:"omitempty,max=64"`
	Title  string `form:"title" validate:"omitempty,max=300"`
	Type   string `form:"type" validate:"omitempty,max=100"`
	Index  bool   `form:"index"`
	Async  bool   `form:"async"`
}

// OCRAnalysisResponse is the payload of a synchronous upload.
type OCRAnalysisResponse struct {
	DocumentID string             `json:"documentId"`
	Text       string             `json:"text"`
	Analysis   DocumentAnalysis   `json:"analysis"`
	OCR        models.OCRMetadata `json:"ocr"`
	Indexed    bool               `json:"indexed"`
}

// DocumentStatusResponse reports asynchronous upload progress.
type DocumentStatusResponse struct {
	ID     string                `json:"id"`
	Status models.DocumentStatus `json:"status"`
	Error  string                `json:"error,omitempty"`
}

// IndexDocumentRequest is the payload of POST /documents/index.
type IndexDocumentRequest struct {
	Title   string `json:"title" validate:"required,max=300"`
	Type    string `json:"type" validate:"required,max=100"`
	Content string `json:"content" validate:"required"`
	CaseID  string `json:"caseId" validate:"omitempty,max=64"`
}

// DocumentListQuery is the query string of GET /documents.
type DocumentListQuery struct {
	CaseID string   `form:"caseId"`
	Types  []string `form:"type"`
}

// SearchRequest is the payload of POST /documents/search.
type SearchRequest struct {
	Query         string     `json:"query" validate:"required,max=2000"`
	CaseID        string     `json:"caseId" validate:"omitempty,max=64"`
	DocumentTypes []string   `json:"documentTypes" validate:"omitempty,max=20"`
	DateFrom      *time.Time `json:"dateFrom"`
	DateTo        *time.Time `json:"dateTo"`
	Limit         int        `json:"limit" validate:"omitempty,min=1,max=100"`
}

// SearchResult is one ranked hit.
type SearchResult struct {
	Document        DocumentItem `json:"document"`
	RelevanceScore  float64      `json:"relevanceScore"`
	MatchedExcerpts []string     `json:"matchedExcerpts"`
	Reasoning       string       `json:"reasoning"`
}

// SearchResponse holds ranked hits and the counts reported in response meta.
type SearchResponse struct {
	Results         []SearchResult `json:"results"`
	TotalCandidates int            `json:"totalCandidates"`
	TotalMatches    int            `json:"totalMatches"`
	Query           string         `json:"query"`
}
