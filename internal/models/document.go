package models

import "time"

// DocumentStatus tracks asynchronous processing of an upload.
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusIndexed    DocumentStatus = "indexed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// OCRMetadata describes how the text of a document was obtained.
type OCRMetadata struct {
	Engine      string    `json:"engine"`
	PageCount   int       `json:"page_count"`
	Confidence  float64   `json:"confidence"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// IndexedDocument is an entry of the in-memory document index.
type IndexedDocument struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	CaseID     string         `json:"case_id,omitempty"`
	Title      string         `json:"title"`
	Type       string         `json:"type"`
	Content    string         `json:"content,omitempty"`
	OCR        *OCRMetadata   `json:"ocr,omitempty"`
	StorageKey string         `json:"storage_key,omitempty"`
	Status     DocumentStatus `json:"status"`
	Error      string         `json:"error,omitempty"`
	IndexedAt  time.Time      `json:"indexed_at"`
}

// DocumentFilter narrows index lookups. Zero values do not filter.
type DocumentFilter struct {
	UserID string
	CaseID string
	Types  []string
	From   *time.Time
	To     *time.Time
}
