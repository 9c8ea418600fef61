package dto

import "time"

// GenerateBriefRequest is the payload of POST /brief-generation/generate.
type GenerateBriefRequest struct {
	CaseTitle      string   `json:"caseTitle" validate:"required,max=300"`
	BriefType      string   `json:"briefType" validate:"required,max=100"`
	Court          string   `json:"court" validate:"omitempty,max=200"`
	Facts          string   `json:"facts" validate:"required,max=20000"`
	LegalIssues    []string `json:"legalIssues" validate:"omitempty,max=20,dive,max=1000"`
	Arguments      []string `json:"arguments" validate:"omitempty,max=20,dive,max=2000"`
	DesiredOutcome string   `json:"desiredOutcome" validate:"omitempty,max=2000"`
	Citations      []string `json:"citations" validate:"omitempty,max=50,dive,max=300"`
}

// BriefSection is one headed section of a generated brief.
type BriefSection struct {
	Heading   string   `json:"heading"`
	Content   string   `json:"content"`
	Citations []string `json:"citations"`
}

// GeneratedBrief is a drafted brief split into sections.
type GeneratedBrief struct {
	Title       string         `json:"title"`
	Sections    []BriefSection `json:"sections"`
	RawText     string         `json:"rawText"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

// BriefPDFRequest is the payload of POST /brief-generation/pdf.
type BriefPDFRequest struct {
	Brief GeneratedBrief `json:"brief"`
	// Link asks for a signed download URL instead of the file body.
	Link bool `json:"link"`
}
