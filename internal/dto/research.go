package dto

import "time"

// PrecedentResearchRequest is the payload of POST /legal-research/precedents.
type PrecedentResearchRequest struct {
	LegalIssue   string `json:"legalIssue" validate:"required,max=2000"`
	Jurisdiction string `json:"jurisdiction" validate:"omitempty,max=200"`
	CaseType     string `json:"caseType" validate:"omitempty,max=100"`
	Facts        string `json:"facts" validate:"omitempty,max=20000"`
	Limit        int    `json:"limit" validate:"omitempty,min=1,max=50"`
}

// Precedent is a prior decision relevant to the research question.
type Precedent struct {
	CaseName  string  `json:"caseName"`
	Citation  string  `json:"citation"`
	Court     string  `json:"court"`
	Year      int     `json:"year"`
	Relevance float64 `json:"relevance"`
	Summary   string  `json:"summary"`
	Holding   string  `json:"holding"`
}

// Statute is a statutory provision relevant to the research question.
type Statute struct {
	Title     string  `json:"title"`
	Citation  string  `json:"citation"`
	Summary   string  `json:"summary"`
	Relevance float64 `json:"relevance"`
}

// ResearchResult is the payload of a precedent research response.
type ResearchResult struct {
	Precedents  []Precedent `json:"precedents"`
	Statutes    []Statute   `json:"statutes"`
	Summary     string      `json:"summary"`
	GeneratedAt time.Time   `json:"generatedAt"`
}

// CitationAnalysisRequest is the payload of POST /legal-research/citation.
type CitationAnalysisRequest struct {
	Citation string `json:"citation" validate:"required,max=300"`
	Context  string `json:"context" validate:"omitempty,max=5000"`
}

// CitationAnalysis reports whether an authority is still good law.
type CitationAnalysis struct {
	Citation     string   `json:"citation"`
	IsGoodLaw    bool     `json:"isGoodLaw"`
	Treatment    string   `json:"treatment"`
	Summary      string   `json:"summary"`
	RelatedCases []string `json:"relatedCases"`
}
