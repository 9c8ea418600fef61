package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/pkg/ai"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
)

const (
	defaultPrecedentLimit       = 10
	fallbackResearchSummary     = "No structured research results could be produced for this question."
	fallbackCitationSummary     = "The treatment of this authority could not be determined automatically. Verify it with a citator before relying on it."
	citationTreatmentUnverified = "unverified"
)

type precedentReply struct {
	Precedents []dto.Precedent `json:"precedents"`
	Summary    string          `json:"summary"`
}

type statuteReply struct {
	Statutes []dto.Statute `json:"statutes"`
}

// PrecedentResearchService finds case law and statutes for a legal question.
type PrecedentResearchService struct {
	completer ai.Completer
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewPrecedentResearchService constructs the research service.
func NewPrecedentResearchService(completer ai.Completer, validate *validator.Validate, logger *zap.Logger) *PrecedentResearchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrecedentResearchService{completer: completer, validator: validate, logger: logger, now: time.Now}
}

// Research asks for precedents and statutes in parallel and ranks the precedents by relevance.
func (s *PrecedentResearchService) Research(ctx context.Context, req dto.PrecedentResearchRequest) (*dto.ResearchResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid research payload")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultPrecedentLimit
	}

	question := fmt.Sprintf("Legal issue: %s\nJurisdiction: %s\nCase type: %s\nFacts:\n%s",
		req.LegalIssue, orUnspecified(req.Jurisdiction), orUnspecified(req.CaseType), ai.Truncate(orUnspecified(req.Facts), 6000))

	var (
		precedents precedentReply
		statutes   statuteReply
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		parsed, err := completeJSON(gctx, s.completer, s.logger, ai.CompletionRequest{
			Operation: "research_precedents",
			System:    legalSystemPrompt,
			Prompt: fmt.Sprintf(`%s

List up to %d precedents most relevant to this issue. Respond with a JSON object:
{"precedents": [{"caseName": string, "citation": string, "court": string, "year": number,
  "relevance": number between 0 and 1, "summary": string, "holding": string}],
 "summary": string}`, question, limit),
			Temperature: ai.Temperature(0.2),
		}, &precedents)
		if err == nil && !parsed {
			precedents = precedentReply{}
		}
		return err
	})
	g.Go(func() error {
		parsed, err := completeJSON(gctx, s.completer, s.logger, ai.CompletionRequest{
			Operation: "research_statutes",
			System:    legalSystemPrompt,
			Prompt: fmt.Sprintf(`%s

List the statutes and regulations that govern this issue. Respond with a JSON object:
{"statutes": [{"title": string, "citation": string, "summary": string, "relevance": number between 0 and 1}]}`, question),
			Temperature: ai.Temperature(0.2),
		}, &statutes)
		if err == nil && !parsed {
			statutes = statuteReply{}
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ranked := make([]dto.Precedent, 0, len(precedents.Precedents))
	for _, p := range precedents.Precedents {
		p.Relevance = ai.Clamp(p.Relevance, 0, 1)
		ranked = append(ranked, p)
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Relevance > ranked[j].Relevance })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	laws := make([]dto.Statute, 0, len(statutes.Statutes))
	for _, st := range statutes.Statutes {
		st.Relevance = ai.Clamp(st.Relevance, 0, 1)
		laws = append(laws, st)
	}

	summary := strings.TrimSpace(precedents.Summary)
	if summary == "" {
		summary = fallbackResearchSummary
	}
	return &dto.ResearchResult{
		Precedents:  ranked,
		Statutes:    laws,
		Summary:     summary,
		GeneratedAt: s.now().UTC(),
	}, nil
}

// AnalyzeCitation reports how an authority has been treated by later courts.
func (s *PrecedentResearchService) AnalyzeCitation(ctx context.Context, req dto.CitationAnalysisRequest) (*dto.CitationAnalysis, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid citation payload")
	}

	var out dto.CitationAnalysis
	parsed, err := completeJSON(ctx, s.completer, s.logger, ai.CompletionRequest{
		Operation: "analyze_citation",
		System:    legalSystemPrompt,
		Prompt: fmt.Sprintf(`Evaluate whether the authority "%s" is still good law.

Context in which it is cited:
%s

Respond with a JSON object:
{"isGoodLaw": boolean, "treatment": "followed" | "distinguished" | "criticized" | "overruled" | "questioned",
 "summary": string, "relatedCases": [string]}`, req.Citation, orUnspecified(req.Context)),
		Temperature: ai.Temperature(0.2),
	}, &out)
	if err != nil {
		return nil, err
	}
	if !parsed {
		out = dto.CitationAnalysis{Treatment: citationTreatmentUnverified, Summary: fallbackCitationSummary}
	}
	out.Citation = req.Citation
	out.Treatment = strings.ToLower(strings.TrimSpace(out.Treatment))
	if out.Treatment == "" {
		out.Treatment = citationTreatmentUnverified
	}
	out.RelatedCases = nonNilStrings(out.RelatedCases)
	return &out, nil
}
