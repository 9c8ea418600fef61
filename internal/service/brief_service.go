package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/pkg/ai"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
)

const introductionHeading = "Introduction"

var (
	reporterCitation = regexp.MustCompile(`\b\d{1,4}\s+(?:U\.S\.|S\.\s?Ct\.|L\.\s?Ed\.(?:\s?2d)?|F\.(?:\s?Supp\.)?(?:\s?(?:2d|3d|4th))?|[A-Z][a-z]*\.(?:\s?[A-Z][a-z]*\.)*(?:\s?(?:2d|3d|4th))?)\s+\d{1,5}\b`)
	caseNameCitation = regexp.MustCompile(`(?:[A-Z][\w.'&-]*\s+){0,2}[A-Z][\w.'&-]*\s+v\.\s+[A-Z][\w.'&-]*(?:\s+[A-Z][\w.'&-]*){0,2}`)
)

type briefExporter interface {
	BriefPDF(brief dto.GeneratedBrief) ([]byte, string, error)
	BriefPDFLink(ctx context.Context, actor Actor, brief dto.GeneratedBrief) (*dto.ExportLink, error)
}

// BriefService drafts legal briefs with the language model.
type BriefService struct {
	completer ai.Completer
	exporter  briefExporter
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewBriefService constructs a BriefService.
func NewBriefService(completer ai.Completer, exporter briefExporter, validate *validator.Validate, logger *zap.Logger) *BriefService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BriefService{completer: completer, exporter: exporter, validator: validate, logger: logger, now: time.Now}
}

// Generate drafts a brief and splits the reply into sections.
func (s *BriefService) Generate(ctx context.Context, req dto.GenerateBriefRequest) (*dto.GeneratedBrief, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid brief payload")
	}

	prompt := fmt.Sprintf(`Draft a %s for the matter "%s".

Court: %s
Facts:
%s

Legal issues:
%s

Arguments to advance:
%s

Desired outcome: %s

Authorities to consider:
%s

Format the brief in Markdown. Start with a single "# " title line, then use "## " headings for each section
(for example Statement of Facts, Argument, Conclusion). Cite cases by name and reporter citation.`,
		req.BriefType, req.CaseTitle, orUnspecified(req.Court), ai.Truncate(req.Facts, 8000),
		bulletList(req.LegalIssues), bulletList(req.Arguments), orUnspecified(req.DesiredOutcome), bulletList(req.Citations))

	text, err := s.completer.Complete(ctx, ai.CompletionRequest{
		Operation:   "generate_brief",
		System:      "You are a senior litigator drafting persuasive, well-organised court filings.",
		Prompt:      prompt,
		Temperature: ai.Temperature(0.4),
		MaxTokens:   4096,
	})
	if err != nil {
		s.logger.Error("brief generation failed", zap.Error(err))
		return nil, appErrors.WrapAs(appErrors.ErrAIUnavailable, err, "")
	}

	brief := ParseBriefResponse(text)
	if brief.Title == "" {
		brief.Title = fmt.Sprintf("%s: %s", req.BriefType, req.CaseTitle)
	}
	brief.GeneratedAt = s.now().UTC()
	return &brief, nil
}

// ExportPDF renders a brief as a PDF document.
func (s *BriefService) ExportPDF(brief dto.GeneratedBrief) ([]byte, string, error) {
	return s.exporter.BriefPDF(brief)
}

// ExportPDFLink stores a rendered brief and returns a signed download link.
func (s *BriefService) ExportPDFLink(ctx context.Context, actor Actor, brief dto.GeneratedBrief) (*dto.ExportLink, error) {
	return s.exporter.BriefPDFLink(ctx, actor, brief)
}

// ParseBriefResponse splits a Markdown brief on "##" headings. A leading "#"
// line becomes the title; any other text before the first heading is kept as
// an introduction. Sections keep their source order.
func ParseBriefResponse(raw string) dto.GeneratedBrief {
	brief := dto.GeneratedBrief{RawText: raw, Sections: []dto.BriefSection{}}

	var (
		heading  string
		body     []string
		preamble = true
	)
	flush := func() {
		content := strings.TrimSpace(strings.Join(body, "\n"))
		body = body[:0]
		if preamble {
			if content != "" {
				brief.Sections = append(brief.Sections, newBriefSection(introductionHeading, content))
			}
			return
		}
		brief.Sections = append(brief.Sections, newBriefSection(heading, content))
	}

	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "##"):
			flush()
			preamble = false
			heading = strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
		case preamble && brief.Title == "" && strings.HasPrefix(trimmed, "#") && strings.TrimSpace(strings.Join(body, "")) == "":
			brief.Title = strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
		default:
			body = append(body, line)
		}
	}
	flush()
	return brief
}

func newBriefSection(heading, content string) dto.BriefSection {
	return dto.BriefSection{Heading: heading, Content: content, Citations: extractCitations(content)}
}

func extractCitations(text string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	add := func(matches []string) {
		for _, m := range matches {
			m = strings.TrimRight(strings.TrimSpace(m), ",;:")
			if _, ok := seen[m]; ok || m == "" {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	add(caseNameCitation.FindAllString(text, -1))
	add(reporterCitation.FindAllString(text, -1))
	return out
}
