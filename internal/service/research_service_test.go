package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/pkg/ai"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
)

const precedentsReply = `{"precedents": [
 {"caseName": "Low v. Relevance", "citation": "1 F.3d 1", "relevance": 0.2},
 {"caseName": "Hadley v. Baxendale", "citation": "9 Ex. 341", "relevance": 0.95},
 {"caseName": "Mid v. Point", "citation": "2 F.3d 2", "relevance": 1.4}
], "summary": "Consequential damages require foreseeability."}`

func TestResearchRanksPrecedents(t *testing.T) {
	completer := &stubCompleter{replies: map[string]string{
		"research_precedents": precedentsReply,
		"research_statutes":   `{"statutes": [{"title": "UCC 2-715", "citation": "U.C.C. § 2-715", "relevance": 0.8}]}`,
	}}
	svc := NewPrecedentResearchService(completer, nil, nil)

	out, err := svc.Research(context.Background(), dto.PrecedentResearchRequest{LegalIssue: "consequential damages", Limit: 2})
	require.NoError(t, err)
	require.Len(t, out.Precedents, 2)
	assert.Equal(t, "Mid v. Point", out.Precedents[0].CaseName)
	assert.Equal(t, 1.0, out.Precedents[0].Relevance)
	assert.Equal(t, "Hadley v. Baxendale", out.Precedents[1].CaseName)
	require.Len(t, out.Statutes, 1)
	assert.Equal(t, "UCC 2-715", out.Statutes[0].Title)
	assert.Equal(t, "Consequential damages require foreseeability.", out.Summary)
	assert.ElementsMatch(t, []string{"research_precedents", "research_statutes"}, completer.operations())
}

func TestResearchDefaultLimit(t *testing.T) {
	var items []string
	for i := 0; i < 15; i++ {
		items = append(items, fmt.Sprintf(`{"caseName": "Case %d", "relevance": 0.5}`, i))
	}
	completer := &stubCompleter{replies: map[string]string{
		"research_precedents": `{"precedents": [` + strings.Join(items, ",") + `]}`,
	}}
	svc := NewPrecedentResearchService(completer, nil, nil)

	out, err := svc.Research(context.Background(), dto.PrecedentResearchRequest{LegalIssue: "adverse possession"})
	require.NoError(t, err)
	require.Len(t, out.Precedents, defaultPrecedentLimit)
	assert.Equal(t, "Case 0", out.Precedents[0].CaseName)
	assert.Empty(t, out.Statutes)
	assert.Equal(t, fallbackResearchSummary, out.Summary)
}

func TestResearchFailsWhenModelUnavailable(t *testing.T) {
	svc := NewPrecedentResearchService(&stubCompleter{err: errors.New("503")}, nil, nil)
	_, err := svc.Research(context.Background(), dto.PrecedentResearchRequest{LegalIssue: "laches"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrAIUnavailable.Code))
}

func TestAnalyzeCitation(t *testing.T) {
	completer := &stubCompleter{replies: map[string]string{
		"analyze_citation": `{"isGoodLaw": false, "treatment": " Overruled ", "summary": "Overruled by Brown.", "relatedCases": ["Brown v. Board"]}`,
	}}
	svc := NewPrecedentResearchService(completer, nil, nil)

	out, err := svc.AnalyzeCitation(context.Background(), dto.CitationAnalysisRequest{Citation: "163 U.S. 537"})
	require.NoError(t, err)
	assert.Equal(t, "163 U.S. 537", out.Citation)
	assert.False(t, out.IsGoodLaw)
	assert.Equal(t, "overruled", out.Treatment)
	assert.Equal(t, []string{"Brown v. Board"}, out.RelatedCases)
}

func TestAnalyzeCitationFallback(t *testing.T) {
	svc := NewPrecedentResearchService(ai.DemoCompleter{}, nil, nil)

	out, err := svc.AnalyzeCitation(context.Background(), dto.CitationAnalysisRequest{Citation: "410 F.3d 123"})
	require.NoError(t, err)
	assert.Equal(t, citationTreatmentUnverified, out.Treatment)
	assert.Equal(t, fallbackCitationSummary, out.Summary)
	assert.NotNil(t, out.RelatedCases)
}
