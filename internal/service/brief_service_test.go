package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/pkg/ai"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
)

const sampleBrief = `# Motion to Dismiss

## Statement of Facts
Plaintiff filed suit on March 3.

## Argument
The court in Smith v. Jones, 123 U.S. 456 (1990), held that the claim fails.
See also 410 F.3d 123.
`

func TestParseBriefResponseSplitsSectionsInOrder(t *testing.T) {
	brief := ParseBriefResponse(sampleBrief)

	assert.Equal(t, "Motion to Dismiss", brief.Title)
	require.Len(t, brief.Sections, 2)
	assert.Equal(t, "Statement of Facts", brief.Sections[0].Heading)
	assert.Equal(t, "Plaintiff filed suit on March 3.", brief.Sections[0].Content)
	assert.Empty(t, brief.Sections[0].Citations)
	assert.Equal(t, "Argument", brief.Sections[1].Heading)
	assert.Equal(t, []string{"Smith v. Jones", "123 U.S. 456", "410 F.3d 123"}, brief.Sections[1].Citations)
	assert.Equal(t, sampleBrief, brief.RawText)
}

func TestParseBriefResponseKeepsUntitledPreamble(t *testing.T) {
	brief := ParseBriefResponse("Counsel submits the following.\n\n##Conclusion\nGrant the motion.")

	assert.Empty(t, brief.Title)
	require.Len(t, brief.Sections, 2)
	assert.Equal(t, introductionHeading, brief.Sections[0].Heading)
	assert.Equal(t, "Counsel submits the following.", brief.Sections[0].Content)
	assert.Equal(t, "Conclusion", brief.Sections[1].Heading)
}

func TestParseBriefResponseWithoutHeadings(t *testing.T) {
	assert.Empty(t, ParseBriefResponse("   \n").Sections)
	brief := ParseBriefResponse("just prose")
	require.Len(t, brief.Sections, 1)
	assert.Equal(t, "just prose", brief.Sections[0].Content)
}

func briefRequest() dto.GenerateBriefRequest {
	return dto.GenerateBriefRequest{
		CaseTitle: "Smith v. Jones",
		BriefType: "Motion to Dismiss",
		Facts:     "Plaintiff alleges breach of an oral agreement.",
	}
}

func TestBriefGenerate(t *testing.T) {
	completer := &stubCompleter{replies: map[string]string{"generate_brief": sampleBrief}}
	svc := NewBriefService(completer, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC) }

	brief, err := svc.Generate(context.Background(), briefRequest())
	require.NoError(t, err)
	assert.Equal(t, "Motion to Dismiss", brief.Title)
	assert.Len(t, brief.Sections, 2)
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), brief.GeneratedAt)
	require.Len(t, completer.calls, 1)
	assert.Equal(t, int32(4096), completer.calls[0].MaxTokens)
}

func TestBriefGenerateDefaultsTitle(t *testing.T) {
	svc := NewBriefService(ai.DemoCompleter{}, nil, nil, nil)

	brief, err := svc.Generate(context.Background(), briefRequest())
	require.NoError(t, err)
	assert.Equal(t, "Motion to Dismiss: Smith v. Jones", brief.Title)
	require.Len(t, brief.Sections, 1)
	assert.Equal(t, introductionHeading, brief.Sections[0].Heading)
}

func TestBriefGenerateErrors(t *testing.T) {
	svc := NewBriefService(&stubCompleter{err: errors.New("timeout")}, nil, nil, nil)

	_, err := svc.Generate(context.Background(), dto.GenerateBriefRequest{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))

	_, err = svc.Generate(context.Background(), briefRequest())
	assert.True(t, appErrors.HasCode(err, appErrors.ErrAIUnavailable.Code))
}

type recordingBriefExporter struct {
	rendered []dto.GeneratedBrief
}

func (r *recordingBriefExporter) BriefPDF(brief dto.GeneratedBrief) ([]byte, string, error) {
	r.rendered = append(r.rendered, brief)
	return []byte("%PDF"), "brief.pdf", nil
}

func (r *recordingBriefExporter) BriefPDFLink(ctx context.Context, actor Actor, brief dto.GeneratedBrief) (*dto.ExportLink, error) {
	r.rendered = append(r.rendered, brief)
	return &dto.ExportLink{URL: "/api/exports/download/token"}, nil
}

func TestBriefExportDelegates(t *testing.T) {
	exporter := &recordingBriefExporter{}
	svc := NewBriefService(&stubCompleter{}, exporter, nil, nil)
	brief := ParseBriefResponse(sampleBrief)

	data, name, err := svc.ExportPDF(brief)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), data)
	assert.Equal(t, "brief.pdf", name)

	link, err := svc.ExportPDFLink(context.Background(), owner, brief)
	require.NoError(t, err)
	assert.Equal(t, "/api/exports/download/token", link.URL)
	assert.Len(t, exporter.rendered, 2)
}
