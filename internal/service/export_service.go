package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/casebuddy/casebuddy-api/internal/dto"
	"github.com/casebuddy/casebuddy-api/internal/models"
	appErrors "github.com/casebuddy/casebuddy-api/pkg/errors"
	"github.com/casebuddy/casebuddy-api/pkg/export"
	"github.com/casebuddy/casebuddy-api/pkg/storage"
)

type caseExportSource interface {
	ListAll(ctx context.Context, userID string) ([]models.Case, error)
}

type deadlineExportSource interface {
	ListAllForUser(ctx context.Context, userID string) ([]models.DeadlineWithCase, error)
}

type exportStore interface {
	Save(key string, data []byte) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type sectionRenderer interface {
	RenderSections(title string, sections []export.Section) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportParams groups dependencies for ExportService.
type ExportParams struct {
	Cases     caseExportSource
	Deadlines deadlineExportSource
	Store     exportStore
	Signer    *storage.SignedURLSigner
	CSV       csvRenderer
	PDF       sectionRenderer
	Logger    *zap.Logger
	Config    ExportConfig
	Now       func() time.Time
}

// ExportService renders case data to CSV and briefs to PDF, and serves
// generated files behind signed links.
type ExportService struct {
	cases     caseExportSource
	deadlines deadlineExportSource
	store     exportStore
	signer    *storage.SignedURLSigner
	csv       csvRenderer
	pdf       sectionRenderer
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(p ExportParams) *ExportService {
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Config.ResultTTL <= 0 {
		p.Config.ResultTTL = 24 * time.Hour
	}
	if p.CSV == nil {
		p.CSV = export.NewCSVExporter()
	}
	if p.PDF == nil {
		p.PDF = export.NewPDFExporter()
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &ExportService{
		cases:     p.Cases,
		deadlines: p.Deadlines,
		store:     p.Store,
		signer:    p.Signer,
		csv:       p.CSV,
		pdf:       p.PDF,
		logger:    p.Logger,
		cfg:       p.Config,
		now:       p.Now,
	}
}

// CasesCSV renders every case of the actor.
func (s *ExportService) CasesCSV(ctx context.Context, actor Actor) ([]byte, string, error) {
	cases, err := s.cases.ListAll(ctx, actor.UserID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cases")
	}
	data := export.Dataset{Headers: []string{"Title", "Case Number", "Client", "Court", "Type", "Status", "Priority", "Filing Date", "Next Hearing", "Created"}}
	for _, c := range cases {
		data.AddRow(
			c.Title,
			deref(c.CaseNumber),
			deref(c.ClientName),
			deref(c.Court),
			deref(c.CaseType),
			string(c.Status),
			string(c.Priority),
			formatDate(c.FilingDate),
			formatDate(c.NextHearingDate),
			c.CreatedAt.UTC().Format(time.RFC3339),
		)
	}
	body, err := s.csv.Render(data)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render cases")
	}
	return body, s.filename("cases", "csv"), nil
}

// DeadlinesCSV renders every deadline of the actor with its urgency.
func (s *ExportService) DeadlinesCSV(ctx context.Context, actor Actor) ([]byte, string, error) {
	rows, err := s.deadlines.ListAllForUser(ctx, actor.UserID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load deadlines")
	}
	now := s.now()
	data := export.Dataset{Headers: []string{"Case", "Title", "Due Date", "Status", "Priority", "Urgency", "Days Until"}}
	for _, row := range rows {
		urgency, days := DeadlineUrgency(row.DueDate, row.Status, now)
		data.AddRow(
			row.CaseTitle,
			row.Title,
			row.DueDate.UTC().Format(time.RFC3339),
			string(row.Status),
			string(row.Priority),
			string(urgency),
			strconv.Itoa(days),
		)
	}
	body, err := s.csv.Render(data)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render deadlines")
	}
	return body, s.filename("deadlines", "csv"), nil
}

// BriefPDF renders a generated brief.
func (s *ExportService) BriefPDF(brief dto.GeneratedBrief) ([]byte, string, error) {
	if len(brief.Sections) == 0 && strings.TrimSpace(brief.RawText) == "" {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "brief has no content")
	}
	sections := make([]export.Section, 0, len(brief.Sections))
	for _, sec := range brief.Sections {
		sections = append(sections, export.Section{Heading: sec.Heading, Body: sec.Content, Citations: sec.Citations})
	}
	if len(sections) == 0 {
		sections = append(sections, export.Section{Body: brief.RawText})
	}
	title := strings.TrimSpace(brief.Title)
	if title == "" {
		title = "Legal Brief"
	}
	body, err := s.pdf.RenderSections(title, sections)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render brief")
	}
	return body, s.filename(slug(title), "pdf"), nil
}

// BriefPDFLink renders a brief, stores it and returns a signed download link.
func (s *ExportService) BriefPDFLink(ctx context.Context, actor Actor, brief dto.GeneratedBrief) (*dto.ExportLink, error) {
	if s.store == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export storage is not configured")
	}
	body, name, err := s.BriefPDF(brief)
	if err != nil {
		return nil, err
	}
	key := path.Join("briefs", actor.UserID, uuid.NewString(), name)
	if err := s.store.Save(key, body); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store brief")
	}
	token, expiresAt, err := s.signer.Generate(actor.UserID, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return &dto.ExportLink{
		URL:       fmt.Sprintf("%s/exports/download/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		ExpiresAt: expiresAt,
	}, nil
}

// Download resolves a signed token to the stored file.
func (s *ExportService) Download(ctx context.Context, token string) (io.ReadCloser, string, error) {
	if s.store == nil || s.signer == nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}
	claims, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "download link expired")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download link")
	}
	rc, err := s.store.Open(ctx, claims.Key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export")
	}
	return rc, path.Base(claims.Key), nil
}

// PurgeExpired drops stored exports older than the result TTL.
func (s *ExportService) PurgeExpired() int {
	if s.store == nil {
		return 0
	}
	removed, err := s.store.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return 0
	}
	if len(removed) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
	}
	return len(removed)
}

func (s *ExportService) filename(base, ext string) string {
	return fmt.Sprintf("%s-%s.%s", base, s.now().UTC().Format("20060102"), ext)
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if len(out) > 60 {
		out = strings.TrimSuffix(out[:60], "-")
	}
	if out == "" {
		return "brief"
	}
	return out
}
