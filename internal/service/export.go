package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aeotrackhq/aeotrack/internal/domain"
	"github.com/aeotrackhq/aeotrack/internal/telemetry"
)

// ObjectStore uploads export files and hands out time-limited download links
type ObjectStore interface {
	PutObject(ctx context.Context, key string, contentType string, body []byte) error
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

// ExportService renders a project's check history to CSV and uploads it
type ExportService struct {
	projectRepo ProjectRepositoryInterface
	checkRepo   CheckRepositoryInterface
	store       ObjectStore
	now         func() time.Time
}

// NewExportService creates a new ExportService instance
func NewExportService(projectRepo ProjectRepositoryInterface, checkRepo CheckRepositoryInterface, store ObjectStore) *ExportService {
	return &ExportService{
		projectRepo: projectRepo,
		checkRepo:   checkRepo,
		store:       store,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ExportResult describes one uploaded export
type ExportResult struct {
	Key         string `json:"key"`
	DownloadURL string `json:"download_url"`
	Rows        int    `json:"rows"`
}

// Export renders the last N days of checks to CSV and uploads the file,
// returning a presigned download link
func (s *ExportService) Export(ctx context.Context, orgID, projectID string, days int) (*ExportResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "ExportService.Export", telemetry.SpanAttributes{
		OrgID:     orgID,
		ProjectID: projectID,
		Operation: "export",
	})
	defer span.End()

	if s.store == nil {
		return nil, domain.NewDomainError(domain.ErrCodeInternalError, "export storage is not configured")
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.OrgID != orgID {
		return nil, domain.ErrProjectNotFound
	}

	if days <= 0 {
		days = DefaultHistoryDays
	}
	now := s.now()
	window := domain.Window{From: now.AddDate(0, 0, -days), To: now}

	checks, err := s.checkRepo.ListByProjectWindow(ctx, projectID, window)
	if err != nil {
		return nil, err
	}

	body, err := BuildChecksCSV(checks)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to render CSV", err)
	}

	key := fmt.Sprintf("exports/%s/checks-%s.csv", project.ID, now.Format("20060102-150405"))
	if err := s.store.PutObject(ctx, key, "text/csv", body); err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to upload export", err)
	}

	url, err := s.store.GenerateDownloadURL(ctx, key)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to presign export", err)
	}

	return &ExportResult{Key: key, DownloadURL: url, Rows: len(checks)}, nil
}

// BuildChecksCSV renders checks as CSV. List columns use Postgres array
// literal syntax ({"a","b"}) so the file round-trips through COPY.
func BuildChecksCSV(checks []*domain.VisibilityCheck) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"id", "project_id", "engine", "keyword", "presence", "position",
		"citations_count", "observed_urls", "competitors_mentioned",
		"answer_snippet", "timestamp",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, c := range checks {
		position := ""
		if c.Position != nil {
			position = strconv.Itoa(*c.Position)
		}

		record := []string{
			c.ID,
			c.ProjectID,
			string(c.Engine),
			c.Keyword,
			strconv.FormatBool(c.Presence),
			position,
			strconv.Itoa(c.CitationsCount),
			pgArrayLiteral(c.ObservedURLs),
			pgArrayLiteral(c.CompetitorsMentioned),
			c.AnswerSnippet,
			c.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func pgArrayLiteral(values []string) string {
	if len(values) == 0 {
		return "{}"
	}

	quoted := make([]string, len(values))
	for i, v := range values {
		v = strings.ReplaceAll(v, `\`, `\\`)
		v = strings.ReplaceAll(v, `"`, `\"`)
		quoted[i] = `"` + v + `"`
	}
	return "{" + strings.Join(quoted, ",") + "}"
}
