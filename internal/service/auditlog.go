package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/agendadocs/agenda-server/internal/models"
	"github.com/agendadocs/agenda-server/internal/repository"
)

// exportCap bounds how many rows an export may serialize.
const exportCap = 5000

// Export formats.
const (
	ExportFormatJSON = "json"
	ExportFormatCSV  = "csv"
)

// Fixed CSV column order for exports.
var exportColumns = []string{
	"id", "user_id", "username", "action", "resource_type", "resource_id",
	"resource_name", "details", "ip_address", "user_agent", "http_method",
	"endpoint", "status_code", "request_context", "timestamp_utc", "timestamp_cdmx",
}

// AuditLogService surfaces the append-only audit trail to superadmin tooling:
// filtered pages, aggregate statistics, and bulk export.
type AuditLogService struct {
	repo repository.Repository
}

// NewAuditLogService creates a new AuditLogService
func NewAuditLogService(repo repository.Repository) *AuditLogService {
	return &AuditLogService{repo: repo}
}

// Query returns one newest-first page plus the total count matching the same
// filters.
func (s *AuditLogService) Query(ctx context.Context, filter repository.AuditLogFilter) ([]models.AuditLogEntry, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	entries, total, err := s.repo.QueryAuditLogs(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying audit logs: %w", err)
	}
	if entries == nil {
		entries = []models.AuditLogEntry{}
	}
	return entries, total, nil
}

// UserActivity returns the latest entries for one user.
func (s *AuditLogService) UserActivity(ctx context.Context, userID int64, limit int) (*models.User, []models.AuditLogEntry, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, nil, models.NewNotFoundError("user")
	}

	if limit <= 0 {
		limit = 50
	}
	entries, _, err := s.repo.QueryAuditLogs(ctx, repository.AuditLogFilter{
		UserID: &userID,
		Limit:  limit,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("error querying user activity: %w", err)
	}
	if entries == nil {
		entries = []models.AuditLogEntry{}
	}
	return user, entries, nil
}

// Stats aggregates audit activity for the dashboard.
func (s *AuditLogService) Stats(ctx context.Context) (*models.AuditStats, error) {
	stats, err := s.repo.AuditLogStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("error computing audit stats: %w", err)
	}
	return stats, nil
}

// Export re-runs the query with a fixed cap and serializes the rows. CSV
// output quotes every cell with internal quotes doubled, regardless of
// content.
func (s *AuditLogService) Export(ctx context.Context, filter repository.AuditLogFilter, format string) ([]byte, string, error) {
	switch format {
	case ExportFormatJSON, ExportFormatCSV:
	default:
		return nil, "", models.NewValidationError("unsupported export format %q", format)
	}

	filter.Limit = exportCap
	filter.Offset = 0
	entries, _, err := s.repo.QueryAuditLogs(ctx, filter)
	if err != nil {
		return nil, "", fmt.Errorf("error querying audit logs for export: %w", err)
	}
	if entries == nil {
		entries = []models.AuditLogEntry{}
	}

	if format == ExportFormatJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("error serializing export: %w", err)
		}
		return data, "application/json", nil
	}

	return exportCSV(entries), "text/csv", nil
}

// exportCSV serializes entries with every cell quoted. encoding/csv quotes
// only when required, which would break the fixed export contract, so the
// quoting is done by hand.
func exportCSV(entries []models.AuditLogEntry) []byte {
	var b strings.Builder

	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(cell, `"`, `""`))
			b.WriteByte('"')
		}
		b.WriteString("\r\n")
	}

	writeRow(exportColumns)
	for _, e := range entries {
		writeRow([]string{
			strconv.FormatInt(e.ID, 10),
			strconv.FormatInt(e.UserID, 10),
			e.Username,
			e.Action,
			strOrEmpty(e.ResourceType),
			int64OrEmpty(e.ResourceID),
			strOrEmpty(e.ResourceName),
			strOrEmpty(e.Details),
			e.IPAddress,
			e.UserAgent,
			e.HTTPMethod,
			e.Endpoint,
			intOrEmpty(e.StatusCode),
			e.RequestContext,
			e.TimestampUTC.UTC().Format("2006-01-02 15:04:05"),
			e.TimestampCDMX,
		})
	}

	return []byte(b.String())
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func int64OrEmpty(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func intOrEmpty(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
