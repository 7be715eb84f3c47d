package repository

import (
	"context"
	"strings"

	"github.com/agendadocs/agenda-server/internal/models"
)

// InsertAuditLog appends one entry. Audit rows are never updated or deleted
// by the application.
func (r *SQLiteRepository) InsertAuditLog(ctx context.Context, entry *models.AuditLogEntry) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs
			(user_id, username, action, resource_type, resource_id, resource_name,
			 details, ip_address, user_agent, http_method, endpoint, status_code,
			 request_context, timestamp_utc, timestamp_cdmx)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.UserID, entry.Username, entry.Action, entry.ResourceType,
		entry.ResourceID, entry.ResourceName, entry.Details, entry.IPAddress,
		entry.UserAgent, entry.HTTPMethod, entry.Endpoint, entry.StatusCode,
		entry.RequestContext, entry.TimestampUTC, entry.TimestampCDMX)
	if err != nil {
		return err
	}

	entry.ID, err = res.LastInsertId()
	return err
}

// QueryAuditLogs returns one newest-first page plus the total count matching
// the same filter set, computed independently of pagination.
func (r *SQLiteRepository) QueryAuditLogs(ctx context.Context, filter AuditLogFilter) ([]models.AuditLogEntry, int64, error) {
	where, args := buildAuditWhere(filter)

	var total int64
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM audit_logs`+where, args...); err != nil {
		return nil, 0, err
	}

	query := `SELECT * FROM audit_logs` + where + ` ORDER BY timestamp_utc DESC, id DESC`
	pageArgs := args
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		pageArgs = append(append([]interface{}{}, args...), filter.Limit, filter.Offset)
	}

	var entries []models.AuditLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, pageArgs...); err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func buildAuditWhere(filter AuditLogFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if filter.UserID != nil {
		clauses = append(clauses, `user_id = ?`)
		args = append(args, *filter.UserID)
	}
	if filter.Action != "" {
		clauses = append(clauses, `action = ?`)
		args = append(args, filter.Action)
	}
	if filter.HTTPMethod != "" {
		clauses = append(clauses, `http_method = ?`)
		args = append(args, strings.ToUpper(filter.HTTPMethod))
	}
	if filter.Endpoint != "" {
		clauses = append(clauses, `endpoint LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(filter.Endpoint)+"%")
	}
	if filter.StatusCode != nil {
		clauses = append(clauses, `status_code = ?`)
		args = append(args, *filter.StatusCode)
	}
	if filter.StartDate != nil {
		clauses = append(clauses, `timestamp_utc >= ?`)
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		clauses = append(clauses, `timestamp_utc <= ?`)
		args = append(args, filter.EndDate.UTC())
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

// AuditLogStats aggregates totals, top actions, top users and the trailing
// 7-day daily counts.
func (r *SQLiteRepository) AuditLogStats(ctx context.Context) (*models.AuditStats, error) {
	stats := &models.AuditStats{
		TopActions:    []models.AuditActionCount{},
		TopUsers:      []models.AuditUserCount{},
		DailyActivity: []models.AuditDailyCount{},
	}

	if err := r.db.GetContext(ctx, &stats.Total,
		`SELECT COUNT(*) FROM audit_logs`); err != nil {
		return nil, err
	}

	if err := r.db.SelectContext(ctx, &stats.TopActions, `
		SELECT action, COUNT(*) AS count
		FROM audit_logs
		GROUP BY action
		ORDER BY count DESC, action ASC
		LIMIT 10
	`); err != nil {
		return nil, err
	}

	// LEFT JOIN so a deleted user still surfaces its historical username.
	if err := r.db.SelectContext(ctx, &stats.TopUsers, `
		SELECT al.user_id, al.username, u.role, COUNT(*) AS actions_count
		FROM audit_logs al
		LEFT JOIN users u ON al.user_id = u.id
		GROUP BY al.user_id, al.username, u.role
		ORDER BY actions_count DESC, al.username ASC
		LIMIT 10
	`); err != nil {
		return nil, err
	}

	if err := r.db.SelectContext(ctx, &stats.DailyActivity, `
		SELECT DATE(timestamp_utc) AS date, COUNT(*) AS count
		FROM audit_logs
		WHERE timestamp_utc >= datetime('now', '-7 days')
		GROUP BY DATE(timestamp_utc)
		ORDER BY date DESC
	`); err != nil {
		return nil, err
	}

	return stats, nil
}
