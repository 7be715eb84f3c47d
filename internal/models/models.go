package models

import (
	"time"
)

// User roles. Exactly one role per user; the role governs capability.
const (
	RoleSuperadmin = "superadmin"
	RoleAdmin      = "admin"
	RoleReader     = "reader"
)

// User represents an account in the system
type User struct {
	ID                 int64      `db:"id" json:"id"`
	Username           string     `db:"username" json:"username"`
	Password           string     `db:"password" json:"-"` // bcrypt hash, never serialized
	Role               string     `db:"role" json:"role"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
	LastPasswordChange *time.Time `db:"last_password_change" json:"lastPasswordChange,omitempty"`
}

// AuthUser is the identity extracted from a verified token and attached to
// the request context.
type AuthUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Tab is a named, ordered category that documents are filed under.
// OrderIndex values always form a dense 1..N sequence after any successful
// mutation.
type Tab struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	OrderIndex int       `db:"order_index" json:"order_index"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Document is a PDF file owned by exactly one tab. Deleting the tab deletes
// its documents.
type Document struct {
	ID           int64     `db:"id" json:"id"`
	TabID        int64     `db:"tab_id" json:"tab_id"`
	Filename     string    `db:"filename" json:"filename"`
	OriginalName string    `db:"original_name" json:"original_name"`
	FilePath     string    `db:"file_path" json:"file_path"`
	FileSize     int64     `db:"file_size" json:"file_size"`
	MimeType     *string   `db:"mime_type" json:"mime_type"`
	FileHash     *string   `db:"file_hash" json:"file_hash"`
	UploadedBy   int64     `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// AuditLogEntry is an immutable record of a privileged action and its request
// provenance. Rows are append-only; the application never updates or deletes
// them.
type AuditLogEntry struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	Username       string    `db:"username" json:"username"`
	Action         string    `db:"action" json:"action"`
	ResourceType   *string   `db:"resource_type" json:"resource_type"`
	ResourceID     *int64    `db:"resource_id" json:"resource_id"`
	ResourceName   *string   `db:"resource_name" json:"resource_name"`
	Details        *string   `db:"details" json:"details"`
	IPAddress      string    `db:"ip_address" json:"ip_address"`
	UserAgent      string    `db:"user_agent" json:"user_agent"`
	HTTPMethod     string    `db:"http_method" json:"http_method"`
	Endpoint       string    `db:"endpoint" json:"endpoint"`
	StatusCode     *int      `db:"status_code" json:"status_code"`
	RequestContext string    `db:"request_context" json:"request_context"`
	TimestampUTC   time.Time `db:"timestamp_utc" json:"timestamp_utc"`
	TimestampCDMX  string    `db:"timestamp_cdmx" json:"timestamp_cdmx"`
}

// AuditActionCount is one row of the top-actions statistic.
type AuditActionCount struct {
	Action string `db:"action" json:"action"`
	Count  int64  `db:"count" json:"count"`
}

// AuditUserCount is one row of the top-users statistic. Role comes from a
// left join, so a deleted user still shows its historical username.
type AuditUserCount struct {
	UserID       int64   `db:"user_id" json:"user_id"`
	Username     string  `db:"username" json:"username"`
	Role         *string `db:"role" json:"role"`
	ActionsCount int64   `db:"actions_count" json:"actions_count"`
}

// AuditDailyCount is the number of entries recorded on one calendar day.
type AuditDailyCount struct {
	Date  string `db:"date" json:"date"`
	Count int64  `db:"count" json:"count"`
}

// AuditStats aggregates audit activity for the superadmin dashboard.
type AuditStats struct {
	Total         int64              `json:"total"`
	TopActions    []AuditActionCount `json:"topActions"`
	TopUsers      []AuditUserCount   `json:"topUsers"`
	DailyActivity []AuditDailyCount  `json:"dailyActivity"`
}
