package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/agendadocs/agenda-server/internal/models"
)

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByUsernameCI(ctx context.Context, username string) (*models.User, error)
	GetUserByUsernameAndRole(ctx context.Context, username, role string) (*models.User, error)
	GetFirstUserByRole(ctx context.Context, role string) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
	UpdateUsername(ctx context.Context, id int64, username string) error
	UpdateUserRole(ctx context.Context, id int64, role string) error

	// Tab operations
	ListTabs(ctx context.Context) ([]models.Tab, error)
	GetTabByID(ctx context.Context, id int64) (*models.Tab, error)
	GetTabByNameCI(ctx context.Context, name string) (*models.Tab, error)
	CountTabs(ctx context.Context) (int64, error)
	CreateTab(ctx context.Context, tab *models.Tab) error
	ReplaceTabs(ctx context.Context, updates []models.TabUpdate) error
	DeleteTabCascade(ctx context.Context, id int64) error

	// Document operations
	ListDocumentsByTab(ctx context.Context, tabID int64) ([]models.Document, error)
	GetDocumentByID(ctx context.Context, id int64) (*models.Document, error)
	GetDocumentByTabAndFilename(ctx context.Context, tabID int64, filename string) (*models.Document, error)
	InsertDocuments(ctx context.Context, docs []*models.Document) error
	DeleteDocument(ctx context.Context, id int64) error
	UpdateDocumentPath(ctx context.Context, id int64, path string) error

	// Audit log operations
	InsertAuditLog(ctx context.Context, entry *models.AuditLogEntry) error
	QueryAuditLogs(ctx context.Context, filter AuditLogFilter) ([]models.AuditLogEntry, int64, error)
	AuditLogStats(ctx context.Context) (*models.AuditStats, error)
}

// AuditLogFilter narrows an audit log query. All fields are optional and
// conjunctive; zero values mean "no constraint".
type AuditLogFilter struct {
	UserID     *int64
	Action     string
	HTTPMethod string
	Endpoint   string // substring match
	StatusCode *int
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}

// SQLiteRepository implements the Repository interface using sqlite
type SQLiteRepository struct {
	db *sqlx.DB
}

// NewSQLiteRepository creates a new sqlite repository
func NewSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{
		db: db,
	}
}

// GetDB returns the underlying database connection
func (r *SQLiteRepository) GetDB() *sqlx.DB {
	return r.db
}

// withTx runs fn inside a transaction. Every multi-row mutation in this
// package goes through here so concurrent readers never observe a partial
// write.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
