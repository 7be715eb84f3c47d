package audit

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agendadocs/agenda-server/internal/models"
	"github.com/agendadocs/agenda-server/internal/repository"
	"github.com/agendadocs/agenda-server/internal/utils"
)

// cdmxFormat renders the display timestamp: 24-hour, seconds precision.
const cdmxFormat = "02/01/2006 15:04:05"

// Entry describes one privileged action for the recorder. Zero-valued fields
// are stored as NULL.
type Entry struct {
	Action       string
	ResourceType string
	ResourceID   int64
	ResourceName string
	Details      string
	StatusCode   int
	Extra        map[string]interface{}
}

// Recorder builds and persists audit entries. Record sits on the critical
// path of every mutating request, so it must never fail the caller: internal
// errors go to the operational log only.
type Recorder struct {
	repo   repository.Repository
	logger *utils.Logger
	cdmx   *time.Location
}

// NewRecorder creates a Recorder. If the CDMX timezone database entry is not
// available, a fixed UTC-6 offset is used for the display rendering.
func NewRecorder(repo repository.Repository, logger *utils.Logger) *Recorder {
	loc, err := time.LoadLocation("America/Mexico_City")
	if err != nil {
		logger.Error("CDMX timezone unavailable, falling back to fixed UTC-6: %v", err)
		loc = time.FixedZone("UTC-6", -6*60*60)
	}

	return &Recorder{
		repo:   repo,
		logger: logger,
		cdmx:   loc,
	}
}

// Record persists one audit entry for the authenticated user on c. Calls
// without an authenticated user are a silent no-op; unauthenticated requests
// are never audited here.
func (r *Recorder) Record(c *gin.Context, entry Entry) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("audit record panic: %v", rec)
		}
	}()

	user := CurrentUser(c)
	if user == nil {
		return
	}

	ip, forwardedFor, ipSource := clientIP(c)

	userAgent := c.GetHeader("User-Agent")
	if userAgent == "" {
		userAgent = "unknown"
	}

	extra := map[string]interface{}{
		"forwardedFor": nilIfEmpty(forwardedFor),
		"ipSource":     ipSource,
		"requestId":    nilIfEmpty(c.GetHeader("X-Request-ID")),
	}
	for key, value := range entry.Extra {
		extra[key] = value
	}

	now := time.Now()
	row := &models.AuditLogEntry{
		UserID:         user.ID,
		Username:       user.Username,
		Action:         entry.Action,
		ResourceType:   strPtr(entry.ResourceType),
		ResourceID:     int64Ptr(entry.ResourceID),
		ResourceName:   strPtr(entry.ResourceName),
		Details:        strPtr(entry.Details),
		IPAddress:      ip,
		UserAgent:      userAgent,
		HTTPMethod:     c.Request.Method,
		Endpoint:       sanitizedEndpoint(c.Request.URL),
		StatusCode:     intPtr(entry.StatusCode),
		RequestContext: buildRequestContext(c, extra),
		TimestampUTC:   now.UTC(),
		TimestampCDMX:  now.In(r.cdmx).Format(cdmxFormat),
	}

	if err := r.repo.InsertAuditLog(context.Background(), row); err != nil {
		// Never propagated: the triggering operation's outcome is
		// independent of audit persistence.
		r.logger.Error("failed to persist audit entry %s: %v", entry.Action, err)
	}
}

// CurrentUser returns the authenticated identity attached to c, or nil.
func CurrentUser(c *gin.Context) *models.AuthUser {
	value, ok := c.Get(CurrentUserKey)
	if !ok {
		return nil
	}
	user, ok := value.(*models.AuthUser)
	if !ok {
		return nil
	}
	return user
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func int64Ptr(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func intPtr(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
