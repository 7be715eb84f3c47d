package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agendadocs/agenda-server/internal/audit"
	"github.com/agendadocs/agenda-server/internal/models"
	"github.com/agendadocs/agenda-server/internal/repository"
	"github.com/agendadocs/agenda-server/internal/service"
)

const resetConfirmationPhrase = "RESET_DEFAULT_PASSWORDS_SUPERADMIN"

// ListUsers returns every account ordered by role rank.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.recorder.Record(c, audit.Entry{
		Action:     "VIEW_ALL_USERS",
		Details:    fmt.Sprintf("Listed all users (%d accounts)", len(users)),
		StatusCode: http.StatusOK,
	})

	c.JSON(http.StatusOK, models.UsersResponse{Users: users})
}

// ChangeUserPassword sets a new password for the target account.
func (h *Handler) ChangeUserPassword(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID <= 0 {
		h.respondError(c, models.NewValidationError("invalid user id"))
		return
	}

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, models.NewValidationError("newPassword is required"))
		return
	}

	actor := audit.CurrentUser(c)
	user, err := h.users.ChangePassword(c.Request.Context(), actor.ID, userID, req.NewPassword)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.recorder.Record(c, audit.Entry{
		Action:       "CHANGE_USER_PASSWORD",
		ResourceType: "user",
		ResourceID:   user.ID,
		ResourceName: user.Username,
		Details:      fmt.Sprintf("Changed password of %s (%s)", user.Username, user.Role),
		StatusCode:   http.StatusOK,
	})

	c.JSON(http.StatusOK, models.MessageResponse{
		Success: true,
		Message: fmt.Sprintf("Password updated for %s", user.Username),
	})
}

// ChangeUserRole moves an account between admin and reader tiers.
func (h *Handler) ChangeUserRole(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID <= 0 {
		h.respondError(c, models.NewValidationError("invalid user id"))
		return
	}

	var req models.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, models.NewValidationError("newRole is required"))
		return
	}

	user, err := h.users.ChangeRole(c.Request.Context(), userID, req.NewRole)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.recorder.Record(c, audit.Entry{
		Action:       "CHANGE_USER_ROLE",
		ResourceType: "user",
		ResourceID:   user.ID,
		ResourceName: user.Username,
		Details:      fmt.Sprintf("Changed role of %s from %q to %q", user.Username, user.Role, req.NewRole),
		StatusCode:   http.StatusOK,
	})

	c.JSON(http.StatusOK, models.MessageResponse{
		Success: true,
		Message: fmt.Sprintf("Role updated for %s: %s", user.Username, req.NewRole),
	})
}

// ResetDefaultPasswords restores every role tier to the configured default
// credential. Requires an explicit confirmation phrase.
func (h *Handler) ResetDefaultPasswords(c *gin.Context) {
	var req models.ResetDefaultPasswordsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Confirmation != resetConfirmationPhrase {
		h.respondError(c, models.NewValidationError("invalid confirmation"))
		return
	}

	affected, err := h.bootstrap.ResetDefaultPasswords(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	summaries := make([]string, len(affected))
	for i, user := range affected {
		summaries[i] = fmt.Sprintf("%s(%s)", user.Username, user.Role)
	}

	h.recorder.Record(c, audit.Entry{
		Action:       "RESET_DEFAULT_PASSWORDS",
		ResourceType: "user",
		Details:      "Reset default passwords for: " + strings.Join(summaries, ", "),
		StatusCode:   http.StatusOK,
	})

	c.JSON(http.StatusOK, models.ResetDefaultPasswordsResponse{
		Success: true,
		Message: "Passwords reset to configured defaults",
		Users:   affected,
	})
}

// ListAuditLogs returns one filtered page of the audit trail.
func (h *Handler) ListAuditLogs(c *gin.Context) {
	filter, err := auditFilterFromQuery(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	entries, total, err := h.auditLogs.Query(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.recorder.Record(c, audit.Entry{
		Action:     "VIEW_AUDIT_LOGS",
		Details:    fmt.Sprintf("Queried %d audit entries", len(entries)),
		StatusCode: http.StatusOK,
	})

	c.JSON(http.StatusOK, models.AuditLogsResponse{
		Logs:   entries,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// UserActivity returns the latest audit entries for one user.
func (h *Handler) UserActivity(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID <= 0 {
		h.respondError(c, models.NewValidationError("invalid user id"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	user, entries, err := h.auditLogs.UserActivity(c.Request.Context(), userID, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.recorder.Record(c, audit.Entry{
		Action:       "VIEW_USER_ACTIVITY",
		ResourceType: "user",
		ResourceID:   user.ID,
		ResourceName: user.Username,
		Details:      fmt.Sprintf("Viewed activity of user %s", user.Username),
		StatusCode:   http.StatusOK,
	})

	c.JSON(http.StatusOK, models.UserActivityResponse{
		User: models.AffectedUser{
			ID:       user.ID,
			Username: user.Username,
			Role:     user.Role,
		},
		Logs:  entries,
		Total: len(entries),
	})
}

// AuditLogStats returns aggregate audit statistics.
func (h *Handler) AuditLogStats(c *gin.Context) {
	stats, err := h.auditLogs.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.recorder.Record(c, audit.Entry{
		Action:     "VIEW_AUDIT_STATS",
		Details:    "Viewed audit statistics",
		StatusCode: http.StatusOK,
	})

	c.JSON(http.StatusOK, stats)
}

// ExportAuditLogs serializes the filtered audit trail as JSON or CSV.
func (h *Handler) ExportAuditLogs(c *gin.Context) {
	filter, err := auditFilterFromQuery(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	format := c.DefaultQuery("format", service.ExportFormatJSON)
	data, contentType, err := h.auditLogs.Export(c.Request.Context(), filter, format)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.recorder.Record(c, audit.Entry{
		Action:     "EXPORT_AUDIT_LOGS",
		Details:    fmt.Sprintf("Exported audit logs as %s", format),
		StatusCode: http.StatusOK,
	})

	c.Header("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "audit-logs."+format))
	c.Data(http.StatusOK, contentType, data)
}

func auditFilterFromQuery(c *gin.Context) (repository.AuditLogFilter, error) {
	filter := repository.AuditLogFilter{
		Action:   c.Query("action"),
		Endpoint: c.Query("endpoint"),
	}

	if raw := c.Query("userId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, models.NewValidationError("invalid userId filter")
		}
		filter.UserID = &id
	}
	if raw := c.Query("httpMethod"); raw != "" {
		filter.HTTPMethod = strings.ToUpper(raw)
	}
	if raw := c.Query("statusCode"); raw != "" {
		code, err := strconv.Atoi(raw)
		if err != nil {
			return filter, models.NewValidationError("invalid statusCode filter")
		}
		filter.StatusCode = &code
	}
	if raw := c.Query("startDate"); raw != "" {
		start, err := parseDateFilter(raw, false)
		if err != nil {
			return filter, err
		}
		filter.StartDate = &start
	}
	if raw := c.Query("endDate"); raw != "" {
		end, err := parseDateFilter(raw, true)
		if err != nil {
			return filter, err
		}
		filter.EndDate = &end
	}

	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	return filter, nil
}

// parseDateFilter accepts RFC 3339 or a bare date. A bare end date is
// inclusive, so it extends to the last instant of that day.
func parseDateFilter(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, models.NewValidationError("invalid date filter %q", raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
