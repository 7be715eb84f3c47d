package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agendadocs/agenda-server/internal/audit"
	"github.com/agendadocs/agenda-server/internal/models"
)

// Login verifies credentials and issues a token.
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, models.NewValidationError("username and password are required"))
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// The login itself is audited as the now-authenticated user.
	c.Set(audit.CurrentUserKey, &resp.User)
	h.recorder.Record(c, audit.Entry{
		Action:     "LOGIN",
		StatusCode: http.StatusOK,
	})

	c.JSON(http.StatusOK, resp)
}

// Verify confirms a token is still valid.
func (h *Handler) Verify(c *gin.Context) {
	user := audit.CurrentUser(c)
	c.JSON(http.StatusOK, models.VerifyResponse{Valid: true, User: *user})
}
