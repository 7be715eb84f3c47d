package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agendadocs/agenda-server/internal/audit"
	"github.com/agendadocs/agenda-server/internal/models"
)

// ListTabs returns all tabs in display order.
func (h *Handler) ListTabs(c *gin.Context) {
	tabs, err := h.tabs.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tabs)
}

// CreateTab appends a new tab at the end of the ordering.
func (h *Handler) CreateTab(c *gin.Context) {
	var req models.CreateTabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, models.NewValidationError("tab name is required"))
		return
	}

	tab, err := h.tabs.Create(c.Request.Context(), req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.recorder.Record(c, audit.Entry{
		Action:       "CREATE_TAB",
		ResourceType: "tab",
		ResourceID:   tab.ID,
		ResourceName: tab.Name,
		Details:      fmt.Sprintf("Created tab %q at position %d", tab.Name, tab.OrderIndex),
		StatusCode:   http.StatusCreated,
	})

	c.JSON(http.StatusCreated, tab)
}

// UpdateTabs atomically renames and reorders the whole tab set.
func (h *Handler) UpdateTabs(c *gin.Context) {
	var req models.UpdateTabsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, models.NewValidationError("tabs payload is required"))
		return
	}

	tabs, err := h.tabs.BulkUpdate(c.Request.Context(), req.Tabs)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.recorder.Record(c, audit.Entry{
		Action:       "UPDATE_TABS",
		ResourceType: "tab",
		Details:      fmt.Sprintf("Renamed/reordered %d tabs", len(tabs)),
		StatusCode:   http.StatusOK,
		Extra: map[string]interface{}{
			"tabCount": len(tabs),
		},
	})

	c.JSON(http.StatusOK, tabs)
}

// DeleteTab removes a tab and its documents, then returns the renumbered
// list.
func (h *Handler) DeleteTab(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.respondError(c, models.NewValidationError("invalid tab id"))
		return
	}

	tabs, deleted, err := h.tabs.Delete(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.recorder.Record(c, audit.Entry{
		Action:       "DELETE_TAB",
		ResourceType: "tab",
		ResourceID:   deleted.ID,
		ResourceName: deleted.Name,
		Details:      fmt.Sprintf("Deleted tab %q and its documents", deleted.Name),
		StatusCode:   http.StatusOK,
	})

	c.JSON(http.StatusOK, tabs)
}
