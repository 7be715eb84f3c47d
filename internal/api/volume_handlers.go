package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agendadocs/agenda-server/internal/models"
)

// VolumeFiles returns the whole uploads tree.
func (h *Handler) VolumeFiles(c *gin.Context) {
	tree, totalFiles, err := h.volume.ListFiles()
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tree":       tree,
		"totalFiles": totalFiles,
	})
}

// VolumeStats returns aggregate uploads volume usage.
func (h *Handler) VolumeStats(c *gin.Context) {
	stats, err := h.volume.Stats()
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// VolumeTabFiles lists the files stored for one tab directory.
func (h *Handler) VolumeTabFiles(c *gin.Context) {
	tabID, err := strconv.ParseInt(c.Param("tabId"), 10, 64)
	if err != nil || tabID <= 0 {
		h.respondError(c, models.NewValidationError("invalid tab id"))
		return
	}

	dir, files, err := h.volume.ListTabFiles(tabID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"directory": dir,
		"files":     files,
		"count":     len(files),
	})
}
