package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agendadocs/agenda-server/internal/audit"
	"github.com/agendadocs/agenda-server/internal/models"
	"github.com/agendadocs/agenda-server/internal/service"
)

// ListDocuments returns a tab's documents in collated order.
func (h *Handler) ListDocuments(c *gin.Context) {
	tabID, err := strconv.ParseInt(c.Param("tabId"), 10, 64)
	if err != nil || tabID <= 0 {
		h.respondError(c, models.NewValidationError("invalid tab id"))
		return
	}

	docs, tab, err := h.documents.ListByTab(c.Request.Context(), tabID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.recorder.Record(c, audit.Entry{
		Action:       "LIST_DOCUMENTS",
		ResourceType: "tab",
		ResourceID:   tab.ID,
		ResourceName: tab.Name,
		Details:      fmt.Sprintf("Listed %d documents of tab %q", len(docs), tab.Name),
		StatusCode:   http.StatusOK,
		Extra: map[string]interface{}{
			"tabId":          tab.ID,
			"documentsCount": len(docs),
		},
	})

	c.JSON(http.StatusOK, docs)
}

// UploadDocuments ingests a batch of PDF files into a tab.
func (h *Handler) UploadDocuments(c *gin.Context) {
	tabID, err := strconv.ParseInt(c.Param("tabId"), 10, 64)
	if err != nil || tabID <= 0 {
		h.respondError(c, models.NewValidationError("invalid tab id"))
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		h.respondError(c, models.NewValidationError("multipart form data is required"))
		return
	}

	var headers []*multipart.FileHeader
	for _, field := range form.File {
		headers = append(headers, field...)
	}

	files := make([]service.IncomingFile, len(headers))
	for i, header := range headers {
		header := header
		files[i] = service.IncomingFile{
			OriginalName: filepath.Base(header.Filename),
			ContentType:  header.Header.Get("Content-Type"),
			Size:         header.Size,
			Open: func() (io.ReadCloser, error) {
				return header.Open()
			},
		}
	}

	user := audit.CurrentUser(c)
	created, tab, err := h.documents.Upload(c.Request.Context(), tabID, user.ID, files)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// One audit entry per created document.
	for _, doc := range created {
		h.recorder.Record(c, audit.Entry{
			Action:       "UPLOAD_DOCUMENT",
			ResourceType: "document",
			ResourceID:   doc.ID,
			ResourceName: doc.OriginalName,
			Details: fmt.Sprintf("Uploaded document %q (%.2f KB) to tab %q",
				doc.OriginalName, float64(doc.FileSize)/1024, tab.Name),
			StatusCode: http.StatusCreated,
			Extra: map[string]interface{}{
				"tabId":    tab.ID,
				"fileSize": doc.FileSize,
				"mimeType": doc.MimeType,
				"fileHash": doc.FileHash,
			},
		})
	}

	c.JSON(http.StatusCreated, created)
}

// DeleteDocument removes a document row after best-effort file cleanup.
func (h *Handler) DeleteDocument(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.respondError(c, models.NewValidationError("invalid document id"))
		return
	}

	doc, err := h.documents.Delete(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.recorder.Record(c, audit.Entry{
		Action:       "DELETE_DOCUMENT",
		ResourceType: "document",
		ResourceID:   doc.ID,
		ResourceName: doc.OriginalName,
		Details:      fmt.Sprintf("Deleted document %q", doc.OriginalName),
		StatusCode:   http.StatusOK,
		Extra: map[string]interface{}{
			"tabId":    doc.TabID,
			"fileSize": doc.FileSize,
			"mimeType": doc.MimeType,
			"fileHash": doc.FileHash,
		},
	})

	c.JSON(http.StatusOK, models.MessageResponse{
		Success: true,
		Message: "Document deleted",
	})
}

// ServeDocumentFile streams a stored PDF inline, recovering the path from
// the conventional layout when the stored one is stale.
func (h *Handler) ServeDocumentFile(c *gin.Context) {
	tabID, err := strconv.ParseInt(c.Query("tabId"), 10, 64)
	if err != nil || tabID <= 0 {
		h.respondError(c, models.NewValidationError("invalid tab id"))
		return
	}

	filename := filepath.Base(c.Param("filename"))

	path, err := h.documents.ResolveFile(c.Request.Context(), tabID, filename)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.recorder.Record(c, audit.Entry{
		Action:       "VIEW_DOCUMENT",
		ResourceType: "document",
		ResourceName: filename,
		Details:      fmt.Sprintf("Viewed document %q", filename),
		StatusCode:   http.StatusOK,
		Extra: map[string]interface{}{
			"tabId": tabID,
		},
	})

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	c.File(path)
}
