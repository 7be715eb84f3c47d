package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agendadocs/agenda-server/internal/audit"
	"github.com/agendadocs/agenda-server/internal/models"
	"github.com/agendadocs/agenda-server/internal/service"
	"github.com/agendadocs/agenda-server/internal/utils"
)

// Handler wires the services to HTTP routes.
type Handler struct {
	auth      *service.AuthService
	tabs      *service.TabService
	documents *service.DocumentService
	auditLogs *service.AuditLogService
	users     *service.UserService
	bootstrap *service.BootstrapService
	volume    *service.VolumeService
	recorder  *audit.Recorder
	logger    *utils.Logger
}

// NewHandler creates a new API handler
func NewHandler(
	auth *service.AuthService,
	tabs *service.TabService,
	documents *service.DocumentService,
	auditLogs *service.AuditLogService,
	users *service.UserService,
	bootstrap *service.BootstrapService,
	volume *service.VolumeService,
	recorder *audit.Recorder,
	logger *utils.Logger,
) *Handler {
	return &Handler{
		auth:      auth,
		tabs:      tabs,
		documents: documents,
		auditLogs: auditLogs,
		users:     users,
		bootstrap: bootstrap,
		volume:    volume,
		recorder:  recorder,
		logger:    logger,
	}
}

// SetupRoutes registers all API routes on the router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.GET("/verify", AuthMiddleware(), h.Verify)
	}

	tabs := api.Group("/tabs", AuthMiddleware())
	{
		tabs.GET("", h.ListTabs)
		tabs.POST("", RequireRole(models.RoleAdmin), h.CreateTab)
		tabs.PUT("", RequireRole(models.RoleAdmin), h.UpdateTabs)
		tabs.DELETE("/:id", RequireRole(models.RoleAdmin), h.DeleteTab)
	}

	documents := api.Group("/documents")
	{
		documents.GET("/tab/:tabId", AuthMiddleware(), h.ListDocuments)
		documents.POST("/upload/:tabId", AuthMiddleware(), RequireRole(models.RoleAdmin), h.UploadDocuments)
		documents.DELETE("/:id", AuthMiddleware(), RequireRole(models.RoleAdmin), h.DeleteDocument)
		documents.GET("/file/:filename", AuthMiddlewareWithQueryToken(), h.ServeDocumentFile)
	}

	admin := api.Group("/admin", AuthMiddleware(), RequireRole(models.RoleAdmin))
	{
		admin.GET("/volume/files", h.VolumeFiles)
		admin.GET("/volume/stats", h.VolumeStats)
		admin.GET("/volume/tab/:tabId", h.VolumeTabFiles)
	}

	superadmin := api.Group("/superadmin", AuthMiddleware(), RequireRole(models.RoleSuperadmin))
	{
		superadmin.GET("/users", h.ListUsers)
		superadmin.POST("/users/:userId/change-password", h.ChangeUserPassword)
		superadmin.POST("/users/:userId/change-role", h.ChangeUserRole)
		superadmin.POST("/users/reset-default-passwords", h.ResetDefaultPasswords)
		superadmin.GET("/audit-logs", h.ListAuditLogs)
		superadmin.GET("/audit-logs/stats", h.AuditLogStats)
		superadmin.GET("/audit-logs/export", h.ExportAuditLogs)
		superadmin.GET("/audit-logs/user/:userId", h.UserActivity)
	}
}

// respondError maps the error taxonomy to HTTP statuses. Internal details
// never leak to the client.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Status: "error", Code: "INVALID_CREDENTIALS", Message: "Invalid username or password",
		})
	case models.IsValidation(err):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status: "error", Code: "VALIDATION_ERROR", Message: err.Error(),
		})
	case models.IsNotFound(err):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Status: "error", Code: "NOT_FOUND", Message: err.Error(),
		})
	case models.IsConflict(err):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Status: "error", Code: "CONFLICT", Message: err.Error(),
		})
	default:
		h.logger.Error("internal error handling %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Status: "error", Code: "INTERNAL", Message: "Internal server error",
		})
	}
}
