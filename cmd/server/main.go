package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agendadocs/agenda-server/internal/api"
	"github.com/agendadocs/agenda-server/internal/audit"
	"github.com/agendadocs/agenda-server/internal/config"
	"github.com/agendadocs/agenda-server/internal/repository"
	"github.com/agendadocs/agenda-server/internal/service"
	"github.com/agendadocs/agenda-server/internal/utils"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := utils.NewLogger()

	// Set up database connection
	db, err := config.SetupDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to set up database: %v", err)
	}
	defer db.Close()

	// Create repository
	repo := repository.NewSQLiteRepository(db)

	// Reconcile default accounts and seed tabs before serving traffic
	bootstrap := service.NewBootstrapService(repo, cfg, logger)
	if err := bootstrap.Run(context.Background()); err != nil {
		log.Fatalf("Failed to bootstrap default data: %v", err)
	}

	// Create services
	recorder := audit.NewRecorder(repo, logger)
	authService := service.NewAuthService(repo, cfg.Auth.JWTSecret)
	tabService := service.NewTabService(repo, logger)
	documentService := service.NewDocumentService(repo, cfg.Uploads.Dir, logger)
	auditLogService := service.NewAuditLogService(repo)
	userService := service.NewUserService(repo)
	volumeService := service.NewVolumeService(cfg.Uploads.Dir)

	// Create API handler
	handler := api.NewHandler(
		authService,
		tabService,
		documentService,
		auditLogService,
		userService,
		bootstrap,
		volumeService,
		recorder,
		logger,
	)

	// Set up Gin router
	router := gin.Default()

	// Add middleware for JWT secret and audit body capture
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})
	router.Use(audit.CaptureRequestBody())

	// Set up routes
	handler.SetupRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", serverAddr)
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
