package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/agendadocs/agenda-server/internal/api"
	"github.com/agendadocs/agenda-server/internal/audit"
	"github.com/agendadocs/agenda-server/internal/config"
	"github.com/agendadocs/agenda-server/internal/models"
	"github.com/agendadocs/agenda-server/internal/repository"
	"github.com/agendadocs/agenda-server/internal/service"
	"github.com/agendadocs/agenda-server/internal/utils"
)

// TestPassword is the known plaintext for every seeded test account.
const TestPassword = "testpassword"

// TestContext holds all dependencies for API tests.
type TestContext struct {
	Router     *gin.Engine
	Repository repository.Repository
	DB         *sqlx.DB
	Config     *config.Config
	JWTSecret  []byte

	Superadmin *models.User
	Admin      *models.User
	Reader     *models.User

	SuperadminJWT string
	AdminJWT      string
	ReaderJWT     string
}

// SetupTestContext creates a fully wired router backed by a throwaway
// sqlite database and uploads directory under t.TempDir().
func SetupTestContext(t *testing.T) *TestContext {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		Server:   config.ServerConfig{Port: 0},
		Database: config.DatabaseConfig{Path: filepath.Join(dir, "test.sqlite")},
		Uploads:  config.UploadsConfig{Dir: filepath.Join(dir, "uploads")},
		Auth:     config.AuthConfig{JWTSecret: "test-secret-key"},
		Defaults: config.DefaultAccounts{
			Superadmin: config.AccountDefaults{Username: "superadmin", Password: "superadmin123"},
			Admin:      config.AccountDefaults{Username: "admin", Password: "admin123"},
			Reader:     config.AccountDefaults{Username: "Director", Password: "director123"},
		},
	}

	db, err := config.SetupDatabase(cfg)
	require.NoError(t, err, "Failed to set up test database")
	t.Cleanup(func() { db.Close() })

	repo := repository.NewSQLiteRepository(db)
	logger := utils.NewLogger()

	recorder := audit.NewRecorder(repo, logger)
	bootstrap := service.NewBootstrapService(repo, cfg, logger)
	handler := api.NewHandler(
		service.NewAuthService(repo, cfg.Auth.JWTSecret),
		service.NewTabService(repo, logger),
		service.NewDocumentService(repo, cfg.Uploads.Dir, logger),
		service.NewAuditLogService(repo),
		service.NewUserService(repo),
		bootstrap,
		service.NewVolumeService(cfg.Uploads.Dir),
		recorder,
		logger,
	)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})
	router.Use(audit.CaptureRequestBody())
	handler.SetupRoutes(router)

	testCtx := &TestContext{
		Router:     router,
		Repository: repo,
		DB:         db,
		Config:     cfg,
		JWTSecret:  []byte(cfg.Auth.JWTSecret),
	}

	testCtx.Superadmin = CreateTestUser(t, repo, "root", models.RoleSuperadmin)
	testCtx.Admin = CreateTestUser(t, repo, "manager", models.RoleAdmin)
	testCtx.Reader = CreateTestUser(t, repo, "viewer", models.RoleReader)

	testCtx.SuperadminJWT = TokenFor(t, testCtx.Superadmin, cfg.Auth.JWTSecret)
	testCtx.AdminJWT = TokenFor(t, testCtx.Admin, cfg.Auth.JWTSecret)
	testCtx.ReaderJWT = TokenFor(t, testCtx.Reader, cfg.Auth.JWTSecret)

	return testCtx
}

// CreateTestUser inserts one account with the shared test password.
func CreateTestUser(t *testing.T, repo repository.Repository, username, role string) *models.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username:  username,
		Password:  string(hashed),
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateUser(context.Background(), user), "Failed to create test user")
	return user
}

// TokenFor signs a JWT for an existing user the way the auth service does.
func TokenFor(t *testing.T, user *models.User, secret string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       user.ID,
		"username": user.Username,
		"role":     user.Role,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
		"iat":      time.Now().Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err, "Failed to generate JWT token")
	return signed
}

// PerformRequest executes a JSON HTTP request against the router.
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// PerformMultipartRequest uploads named files as a multipart form.
func PerformMultipartRequest(t *testing.T, r http.Handler, method, path string, files map[string][]byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := writer.CreateFormFile("documents", name)
		require.NoError(t, err)
		_, err = io.Copy(part, bytes.NewReader(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with an Authorization bearer token.
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}

// DecodeJSON unmarshals a recorded response body into out.
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}
