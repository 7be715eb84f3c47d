package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendadocs/agenda-server/internal/api/testutils"
	"github.com/agendadocs/agenda-server/internal/models"
)

func TestLogin(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	// Test case 1: Successful login
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/login",
		models.LoginRequest{Username: "manager", Password: testutils.TestPassword},
		nil,
	)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.LoginResponse
	testutils.DecodeJSON(t, w, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "manager", resp.User.Username)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)

	// Test case 2: Wrong password
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/login",
		models.LoginRequest{Username: "manager", Password: "wrongpassword"},
		nil,
	)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Test case 3: Unknown user gets the same response as a wrong password
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/login",
		models.LoginRequest{Username: "ghost", Password: testutils.TestPassword},
		nil,
	)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Test case 4: Missing fields
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/login",
		map[string]string{"username": "manager"},
		nil,
	)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerify(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	// Valid token
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/auth/verify",
		nil,
		testutils.AuthHeaders(testCtx.ReaderJWT),
	)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.VerifyResponse
	testutils.DecodeJSON(t, w, &resp)
	assert.True(t, resp.Valid)
	assert.Equal(t, testCtx.Reader.Username, resp.User.Username)
	assert.Equal(t, models.RoleReader, resp.User.Role)

	// Missing token
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/auth/verify",
		nil,
		nil,
	)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Garbage token
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/auth/verify",
		nil,
		testutils.AuthHeaders("not-a-token"),
	)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRecordsAudit(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/login",
		models.LoginRequest{Username: "root", Password: testutils.TestPassword},
		nil,
	)
	require.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/superadmin/audit-logs?action=LOGIN",
		nil,
		testutils.AuthHeaders(testCtx.SuperadminJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.AuditLogsResponse
	testutils.DecodeJSON(t, w, &resp)
	require.NotEmpty(t, resp.Logs)
	assert.Equal(t, "LOGIN", resp.Logs[0].Action)
	assert.Equal(t, "root", resp.Logs[0].Username)
}
