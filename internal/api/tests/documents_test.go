package api_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendadocs/agenda-server/internal/api/testutils"
	"github.com/agendadocs/agenda-server/internal/models"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

func uploadDocuments(t *testing.T, testCtx *testutils.TestContext, tabID int64, files map[string][]byte) []models.Document {
	t.Helper()

	w := testutils.PerformMultipartRequest(
		t,
		testCtx.Router,
		http.MethodPost,
		fmt.Sprintf("/api/documents/upload/%d", tabID),
		files,
		testutils.AuthHeaders(testCtx.AdminJWT),
	)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var docs []models.Document
	testutils.DecodeJSON(t, w, &docs)
	return docs
}

func listDocuments(t *testing.T, testCtx *testutils.TestContext, tabID int64) []models.Document {
	t.Helper()

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		fmt.Sprintf("/api/documents/tab/%d", tabID),
		nil,
		testutils.AuthHeaders(testCtx.ReaderJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	var docs []models.Document
	testutils.DecodeJSON(t, w, &docs)
	return docs
}

func TestUploadDocuments(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	tab := createTab(t, testCtx, "Documentos")

	docs := uploadDocuments(t, testCtx, tab.ID, map[string][]byte{
		"acta.pdf":    pdfBytes,
		"informe.pdf": pdfBytes,
	})
	require.Len(t, docs, 2)
	for _, doc := range docs {
		assert.Equal(t, tab.ID, doc.TabID)
		assert.Equal(t, int64(len(pdfBytes)), doc.FileSize)
		assert.Equal(t, testCtx.Admin.ID, doc.UploadedBy)
		assert.NotEmpty(t, doc.Filename)
		require.NotNil(t, doc.FileHash)
		assert.Len(t, *doc.FileHash, 64)
	}

	// Unknown tab
	w := testutils.PerformMultipartRequest(
		t,
		testCtx.Router,
		http.MethodPost,
		"/api/documents/upload/9999",
		map[string][]byte{"acta.pdf": pdfBytes},
		testutils.AuthHeaders(testCtx.AdminJWT),
	)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Readers cannot upload
	w = testutils.PerformMultipartRequest(
		t,
		testCtx.Router,
		http.MethodPost,
		fmt.Sprintf("/api/documents/upload/%d", tab.ID),
		map[string][]byte{"acta2.pdf": pdfBytes},
		testutils.AuthHeaders(testCtx.ReaderJWT),
	)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUploadRejectsNonPDFBatch(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	tab := createTab(t, testCtx, "Documentos")

	// One bad file rejects the whole batch.
	w := testutils.PerformMultipartRequest(
		t,
		testCtx.Router,
		http.MethodPost,
		fmt.Sprintf("/api/documents/upload/%d", tab.ID),
		map[string][]byte{
			"bueno.pdf": pdfBytes,
			"malo.txt":  []byte("plain text"),
		},
		testutils.AuthHeaders(testCtx.AdminJWT),
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Nothing was stored.
	assert.Empty(t, listDocuments(t, testCtx, tab.ID))
}

func TestListDocumentsOrder(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	tab := createTab(t, testCtx, "Documentos")

	uploadDocuments(t, testCtx, tab.ID, map[string][]byte{"zeta.pdf": pdfBytes})
	uploadDocuments(t, testCtx, tab.ID, map[string][]byte{"Ábaco.pdf": pdfBytes})
	uploadDocuments(t, testCtx, tab.ID, map[string][]byte{"boletín.pdf": pdfBytes})

	docs := listDocuments(t, testCtx, tab.ID)
	require.Len(t, docs, 3)

	// Spanish collation: accents do not push names to the end.
	assert.Equal(t, "Ábaco.pdf", docs[0].OriginalName)
	assert.Equal(t, "boletín.pdf", docs[1].OriginalName)
	assert.Equal(t, "zeta.pdf", docs[2].OriginalName)
}

func TestDeleteDocument(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	tab := createTab(t, testCtx, "Documentos")

	docs := uploadDocuments(t, testCtx, tab.ID, map[string][]byte{"acta.pdf": pdfBytes})
	require.Len(t, docs, 1)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodDelete,
		fmt.Sprintf("/api/documents/%d", docs[0].ID),
		nil,
		testutils.AuthHeaders(testCtx.AdminJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, listDocuments(t, testCtx, tab.ID))

	// Deleting again reports not found.
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodDelete,
		fmt.Sprintf("/api/documents/%d", docs[0].ID),
		nil,
		testutils.AuthHeaders(testCtx.AdminJWT),
	)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServeDocumentFile(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	tab := createTab(t, testCtx, "Documentos")

	docs := uploadDocuments(t, testCtx, tab.ID, map[string][]byte{"acta.pdf": pdfBytes})
	require.Len(t, docs, 1)

	// A viewer embeds the token as a query parameter.
	path := fmt.Sprintf("/api/documents/file/%s?tabId=%d&token=%s",
		docs[0].Filename, tab.ID, testCtx.ReaderJWT)
	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, path, nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, pdfBytes, w.Body.Bytes())

	// No token at all
	path = fmt.Sprintf("/api/documents/file/%s?tabId=%d", docs[0].Filename, tab.ID)
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, path, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Unknown filename
	path = fmt.Sprintf("/api/documents/file/nope.pdf?tabId=%d&token=%s", tab.ID, testCtx.ReaderJWT)
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, path, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
