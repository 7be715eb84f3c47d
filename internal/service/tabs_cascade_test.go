package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendadocs/agenda-server/internal/models"
	"github.com/agendadocs/agenda-server/internal/repository"
	"github.com/agendadocs/agenda-server/internal/service"
	"github.com/agendadocs/agenda-server/internal/utils"
)

func seedTab(t *testing.T, repo repository.Repository, name string) *models.Tab {
	t.Helper()
	tab := &models.Tab{Name: name}
	require.NoError(t, repo.CreateTab(context.Background(), tab))
	return tab
}

func seedDocument(t *testing.T, repo repository.Repository, tabID, userID int64, path string) *models.Document {
	t.Helper()
	doc := &models.Document{
		TabID:        tabID,
		Filename:     filepath.Base(path),
		OriginalName: filepath.Base(path),
		FilePath:     path,
		FileSize:     4,
		UploadedBy:   userID,
	}
	require.NoError(t, repo.InsertDocuments(context.Background(), []*models.Document{doc}))
	return doc
}

func TestTabDeleteCascadesToDocuments(t *testing.T) {
	repo := newTestRepo(t)
	svc := service.NewTabService(repo, utils.NewLogger())
	ctx := context.Background()

	uploader := insertUser(t, repo, "manager", "testpassword", models.RoleAdmin)
	keep := seedTab(t, repo, "Apertura")
	doomed := seedTab(t, repo, "Directorio")

	dir := t.TempDir()
	path := filepath.Join(dir, "document-1-abc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))
	doc := seedDocument(t, repo, doomed.ID, uploader.ID, path)

	tabs, deleted, err := svc.Delete(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Equal(t, doomed.ID, deleted.ID)
	require.Len(t, tabs, 1)
	assert.Equal(t, keep.ID, tabs[0].ID)
	assert.Equal(t, 1, tabs[0].OrderIndex)

	// The document row is gone and the file was unlinked.
	gone, err := repo.GetDocumentByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestTabDeleteSurvivesMissingFile(t *testing.T) {
	repo := newTestRepo(t)
	svc := service.NewTabService(repo, utils.NewLogger())
	ctx := context.Background()

	uploader := insertUser(t, repo, "manager", "testpassword", models.RoleAdmin)
	seedTab(t, repo, "Apertura")
	doomed := seedTab(t, repo, "Directorio")
	seedDocument(t, repo, doomed.ID, uploader.ID, filepath.Join(t.TempDir(), "never-written.pdf"))

	_, _, err := svc.Delete(ctx, doomed.ID)
	assert.NoError(t, err, "a missing physical file must not block the delete")
}

func TestReplaceTabsRollsBackOnUnknownID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := seedTab(t, repo, "Alpha")
	b := seedTab(t, repo, "Beta")

	err := repo.ReplaceTabs(ctx, []models.TabUpdate{
		{ID: b.ID, Name: "Beta primero"},
		{ID: 9999, Name: "Fantasma"},
	})
	require.Error(t, err)

	// Nothing was applied, including the update that preceded the failure.
	tabs, listErr := repo.ListTabs(ctx)
	require.NoError(t, listErr)
	require.Len(t, tabs, 2)
	assert.Equal(t, a.ID, tabs[0].ID)
	assert.Equal(t, "Alpha", tabs[0].Name)
	assert.Equal(t, "Beta", tabs[1].Name)
	assert.Equal(t, 2, tabs[1].OrderIndex)
}
