package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/agendadocs/agenda-server/internal/config"
	"github.com/agendadocs/agenda-server/internal/models"
	"github.com/agendadocs/agenda-server/internal/repository"
	"github.com/agendadocs/agenda-server/internal/service"
	"github.com/agendadocs/agenda-server/internal/utils"
)

func newTestRepo(t *testing.T) repository.Repository {
	t.Helper()

	cfg := &config.Config{
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.sqlite")},
	}
	db, err := config.SetupDatabase(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return repository.NewSQLiteRepository(db)
}

func testDefaults() config.DefaultAccounts {
	return config.DefaultAccounts{
		Superadmin: config.AccountDefaults{Username: "superadmin", Password: "superadmin123"},
		Admin:      config.AccountDefaults{Username: "admin", Password: "admin123"},
		Reader:     config.AccountDefaults{Username: "Director", Password: "director123"},
	}
}

func newBootstrap(repo repository.Repository, cfg *config.Config) *service.BootstrapService {
	return service.NewBootstrapService(repo, cfg, utils.NewLogger())
}

func insertUser(t *testing.T, repo repository.Repository, username, password, role string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Username: username, Password: string(hash), Role: role}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

func TestBootstrapSeedsEmptyStore(t *testing.T) {
	repo := newTestRepo(t)
	cfg := &config.Config{Defaults: testDefaults()}
	ctx := context.Background()

	require.NoError(t, newBootstrap(repo, cfg).Run(ctx))

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "superadmin", users[0].Username)
	assert.Equal(t, models.RoleSuperadmin, users[0].Role)
	assert.Equal(t, "admin", users[1].Username)
	assert.Equal(t, "Director", users[2].Username)
	for _, user := range users {
		assert.NotNil(t, user.LastPasswordChange)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(cfgPassword(cfg, user.Role))))
	}

	tabs, err := repo.ListTabs(ctx)
	require.NoError(t, err)
	require.Len(t, tabs, 7)
	assert.Equal(t, "Apertura", tabs[0].Name)
	assert.Equal(t, "Directorio", tabs[6].Name)
	for i, tab := range tabs {
		assert.Equal(t, i+1, tab.OrderIndex)
	}
}

func cfgPassword(cfg *config.Config, role string) string {
	switch role {
	case models.RoleSuperadmin:
		return cfg.Defaults.Superadmin.Password
	case models.RoleAdmin:
		return cfg.Defaults.Admin.Password
	default:
		return cfg.Defaults.Reader.Password
	}
}

func TestBootstrapIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	cfg := &config.Config{Defaults: testDefaults()}
	ctx := context.Background()

	require.NoError(t, newBootstrap(repo, cfg).Run(ctx))

	before, err := repo.ListUsers(ctx)
	require.NoError(t, err)

	require.NoError(t, newBootstrap(repo, cfg).Run(ctx))

	after, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, len(before), len(after))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.Equal(t, before[i].Username, after[i].Username)
		assert.Equal(t, before[i].Password, after[i].Password, "passwords must not be rehashed on restart")
	}

	tabs, err := repo.ListTabs(ctx)
	require.NoError(t, err)
	assert.Len(t, tabs, 7, "tabs must not be reseeded")
}

func TestBootstrapProductionRequiresExplicitPasswords(t *testing.T) {
	repo := newTestRepo(t)
	cfg := &config.Config{
		Auth:     config.AuthConfig{Production: true},
		Defaults: testDefaults(),
	}

	err := newBootstrap(repo, cfg).Run(context.Background())
	require.Error(t, err)

	var startupErr *models.StartupConfigError
	assert.ErrorAs(t, err, &startupErr)

	count, countErr := repo.CountUsers(context.Background())
	require.NoError(t, countErr)
	assert.Zero(t, count, "no accounts may be seeded on failed production startup")
}

func TestBootstrapRotatesEnvSuppliedPassword(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	stale := insertUser(t, repo, "admin", "old-password", models.RoleAdmin)
	insertUser(t, repo, "superadmin", "superadmin123", models.RoleSuperadmin)
	insertUser(t, repo, "Director", "director123", models.RoleReader)

	defaults := testDefaults()
	defaults.Admin.Password = "operator-chosen-pass"
	defaults.Admin.PasswordFromEnv = true
	cfg := &config.Config{Defaults: defaults}

	require.NoError(t, newBootstrap(repo, cfg).Run(ctx))

	updated, err := repo.GetUserByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.Password), []byte("operator-chosen-pass")))
	assert.NotNil(t, updated.LastPasswordChange)
}

func TestBootstrapKeepsChangedPasswordWithoutEnv(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	custom := insertUser(t, repo, "admin", "operator-rotated", models.RoleAdmin)
	insertUser(t, repo, "superadmin", "superadmin123", models.RoleSuperadmin)
	insertUser(t, repo, "Director", "director123", models.RoleReader)

	cfg := &config.Config{Defaults: testDefaults()}
	require.NoError(t, newBootstrap(repo, cfg).Run(ctx))

	kept, err := repo.GetUserByID(ctx, custom.ID)
	require.NoError(t, err)
	assert.Equal(t, custom.Password, kept.Password, "fallback defaults must never clobber a stored password")
}

func TestBootstrapAdoptsDriftedUsername(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	drifted := insertUser(t, repo, "chief", "whatever", models.RoleAdmin)
	insertUser(t, repo, "superadmin", "superadmin123", models.RoleSuperadmin)
	insertUser(t, repo, "Director", "director123", models.RoleReader)

	cfg := &config.Config{Defaults: testDefaults()}
	require.NoError(t, newBootstrap(repo, cfg).Run(ctx))

	// The drifted holder of the role is renamed back, not duplicated.
	renamed, err := repo.GetUserByID(ctx, drifted.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", renamed.Username)

	count, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestBootstrapKeepsDriftedUsernameWhenPreferredTaken(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	insertUser(t, repo, "admin", "whatever", models.RoleReader) // squatter on the preferred name
	drifted := insertUser(t, repo, "chief", "whatever", models.RoleAdmin)
	insertUser(t, repo, "superadmin", "superadmin123", models.RoleSuperadmin)

	cfg := &config.Config{Defaults: testDefaults()}
	require.NoError(t, newBootstrap(repo, cfg).Run(ctx))

	kept, err := repo.GetUserByID(ctx, drifted.ID)
	require.NoError(t, err)
	assert.Equal(t, "chief", kept.Username)
}

func TestBootstrapMigratesLegacyReader(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	legacy := insertUser(t, repo, "lector", "lector123", models.RoleReader)
	insertUser(t, repo, "superadmin", "superadmin123", models.RoleSuperadmin)
	insertUser(t, repo, "admin", "admin123", models.RoleAdmin)

	cfg := &config.Config{Defaults: testDefaults()}
	require.NoError(t, newBootstrap(repo, cfg).Run(ctx))

	migrated, err := repo.GetUserByID(ctx, legacy.ID)
	require.NoError(t, err)
	assert.Equal(t, "Director", migrated.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(migrated.Password), []byte("director123")),
		"legacy default password is rotated to the reader default")
}

func TestBootstrapLegacyReaderKeepsCustomPassword(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	legacy := insertUser(t, repo, "lector", "operator-rotated", models.RoleReader)
	insertUser(t, repo, "superadmin", "superadmin123", models.RoleSuperadmin)
	insertUser(t, repo, "admin", "admin123", models.RoleAdmin)

	cfg := &config.Config{Defaults: testDefaults()}
	require.NoError(t, newBootstrap(repo, cfg).Run(ctx))

	migrated, err := repo.GetUserByID(ctx, legacy.ID)
	require.NoError(t, err)
	assert.Equal(t, "Director", migrated.Username)
	assert.Equal(t, legacy.Password, migrated.Password)
}

func TestBootstrapSuffixesWhenPreferredNameOccupied(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// The preferred superadmin name is squatted by a reader and no
	// superadmin exists, so a suffixed account is created.
	insertUser(t, repo, "superadmin", "whatever", models.RoleReader)
	insertUser(t, repo, "admin", "admin123", models.RoleAdmin)

	cfg := &config.Config{Defaults: testDefaults()}
	require.NoError(t, newBootstrap(repo, cfg).Run(ctx))

	created, err := repo.GetUserByUsernameAndRole(ctx, "superadmin-1", models.RoleSuperadmin)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, models.RoleSuperadmin, created.Role)
}
