package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/agendadocs/agenda-server/internal/config"
	"github.com/agendadocs/agenda-server/internal/models"
	"github.com/agendadocs/agenda-server/internal/repository"
	"github.com/agendadocs/agenda-server/internal/utils"
)

// Legacy credentials recognized by the migration path. Passwords are only
// rotated when they still equal one of these defaults; an operator-changed
// password is never touched.
const (
	legacyReaderUsername = "lector"
	legacyReaderPassword = "lector123"
)

// Default tab names seeded into an empty store.
var defaultTabNames = []string{
	"Apertura",
	"Tema 1 - Planeación Conjunta",
	"Tema 2 - Logística Operacional",
	"Tema 3 - Derechos Humanos",
	"Tema 4 - Pensamiento Estratégico",
	"Documentos de Apoyo",
	"Directorio",
}

// BootstrapService reconciles the credential store at startup so exactly one
// usable account exists per role tier, and seeds the initial tab set. Run is
// idempotent across restarts.
type BootstrapService struct {
	repo   repository.Repository
	cfg    *config.Config
	logger *utils.Logger
}

// NewBootstrapService creates a new BootstrapService
func NewBootstrapService(repo repository.Repository, cfg *config.Config, logger *utils.Logger) *BootstrapService {
	return &BootstrapService{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
	}
}

// Run executes the startup reconciliation. Any error here is an
// infrastructure bootstrap failure and must abort startup.
func (s *BootstrapService) Run(ctx context.Context) error {
	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}

	if count == 0 {
		if err := s.seedUsers(ctx); err != nil {
			return err
		}
	}

	if err := s.migrateLegacyReader(ctx); err != nil {
		return fmt.Errorf("migrating legacy reader: %w", err)
	}

	for _, target := range s.cfg.Defaults.ByRole() {
		if err := s.reconcileRole(ctx, target.Role, target.Defaults); err != nil {
			return fmt.Errorf("reconciling %s: %w", target.Role, err)
		}
	}

	if err := s.seedTabs(ctx); err != nil {
		return fmt.Errorf("seeding tabs: %w", err)
	}

	return nil
}

// seedUsers inserts the three default accounts into an empty store. In
// production every seeded password must have been explicitly supplied.
func (s *BootstrapService) seedUsers(ctx context.Context) error {
	if s.cfg.Auth.Production {
		for _, target := range s.cfg.Defaults.ByRole() {
			if !target.Defaults.PasswordFromEnv {
				return models.NewStartupConfigError(
					"production startup with an empty user store requires an explicit default %s password", target.Role)
			}
		}
	}

	for _, target := range s.cfg.Defaults.ByRole() {
		hash, err := hashPassword(target.Defaults.Password)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := s.repo.CreateUser(ctx, &models.User{
			Username:           target.Defaults.Username,
			Password:           hash,
			Role:               target.Role,
			CreatedAt:          now,
			LastPasswordChange: &now,
		}); err != nil {
			return err
		}
	}

	s.logger.Info("default accounts created")
	return nil
}

// reconcileRole resolves the canonical account for one role and aligns it
// with the configured defaults.
func (s *BootstrapService) reconcileRole(ctx context.Context, role string, defaults config.AccountDefaults) error {
	user, err := s.repo.GetUserByUsernameAndRole(ctx, defaults.Username, role)
	if err != nil {
		return err
	}

	if user == nil {
		// Any holder of the role is treated as canonical even if the
		// username drifted.
		user, err = s.repo.GetFirstUserByRole(ctx, role)
		if err != nil {
			return err
		}
	}

	if user == nil {
		username, err := s.availableUsername(ctx, defaults.Username)
		if err != nil {
			return err
		}
		hash, err := hashPassword(defaults.Password)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := s.repo.CreateUser(ctx, &models.User{
			Username:           username,
			Password:           hash,
			Role:               role,
			CreatedAt:          now,
			LastPasswordChange: &now,
		}); err != nil {
			return err
		}
		s.logger.Info("created missing %s account %q", role, username)
		return nil
	}

	// An operator-supplied password wins over whatever is stored, so external
	// credential rotation needs no manual intervention.
	if defaults.PasswordFromEnv &&
		bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(defaults.Password)) != nil {
		hash, err := hashPassword(defaults.Password)
		if err != nil {
			return err
		}
		if err := s.repo.UpdateUserPassword(ctx, user.ID, hash); err != nil {
			return err
		}
		s.logger.Info("rotated %s password from configuration", role)
	}

	// Normalize the username back to the preferred one, but only when the
	// preferred name is not occupied by another account.
	if !strings.EqualFold(user.Username, defaults.Username) {
		existing, err := s.repo.GetUserByUsernameCI(ctx, defaults.Username)
		if err != nil {
			return err
		}
		if existing == nil {
			if err := s.repo.UpdateUsername(ctx, user.ID, defaults.Username); err != nil {
				return err
			}
			s.logger.Info("renamed %s account %q to %q", role, user.Username, defaults.Username)
		}
	}

	return nil
}

// migrateLegacyReader renames the historical reader account when the
// canonical username is absent, rotating its password only if it still equals
// the legacy default.
func (s *BootstrapService) migrateLegacyReader(ctx context.Context) error {
	canonical, err := s.repo.GetUserByUsernameCI(ctx, s.cfg.Defaults.Reader.Username)
	if err != nil || canonical != nil {
		return err
	}

	legacy, err := s.repo.GetUserByUsernameAndRole(ctx, legacyReaderUsername, models.RoleReader)
	if err != nil || legacy == nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(legacy.Password), []byte(legacyReaderPassword)) == nil {
		hash, err := hashPassword(s.cfg.Defaults.Reader.Password)
		if err != nil {
			return err
		}
		if err := s.repo.UpdateUserPassword(ctx, legacy.ID, hash); err != nil {
			return err
		}
	}

	if err := s.repo.UpdateUsername(ctx, legacy.ID, s.cfg.Defaults.Reader.Username); err != nil {
		return err
	}

	s.logger.Info("migrated legacy reader %q to %q", legacyReaderUsername, s.cfg.Defaults.Reader.Username)
	return nil
}

// availableUsername returns preferred, or preferred-1, -2, … until free.
func (s *BootstrapService) availableUsername(ctx context.Context, preferred string) (string, error) {
	username := preferred
	for suffix := 1; ; suffix++ {
		existing, err := s.repo.GetUserByUsernameCI(ctx, username)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return username, nil
		}
		username = fmt.Sprintf("%s-%d", preferred, suffix)
	}
}

func (s *BootstrapService) seedTabs(ctx context.Context) error {
	count, err := s.repo.CountTabs(ctx)
	if err != nil || count > 0 {
		return err
	}

	for _, name := range defaultTabNames {
		if err := s.repo.CreateTab(ctx, &models.Tab{Name: name}); err != nil {
			return err
		}
	}

	s.logger.Info("default tabs created")
	return nil
}

// ResetDefaultPasswords restores every role tier's account to the configured
// default credential, creating missing accounts with a free username. Used by
// the superadmin recovery endpoint.
func (s *BootstrapService) ResetDefaultPasswords(ctx context.Context) ([]models.AffectedUser, error) {
	var affected []models.AffectedUser

	for _, target := range s.cfg.Defaults.ByRole() {
		user, err := s.repo.GetUserByUsernameAndRole(ctx, target.Defaults.Username, target.Role)
		if err != nil {
			return nil, err
		}
		if user == nil {
			user, err = s.repo.GetFirstUserByRole(ctx, target.Role)
			if err != nil {
				return nil, err
			}
		}

		hash, err := hashPassword(target.Defaults.Password)
		if err != nil {
			return nil, err
		}

		if user == nil {
			username, err := s.availableUsername(ctx, target.Defaults.Username)
			if err != nil {
				return nil, err
			}
			now := time.Now().UTC()
			created := &models.User{
				Username:           username,
				Password:           hash,
				Role:               target.Role,
				CreatedAt:          now,
				LastPasswordChange: &now,
			}
			if err := s.repo.CreateUser(ctx, created); err != nil {
				return nil, err
			}
			affected = append(affected, models.AffectedUser{
				ID:       created.ID,
				Username: created.Username,
				Role:     created.Role,
			})
			continue
		}

		if err := s.repo.UpdateUserPassword(ctx, user.ID, hash); err != nil {
			return nil, err
		}
		affected = append(affected, models.AffectedUser{
			ID:       user.ID,
			Username: user.Username,
			Role:     user.Role,
		})
	}

	return affected, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return string(hash), nil
}
