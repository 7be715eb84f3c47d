package service

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/agendadocs/agenda-server/internal/models"
	"github.com/agendadocs/agenda-server/internal/repository"
	"github.com/agendadocs/agenda-server/internal/utils"
)

const maxTabNameLength = 120

// TabService maintains the ordered tab collection. After every successful
// mutation the order_index values form a contiguous 1..N permutation.
type TabService struct {
	repo   repository.Repository
	logger *utils.Logger
}

// NewTabService creates a new TabService
func NewTabService(repo repository.Repository, logger *utils.Logger) *TabService {
	return &TabService{
		repo:   repo,
		logger: logger,
	}
}

// List returns all tabs sorted by order_index, ties broken by id.
func (s *TabService) List(ctx context.Context) ([]models.Tab, error) {
	tabs, err := s.repo.ListTabs(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing tabs: %w", err)
	}
	if tabs == nil {
		tabs = []models.Tab{}
	}
	return tabs, nil
}

// Create validates the name and appends the tab with order_index = max + 1.
func (s *TabService) Create(ctx context.Context, name string) (*models.Tab, error) {
	name, err := s.validateName(name)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetTabByNameCI(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("error checking tab name: %w", err)
	}
	if existing != nil {
		return nil, models.NewConflictError("a tab named %q already exists", existing.Name)
	}

	tab := &models.Tab{Name: name}
	if err := s.repo.CreateTab(ctx, tab); err != nil {
		return nil, fmt.Errorf("error creating tab: %w", err)
	}

	return tab, nil
}

// BulkUpdate atomically replaces every tab's name and recomputes order_index
// from the payload position. The submitted id set must exactly equal the
// stored set; all validation happens before any write.
func (s *TabService) BulkUpdate(ctx context.Context, updates []models.TabUpdate) ([]models.Tab, error) {
	if len(updates) == 0 {
		return nil, models.NewValidationError("tab list must not be empty")
	}

	seenIDs := make(map[int64]struct{}, len(updates))
	seenNames := make(map[string]struct{}, len(updates))
	for i := range updates {
		name, err := s.validateName(updates[i].Name)
		if err != nil {
			return nil, err
		}
		updates[i].Name = name

		if _, dup := seenIDs[updates[i].ID]; dup {
			return nil, models.NewValidationError("duplicate tab id %d in payload", updates[i].ID)
		}
		seenIDs[updates[i].ID] = struct{}{}

		lower := strings.ToLower(name)
		if _, dup := seenNames[lower]; dup {
			return nil, models.NewValidationError("duplicate tab name %q in payload", name)
		}
		seenNames[lower] = struct{}{}
	}

	existing, err := s.repo.ListTabs(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing tabs: %w", err)
	}
	if len(existing) != len(updates) {
		return nil, models.NewValidationError(
			"payload must contain exactly the %d existing tabs", len(existing))
	}
	for _, tab := range existing {
		if _, ok := seenIDs[tab.ID]; !ok {
			return nil, models.NewValidationError("tab %d missing from payload", tab.ID)
		}
	}

	if err := s.repo.ReplaceTabs(ctx, updates); err != nil {
		return nil, fmt.Errorf("error updating tabs: %w", err)
	}

	return s.List(ctx)
}

// Delete removes a tab, cascading to its documents. The last remaining tab
// cannot be deleted. Physical file removal is best-effort and happens after
// the rows are gone; the database is the authoritative record.
func (s *TabService) Delete(ctx context.Context, id int64) ([]models.Tab, *models.Tab, error) {
	tab, err := s.repo.GetTabByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("error getting tab: %w", err)
	}
	if tab == nil {
		return nil, nil, models.NewNotFoundError("tab")
	}

	count, err := s.repo.CountTabs(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("error counting tabs: %w", err)
	}
	if count <= 1 {
		return nil, nil, models.NewConflictError("cannot delete the last remaining tab")
	}

	docs, err := s.repo.ListDocumentsByTab(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("error listing tab documents: %w", err)
	}

	if err := s.repo.DeleteTabCascade(ctx, id); err != nil {
		return nil, nil, fmt.Errorf("error deleting tab: %w", err)
	}

	for _, doc := range docs {
		if err := os.Remove(doc.FilePath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("could not remove file for document %d: %v", doc.ID, err)
		}
	}

	tabs, err := s.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return tabs, tab, nil
}

func (s *TabService) validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", models.NewValidationError("tab name must not be blank")
	}
	if len([]rune(name)) > maxTabNameLength {
		return "", models.NewValidationError("tab name must be at most %d characters", maxTabNameLength)
	}
	return name, nil
}
