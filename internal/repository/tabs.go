package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/agendadocs/agenda-server/internal/models"
)

// Tab repository methods
func (r *SQLiteRepository) ListTabs(ctx context.Context) ([]models.Tab, error) {
	var tabs []models.Tab
	// id breaks ties so the order is deterministic even if order_index were
	// ever duplicated transiently.
	err := r.db.SelectContext(ctx, &tabs,
		`SELECT * FROM tabs ORDER BY order_index ASC, id ASC`)
	return tabs, err
}

func (r *SQLiteRepository) GetTabByID(ctx context.Context, id int64) (*models.Tab, error) {
	return r.getTab(ctx, `SELECT * FROM tabs WHERE id = ?`, id)
}

func (r *SQLiteRepository) GetTabByNameCI(ctx context.Context, name string) (*models.Tab, error) {
	return r.getTab(ctx, `SELECT * FROM tabs WHERE lower(name) = lower(?)`, name)
}

func (r *SQLiteRepository) getTab(ctx context.Context, query string, args ...interface{}) (*models.Tab, error) {
	var tab models.Tab
	err := r.db.GetContext(ctx, &tab, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Tab not found
		}
		return nil, err
	}
	return &tab, nil
}

func (r *SQLiteRepository) CountTabs(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM tabs`)
	return count, err
}

// CreateTab appends the tab at the end of the ordering.
func (r *SQLiteRepository) CreateTab(ctx context.Context, tab *models.Tab) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		var maxIndex int
		if err := tx.GetContext(ctx, &maxIndex,
			`SELECT COALESCE(MAX(order_index), 0) FROM tabs`); err != nil {
			return err
		}

		tab.OrderIndex = maxIndex + 1
		if tab.CreatedAt.IsZero() {
			tab.CreatedAt = time.Now().UTC()
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO tabs (name, order_index, created_at) VALUES (?, ?, ?)`,
			tab.Name, tab.OrderIndex, tab.CreatedAt)
		if err != nil {
			return err
		}

		tab.ID, err = res.LastInsertId()
		return err
	})
}

// ReplaceTabs applies the bulk rename/reorder atomically. order_index becomes
// the element's 1-based position in updates. The caller has already validated
// that the id set equals the stored set.
func (r *SQLiteRepository) ReplaceTabs(ctx context.Context, updates []models.TabUpdate) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		for i, update := range updates {
			res, err := tx.ExecContext(ctx,
				`UPDATE tabs SET name = ?, order_index = ? WHERE id = ?`,
				update.Name, i+1, update.ID)
			if err != nil {
				return err
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 0 {
				return models.NewNotFoundError("tab")
			}
		}
		return nil
	})
}

// DeleteTabCascade removes the tab's document rows, the tab itself, and
// renumbers the survivors to a dense 1..N sequence, all in one transaction.
// Physical file cleanup is the caller's concern.
func (r *SQLiteRepository) DeleteTabCascade(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM documents WHERE tab_id = ?`, id); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM tabs WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return models.NewNotFoundError("tab")
		}

		var ids []int64
		if err := tx.SelectContext(ctx, &ids,
			`SELECT id FROM tabs ORDER BY order_index ASC, id ASC`); err != nil {
			return err
		}

		for i, tabID := range ids {
			if _, err := tx.ExecContext(ctx,
				`UPDATE tabs SET order_index = ? WHERE id = ?`, i+1, tabID); err != nil {
				return err
			}
		}
		return nil
	})
}
