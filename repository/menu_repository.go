package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"railbite/models"
)

type MenuRepository struct {
	db DBTX
}

func NewMenuRepository(db DBTX) *MenuRepository {
	return &MenuRepository{db: db}
}

const menuColumns = `id, name, description, category, price, available, created_at, updated_at`

func (r *MenuRepository) Create(ctx context.Context, m *models.MenuItem) (*models.MenuItem, error) {
	if m == nil {
		return nil, errors.New("menu item is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `INSERT INTO menu_items (name, description, category, price, available, created_at, updated_at) VALUES (?,?,?,?,?,?,?)`,
		m.Name, m.Description, m.Category, m.Price.String(), m.Available, now, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	out, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("created menu item not found: id=%d", id)
	}
	return out, nil
}

func (r *MenuRepository) GetByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanMenuItem(r.db.QueryRowContext(ctx, `SELECT `+menuColumns+` FROM menu_items WHERE id = ?`, id))
}

// List returns the catalog ordered by category then name.
func (r *MenuRepository) List(ctx context.Context, onlyAvailable bool) ([]models.MenuItem, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	query := `SELECT ` + menuColumns + ` FROM menu_items`
	if onlyAvailable {
		query += ` WHERE available = 1`
	}
	query += ` ORDER BY category, name, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.MenuItem{}
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update overwrites the editable fields of a menu item.
func (r *MenuRepository) Update(ctx context.Context, m *models.MenuItem) error {
	if m == nil {
		return errors.New("menu item is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `UPDATE menu_items SET name = ?, description = ?, category = ?, price = ?, available = ?, updated_at = ? WHERE id = ?`,
		m.Name, m.Description, m.Category, m.Price.String(), m.Available, time.Now().UTC(), m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *MenuRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = ?`, id)
	return err
}

func scanMenuItem(sc scanner) (*models.MenuItem, error) {
	var m models.MenuItem
	if err := sc.Scan(&m.ID, &m.Name, &m.Description, &m.Category, &m.Price, &m.Available, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}
