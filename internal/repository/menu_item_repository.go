package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/forkspot/restaurant-reservation/internal/model"
)

// MenuItemRepo provides persistence for regular menu items. All writes
// go through an ownership check on the parent restaurant.
type MenuItemRepo struct{ DB *sql.DB }

func NewMenuItemRepo(db *sql.DB) *MenuItemRepo { return &MenuItemRepo{DB: db} }

const menuItemColumns = `id, restaurant_id, name, price, category, description, discount, created_at, updated_at`

func scanMenuItem(row interface{ Scan(...interface{}) error }) (model.MenuItem, error) {
	var m model.MenuItem
	err := row.Scan(&m.ID, &m.RestaurantID, &m.Name, &m.Price, &m.Category,
		&m.Description, &m.Discount, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// Create inserts a menu item and returns the stored row.
func (r *MenuItemRepo) Create(ctx context.Context, restaurantID uint64, name string, price float64, category string, description *string, discount int) (model.MenuItem, error) {
	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO menu_items (restaurant_id, name, price, category, description, discount)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+menuItemColumns,
		restaurantID, name, price, category, description, discount)
	return scanMenuItem(row)
}

// GetByID fetches one menu item.
func (r *MenuItemRepo) GetByID(ctx context.Context, id uint64) (model.MenuItem, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1`, id)
	return scanMenuItem(row)
}

// ListByRestaurant returns every menu item of a restaurant.
func (r *MenuItemRepo) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.MenuItem, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items WHERE restaurant_id = $1 ORDER BY id`,
		restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.MenuItem{}
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// VerifyOwnership reports ErrForbidden unless the menu item belongs to
// a restaurant managed by the owner.
func (r *MenuItemRepo) VerifyOwnership(ctx context.Context, itemID, ownerID uint64) error {
	var one int
	err := r.DB.QueryRowContext(ctx,
		`SELECT 1 FROM menu_items mi
		 JOIN restaurants rs ON mi.restaurant_id = rs.id
		 WHERE mi.id = $1 AND rs.owner_id = $2`,
		itemID, ownerID).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrForbidden
	}
	return err
}

// MenuItemPatch carries the updatable menu item fields.
type MenuItemPatch struct {
	Name        *string
	Price       *float64
	Category    *string
	Description *string
	Discount    *int
}

// Update applies a patch to a menu item after verifying ownership.
func (r *MenuItemRepo) Update(ctx context.Context, id, ownerID uint64, patch MenuItemPatch) (model.MenuItem, error) {
	if err := r.VerifyOwnership(ctx, id, ownerID); err != nil {
		return model.MenuItem{}, err
	}
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	if patch.Name != nil {
		args = append(args, *patch.Name)
		sets = append(sets, "name = "+placeholder(len(args)))
	}
	if patch.Price != nil {
		args = append(args, *patch.Price)
		sets = append(sets, "price = "+placeholder(len(args)))
	}
	if patch.Category != nil {
		args = append(args, *patch.Category)
		sets = append(sets, "category = "+placeholder(len(args)))
	}
	if patch.Description != nil {
		args = append(args, *patch.Description)
		sets = append(sets, "description = "+placeholder(len(args)))
	}
	if patch.Discount != nil {
		args = append(args, *patch.Discount)
		sets = append(sets, "discount = "+placeholder(len(args)))
	}
	if len(sets) == 0 {
		return model.MenuItem{}, sql.ErrNoRows
	}
	args = append(args, id)
	q := `UPDATE menu_items SET ` + strings.Join(sets, ", ") + `, updated_at = NOW()
	      WHERE id = ` + placeholder(len(args)) + ` RETURNING ` + menuItemColumns
	return scanMenuItem(r.DB.QueryRowContext(ctx, q, args...))
}

// Delete removes a menu item after verifying ownership. Link rows in
// special_menu_items are removed by the foreign key cascade.
func (r *MenuItemRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	if err := r.VerifyOwnership(ctx, id, ownerID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	return err
}
