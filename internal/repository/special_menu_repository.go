package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/forkspot/restaurant-reservation/internal/model"
)

// SpecialMenuRepo provides persistence for special menus and the link
// rows binding regular menu items into them.
type SpecialMenuRepo struct{ DB *sql.DB }

func NewSpecialMenuRepo(db *sql.DB) *SpecialMenuRepo { return &SpecialMenuRepo{DB: db} }

const specialMenuColumns = `id, restaurant_id, name, description, original_price,
	discounted_price, discount_percentage, photo_url, created_at, updated_at`

func scanSpecialMenu(row interface{ Scan(...interface{}) error }) (model.SpecialMenu, error) {
	var m model.SpecialMenu
	err := row.Scan(&m.ID, &m.RestaurantID, &m.Name, &m.Description, &m.OriginalPrice,
		&m.DiscountedPrice, &m.DiscountPercentage, &m.PhotoURL, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// Create inserts a special menu and returns the stored row.
func (r *SpecialMenuRepo) Create(ctx context.Context, m model.SpecialMenu) (model.SpecialMenu, error) {
	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO special_menus (restaurant_id, name, description, original_price,
		        discounted_price, discount_percentage, photo_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+specialMenuColumns,
		m.RestaurantID, m.Name, m.Description, m.OriginalPrice,
		m.DiscountedPrice, m.DiscountPercentage, m.PhotoURL)
	return scanSpecialMenu(row)
}

// GetByID fetches one special menu.
func (r *SpecialMenuRepo) GetByID(ctx context.Context, id uint64) (model.SpecialMenu, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+specialMenuColumns+` FROM special_menus WHERE id = $1`, id)
	return scanSpecialMenu(row)
}

// ListByRestaurant returns every special menu of a restaurant.
func (r *SpecialMenuRepo) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.SpecialMenu, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+specialMenuColumns+` FROM special_menus WHERE restaurant_id = $1 ORDER BY id`,
		restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.SpecialMenu{}
	for rows.Next() {
		m, err := scanSpecialMenu(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// VerifyOwnership reports ErrForbidden unless the special menu belongs
// to a restaurant managed by the owner.
func (r *SpecialMenuRepo) VerifyOwnership(ctx context.Context, menuID, ownerID uint64) error {
	var one int
	err := r.DB.QueryRowContext(ctx,
		`SELECT 1 FROM special_menus sm
		 JOIN restaurants rs ON sm.restaurant_id = rs.id
		 WHERE sm.id = $1 AND rs.owner_id = $2`,
		menuID, ownerID).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrForbidden
	}
	return err
}

// SpecialMenuPatch carries the updatable special menu fields.
type SpecialMenuPatch struct {
	Name               *string
	Description        *string
	OriginalPrice      *float64
	DiscountedPrice    *float64
	DiscountPercentage *int
	PhotoURL           *string
}

// Update applies a patch to a special menu after verifying ownership.
func (r *SpecialMenuRepo) Update(ctx context.Context, id, ownerID uint64, patch SpecialMenuPatch) (model.SpecialMenu, error) {
	if err := r.VerifyOwnership(ctx, id, ownerID); err != nil {
		return model.SpecialMenu{}, err
	}
	sets := make([]string, 0, 6)
	args := make([]interface{}, 0, 7)
	if patch.Name != nil {
		args = append(args, *patch.Name)
		sets = append(sets, "name = "+placeholder(len(args)))
	}
	if patch.Description != nil {
		args = append(args, *patch.Description)
		sets = append(sets, "description = "+placeholder(len(args)))
	}
	if patch.OriginalPrice != nil {
		args = append(args, *patch.OriginalPrice)
		sets = append(sets, "original_price = "+placeholder(len(args)))
	}
	if patch.DiscountedPrice != nil {
		args = append(args, *patch.DiscountedPrice)
		sets = append(sets, "discounted_price = "+placeholder(len(args)))
	}
	if patch.DiscountPercentage != nil {
		args = append(args, *patch.DiscountPercentage)
		sets = append(sets, "discount_percentage = "+placeholder(len(args)))
	}
	if patch.PhotoURL != nil {
		args = append(args, *patch.PhotoURL)
		sets = append(sets, "photo_url = "+placeholder(len(args)))
	}
	if len(sets) == 0 {
		return model.SpecialMenu{}, sql.ErrNoRows
	}
	args = append(args, id)
	q := `UPDATE special_menus SET ` + strings.Join(sets, ", ") + `, updated_at = NOW()
	      WHERE id = ` + placeholder(len(args)) + ` RETURNING ` + specialMenuColumns
	return scanSpecialMenu(r.DB.QueryRowContext(ctx, q, args...))
}

// Delete removes a special menu after verifying ownership. Link rows
// are removed by the foreign key cascade.
func (r *SpecialMenuRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	if err := r.VerifyOwnership(ctx, id, ownerID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx, `DELETE FROM special_menus WHERE id = $1`, id)
	return err
}

// LinkItem binds a menu item into a special menu. Both sides must
// belong to the same restaurant, and that restaurant must be managed by
// the owner; the conditional insert enforces all of it in one query.
// ErrInvalidReference is returned when the pair crosses restaurants or
// the ownership check fails.
func (r *SpecialMenuRepo) LinkItem(ctx context.Context, specialMenuID, menuItemID, ownerID uint64) (model.SpecialMenuItem, error) {
	var link model.SpecialMenuItem
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO special_menu_items (special_menu_id, menu_item_id)
		 SELECT sm.id, mi.id
		 FROM special_menus sm
		 JOIN menu_items mi ON mi.restaurant_id = sm.restaurant_id
		 JOIN restaurants rs ON rs.id = sm.restaurant_id
		 WHERE sm.id = $1 AND mi.id = $2 AND rs.owner_id = $3
		 RETURNING id, special_menu_id, menu_item_id, created_at`,
		specialMenuID, menuItemID, ownerID).Scan(
		&link.ID, &link.SpecialMenuID, &link.MenuItemID, &link.CreatedAt)
	if err == sql.ErrNoRows {
		return model.SpecialMenuItem{}, ErrInvalidReference
	}
	return link, err
}

// UnlinkItem removes a menu item from a special menu after verifying
// ownership of the special menu.
func (r *SpecialMenuRepo) UnlinkItem(ctx context.Context, specialMenuID, menuItemID, ownerID uint64) error {
	if err := r.VerifyOwnership(ctx, specialMenuID, ownerID); err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM special_menu_items WHERE special_menu_id = $1 AND menu_item_id = $2`,
		specialMenuID, menuItemID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListItems returns the menu items bundled into a special menu.
func (r *SpecialMenuRepo) ListItems(ctx context.Context, specialMenuID uint64) ([]model.MenuItem, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT mi.id, mi.restaurant_id, mi.name, mi.price, mi.category, mi.description,
		        mi.discount, mi.created_at, mi.updated_at
		 FROM special_menu_items smi
		 JOIN menu_items mi ON mi.id = smi.menu_item_id
		 WHERE smi.special_menu_id = $1
		 ORDER BY smi.id`, specialMenuID)
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
