package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/forkspot/restaurant-reservation/internal/model"
)

// CouponRepo provides persistence for coupons and purchased coupons.
// The *Tx methods are steps of the purchase and reservation
// transactions; the handler owns the transaction boundary.
type CouponRepo struct{ DB *sql.DB }

func NewCouponRepo(db *sql.DB) *CouponRepo { return &CouponRepo{DB: db} }

const couponColumns = `id, restaurant_id, description, discount_percentage, required_points, created_at, updated_at`

func scanCoupon(row interface{ Scan(...interface{}) error }) (model.Coupon, error) {
	var c model.Coupon
	err := row.Scan(&c.ID, &c.RestaurantID, &c.Description, &c.DiscountPercentage,
		&c.RequiredPoints, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Create inserts a coupon for a restaurant managed by the owner. The
// conditional insert doubles as the ownership check.
func (r *CouponRepo) Create(ctx context.Context, restaurantID, ownerID uint64, description string, discountPct, requiredPoints int) (model.Coupon, error) {
	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO coupons (restaurant_id, description, discount_percentage, required_points)
		 SELECT id, $2, $3, $4 FROM restaurants WHERE id = $1 AND owner_id = $5
		 RETURNING `+couponColumns,
		restaurantID, description, discountPct, requiredPoints, ownerID)
	c, err := scanCoupon(row)
	if err == sql.ErrNoRows {
		return model.Coupon{}, ErrForbidden
	}
	return c, err
}

// GetByID fetches one coupon.
func (r *CouponRepo) GetByID(ctx context.Context, id uint64) (model.Coupon, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id)
	return scanCoupon(row)
}

// ListByRestaurant returns every coupon offered by a restaurant.
func (r *CouponRepo) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Coupon, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE restaurant_id = $1 ORDER BY id`,
		restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// VerifyOwnership reports ErrForbidden unless the coupon belongs to a
// restaurant managed by the owner.
func (r *CouponRepo) VerifyOwnership(ctx context.Context, couponID, ownerID uint64) error {
	var one int
	err := r.DB.QueryRowContext(ctx,
		`SELECT 1 FROM coupons c
		 JOIN restaurants rs ON c.restaurant_id = rs.id
		 WHERE c.id = $1 AND rs.owner_id = $2`,
		couponID, ownerID).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrForbidden
	}
	return err
}

// CouponPatch carries the updatable coupon fields. Edits never touch
// existing purchased_coupons rows.
type CouponPatch struct {
	Description        *string
	DiscountPercentage *int
	RequiredPoints     *int
}

// Update applies a patch to a coupon after verifying ownership.
func (r *CouponRepo) Update(ctx context.Context, id, ownerID uint64, patch CouponPatch) (model.Coupon, error) {
	if err := r.VerifyOwnership(ctx, id, ownerID); err != nil {
		return model.Coupon{}, err
	}
	sets := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	if patch.Description != nil {
		args = append(args, *patch.Description)
		sets = append(sets, "description = "+placeholder(len(args)))
	}
	if patch.DiscountPercentage != nil {
		args = append(args, *patch.DiscountPercentage)
		sets = append(sets, "discount_percentage = "+placeholder(len(args)))
	}
	if patch.RequiredPoints != nil {
		args = append(args, *patch.RequiredPoints)
		sets = append(sets, "required_points = "+placeholder(len(args)))
	}
	if len(sets) == 0 {
		return model.Coupon{}, sql.ErrNoRows
	}
	args = append(args, id)
	q := `UPDATE coupons SET ` + strings.Join(sets, ", ") + `, updated_at = NOW()
	      WHERE id = ` + placeholder(len(args)) + ` RETURNING ` + couponColumns
	return scanCoupon(r.DB.QueryRowContext(ctx, q, args...))
}

// Delete removes a coupon after verifying ownership.
func (r *CouponRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	if err := r.VerifyOwnership(ctx, id, ownerID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	return err
}

// Available returns one page of a restaurant's coupons the user has not
// purchased yet.
func (r *CouponRepo) Available(ctx context.Context, restaurantID, userID uint64, limit, offset int) ([]model.Coupon, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT c.id, c.restaurant_id, c.description, c.discount_percentage,
		        c.required_points, c.created_at, c.updated_at
		 FROM coupons c
		 WHERE c.restaurant_id = $1
		   AND NOT EXISTS (
		     SELECT 1 FROM purchased_coupons pc
		     WHERE pc.coupon_id = c.id AND pc.user_id = $2)
		 ORDER BY c.id
		 LIMIT $3 OFFSET $4`,
		restaurantID, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AvailableTotal counts the coupons Available would return across all
// pages, with the same exclusion of already-purchased coupons.
func (r *CouponRepo) AvailableTotal(ctx context.Context, restaurantID, userID uint64) (int, error) {
	var total int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM coupons c
		 WHERE c.restaurant_id = $1
		   AND NOT EXISTS (
		     SELECT 1 FROM purchased_coupons pc
		     WHERE pc.coupon_id = c.id AND pc.user_id = $2)`,
		restaurantID, userID).Scan(&total)
	return total, err
}

// OwnedCoupon is a purchased coupon joined with its catalog row, as
// served by the owned-coupons listing.
type OwnedCoupon struct {
	model.Coupon
	PurchaseID  uint64
	IsUsed      bool
	IsLocked    bool
	PurchasedAt time.Time
}

// OwnedByUser returns one page of the user's purchased coupons with
// their lifecycle flags.
func (r *CouponRepo) OwnedByUser(ctx context.Context, userID uint64, limit, offset int) ([]OwnedCoupon, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT c.id, c.restaurant_id, c.description, c.discount_percentage,
		        c.required_points, c.created_at, c.updated_at,
		        pc.id, pc.is_used, pc.is_locked, pc.purchased_at
		 FROM purchased_coupons pc
		 JOIN coupons c ON c.id = pc.coupon_id
		 WHERE pc.user_id = $1
		 ORDER BY pc.purchased_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []OwnedCoupon{}
	for rows.Next() {
		var oc OwnedCoupon
		err := rows.Scan(&oc.ID, &oc.RestaurantID, &oc.Description, &oc.DiscountPercentage,
			&oc.RequiredPoints, &oc.CreatedAt, &oc.UpdatedAt,
			&oc.PurchaseID, &oc.IsUsed, &oc.IsLocked, &oc.PurchasedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, oc)
	}
	return out, rows.Err()
}

// OwnedTotal counts the user's purchased coupons.
func (r *CouponRepo) OwnedTotal(ctx context.Context, userID uint64) (int, error) {
	var total int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM purchased_coupons WHERE user_id = $1`, userID).Scan(&total)
	return total, err
}

// RestaurantsWithPurchasedCoupons returns the distinct restaurants for
// which the user holds at least one purchased coupon.
func (r *CouponRepo) RestaurantsWithPurchasedCoupons(ctx context.Context, userID uint64) ([]model.Restaurant, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT DISTINCT rs.id, rs.owner_id, rs.name, rs.location, rs.cuisine, rs.rating,
		        ST_Y(rs.location_cords::geometry), ST_X(rs.location_cords::geometry),
		        rs.created_at, rs.updated_at
		 FROM purchased_coupons pc
		 JOIN coupons c ON c.id = pc.coupon_id
		 JOIN restaurants rs ON rs.id = c.restaurant_id
		 WHERE pc.user_id = $1
		 ORDER BY rs.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Restaurant{}
	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rest)
	}
	return out, rows.Err()
}

// ExistsPurchaseTx reports whether the user already purchased the
// coupon. First step of the purchase transaction.
func (r *CouponRepo) ExistsPurchaseTx(ctx context.Context, tx *sql.Tx, userID, couponID uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM purchased_coupons WHERE user_id = $1 AND coupon_id = $2`,
		userID, couponID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RequiredPointsTx reads a coupon's price inside the purchase
// transaction. sql.ErrNoRows means the coupon does not exist.
func (r *CouponRepo) RequiredPointsTx(ctx context.Context, tx *sql.Tx, couponID uint64) (int, error) {
	var pts int
	err := tx.QueryRowContext(ctx,
		`SELECT required_points FROM coupons WHERE id = $1`, couponID).Scan(&pts)
	return pts, err
}

// InsertPurchaseTx records the purchase and returns the new row. The
// debit must have happened in the same transaction; committing one
// without the other is a bug in the caller.
func (r *CouponRepo) InsertPurchaseTx(ctx context.Context, tx *sql.Tx, userID, couponID uint64) (model.PurchasedCoupon, error) {
	var pc model.PurchasedCoupon
	err := tx.QueryRowContext(ctx,
		`INSERT INTO purchased_coupons (user_id, coupon_id)
		 VALUES ($1, $2)
		 RETURNING id, user_id, coupon_id, is_used, is_locked, purchased_at`,
		userID, couponID).Scan(&pc.ID, &pc.UserID, &pc.CouponID, &pc.IsUsed, &pc.IsLocked, &pc.PurchasedAt)
	return pc, err
}

// LockCouponTx marks the user's purchased coupon as locked for a
// pending reservation. The conditional UPDATE succeeds only when the
// coupon is neither spent nor already locked; otherwise
// ErrCouponUnavailable is returned and the caller must roll back.
func (r *CouponRepo) LockCouponTx(ctx context.Context, tx *sql.Tx, userID, couponID uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE purchased_coupons SET is_locked = TRUE
		 WHERE user_id = $1 AND coupon_id = $2 AND is_used = FALSE AND is_locked = FALSE`,
		userID, couponID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCouponUnavailable
	}
	return nil
}

// UnlockCouponTx releases the lock on an unused coupon when its
// reservation is cancelled.
func (r *CouponRepo) UnlockCouponTx(ctx context.Context, tx *sql.Tx, userID, couponID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE purchased_coupons SET is_locked = FALSE
		 WHERE user_id = $1 AND coupon_id = $2 AND is_used = FALSE`,
		userID, couponID)
	return err
}

// MarkUsedTx spends the coupon when the owner confirms the reservation
// that holds it.
func (r *CouponRepo) MarkUsedTx(ctx context.Context, tx *sql.Tx, userID, couponID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE purchased_coupons SET is_used = TRUE, is_locked = FALSE
		 WHERE user_id = $1 AND coupon_id = $2`,
		userID, couponID)
	return err
}
