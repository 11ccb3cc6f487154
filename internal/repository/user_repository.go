package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"

	"github.com/forkspot/restaurant-reservation/internal/model"
	"github.com/forkspot/restaurant-reservation/internal/utils"
)

// UserRepo provides persistence for diner accounts, including the
// loyalty point balance mutated by coupon purchases and cancellation
// penalties.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns its ID. New accounts start with
// confirmed_user = false and zero loyalty points.
func (r *UserRepo) Create(ctx context.Context, name, email, password string, phone *string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	var id uint64
	err = r.DB.QueryRowContext(ctx,
		`INSERT INTO users (name, email, password, phone) VALUES ($1, $2, $3, $4) RETURNING id`,
		name, email, hash, phone).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	return id, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, email, password, phone, loyalty_points, confirmed_user, created_at, updated_at
		 FROM users WHERE email = $1`,
		email).Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Phone, &u.LoyaltyPoints, &u.ConfirmedUser, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, email, password, phone, loyalty_points, confirmed_user, created_at, updated_at
		 FROM users WHERE id = $1`,
		id).Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Phone, &u.LoyaltyPoints, &u.ConfirmedUser, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Points returns the user's current loyalty point balance.
func (r *UserRepo) Points(ctx context.Context, id uint64) (int, error) {
	var pts int
	err := r.DB.QueryRowContext(ctx,
		`SELECT loyalty_points FROM users WHERE id = $1`, id).Scan(&pts)
	return pts, err
}

// IsConfirmed reports whether the user's email address is verified.
func (r *UserRepo) IsConfirmed(ctx context.Context, id uint64) (bool, error) {
	var confirmed bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT confirmed_user FROM users WHERE id = $1`, id).Scan(&confirmed)
	return confirmed, err
}

// Confirm marks the user's email address as verified.
func (r *UserRepo) Confirm(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET confirmed_user = TRUE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

// UserPatch carries the updatable profile fields. A nil field is left
// untouched. Password must already be hashed by the caller.
type UserPatch struct {
	Name     *string
	Email    *string
	Phone    *string
	Password *string
}

// userColumns is the fixed whitelist of patchable columns. The update
// statement is built from this list only, never from request keys.
var userColumns = []struct {
	column string
	value  func(p UserPatch) *string
}{
	{"name", func(p UserPatch) *string { return p.Name }},
	{"email", func(p UserPatch) *string { return p.Email }},
	{"phone", func(p UserPatch) *string { return p.Phone }},
	{"password", func(p UserPatch) *string { return p.Password }},
}

// Update applies a patch to the user row and returns the updated
// profile. When the patch is empty it returns sql.ErrNoRows without
// touching the database.
func (r *UserRepo) Update(ctx context.Context, id uint64, patch UserPatch) (model.User, error) {
	sets := make([]string, 0, len(userColumns))
	args := make([]interface{}, 0, len(userColumns)+1)
	for _, col := range userColumns {
		if v := col.value(patch); v != nil {
			args = append(args, *v)
			sets = append(sets, col.column+" = "+placeholder(len(args)))
		}
	}
	if len(sets) == 0 {
		return model.User{}, sql.ErrNoRows
	}
	args = append(args, id)
	q := `UPDATE users SET ` + strings.Join(sets, ", ") + `, updated_at = NOW()
	      WHERE id = ` + placeholder(len(args)) + `
	      RETURNING id, name, email, password, phone, loyalty_points, confirmed_user, created_at, updated_at`
	var u model.User
	err := r.DB.QueryRowContext(ctx, q, args...).Scan(
		&u.ID, &u.Name, &u.Email, &u.Password, &u.Phone, &u.LoyaltyPoints, &u.ConfirmedUser, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	return u, nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`, hash, id)
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

// PointsForUpdateTx reads the user's loyalty points inside a
// transaction, locking the row so a concurrent purchase cannot read a
// stale balance.
func (r *UserRepo) PointsForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (int, error) {
	var pts int
	err := tx.QueryRowContext(ctx,
		`SELECT loyalty_points FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&pts)
	return pts, err
}

// DeductPointsTx subtracts points from the user's balance inside a
// transaction, flooring at zero. Used for both coupon purchases and
// late-cancellation penalties.
func (r *UserRepo) DeductPointsTx(ctx context.Context, tx *sql.Tx, id uint64, points int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE users SET loyalty_points = GREATEST(loyalty_points - $1, 0), updated_at = NOW() WHERE id = $2`,
		points, id)
	return err
}
