package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"

	"github.com/forkspot/restaurant-reservation/internal/model"
	"github.com/forkspot/restaurant-reservation/internal/utils"
)

// OwnerRepo provides persistence for restaurant owner accounts. Owners
// live in their own table so that a diner session can never act as an
// owner and vice versa.
type OwnerRepo struct{ DB *sql.DB }

func NewOwnerRepo(db *sql.DB) *OwnerRepo { return &OwnerRepo{DB: db} }

// Create inserts an owner and returns its ID.
func (r *OwnerRepo) Create(ctx context.Context, name, email, password string, phone *string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	var id uint64
	err = r.DB.QueryRowContext(ctx,
		`INSERT INTO owners (name, email, password, phone) VALUES ($1, $2, $3, $4) RETURNING id`,
		name, email, hash, phone).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	return id, nil
}

// GetByEmail fetches an owner by normalized email.
func (r *OwnerRepo) GetByEmail(ctx context.Context, email string) (model.Owner, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var o model.Owner
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, email, password, phone, created_at, updated_at FROM owners WHERE email = $1`,
		email).Scan(&o.ID, &o.Name, &o.Email, &o.Password, &o.Phone, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// GetByID fetches an owner by id.
func (r *OwnerRepo) GetByID(ctx context.Context, id uint64) (model.Owner, error) {
	var o model.Owner
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, email, password, phone, created_at, updated_at FROM owners WHERE id = $1`,
		id).Scan(&o.ID, &o.Name, &o.Email, &o.Password, &o.Phone, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// OwnerPatch carries the updatable owner profile fields; nil fields are
// left untouched. Password must already be hashed by the caller.
type OwnerPatch struct {
	Name     *string
	Email    *string
	Phone    *string
	Password *string
}

var ownerColumns = []struct {
	column string
	value  func(p OwnerPatch) *string
}{
	{"name", func(p OwnerPatch) *string { return p.Name }},
	{"email", func(p OwnerPatch) *string { return p.Email }},
	{"phone", func(p OwnerPatch) *string { return p.Phone }},
	{"password", func(p OwnerPatch) *string { return p.Password }},
}

// Update applies a patch to the owner row and returns the updated
// profile. An empty patch returns sql.ErrNoRows without a query.
func (r *OwnerRepo) Update(ctx context.Context, id uint64, patch OwnerPatch) (model.Owner, error) {
	sets := make([]string, 0, len(ownerColumns))
	args := make([]interface{}, 0, len(ownerColumns)+1)
	for _, col := range ownerColumns {
		if v := col.value(patch); v != nil {
			args = append(args, *v)
			sets = append(sets, col.column+" = "+placeholder(len(args)))
		}
	}
	if len(sets) == 0 {
		return model.Owner{}, sql.ErrNoRows
	}
	args = append(args, id)
	q := `UPDATE owners SET ` + strings.Join(sets, ", ") + `, updated_at = NOW()
	      WHERE id = ` + placeholder(len(args)) + `
	      RETURNING id, name, email, password, phone, created_at, updated_at`
	var o model.Owner
	err := r.DB.QueryRowContext(ctx, q, args...).Scan(
		&o.ID, &o.Name, &o.Email, &o.Password, &o.Phone, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return model.Owner{}, ErrEmailExists
		}
		return model.Owner{}, err
	}
	return o, nil
}

// UpdatePassword replaces the stored password hash.
func (r *OwnerRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE owners SET password = $1, updated_at = NOW() WHERE id = $2`, hash, id)
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
