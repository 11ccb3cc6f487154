package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/forkspot/restaurant-reservation/internal/model"
)

// ReservationRepo provides persistence for reservations. The *Tx
// methods are steps of the create/cancel/owner-update transactions; the
// handler owns the transaction boundary.
type ReservationRepo struct{ DB *sql.DB }

func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{DB: db} }

const reservationColumns = `id, user_id, restaurant_id, date, time, guest_count, status,
	special_menu_id, coupon_id, cancellation_reason, reservation_notes, created_at, updated_at`

func scanReservation(row interface{ Scan(...interface{}) error }) (model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(&res.ID, &res.UserID, &res.RestaurantID, &res.Date, &res.Time,
		&res.GuestCount, &res.Status, &res.SpecialMenuID, &res.CouponID,
		&res.CancellationReason, &res.ReservationNotes, &res.CreatedAt, &res.UpdatedAt)
	return res, err
}

// CreateTx inserts a pending reservation inside the create transaction.
// The conditional INSERT ... SELECT only produces a row when any
// referenced special menu and coupon belong to the booked restaurant;
// a cross-restaurant reference yields ErrInvalidReference and the
// caller must roll back (releasing any coupon lock taken earlier in the
// same transaction).
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res model.Reservation) (model.Reservation, error) {
	row := tx.QueryRowContext(ctx,
		`WITH
		   special_menu_check AS (
		     SELECT restaurant_id AS sm_restaurant_id FROM special_menus WHERE id = $7
		   ),
		   coupon_check AS (
		     SELECT restaurant_id AS cp_restaurant_id FROM coupons WHERE id = $8
		   )
		 INSERT INTO reservations
		   (user_id, restaurant_id, date, time, guest_count, status, special_menu_id, coupon_id, reservation_notes)
		 SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9
		 WHERE
		   ($7 IS NULL OR EXISTS (SELECT 1 FROM special_menu_check WHERE sm_restaurant_id = $2))
		   AND
		   ($8 IS NULL OR EXISTS (SELECT 1 FROM coupon_check WHERE cp_restaurant_id = $2))
		 RETURNING `+reservationColumns,
		res.UserID, res.RestaurantID, res.Date, res.Time, res.GuestCount,
		res.Status, res.SpecialMenuID, res.CouponID, res.ReservationNotes)
	created, err := scanReservation(row)
	if err == sql.ErrNoRows {
		return model.Reservation{}, ErrInvalidReference
	}
	return created, err
}

// GetByID fetches one reservation without locking.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
	return scanReservation(row)
}

// GetForUserTx loads the user's reservation inside a transaction with a
// row lock, so a concurrent cancel or owner update waits behind it.
// sql.ErrNoRows covers both a missing id and someone else's
// reservation.
func (r *ReservationRepo) GetForUserTx(ctx context.Context, tx *sql.Tx, id, userID uint64) (model.Reservation, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID)
	return scanReservation(row)
}

// GetForOwnerTx loads a reservation inside a transaction with a row
// lock, verifying through the restaurants join that the caller owns the
// venue. A reservation at someone else's restaurant yields
// ErrForbidden.
func (r *ReservationRepo) GetForOwnerTx(ctx context.Context, tx *sql.Tx, id, ownerID uint64) (model.Reservation, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT r.id, r.user_id, r.restaurant_id, r.date, r.time, r.guest_count, r.status,
		        r.special_menu_id, r.coupon_id, r.cancellation_reason, r.reservation_notes,
		        r.created_at, r.updated_at
		 FROM reservations r
		 JOIN restaurants rs ON r.restaurant_id = rs.id
		 WHERE r.id = $1 AND rs.owner_id = $2
		 FOR UPDATE OF r`, id, ownerID)
	res, err := scanReservation(row)
	if err == sql.ErrNoRows {
		return model.Reservation{}, ErrForbidden
	}
	return res, err
}

// UpdateStatusTx sets the reservation status inside a transaction,
// optionally recording a cancellation reason. The updated row is
// returned so handlers can echo it back to the client.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string, reason *string) (model.Reservation, error) {
	row := tx.QueryRowContext(ctx,
		`UPDATE reservations
		 SET status = $1, cancellation_reason = COALESCE($2, cancellation_reason), updated_at = NOW()
		 WHERE id = $3
		 RETURNING `+reservationColumns,
		status, reason, id)
	return scanReservation(row)
}

// Delete removes the user's reservation outright. Coupon lock state is
// intentionally left untouched; only the cancel flow releases locks.
func (r *ReservationRepo) Delete(ctx context.Context, id, userID uint64) error {
	var deleted uint64
	err := r.DB.QueryRowContext(ctx,
		`DELETE FROM reservations WHERE id = $1 AND user_id = $2 RETURNING id`,
		id, userID).Scan(&deleted)
	return err
}

// ReservationFilter holds the whitelisted reservation listing filters.
type ReservationFilter struct {
	Status *string
	Date   *time.Time
}

func (f ReservationFilter) fragments(args []interface{}) ([]string, []interface{}) {
	frags := []string{}
	if f.Status != nil {
		args = append(args, *f.Status)
		frags = append(frags, "r.status = "+placeholder(len(args)))
	}
	if f.Date != nil {
		args = append(args, *f.Date)
		frags = append(frags, "r.date = "+placeholder(len(args)))
	}
	return frags, args
}

func collectReservations(rows *sql.Rows) ([]model.Reservation, error) {
	defer rows.Close()
	out := []model.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// ListByUser returns one page of the user's reservations matching the
// filter, most recent visit first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64, f ReservationFilter, limit, offset int) ([]model.Reservation, error) {
	args := []interface{}{userID}
	frags, args := f.fragments(args)
	where := "WHERE r.user_id = $1"
	if len(frags) > 0 {
		where += " AND " + strings.Join(frags, " AND ")
	}
	args = append(args, limit)
	limitPos := placeholder(len(args))
	args = append(args, offset)
	offsetPos := placeholder(len(args))
	rows, err := r.DB.QueryContext(ctx,
		`SELECT r.id, r.user_id, r.restaurant_id, r.date, r.time, r.guest_count, r.status,
		        r.special_menu_id, r.coupon_id, r.cancellation_reason, r.reservation_notes,
		        r.created_at, r.updated_at
		 FROM reservations r `+where+`
		 ORDER BY r.date DESC, r.time DESC
		 LIMIT `+limitPos+` OFFSET `+offsetPos, args...)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// CountByUser counts the user's reservations matching the filter.
func (r *ReservationRepo) CountByUser(ctx context.Context, userID uint64, f ReservationFilter) (int, error) {
	args := []interface{}{userID}
	frags, args := f.fragments(args)
	where := "WHERE r.user_id = $1"
	if len(frags) > 0 {
		where += " AND " + strings.Join(frags, " AND ")
	}
	var total int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations r `+where, args...).Scan(&total)
	return total, err
}

// ListForOwner returns one page of reservations across all of the
// owner's restaurants matching the filter.
func (r *ReservationRepo) ListForOwner(ctx context.Context, ownerID uint64, f ReservationFilter, limit, offset int) ([]model.Reservation, error) {
	args := []interface{}{ownerID}
	frags, args := f.fragments(args)
	where := "WHERE rs.owner_id = $1"
	if len(frags) > 0 {
		where += " AND " + strings.Join(frags, " AND ")
	}
	args = append(args, limit)
	limitPos := placeholder(len(args))
	args = append(args, offset)
	offsetPos := placeholder(len(args))
	rows, err := r.DB.QueryContext(ctx,
		`SELECT r.id, r.user_id, r.restaurant_id, r.date, r.time, r.guest_count, r.status,
		        r.special_menu_id, r.coupon_id, r.cancellation_reason, r.reservation_notes,
		        r.created_at, r.updated_at
		 FROM reservations r
		 JOIN restaurants rs ON r.restaurant_id = rs.id `+where+`
		 ORDER BY r.date DESC, r.time DESC
		 LIMIT `+limitPos+` OFFSET `+offsetPos, args...)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// CountForOwner counts reservations across the owner's restaurants
// matching the filter.
func (r *ReservationRepo) CountForOwner(ctx context.Context, ownerID uint64, f ReservationFilter) (int, error) {
	args := []interface{}{ownerID}
	frags, args := f.fragments(args)
	where := "WHERE rs.owner_id = $1"
	if len(frags) > 0 {
		where += " AND " + strings.Join(frags, " AND ")
	}
	var total int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations r
		 JOIN restaurants rs ON r.restaurant_id = rs.id `+where, args...).Scan(&total)
	return total, err
}
