package handler

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkspot/restaurant-reservation/internal/repository"
)

var reservationCols = []string{
	"id", "user_id", "restaurant_id", "date", "time", "guest_count", "status",
	"special_menu_id", "coupon_id", "cancellation_reason", "reservation_notes",
	"created_at", "updated_at",
}

func newReservationHandler(t *testing.T) (*ReservationHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	h := NewReservationHandler(
		repository.NewReservationRepo(db),
		repository.NewCouponRepo(db),
		repository.NewUserRepo(db),
		repository.NewRestaurantRepo(db),
	)
	return h, mock, func() { db.Close() }
}

// reservationRow builds one mock row for the reservation select.
func reservationRow(id, userID uint64, date time.Time, timeOfDay, status string, couponID *uint64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(reservationCols).
		AddRow(id, userID, uint64(3), date, timeOfDay, 2, status, nil, couponID, nil, nil, now, now)
}

func TestCancelWithinTwoHoursChargesPenalty(t *testing.T) {
	h, mock, done := newReservationHandler(t)
	defer done()

	coupon := uint64(42)
	sched := time.Now().Add(90 * time.Minute)
	date := time.Date(sched.Year(), sched.Month(), sched.Day(), 0, 0, 0, 0, time.Local)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations\s+WHERE id = \$1 AND user_id = \$2 FOR UPDATE`).
		WithArgs(uint64(5), uint64(7)).
		WillReturnRows(reservationRow(5, 7, date, sched.Format("15:04:05"), "pending", &coupon))
	mock.ExpectExec(`UPDATE users SET loyalty_points = GREATEST`).
		WithArgs(15, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	reason := "change of plans"
	now := time.Now()
	mock.ExpectQuery(`UPDATE reservations`).
		WithArgs("cancelled", reason, uint64(5)).
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(5, 7, uint64(3), date, sched.Format("15:04:05"), 2, "cancelled", nil, &coupon, &reason, nil, now, now))
	mock.ExpectExec(`UPDATE purchased_coupons SET is_locked = FALSE`).
		WithArgs(uint64(7), coupon).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newTestContext(t, http.MethodPost, "/v1/reservations/cancel/5",
		`{"cancellationReason":"change of plans"}`, 7)
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, h.Cancel(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"penaltyPoints":15`)
	assert.Contains(t, rec.Body.String(), `"status":"cancelled"`)
	assert.Contains(t, rec.Body.String(), `"cancellationReason":"change of plans"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelEarlyChargesNothing(t *testing.T) {
	h, mock, done := newReservationHandler(t)
	defer done()

	sched := time.Now().Add(5 * time.Hour)
	date := time.Date(sched.Year(), sched.Month(), sched.Day(), 0, 0, 0, 0, time.Local)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations\s+WHERE id = \$1 AND user_id = \$2 FOR UPDATE`).
		WithArgs(uint64(5), uint64(7)).
		WillReturnRows(reservationRow(5, 7, date, sched.Format("15:04:05"), "confirmed", nil))
	reason := "found another spot"
	now := time.Now()
	mock.ExpectQuery(`UPDATE reservations`).
		WithArgs("cancelled", reason, uint64(5)).
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(5, 7, uint64(3), date, sched.Format("15:04:05"), 2, "cancelled", nil, nil, &reason, nil, now, now))
	mock.ExpectCommit()

	c, rec := newTestContext(t, http.MethodPost, "/v1/reservations/cancel/5",
		`{"cancellationReason":"found another spot"}`, 7)
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, h.Cancel(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"penaltyPoints":0`)
	assert.Contains(t, rec.Body.String(), `"status":"cancelled"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelRequiresReason(t *testing.T) {
	h, mock, done := newReservationHandler(t)
	defer done()

	c, rec := newTestContext(t, http.MethodPost, "/v1/reservations/cancel/5", `{}`, 7)
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, h.Cancel(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelUnknownReservation(t *testing.T) {
	h, mock, done := newReservationHandler(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations\s+WHERE id = \$1 AND user_id = \$2 FOR UPDATE`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	c, rec := newTestContext(t, http.MethodPost, "/v1/reservations/cancel/5",
		`{"cancellationReason":"oops"}`, 7)
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, h.Cancel(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsCrossRestaurantCoupon(t *testing.T) {
	h, mock, done := newReservationHandler(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery(`SELECT confirmed_user FROM users`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"confirmed_user"}).AddRow(true))
	mock.ExpectQuery(`FROM restaurants WHERE id = \$1`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "owner_id", "name", "location", "cuisine", "rating", "st_y", "st_x", "created_at", "updated_at",
		}).AddRow(3, 9, "Trattoria", "Downtown", "italian", 4.5, 52.3, 4.9, now, now))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE purchased_coupons SET is_locked = TRUE`).
		WithArgs(uint64(7), uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// The conditional insert produces no row when the coupon belongs to
	// another restaurant, so the lock above must roll back with it.
	mock.ExpectQuery(`INSERT INTO reservations`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	body := fmt.Sprintf(`{"restaurantId":3,"date":"%s","time":"19:30","guestCount":2,"couponId":42}`,
		time.Now().AddDate(0, 0, 7).Format("2006-01-02"))
	c, rec := newTestContext(t, http.MethodPost, "/v1/reservations", body, 7)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "does not belong to this restaurant")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRequiresVerifiedEmail(t *testing.T) {
	h, mock, done := newReservationHandler(t)
	defer done()

	mock.ExpectQuery(`SELECT confirmed_user FROM users`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"confirmed_user"}).AddRow(false))

	body := fmt.Sprintf(`{"restaurantId":3,"date":"%s","time":"19:30","guestCount":2}`,
		time.Now().AddDate(0, 0, 7).Format("2006-01-02"))
	c, rec := newTestContext(t, http.MethodPost, "/v1/reservations", body, 7)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOwnerConfirmSpendsCoupon(t *testing.T) {
	h, mock, done := newReservationHandler(t)
	defer done()

	coupon := uint64(42)
	date := time.Now().AddDate(0, 0, 3)

	mock.ExpectBegin()
	mock.ExpectQuery(`JOIN restaurants rs ON r.restaurant_id = rs.id`).
		WithArgs(uint64(5), uint64(9)).
		WillReturnRows(reservationRow(5, 7, date, "19:30:00", "pending", &coupon))
	mock.ExpectQuery(`UPDATE reservations`).
		WithArgs("confirmed", nil, uint64(5)).
		WillReturnRows(reservationRow(5, 7, date, "19:30:00", "confirmed", &coupon))
	mock.ExpectExec(`UPDATE purchased_coupons SET is_used = TRUE`).
		WithArgs(uint64(7), coupon).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := newTestContext(t, http.MethodPatch, "/v1/reservations/owner",
		`{"reservationId":5,"status":"confirmed"}`, 9)
	c.Set("role", "owner")
	require.NoError(t, h.UpdateStatus(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"confirmed"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOwnerCannotTouchForeignReservation(t *testing.T) {
	h, mock, done := newReservationHandler(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(`JOIN restaurants rs ON r.restaurant_id = rs.id`).
		WithArgs(uint64(5), uint64(9)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	c, rec := newTestContext(t, http.MethodPatch, "/v1/reservations/owner",
		`{"reservationId":5,"status":"confirmed"}`, 9)
	c.Set("role", "owner")
	require.NoError(t, h.UpdateStatus(c))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOwnerRejectsUnsupportedTransition(t *testing.T) {
	h, mock, done := newReservationHandler(t)
	defer done()

	c, rec := newTestContext(t, http.MethodPatch, "/v1/reservations/owner",
		`{"reservationId":5,"status":"seated"}`, 9)
	c.Set("role", "owner")
	require.NoError(t, h.UpdateStatus(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "confirm or cancel")
	assert.NoError(t, mock.ExpectationsWereMet())
}
