package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkspot/restaurant-reservation/internal/repository"
	"github.com/forkspot/restaurant-reservation/internal/validation"
)

// newTestContext builds an echo context with the validator installed
// and an authenticated diner session.
func newTestContext(t *testing.T, method, target, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = validation.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	c.Set("role", "user")
	return c, rec
}

func newCouponHandler(t *testing.T) (*UserCouponHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	h := NewUserCouponHandler(repository.NewCouponRepo(db), repository.NewUserRepo(db))
	return h, mock, func() { db.Close() }
}

func TestPurchaseDebitsAndInserts(t *testing.T) {
	h, mock, done := newCouponHandler(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM purchased_coupons`).
		WithArgs(uint64(7), uint64(42)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT required_points FROM coupons`).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"required_points"}).AddRow(100))
	mock.ExpectQuery(`SELECT loyalty_points FROM users WHERE id = \$1 FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"loyalty_points"}).AddRow(150))
	mock.ExpectExec(`UPDATE users SET loyalty_points = GREATEST`).
		WithArgs(100, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO purchased_coupons`).
		WithArgs(uint64(7), uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "coupon_id", "is_used", "is_locked", "purchased_at"}).
			AddRow(1, 7, 42, false, false, time.Now()))
	mock.ExpectCommit()

	c, rec := newTestContext(t, http.MethodPost, "/v1/coupons/purchase", `{"couponId":42}`, 7)
	require.NoError(t, h.Purchase(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"loyaltyPoints":50`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseSecondAttemptConflicts(t *testing.T) {
	h, mock, done := newCouponHandler(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM purchased_coupons`).
		WithArgs(uint64(7), uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()

	c, rec := newTestContext(t, http.MethodPost, "/v1/coupons/purchase", `{"couponId":42}`, 7)
	require.NoError(t, h.Purchase(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseInsufficientPointsRollsBack(t *testing.T) {
	h, mock, done := newCouponHandler(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM purchased_coupons`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT required_points FROM coupons`).
		WillReturnRows(sqlmock.NewRows([]string{"required_points"}).AddRow(100))
	mock.ExpectQuery(`SELECT loyalty_points FROM users WHERE id = \$1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"loyalty_points"}).AddRow(40))
	mock.ExpectRollback()

	c, rec := newTestContext(t, http.MethodPost, "/v1/coupons/purchase", `{"couponId":42}`, 7)
	require.NoError(t, h.Purchase(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient loyalty points")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseUnknownCoupon(t *testing.T) {
	h, mock, done := newCouponHandler(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM purchased_coupons`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT required_points FROM coupons`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	c, rec := newTestContext(t, http.MethodPost, "/v1/coupons/purchase", `{"couponId":999}`, 7)
	require.NoError(t, h.Purchase(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseRejectsMissingCouponID(t *testing.T) {
	h, _, done := newCouponHandler(t)
	defer done()

	c, rec := newTestContext(t, http.MethodPost, "/v1/coupons/purchase", `{}`, 7)
	require.NoError(t, h.Purchase(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
