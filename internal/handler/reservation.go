package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/forkspot/restaurant-reservation/internal/model"
	"github.com/forkspot/restaurant-reservation/internal/repository"
	"github.com/forkspot/restaurant-reservation/internal/utils"
)

// lateCancelWindow is the cutoff before the reserved slot below which a
// cancellation costs loyalty points.
const lateCancelWindow = 2 * time.Hour

// lateCancelPenalty is the number of loyalty points charged for a late
// cancellation. The debit floors at zero.
const lateCancelPenalty = 15

// ReservationHandler serves the diner-side reservation endpoints. The
// create and cancel flows each run inside a single transaction so
// coupon locks, status changes and penalties commit or roll back
// together.
type ReservationHandler struct {
	Reservations *repository.ReservationRepo
	Coupons      *repository.CouponRepo
	Users        *repository.UserRepo
	Restaurants  *repository.RestaurantRepo
}

func NewReservationHandler(reservations *repository.ReservationRepo, coupons *repository.CouponRepo, users *repository.UserRepo, restaurants *repository.RestaurantRepo) *ReservationHandler {
	if reservations == nil || coupons == nil || users == nil || restaurants == nil {
		panic("nil repository passed to NewReservationHandler")
	}
	return &ReservationHandler{
		Reservations: reservations,
		Coupons:      coupons,
		Users:        users,
		Restaurants:  restaurants,
	}
}

// reservationView is the reservation shape returned by the API.
type reservationView struct {
	ID                 uint64  `json:"id"`
	UserID             uint64  `json:"userId"`
	RestaurantID       uint64  `json:"restaurantId"`
	Date               string  `json:"date"`
	Time               string  `json:"time"`
	GuestCount         int     `json:"guestCount"`
	Status             string  `json:"status"`
	SpecialMenuID      *uint64 `json:"specialMenuId"`
	CouponID           *uint64 `json:"couponId"`
	CancellationReason *string `json:"cancellationReason"`
	ReservationNotes   *string `json:"reservationNotes"`
}

func toReservationView(r model.Reservation) reservationView {
	return reservationView{
		ID:                 r.ID,
		UserID:             r.UserID,
		RestaurantID:       r.RestaurantID,
		Date:               r.Date.Format("2006-01-02"),
		Time:               r.Time,
		GuestCount:         r.GuestCount,
		Status:             r.Status,
		SpecialMenuID:      r.SpecialMenuID,
		CouponID:           r.CouponID,
		CancellationReason: r.CancellationReason,
		ReservationNotes:   r.ReservationNotes,
	}
}

func toReservationViews(rs []model.Reservation) []reservationView {
	out := make([]reservationView, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReservationView(r))
	}
	return out
}

// scheduledAt combines the reservation's date and time-of-day into one
// instant used for the late-cancellation check.
func scheduledAt(r model.Reservation) (time.Time, error) {
	layout := "15:04:05"
	if len(r.Time) == 5 {
		layout = "15:04"
	}
	tod, err := time.Parse(layout, r.Time)
	if err != nil {
		return time.Time{}, err
	}
	d := r.Date
	return time.Date(d.Year(), d.Month(), d.Day(),
		tod.Hour(), tod.Minute(), tod.Second(), 0, time.Local), nil
}

// Create handles POST /v1/reservations. Only confirmed accounts may
// book. When a coupon is attached, it is locked in the same transaction
// that inserts the reservation; if the insert rejects a
// cross-restaurant reference, the rollback releases the lock too.
func (h *ReservationHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req struct {
		RestaurantID     uint64  `json:"restaurantId" validate:"required"`
		Date             string  `json:"date" validate:"required,datetime=2006-01-02"`
		Time             string  `json:"time" validate:"required"`
		GuestCount       int     `json:"guestCount" validate:"required,gt=0,lte=50"`
		SpecialMenuID    *uint64 `json:"specialMenuId"`
		CouponID         *uint64 `json:"couponId"`
		ReservationNotes *string `json:"reservationNotes" validate:"omitempty,max=500"`
	}
	if !bindAndValidate(c, &req) {
		return nil
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	if _, err := time.Parse("15:04", req.Time); err != nil {
		if _, err := time.Parse("15:04:05", req.Time); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid time"})
		}
	}

	ctx := c.Request().Context()
	confirmed, err := h.Users.IsConfirmed(ctx, userID)
	if err != nil {
		return dbError(c)
	}
	if !confirmed {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "please verify your email before making reservations"})
	}
	if _, err := h.Restaurants.GetByID(ctx, req.RestaurantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return dbError(c)
	}

	tx, err := h.Reservations.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if req.CouponID != nil {
		if err := h.Coupons.LockCouponTx(ctx, tx, userID, *req.CouponID); err != nil {
			if errors.Is(err, repository.ErrCouponUnavailable) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "coupon is not available for use"})
			}
			return dbError(c)
		}
	}

	created, err := h.Reservations.CreateTx(ctx, tx, model.Reservation{
		UserID:           userID,
		RestaurantID:     req.RestaurantID,
		Date:             date,
		Time:             req.Time,
		GuestCount:       req.GuestCount,
		Status:           model.ReservationPending,
		SpecialMenuID:    req.SpecialMenuID,
		CouponID:         req.CouponID,
		ReservationNotes: req.ReservationNotes,
	})
	if err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "special menu or coupon does not belong to this restaurant"})
		}
		return dbError(c)
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	return c.JSON(http.StatusCreated, echo.Map{
		"message":     "reservation created",
		"reservation": toReservationView(created),
	})
}

// Cancel handles POST /v1/reservations/cancel/:id. Status change,
// coupon unlock and any late-cancellation penalty all commit in one
// transaction against the locked reservation row.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req struct {
		CancellationReason string `json:"cancellationReason"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.CancellationReason == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cancellation reason is required"})
	}

	ctx := c.Request().Context()
	tx, err := h.Reservations.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := h.Reservations.GetForUserTx(ctx, tx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return dbError(c)
	}
	if res.Status != model.ReservationPending && res.Status != model.ReservationConfirmed {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation cannot be cancelled"})
	}

	penalty := 0
	if at, err := scheduledAt(res); err == nil {
		until := time.Until(at)
		if until > 0 && until < lateCancelWindow {
			penalty = lateCancelPenalty
		}
	}
	if penalty > 0 {
		if err := h.Users.DeductPointsTx(ctx, tx, userID, penalty); err != nil {
			return dbError(c)
		}
	}

	updated, err := h.Reservations.UpdateStatusTx(ctx, tx, id, model.ReservationCancelled, &req.CancellationReason)
	if err != nil {
		return dbError(c)
	}
	if res.CouponID != nil {
		if err := h.Coupons.UnlockCouponTx(ctx, tx, userID, *res.CouponID); err != nil {
			return dbError(c)
		}
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{
		"message":       "reservation cancelled",
		"penaltyPoints": penalty,
		"reservation":   toReservationView(updated),
	})
}

// Delete handles DELETE /v1/reservations/:id, removing the caller's
// reservation outright.
func (h *ReservationHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Reservations.Delete(c.Request().Context(), id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return dbError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "reservation deleted"})
}

// GetByID handles GET /v1/reservations/:id, scoped to the caller.
func (h *ReservationHandler) GetByID(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Reservations.GetByID(c.Request().Context(), id)
	if err != nil || res.UserID != userID {
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return dbError(c)
		}
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservation": toReservationView(res)})
}

// parseReservationFilter reads the whitelisted status/date filters.
func parseReservationFilter(c echo.Context) (repository.ReservationFilter, error) {
	var f repository.ReservationFilter
	if v := c.QueryParam("status"); v != "" {
		if !model.ValidReservationStatus(v) {
			return f, errors.New("invalid status")
		}
		f.Status = &v
	}
	if v := c.QueryParam("date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, errors.New("invalid date")
		}
		f.Date = &d
	}
	return f, nil
}

// ListMine handles GET /v1/reservations/user: every reservation of the
// caller, most recent visit first.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	rs, err := h.Reservations.ListByUser(c.Request().Context(), userID, repository.ReservationFilter{}, 1000, 0)
	if err != nil {
		return dbError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": toReservationViews(rs)})
}

// ListMineFiltered handles GET /v1/reservations/user/filtered with
// status/date filters and pagination.
func (h *ReservationHandler) ListMineFiltered(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	f, err := parseReservationFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	page, pageSize, limit, offset := parsePage(c)
	ctx := c.Request().Context()
	rs, err := h.Reservations.ListByUser(ctx, userID, f, limit, offset)
	if err != nil {
		return dbError(c)
	}
	total, err := h.Reservations.CountByUser(ctx, userID, f)
	if err != nil {
		return dbError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reservations": toReservationViews(rs),
		"Pagination":   utils.Paginate(page, pageSize, len(rs), total),
	})
}
