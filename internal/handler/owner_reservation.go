package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/forkspot/restaurant-reservation/internal/model"
	"github.com/forkspot/restaurant-reservation/internal/queue"
	"github.com/forkspot/restaurant-reservation/internal/repository"
	queue_publisher "github.com/forkspot/restaurant-reservation/internal/service"
	"github.com/forkspot/restaurant-reservation/internal/utils"
)

// UpdateStatus handles PATCH /v1/reservations/owner. Owners move a
// reservation to confirmed or cancelled; seated and completed pass
// validation as enum values but have no transition here. Confirming
// spends an attached coupon; cancelling unlocks it without charging the
// diner a penalty.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req struct {
		ReservationID      uint64  `json:"reservationId" validate:"required"`
		Status             string  `json:"status" validate:"required"`
		CancellationReason *string `json:"cancellationReason" validate:"omitempty,max=255"`
	}
	if !bindAndValidate(c, &req) {
		return nil
	}
	if !model.ValidReservationStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	if req.Status != model.ReservationConfirmed && req.Status != model.ReservationCancelled {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "owners may only confirm or cancel reservations"})
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

	res, err := h.Reservations.GetForOwnerTx(ctx, tx, req.ReservationID, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			return forbidden(c)
		}
		return dbError(c)
	}
	if res.Status != model.ReservationPending {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "only pending reservations can be updated"})
	}

	updated, err := h.Reservations.UpdateStatusTx(ctx, tx, res.ID, req.Status, req.CancellationReason)
	if err != nil {
		return dbError(c)
	}
	if res.CouponID != nil {
		if req.Status == model.ReservationConfirmed {
			err = h.Coupons.MarkUsedTx(ctx, tx, res.UserID, *res.CouponID)
		} else {
			err = h.Coupons.UnlockCouponTx(ctx, tx, res.UserID, *res.CouponID)
		}
		if err != nil {
			return dbError(c)
		}
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	if req.Status == model.ReservationConfirmed {
		h.publishConfirmed(updated)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":     "reservation updated",
		"reservation": toReservationView(updated),
	})
}

// publishConfirmed emits the reservation.confirmed event in the
// background; broker outages never fail the request.
func (h *ReservationHandler) publishConfirmed(res model.Reservation) {
	go func() {
		ctx := context.Background()
		name := ""
		if r, err := h.Restaurants.GetByID(ctx, res.RestaurantID); err == nil {
			name = r.Name
		}
		_ = queue_publisher.PublishReservationConfirmed(ctx, queue.ReservationConfirmedEvent{
			ReservationID:  res.ID,
			UserID:         res.UserID,
			RestaurantID:   res.RestaurantID,
			RestaurantName: name,
			Date:           res.Date.Format("2006-01-02"),
			Time:           res.Time,
			GuestCount:     res.GuestCount,
			SpecialMenuID:  res.SpecialMenuID,
			CouponID:       res.CouponID,
			ConfirmedAt:    time.Now().UTC().Format(time.RFC3339),
		})
	}()
}

// ListForOwner handles GET /v1/reservations/filtered/owner: paginated
// reservations across every restaurant the caller owns.
func (h *ReservationHandler) ListForOwner(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	f, err := parseReservationFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	page, pageSize, limit, offset := parsePage(c)
	ctx := c.Request().Context()
	rs, err := h.Reservations.ListForOwner(ctx, ownerID, f, limit, offset)
	if err != nil {
		return dbError(c)
	}
	total, err := h.Reservations.CountForOwner(ctx, ownerID, f)
	if err != nil {
		return dbError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reservations": toReservationViews(rs),
		"Pagination":   utils.Paginate(page, pageSize, len(rs), total),
	})
}
