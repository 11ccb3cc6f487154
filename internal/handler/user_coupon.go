package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/forkspot/restaurant-reservation/internal/repository"
	"github.com/forkspot/restaurant-reservation/internal/utils"
)

// UserCouponHandler serves the diner-side coupon endpoints: browsing
// what is available, listing owned coupons and purchasing with loyalty
// points.
type UserCouponHandler struct {
	Coupons *repository.CouponRepo
	Users   *repository.UserRepo
}

func NewUserCouponHandler(coupons *repository.CouponRepo, users *repository.UserRepo) *UserCouponHandler {
	if coupons == nil || users == nil {
		panic("nil repository passed to NewUserCouponHandler")
	}
	return &UserCouponHandler{Coupons: coupons, Users: users}
}

// Purchase handles POST /v1/coupons/purchase. The whole purchase runs
// in one transaction with the balance row locked, so the debit happens
// exactly when the purchase row is inserted: a duplicate purchase, a
// missing coupon or an insufficient balance all roll back with nothing
// charged.
func (h *UserCouponHandler) Purchase(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req struct {
		CouponID uint64 `json:"couponId" validate:"required"`
	}
	if !bindAndValidate(c, &req) {
		return nil
	}

	ctx := c.Request().Context()
	tx, err := h.Coupons.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	exists, err := h.Coupons.ExistsPurchaseTx(ctx, tx, userID, req.CouponID)
	if err != nil {
		return dbError(c)
	}
	if exists {
		return c.JSON(http.StatusConflict, echo.Map{"error": repository.ErrAlreadyPurchased.Error()})
	}

	required, err := h.Coupons.RequiredPointsTx(ctx, tx, req.CouponID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "coupon not found"})
		}
		return dbError(c)
	}

	balance, err := h.Users.PointsForUpdateTx(ctx, tx, userID)
	if err != nil {
		return dbError(c)
	}
	if balance < required {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":          repository.ErrInsufficientPoints.Error(),
			"requiredPoints": required,
			"loyaltyPoints":  balance,
		})
	}

	if err := h.Users.DeductPointsTx(ctx, tx, userID, required); err != nil {
		return dbError(c)
	}
	purchase, err := h.Coupons.InsertPurchaseTx(ctx, tx, userID, req.CouponID)
	if err != nil {
		return dbError(c)
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "coupon purchased",
		"purchase": echo.Map{
			"id":          purchase.ID,
			"couponId":    purchase.CouponID,
			"isUsed":      purchase.IsUsed,
			"isLocked":    purchase.IsLocked,
			"purchasedAt": purchase.PurchasedAt,
		},
		"loyaltyPoints": balance - required,
	})
}

// Available handles GET /v1/coupons/available?restaurantId=..., listing
// the restaurant's coupons the caller has not yet purchased.
func (h *UserCouponHandler) Available(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	restaurantID, err := queryID(c, "restaurantId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurantId"})
	}
	page, pageSize, limit, offset := parsePage(c)
	ctx := c.Request().Context()
	coupons, err := h.Coupons.Available(ctx, restaurantID, userID, limit, offset)
	if err != nil {
		return dbError(c)
	}
	total, err := h.Coupons.AvailableTotal(ctx, restaurantID, userID)
	if err != nil {
		return dbError(c)
	}
	views := make([]couponView, 0, len(coupons))
	for _, cp := range coupons {
		views = append(views, toCouponView(cp))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"coupons":    views,
		"Pagination": utils.Paginate(page, pageSize, len(views), total),
	})
}

// ownedCouponView decorates a coupon with its purchase state.
type ownedCouponView struct {
	couponView
	IsUsed      bool   `json:"isUsed"`
	IsLocked    bool   `json:"isLocked"`
	PurchasedAt string `json:"purchasedAt"`
}

// OwnedByUser handles GET /v1/coupons/ownedByUser.
func (h *UserCouponHandler) OwnedByUser(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	page, pageSize, limit, offset := parsePage(c)
	ctx := c.Request().Context()
	owned, err := h.Coupons.OwnedByUser(ctx, userID, limit, offset)
	if err != nil {
		return dbError(c)
	}
	total, err := h.Coupons.OwnedTotal(ctx, userID)
	if err != nil {
		return dbError(c)
	}
	views := make([]ownedCouponView, 0, len(owned))
	for _, oc := range owned {
		views = append(views, ownedCouponView{
			couponView:  toCouponView(oc.Coupon),
			IsUsed:      oc.IsUsed,
			IsLocked:    oc.IsLocked,
			PurchasedAt: oc.PurchasedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"coupons":    views,
		"Pagination": utils.Paginate(page, pageSize, len(views), total),
	})
}

// PurchasedRestaurants handles GET /v1/coupons/purchased/restaurants:
// the distinct venues the caller holds coupons for.
func (h *UserCouponHandler) PurchasedRestaurants(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	rs, err := h.Coupons.RestaurantsWithPurchasedCoupons(c.Request().Context(), userID)
	if err != nil {
		return dbError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"restaurants": toRestaurantViews(rs)})
}
