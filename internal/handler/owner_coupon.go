package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/forkspot/restaurant-reservation/internal/repository"
)

// CreateCoupon handles POST /v1/coupons/creation.
func (h *OwnerCatalogHandler) CreateCoupon(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req struct {
		RestaurantID       uint64 `json:"restaurantId" validate:"required"`
		Description        string `json:"description" validate:"required,max=255"`
		DiscountPercentage int    `json:"discountPercentage" validate:"required,gt=0,lte=100"`
		RequiredPoints     int    `json:"requiredPoints" validate:"required,gt=0"`
	}
	if !bindAndValidate(c, &req) {
		return nil
	}
	coupon, err := h.Coupons.Create(c.Request().Context(), req.RestaurantID, ownerID,
		req.Description, req.DiscountPercentage, req.RequiredPoints)
	if err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			return forbidden(c)
		}
		return dbError(c)
	}
	return c.JSON(http.StatusCreated, echo.Map{"coupon": toCouponView(coupon)})
}

// EditCoupon handles PATCH /v1/coupons/edit/:id. Edits never touch
// rows already purchased; users keep the terms they bought at.
func (h *OwnerCatalogHandler) EditCoupon(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid coupon id"})
	}
	var req struct {
		Description        *string `json:"description" validate:"omitempty,max=255"`
		DiscountPercentage *int    `json:"discountPercentage" validate:"omitempty,gt=0,lte=100"`
		RequiredPoints     *int    `json:"requiredPoints" validate:"omitempty,gt=0"`
	}
	if !bindAndValidate(c, &req) {
		return nil
	}
	coupon, err := h.Coupons.Update(c.Request().Context(), id, ownerID, repository.CouponPatch{
		Description:        req.Description,
		DiscountPercentage: req.DiscountPercentage,
		RequiredPoints:     req.RequiredPoints,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrForbidden):
			return forbidden(c)
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields to update"})
		}
		return dbError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"coupon": toCouponView(coupon)})
}

// DeleteCoupon handles DELETE /v1/coupons/delete/:id.
func (h *OwnerCatalogHandler) DeleteCoupon(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid coupon id"})
	}
	if err := h.Coupons.Delete(c.Request().Context(), id, ownerID); err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			return forbidden(c)
		}
		return dbError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "coupon deleted"})
}
