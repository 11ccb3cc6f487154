package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/forkspot/restaurant-reservation/internal/repository"
)

// CreateMenuItem handles POST /v1/owner/menu-items. The restaurant must
// belong to the caller.
func (h *OwnerCatalogHandler) CreateMenuItem(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req struct {
		RestaurantID uint64  `json:"restaurantId" validate:"required"`
		Name         string  `json:"name" validate:"required,min=1,max=150"`
		Price        float64 `json:"price" validate:"required,gt=0"`
		Category     string  `json:"category" validate:"required,max=100"`
		Description  *string `json:"description" validate:"omitempty,max=500"`
		Discount     int     `json:"discount" validate:"gte=0,lte=100"`
	}
	if !bindAndValidate(c, &req) {
		return nil
	}
	ctx := c.Request().Context()
	if err := h.Restaurants.VerifyOwnership(ctx, req.RestaurantID, ownerID); err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			return forbidden(c)
		}
		return dbError(c)
	}
	item, err := h.MenuItems.Create(ctx, req.RestaurantID, req.Name, req.Price, req.Category, req.Description, req.Discount)
	if err != nil {
		return dbError(c)
	}
	return c.JSON(http.StatusCreated, echo.Map{"menuItem": toMenuItemView(item)})
}

// UpdateMenuItem handles PATCH /v1/owner/menu-items/:id.
func (h *OwnerCatalogHandler) UpdateMenuItem(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid menu item id"})
	}
	var req struct {
		Name        *string  `json:"name" validate:"omitempty,min=1,max=150"`
		Price       *float64 `json:"price" validate:"omitempty,gt=0"`
		Category    *string  `json:"category" validate:"omitempty,max=100"`
		Description *string  `json:"description" validate:"omitempty,max=500"`
		Discount    *int     `json:"discount" validate:"omitempty,gte=0,lte=100"`
	}
	if !bindAndValidate(c, &req) {
		return nil
	}
	item, err := h.MenuItems.Update(c.Request().Context(), id, ownerID, repository.MenuItemPatch{
		Name: req.Name, Price: req.Price, Category: req.Category,
		Description: req.Description, Discount: req.Discount,
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
	return c.JSON(http.StatusOK, echo.Map{"menuItem": toMenuItemView(item)})
}

// DeleteMenuItem handles DELETE /v1/owner/menu-items/:id.
func (h *OwnerCatalogHandler) DeleteMenuItem(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid menu item id"})
	}
	if err := h.MenuItems.Delete(c.Request().Context(), id, ownerID); err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			return forbidden(c)
		}
		return dbError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "menu item deleted"})
}
