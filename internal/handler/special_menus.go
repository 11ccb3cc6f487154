package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/forkspot/restaurant-reservation/internal/model"
	"github.com/forkspot/restaurant-reservation/internal/repository"
)

// CreateSpecialMenu handles POST /v1/owner/special-menus.
func (h *OwnerCatalogHandler) CreateSpecialMenu(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req struct {
		RestaurantID       uint64  `json:"restaurantId" validate:"required"`
		Name               string  `json:"name" validate:"required,min=1,max=150"`
		Description        *string `json:"description" validate:"omitempty,max=500"`
		OriginalPrice      float64 `json:"originalPrice" validate:"required,gt=0"`
		DiscountedPrice    float64 `json:"discountedPrice" validate:"required,gt=0"`
		DiscountPercentage int     `json:"discountPercentage" validate:"gte=0,lte=100"`
		PhotoURL           *string `json:"photoUrl" validate:"omitempty,url"`
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
	menu, err := h.SpecialMenus.Create(ctx, model.SpecialMenu{
		RestaurantID:       req.RestaurantID,
		Name:               req.Name,
		Description:        req.Description,
		OriginalPrice:      req.OriginalPrice,
		DiscountedPrice:    req.DiscountedPrice,
		DiscountPercentage: req.DiscountPercentage,
		PhotoURL:           req.PhotoURL,
	})
	if err != nil {
		return dbError(c)
	}
	return c.JSON(http.StatusCreated, echo.Map{"specialMenu": toSpecialMenuView(menu)})
}

// UpdateSpecialMenu handles PATCH /v1/owner/special-menus/:id.
func (h *OwnerCatalogHandler) UpdateSpecialMenu(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid special menu id"})
	}
	var req struct {
		Name               *string  `json:"name" validate:"omitempty,min=1,max=150"`
		Description        *string  `json:"description" validate:"omitempty,max=500"`
		OriginalPrice      *float64 `json:"originalPrice" validate:"omitempty,gt=0"`
		DiscountedPrice    *float64 `json:"discountedPrice" validate:"omitempty,gt=0"`
		DiscountPercentage *int     `json:"discountPercentage" validate:"omitempty,gte=0,lte=100"`
		PhotoURL           *string  `json:"photoUrl" validate:"omitempty,url"`
	}
	if !bindAndValidate(c, &req) {
		return nil
	}
	menu, err := h.SpecialMenus.Update(c.Request().Context(), id, ownerID, repository.SpecialMenuPatch{
		Name:               req.Name,
		Description:        req.Description,
		OriginalPrice:      req.OriginalPrice,
		DiscountedPrice:    req.DiscountedPrice,
		DiscountPercentage: req.DiscountPercentage,
		PhotoURL:           req.PhotoURL,
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
	return c.JSON(http.StatusOK, echo.Map{"specialMenu": toSpecialMenuView(menu)})
}

// DeleteSpecialMenu handles DELETE /v1/owner/special-menus/:id.
func (h *OwnerCatalogHandler) DeleteSpecialMenu(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid special menu id"})
	}
	if err := h.SpecialMenus.Delete(c.Request().Context(), id, ownerID); err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			return forbidden(c)
		}
		return dbError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "special menu deleted"})
}

// LinkSpecialMenuItem handles POST /v1/owner/special-menu-items. The
// conditional insert rejects cross-restaurant pairs and foreign venues
// in one statement.
func (h *OwnerCatalogHandler) LinkSpecialMenuItem(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req struct {
		SpecialMenuID uint64 `json:"specialMenuId" validate:"required"`
		MenuItemID    uint64 `json:"menuItemId" validate:"required"`
	}
	if !bindAndValidate(c, &req) {
		return nil
	}
	link, err := h.SpecialMenus.LinkItem(c.Request().Context(), req.SpecialMenuID, req.MenuItemID, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "special menu and menu item must belong to the same restaurant you own"})
		}
		return dbError(c)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"specialMenuItem": echo.Map{
			"id":            link.ID,
			"specialMenuId": link.SpecialMenuID,
			"menuItemId":    link.MenuItemID,
		},
	})
}

// UnlinkSpecialMenuItem handles DELETE
// /v1/owner/special-menus/:id/items/:itemId.
func (h *OwnerCatalogHandler) UnlinkSpecialMenuItem(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	menuID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid special menu id"})
	}
	itemID, err := pathID(c, "itemId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid menu item id"})
	}
	if err := h.SpecialMenus.UnlinkItem(c.Request().Context(), menuID, itemID, ownerID); err != nil {
		switch {
		case errors.Is(err, repository.ErrForbidden):
			return forbidden(c)
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "link not found"})
		}
		return dbError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "menu item unlinked"})
}

// SpecialMenuItems handles GET /v1/special-menus/:id/items, listing the
// menu items bundled into a special menu.
func (h *BrowseHandler) SpecialMenuItems(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid special menu id"})
	}
	items, err := h.SpecialMenus.ListItems(c.Request().Context(), id)
	if err != nil {
		return dbError(c)
	}
	views := make([]menuItemView, 0, len(items))
	for _, m := range items {
		views = append(views, toMenuItemView(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"menuItems": views})
}
