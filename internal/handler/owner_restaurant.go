package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/forkspot/restaurant-reservation/internal/repository"
)

// OwnerCatalogHandler serves the owner-side catalog: restaurants, menu
// items, special menus and coupons. Every write re-verifies ownership;
// a missing ownership row yields the same generic 403 whether the
// resource exists or not.
type OwnerCatalogHandler struct {
	Restaurants  *repository.RestaurantRepo
	MenuItems    *repository.MenuItemRepo
	SpecialMenus *repository.SpecialMenuRepo
	Coupons      *repository.CouponRepo
}

func NewOwnerCatalogHandler(restaurants *repository.RestaurantRepo, menuItems *repository.MenuItemRepo, specialMenus *repository.SpecialMenuRepo, coupons *repository.CouponRepo) *OwnerCatalogHandler {
	if restaurants == nil || menuItems == nil || specialMenus == nil || coupons == nil {
		panic("nil repository passed to NewOwnerCatalogHandler")
	}
	return &OwnerCatalogHandler{
		Restaurants:  restaurants,
		MenuItems:    menuItems,
		SpecialMenus: specialMenus,
		Coupons:      coupons,
	}
}

func forbidden(c echo.Context) error {
	return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
}

// CreateRestaurant handles POST /v1/owner/restaurants.
func (h *OwnerCatalogHandler) CreateRestaurant(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req struct {
		Name     string  `json:"name" validate:"required,min=2,max=150"`
		Location string  `json:"location" validate:"required,max=255"`
		Cuisine  string  `json:"cuisine" validate:"required,max=100"`
		Lat      float64 `json:"lat" validate:"required,gte=-90,lte=90"`
		Lng      float64 `json:"lng" validate:"required,gte=-180,lte=180"`
	}
	if !bindAndValidate(c, &req) {
		return nil
	}
	r, err := h.Restaurants.Create(c.Request().Context(), ownerID, req.Name, req.Location, req.Cuisine, req.Lat, req.Lng)
	if err != nil {
		return dbError(c)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":    "restaurant created",
		"restaurant": toRestaurantView(r),
	})
}

// ListRestaurants handles GET /v1/owner/restaurants.
func (h *OwnerCatalogHandler) ListRestaurants(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	rs, err := h.Restaurants.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return dbError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"restaurants": toRestaurantViews(rs)})
}

// UpdateRestaurant handles PATCH /v1/owner/restaurants/:id. Lat and lng
// must be supplied together to move the pin.
func (h *OwnerCatalogHandler) UpdateRestaurant(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	var req struct {
		Name     *string  `json:"name" validate:"omitempty,min=2,max=150"`
		Location *string  `json:"location" validate:"omitempty,max=255"`
		Cuisine  *string  `json:"cuisine" validate:"omitempty,max=100"`
		Lat      *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
		Lng      *float64 `json:"lng" validate:"omitempty,gte=-180,lte=180"`
	}
	if !bindAndValidate(c, &req) {
		return nil
	}
	if (req.Lat == nil) != (req.Lng == nil) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lat and lng must be provided together"})
	}
	r, err := h.Restaurants.Update(c.Request().Context(), id, ownerID, repository.RestaurantPatch{
		Name: req.Name, Location: req.Location, Cuisine: req.Cuisine, Lat: req.Lat, Lng: req.Lng,
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
	return c.JSON(http.StatusOK, echo.Map{"restaurant": toRestaurantView(r)})
}

// DeleteRestaurant handles DELETE /v1/owner/restaurants/:id.
func (h *OwnerCatalogHandler) DeleteRestaurant(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	if err := h.Restaurants.Delete(c.Request().Context(), id, ownerID); err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			return forbidden(c)
		}
		return dbError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "restaurant deleted"})
}
