package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/forkspot/restaurant-reservation/internal/model"
	"github.com/forkspot/restaurant-reservation/internal/repository"
	"github.com/forkspot/restaurant-reservation/internal/utils"
)

// BrowseHandler serves the public discovery endpoints: restaurant
// listings and per-restaurant menus, special menus and coupon catalogs.
type BrowseHandler struct {
	Restaurants  *repository.RestaurantRepo
	MenuItems    *repository.MenuItemRepo
	SpecialMenus *repository.SpecialMenuRepo
	Coupons      *repository.CouponRepo
	Testimonials *repository.TestimonialRepo
}

func NewBrowseHandler(restaurants *repository.RestaurantRepo, menuItems *repository.MenuItemRepo, specialMenus *repository.SpecialMenuRepo, coupons *repository.CouponRepo, testimonials *repository.TestimonialRepo) *BrowseHandler {
	if restaurants == nil || menuItems == nil || specialMenus == nil || coupons == nil || testimonials == nil {
		panic("nil repository passed to NewBrowseHandler")
	}
	return &BrowseHandler{
		Restaurants:  restaurants,
		MenuItems:    menuItems,
		SpecialMenus: specialMenus,
		Coupons:      coupons,
		Testimonials: testimonials,
	}
}

// restaurantView is the public restaurant shape.
type restaurantView struct {
	ID       uint64  `json:"id"`
	Name     string  `json:"name"`
	Location string  `json:"location"`
	Cuisine  string  `json:"cuisine"`
	Rating   float64 `json:"rating"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

func toRestaurantView(r model.Restaurant) restaurantView {
	return restaurantView{
		ID:       r.ID,
		Name:     r.Name,
		Location: r.Location,
		Cuisine:  r.Cuisine,
		Rating:   r.Rating,
		Lat:      r.Lat,
		Lng:      r.Lng,
	}
}

func toRestaurantViews(rs []model.Restaurant) []restaurantView {
	out := make([]restaurantView, 0, len(rs))
	for _, r := range rs {
		out = append(out, toRestaurantView(r))
	}
	return out
}

// discoveryView decorates a restaurant with its newest special menu and
// coupon, passed through as raw JSON from the query.
type discoveryView struct {
	restaurantView
	SpecialMenu json.RawMessage `json:"specialMenu"`
	Coupon      json.RawMessage `json:"coupon"`
}

func toDiscoveryViews(rows []repository.DiscoveryRow) []discoveryView {
	out := make([]discoveryView, 0, len(rows))
	for _, d := range rows {
		out = append(out, discoveryView{
			restaurantView: toRestaurantView(d.Restaurant),
			SpecialMenu:    d.LatestSpecialMenu,
			Coupon:         d.LatestCoupon,
		})
	}
	return out
}

// parseFilter reads the whitelisted restaurant discovery filters from
// the query string.
func parseFilter(c echo.Context) repository.RestaurantFilter {
	var f repository.RestaurantFilter
	if v := c.QueryParam("cuisine"); v != "" {
		f.Cuisine = &v
	}
	if v := c.QueryParam("rating"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			f.MinRating = &r
		}
	}
	if v := c.QueryParam("location"); v != "" {
		f.Location = &v
	}
	if v := c.QueryParam("name"); v != "" {
		f.Name = &v
	}
	return f
}

// ListFiltered handles GET /v1/restaurants with optional
// cuisine/rating/location/name filters.
func (h *BrowseHandler) ListFiltered(c echo.Context) error {
	page, pageSize, limit, offset := parsePage(c)
	f := parseFilter(c)
	ctx := c.Request().Context()
	rows, err := h.Restaurants.ListFiltered(ctx, f, limit, offset)
	if err != nil {
		return dbError(c)
	}
	total, err := h.Restaurants.CountFiltered(ctx, f)
	if err != nil {
		return dbError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"restaurants": toDiscoveryViews(rows),
		"Pagination":  utils.Paginate(page, pageSize, len(rows), total),
	})
}

// Trending handles GET /v1/restaurants/trending, ordered by rating.
func (h *BrowseHandler) Trending(c echo.Context) error {
	page, pageSize, limit, offset := parsePage(c)
	ctx := c.Request().Context()
	rows, err := h.Restaurants.Trending(ctx, limit, offset)
	if err != nil {
		return dbError(c)
	}
	total, err := h.Restaurants.Total(ctx)
	if err != nil {
		return dbError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"restaurants": toDiscoveryViews(rows),
		"Pagination":  utils.Paginate(page, pageSize, len(rows), total),
	})
}

// specialMenuView is the public special menu shape.
type specialMenuView struct {
	ID                 uint64  `json:"id"`
	RestaurantID       uint64  `json:"restaurantId"`
	Name               string  `json:"name"`
	Description        *string `json:"description"`
	OriginalPrice      float64 `json:"originalPrice"`
	DiscountedPrice    float64 `json:"discountedPrice"`
	DiscountPercentage int     `json:"discountPercentage"`
	PhotoURL           *string `json:"photoUrl"`
}

func toSpecialMenuView(m model.SpecialMenu) specialMenuView {
	return specialMenuView{
		ID:                 m.ID,
		RestaurantID:       m.RestaurantID,
		Name:               m.Name,
		Description:        m.Description,
		OriginalPrice:      m.OriginalPrice,
		DiscountedPrice:    m.DiscountedPrice,
		DiscountPercentage: m.DiscountPercentage,
		PhotoURL:           m.PhotoURL,
	}
}

// discountedView is one special menu in the discounted listing, with
// the owning restaurant embedded.
type discountedView struct {
	specialMenuView
	Restaurant json.RawMessage `json:"restaurant"`
}

// Discounted handles GET /v1/restaurants/discounted: special menus
// newest first, each with its restaurant.
func (h *BrowseHandler) Discounted(c echo.Context) error {
	page, pageSize, limit, offset := parsePage(c)
	ctx := c.Request().Context()
	rows, err := h.Restaurants.Discounted(ctx, limit, offset)
	if err != nil {
		return dbError(c)
	}
	total, err := h.Restaurants.DiscountedTotal(ctx)
	if err != nil {
		return dbError(c)
	}
	views := make([]discountedView, 0, len(rows))
	for _, d := range rows {
		views = append(views, discountedView{
			specialMenuView: toSpecialMenuView(d.SpecialMenu),
			Restaurant:      d.Restaurant,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"specialMenus": views,
		"Pagination":   utils.Paginate(page, pageSize, len(views), total),
	})
}

// GetByID handles GET /v1/restaurants/id/:id.
func (h *BrowseHandler) GetByID(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	r, err := h.Restaurants.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return dbError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"restaurant": toRestaurantView(r)})
}

// menuItemView is the public menu item shape.
type menuItemView struct {
	ID           uint64  `json:"id"`
	RestaurantID uint64  `json:"restaurantId"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Category     string  `json:"category"`
	Description  *string `json:"description"`
	Discount     int     `json:"discount"`
}

func toMenuItemView(m model.MenuItem) menuItemView {
	return menuItemView{
		ID:           m.ID,
		RestaurantID: m.RestaurantID,
		Name:         m.Name,
		Price:        m.Price,
		Category:     m.Category,
		Description:  m.Description,
		Discount:     m.Discount,
	}
}

// MenuByRestaurant handles GET /v1/restaurants/:id/menu-items.
func (h *BrowseHandler) MenuByRestaurant(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	items, err := h.MenuItems.ListByRestaurant(c.Request().Context(), id)
	if err != nil {
		return dbError(c)
	}
	views := make([]menuItemView, 0, len(items))
	for _, m := range items {
		views = append(views, toMenuItemView(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"menuItems": views})
}

// SpecialMenusByRestaurant handles GET /v1/restaurants/:id/special-menus.
func (h *BrowseHandler) SpecialMenusByRestaurant(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	menus, err := h.SpecialMenus.ListByRestaurant(c.Request().Context(), id)
	if err != nil {
		return dbError(c)
	}
	views := make([]specialMenuView, 0, len(menus))
	for _, m := range menus {
		views = append(views, toSpecialMenuView(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"specialMenus": views})
}

// couponView is the public coupon shape.
type couponView struct {
	ID                 uint64 `json:"id"`
	RestaurantID       uint64 `json:"restaurantId"`
	Description        string `json:"description"`
	DiscountPercentage int    `json:"discountPercentage"`
	RequiredPoints     int    `json:"requiredPoints"`
}

func toCouponView(cp model.Coupon) couponView {
	return couponView{
		ID:                 cp.ID,
		RestaurantID:       cp.RestaurantID,
		Description:        cp.Description,
		DiscountPercentage: cp.DiscountPercentage,
		RequiredPoints:     cp.RequiredPoints,
	}
}

// CouponsByRestaurant handles GET /v1/restaurants/:id/coupons.
func (h *BrowseHandler) CouponsByRestaurant(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	coupons, err := h.Coupons.ListByRestaurant(c.Request().Context(), id)
	if err != nil {
		return dbError(c)
	}
	views := make([]couponView, 0, len(coupons))
	for _, cp := range coupons {
		views = append(views, toCouponView(cp))
	}
	return c.JSON(http.StatusOK, echo.Map{"coupons": views})
}

// testimonialView is the public testimonial shape.
type testimonialView struct {
	ID      uint64 `json:"id"`
	Message string `json:"message"`
}

// ListTestimonials handles GET /v1/testimonials.
func (h *BrowseHandler) ListTestimonials(c echo.Context) error {
	page, pageSize, limit, offset := parsePage(c)
	ctx := c.Request().Context()
	rows, err := h.Testimonials.List(ctx, limit, offset)
	if err != nil {
		return dbError(c)
	}
	total, err := h.Testimonials.Total(ctx)
	if err != nil {
		return dbError(c)
	}
	views := make([]testimonialView, 0, len(rows))
	for _, t := range rows {
		views = append(views, testimonialView{ID: t.ID, Message: t.Message})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"testimonials": views,
		"Pagination":   utils.Paginate(page, pageSize, len(views), total),
	})
}
