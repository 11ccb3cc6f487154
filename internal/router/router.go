// Package router registers every HTTP route of the API and binds the
// middleware stack: rate limiting globally, the response cache on the
// public listing endpoints, and cookie authentication with role checks
// on everything else.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/forkspot/restaurant-reservation/internal/handler"
	"github.com/forkspot/restaurant-reservation/internal/middleware"
)

// Handlers bundles every handler the router wires up.
type Handlers struct {
	Users       *handler.UserHandler
	OwnerAuth   *handler.OwnerAuthHandler
	UserResets  *handler.PasswordResetHandler
	OwnerResets *handler.PasswordResetHandler
	Browse      *handler.BrowseHandler
	Catalog     *handler.OwnerCatalogHandler
	UserCoupons *handler.UserCouponHandler
	Reservation *handler.ReservationHandler
}

// Register wires all routes onto the Echo instance. jwtSecret signs the
// session cookies; cache wraps the public listing routes and may be nil
// when caching is disabled.
func Register(e *echo.Echo, h Handlers, jwtSecret string, cache echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)

	if cache == nil {
		cache = func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	userAuth := middleware.CookieAuth(jwtSecret, middleware.RoleUser)
	ownerAuth := middleware.CookieAuth(jwtSecret, middleware.RoleOwner)
	anyAuth := middleware.CookieAuth(jwtSecret, middleware.RoleUser, middleware.RoleOwner)

	// Diner accounts.
	user := e.Group("/v1/user")
	user.POST("/register", h.Users.Register)
	user.POST("/login", h.Users.Login)
	user.POST("/logout", h.Users.Logout)
	user.GET("/verify-email", h.Users.VerifyEmail)
	user.POST("/password-reset/request", h.UserResets.Request)
	user.GET("/password-reset/validate", h.UserResets.Validate)
	user.POST("/password-reset", h.UserResets.Reset)
	user.GET("/auth-status", h.Users.AuthStatus, anyAuth)
	user.GET("/profile", h.Users.Profile, userAuth)
	user.PATCH("/profile", h.Users.UpdateProfile, userAuth)
	user.GET("/points", h.Users.Points, userAuth)
	user.GET("/favorites", h.Users.ListFavorites, userAuth)
	user.POST("/favorites/:id", h.Users.ToggleFavorite, userAuth)

	// Owner accounts.
	owner := e.Group("/v1/owner")
	owner.POST("/register", h.OwnerAuth.Register)
	owner.POST("/login", h.OwnerAuth.Login)
	owner.POST("/logout", h.OwnerAuth.Logout)
	owner.POST("/password-reset/request", h.OwnerResets.Request)
	owner.GET("/password-reset/validate", h.OwnerResets.Validate)
	owner.POST("/password-reset", h.OwnerResets.Reset)
	owner.GET("/profile", h.OwnerAuth.Profile, ownerAuth)
	owner.PATCH("/profile", h.OwnerAuth.UpdateProfile, ownerAuth)

	// Owner catalog management.
	owner.POST("/restaurants", h.Catalog.CreateRestaurant, ownerAuth)
	owner.GET("/restaurants", h.Catalog.ListRestaurants, ownerAuth)
	owner.PATCH("/restaurants/:id", h.Catalog.UpdateRestaurant, ownerAuth)
	owner.DELETE("/restaurants/:id", h.Catalog.DeleteRestaurant, ownerAuth)
	owner.POST("/menu-items", h.Catalog.CreateMenuItem, ownerAuth)
	owner.PATCH("/menu-items/:id", h.Catalog.UpdateMenuItem, ownerAuth)
	owner.DELETE("/menu-items/:id", h.Catalog.DeleteMenuItem, ownerAuth)
	owner.POST("/special-menus", h.Catalog.CreateSpecialMenu, ownerAuth)
	owner.PATCH("/special-menus/:id", h.Catalog.UpdateSpecialMenu, ownerAuth)
	owner.DELETE("/special-menus/:id", h.Catalog.DeleteSpecialMenu, ownerAuth)
	owner.POST("/special-menu-items", h.Catalog.LinkSpecialMenuItem, ownerAuth)
	owner.DELETE("/special-menus/:id/items/:itemId", h.Catalog.UnlinkSpecialMenuItem, ownerAuth)

	// Public discovery. Listing endpoints sit behind the response cache.
	rest := e.Group("/v1/restaurants")
	rest.GET("", h.Browse.ListFiltered, cache)
	rest.GET("/trending", h.Browse.Trending, cache)
	rest.GET("/discounted", h.Browse.Discounted, cache)
	rest.GET("/id/:id", h.Browse.GetByID)
	rest.GET("/:id/menu-items", h.Browse.MenuByRestaurant, cache)
	rest.GET("/:id/special-menus", h.Browse.SpecialMenusByRestaurant, cache)
	rest.GET("/:id/coupons", h.Browse.CouponsByRestaurant, cache)
	e.GET("/v1/special-menus/:id/items", h.Browse.SpecialMenuItems, cache)
	e.GET("/v1/testimonials", h.Browse.ListTestimonials, cache)

	// Coupons: diner purchase flow plus owner catalog writes.
	coupons := e.Group("/v1/coupons")
	coupons.GET("/available", h.UserCoupons.Available, userAuth)
	coupons.GET("/ownedByUser", h.UserCoupons.OwnedByUser, userAuth)
	coupons.GET("/purchased/restaurants", h.UserCoupons.PurchasedRestaurants, userAuth)
	coupons.POST("/purchase", h.UserCoupons.Purchase, userAuth)
	coupons.POST("/creation", h.Catalog.CreateCoupon, ownerAuth)
	coupons.PATCH("/edit/:id", h.Catalog.EditCoupon, ownerAuth)
	coupons.DELETE("/delete/:id", h.Catalog.DeleteCoupon, ownerAuth)

	// Reservations.
	resv := e.Group("/v1/reservations")
	resv.POST("", h.Reservation.Create, userAuth)
	resv.GET("/user", h.Reservation.ListMine, userAuth)
	resv.GET("/user/filtered", h.Reservation.ListMineFiltered, userAuth)
	resv.GET("/:id", h.Reservation.GetByID, userAuth)
	resv.DELETE("/:id", h.Reservation.Delete, userAuth)
	resv.POST("/cancel/:id", h.Reservation.Cancel, userAuth)
	resv.PATCH("/owner", h.Reservation.UpdateStatus, ownerAuth)
	resv.GET("/filtered/owner", h.Reservation.ListForOwner, ownerAuth)
}
