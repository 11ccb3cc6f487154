package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/forkspot/restaurant-reservation/internal/config"
	"github.com/forkspot/restaurant-reservation/internal/middleware"
	"github.com/forkspot/restaurant-reservation/internal/model"
	"github.com/forkspot/restaurant-reservation/internal/queue"
	"github.com/forkspot/restaurant-reservation/internal/repository"
	queue_publisher "github.com/forkspot/restaurant-reservation/internal/service"
	"github.com/forkspot/restaurant-reservation/internal/utils"
)

// verificationTTL is how long an email verification token stays valid.
const verificationTTL = 24 * time.Hour

// UserHandler serves diner account endpoints: registration, login,
// profile management, loyalty points and favorites.
type UserHandler struct {
	Users         *repository.UserRepo
	Verifications *repository.VerificationRepo
	Favorites     *repository.FavoriteRepo
	Cfg           config.Config
}

func NewUserHandler(users *repository.UserRepo, verifications *repository.VerificationRepo, favorites *repository.FavoriteRepo, cfg config.Config) *UserHandler {
	if users == nil || verifications == nil || favorites == nil {
		panic("nil repository passed to NewUserHandler")
	}
	return &UserHandler{Users: users, Verifications: verifications, Favorites: favorites, Cfg: cfg}
}

// userProfile is the diner profile shape returned by the API. The
// password hash never leaves the repository layer through it.
type userProfile struct {
	ID            uint64  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Phone         *string `json:"phone"`
	LoyaltyPoints int     `json:"loyaltyPoints"`
	ConfirmedUser bool    `json:"confirmedUser"`
}

func toUserProfile(u model.User) userProfile {
	return userProfile{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Phone:         u.Phone,
		LoyaltyPoints: u.LoyaltyPoints,
		ConfirmedUser: u.ConfirmedUser,
	}
}

// setSessionCookie attaches the signed session JWT as an HTTP-only
// cookie scoped to the whole API.
func setSessionCookie(c echo.Context, tok utils.SessionToken) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    tok.Token,
		Path:     "/",
		Expires:  tok.Exp,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Register handles POST /v1/user/register. On success it stores a
// verification token and publishes a user.registered event carrying it;
// a mail worker downstream turns that into a verification link.
func (h *UserHandler) Register(c echo.Context) error {
	var req struct {
		Name     string  `json:"name" validate:"required,min=2,max=100"`
		Email    string  `json:"email" validate:"required,email"`
		Password string  `json:"password" validate:"required,min=8,max=72"`
		Phone    *string `json:"phone" validate:"omitempty,max=20"`
	}
	if !bindAndValidate(c, &req) {
		return nil
	}
	ctx := c.Request().Context()
	id, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, req.Phone, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
		}
		return dbError(c)
	}

	token := uuid.NewString()
	if err := h.Verifications.Create(ctx, id, token, verificationTTL); err != nil {
		c.Logger().Errorf("store verification token: %v", err)
	} else {
		ev := queue.UserRegisteredEvent{
			UserID:            id,
			Name:              req.Name,
			Email:             req.Email,
			VerificationToken: token,
			RegisteredAt:      time.Now().UTC().Format(time.RFC3339),
		}
		go func() { _ = queue_publisher.PublishUserRegistered(context.Background(), ev) }()
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "registration successful, please verify your email",
		"user_id": id,
	})
}

// Login handles POST /v1/user/login and sets the session cookie.
func (h *UserHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if !bindAndValidate(c, &req) {
		return nil
	}
	u, err := h.Users.GetByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return dbError(c)
	}
	if !utils.VerifyPassword(u.Password, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	tok, err := utils.NewSessionToken(h.Cfg.JWTSecret, u.ID, middleware.RoleUser, h.Cfg.TokenTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue token"})
	}
	setSessionCookie(c, tok)
	return c.JSON(http.StatusOK, echo.Map{"message": "login successful", "user": toUserProfile(u)})
}

// Logout handles POST /v1/user/logout by expiring the session cookie.
func (h *UserHandler) Logout(c echo.Context) error {
	middleware.ClearSessionCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// AuthStatus handles GET /v1/user/auth-status behind the cookie
// middleware, so reaching it means the session is valid.
func (h *UserHandler) AuthStatus(c echo.Context) error {
	role, _ := c.Get("role").(string)
	return c.JSON(http.StatusOK, echo.Map{"authenticated": true, "role": role})
}

// Profile handles GET /v1/user/profile.
func (h *UserHandler) Profile(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	u, err := h.Users.GetByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return dbError(c)
	}
	return c.JSON(http.StatusOK, toUserProfile(u))
}

// UpdateProfile handles PATCH /v1/user/profile. Only the fields present
// in the body change; the patch travels through a fixed column
// whitelist in the repository.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req struct {
		Name     *string `json:"name" validate:"omitempty,min=2,max=100"`
		Email    *string `json:"email" validate:"omitempty,email"`
		Phone    *string `json:"phone" validate:"omitempty,max=20"`
		Password *string `json:"password" validate:"omitempty,min=8,max=72"`
	}
	if !bindAndValidate(c, &req) {
		return nil
	}
	patch := repository.UserPatch{Name: req.Name, Email: req.Email, Phone: req.Phone}
	if req.Password != nil {
		hash, err := utils.HashPassword(*req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to hash password"})
		}
		patch.Password = &hash
	}
	u, err := h.Users.Update(c.Request().Context(), userID, patch)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields to update"})
		}
		return dbError(c)
	}
	return c.JSON(http.StatusOK, toUserProfile(u))
}

// Points handles GET /v1/user/points.
func (h *UserHandler) Points(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	pts, err := h.Users.Points(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return dbError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"loyaltyPoints": pts})
}

// VerifyEmail handles GET /v1/user/verify-email?token=... and flips
// confirmed_user on success.
func (h *UserHandler) VerifyEmail(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}
	ctx := c.Request().Context()
	userID, err := h.Verifications.Consume(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid verification token"})
		case errors.Is(err, repository.ErrTokenExpired):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification token expired"})
		}
		return dbError(c)
	}
	if err := h.Users.Confirm(ctx, userID); err != nil {
		return dbError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "email verified"})
}

// ListFavorites handles GET /v1/user/favorites.
func (h *UserHandler) ListFavorites(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	favs, err := h.Favorites.List(c.Request().Context(), userID)
	if err != nil {
		return dbError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"favorites": toRestaurantViews(favs)})
}

// ToggleFavorite handles POST /v1/user/favorites/:id; it adds the
// restaurant to favorites, or removes it when already present.
func (h *UserHandler) ToggleFavorite(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	restaurantID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	favorited, err := h.Favorites.Toggle(c.Request().Context(), userID, restaurantID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown restaurant"})
	}
	return c.JSON(http.StatusOK, echo.Map{"favorited": favorited})
}
