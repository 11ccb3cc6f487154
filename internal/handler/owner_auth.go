package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/forkspot/restaurant-reservation/internal/config"
	"github.com/forkspot/restaurant-reservation/internal/middleware"
	"github.com/forkspot/restaurant-reservation/internal/model"
	"github.com/forkspot/restaurant-reservation/internal/repository"
	"github.com/forkspot/restaurant-reservation/internal/utils"
)

// OwnerAuthHandler serves owner account endpoints. Owners authenticate
// through the same cookie mechanism as diners but carry the "owner"
// role claim.
type OwnerAuthHandler struct {
	Owners *repository.OwnerRepo
	Cfg    config.Config
}

func NewOwnerAuthHandler(owners *repository.OwnerRepo, cfg config.Config) *OwnerAuthHandler {
	if owners == nil {
		panic("nil repository passed to NewOwnerAuthHandler")
	}
	return &OwnerAuthHandler{Owners: owners, Cfg: cfg}
}

// ownerProfile is the owner profile shape returned by the API.
type ownerProfile struct {
	ID    uint64  `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone"`
}

func toOwnerProfile(o model.Owner) ownerProfile {
	return ownerProfile{ID: o.ID, Name: o.Name, Email: o.Email, Phone: o.Phone}
}

// Register handles POST /v1/owner/register.
func (h *OwnerAuthHandler) Register(c echo.Context) error {
	var req struct {
		Name     string  `json:"name" validate:"required,min=2,max=100"`
		Email    string  `json:"email" validate:"required,email"`
		Password string  `json:"password" validate:"required,min=8,max=72"`
		Phone    *string `json:"phone" validate:"omitempty,max=20"`
	}
	if !bindAndValidate(c, &req) {
		return nil
	}
	id, err := h.Owners.Create(c.Request().Context(), req.Name, req.Email, req.Password, req.Phone, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
		}
		return dbError(c)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "registration successful", "owner_id": id})
}

// Login handles POST /v1/owner/login and sets the session cookie with
// the owner role.
func (h *OwnerAuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if !bindAndValidate(c, &req) {
		return nil
	}
	o, err := h.Owners.GetByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return dbError(c)
	}
	if !utils.VerifyPassword(o.Password, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	tok, err := utils.NewSessionToken(h.Cfg.JWTSecret, o.ID, middleware.RoleOwner, h.Cfg.TokenTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue token"})
	}
	setSessionCookie(c, tok)
	return c.JSON(http.StatusOK, echo.Map{"message": "login successful", "owner": toOwnerProfile(o)})
}

// Logout handles POST /v1/owner/logout.
func (h *OwnerAuthHandler) Logout(c echo.Context) error {
	middleware.ClearSessionCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Profile handles GET /v1/owner/profile.
func (h *OwnerAuthHandler) Profile(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	o, err := h.Owners.GetByID(c.Request().Context(), ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "owner not found"})
		}
		return dbError(c)
	}
	return c.JSON(http.StatusOK, toOwnerProfile(o))
}

// UpdateProfile handles PATCH /v1/owner/profile.
func (h *OwnerAuthHandler) UpdateProfile(c echo.Context) error {
	ownerID, err := getUserID(c)
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
	patch := repository.OwnerPatch{Name: req.Name, Email: req.Email, Phone: req.Phone}
	if req.Password != nil {
		hash, err := utils.HashPassword(*req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to hash password"})
		}
		patch.Password = &hash
	}
	o, err := h.Owners.Update(c.Request().Context(), ownerID, patch)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields to update"})
		}
		return dbError(c)
	}
	return c.JSON(http.StatusOK, toOwnerProfile(o))
}
