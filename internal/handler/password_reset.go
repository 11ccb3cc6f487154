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
	"github.com/forkspot/restaurant-reservation/internal/repository"
	"github.com/forkspot/restaurant-reservation/internal/utils"
)

// resetAccounts abstracts the account table a reset flow operates on,
// so the same handler serves diners and owners against their separate
// tables.
type resetAccounts interface {
	IDByEmail(ctx context.Context, email string) (uint64, error)
	SetPassword(ctx context.Context, id uint64, hash string) error
}

type userResetAccounts struct{ repo *repository.UserRepo }

func (a userResetAccounts) IDByEmail(ctx context.Context, email string) (uint64, error) {
	u, err := a.repo.GetByEmail(ctx, email)
	return u.ID, err
}
func (a userResetAccounts) SetPassword(ctx context.Context, id uint64, hash string) error {
	return a.repo.UpdatePassword(ctx, id, hash)
}

type ownerResetAccounts struct{ repo *repository.OwnerRepo }

func (a ownerResetAccounts) IDByEmail(ctx context.Context, email string) (uint64, error) {
	o, err := a.repo.GetByEmail(ctx, email)
	return o.ID, err
}
func (a ownerResetAccounts) SetPassword(ctx context.Context, id uint64, hash string) error {
	return a.repo.UpdatePassword(ctx, id, hash)
}

// PasswordResetHandler implements the three-step reset flow (request,
// validate, reset) for one audience. Construct one per audience with
// the matching reset repo and account adapter.
type PasswordResetHandler struct {
	Resets   *repository.PasswordResetRepo
	Accounts resetAccounts
	Cfg      config.Config
}

// NewUserPasswordResetHandler wires the reset flow for diner accounts.
func NewUserPasswordResetHandler(resets *repository.PasswordResetRepo, users *repository.UserRepo, cfg config.Config) *PasswordResetHandler {
	if resets == nil || users == nil {
		panic("nil repository passed to NewUserPasswordResetHandler")
	}
	return &PasswordResetHandler{Resets: resets, Accounts: userResetAccounts{users}, Cfg: cfg}
}

// NewOwnerPasswordResetHandler wires the reset flow for owner accounts.
func NewOwnerPasswordResetHandler(resets *repository.PasswordResetRepo, owners *repository.OwnerRepo, cfg config.Config) *PasswordResetHandler {
	if resets == nil || owners == nil {
		panic("nil repository passed to NewOwnerPasswordResetHandler")
	}
	return &PasswordResetHandler{Resets: resets, Accounts: ownerResetAccounts{owners}, Cfg: cfg}
}

// Request handles POST password-reset/request. The response is the
// same whether or not the email exists, so the endpoint cannot be used
// to probe for accounts. The raw token is returned to the caller only
// through the downstream mail worker, never in this response.
func (h *PasswordResetHandler) Request(c echo.Context) error {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if !bindAndValidate(c, &req) {
		return nil
	}
	ctx := c.Request().Context()
	accountID, err := h.Accounts.IDByEmail(ctx, req.Email)
	if err == nil {
		token := uuid.NewString()
		ttl := time.Duration(h.Cfg.ResetTTLMin) * time.Minute
		if err := h.Resets.Create(ctx, accountID, token, ttl); err != nil {
			c.Logger().Errorf("store reset token: %v", err)
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return dbError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "if the email is registered, a reset link has been sent",
	})
}

// Validate handles GET password-reset/validate?token=... without
// consuming the token.
func (h *PasswordResetHandler) Validate(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}
	err := h.Resets.Validate(c.Request().Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reset token"})
		case errors.Is(err, repository.ErrTokenExpired):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "reset token expired"})
		}
		return dbError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"valid": true})
}

// Reset handles POST password-reset. It consumes the token and stores
// the new password hash.
func (h *PasswordResetHandler) Reset(c echo.Context) error {
	var req struct {
		Token    string `json:"token" validate:"required"`
		Password string `json:"password" validate:"required,min=8,max=72"`
	}
	if !bindAndValidate(c, &req) {
		return nil
	}
	ctx := c.Request().Context()
	accountID, err := h.Resets.Consume(ctx, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reset token"})
		case errors.Is(err, repository.ErrTokenExpired):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "reset token expired"})
		}
		return dbError(c)
	}
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to hash password"})
	}
	if err := h.Accounts.SetPassword(ctx, accountID, hash); err != nil {
		return dbError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}
