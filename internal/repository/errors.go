// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver errors. Missing rows are reported as sql.ErrNoRows
// straight from database/sql; everything below covers business-rule
// failures that a plain "no rows" cannot express.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers should translate this into an
// HTTP 403 response. Ownership checks deliberately return the same
// generic denial whether the resource exists or not.
var ErrForbidden = errors.New("forbidden")

// ErrEmailExists is returned when registering with an email address
// that is already taken. Translates to HTTP 400.
var ErrEmailExists = errors.New("email already exists")

// ErrAlreadyPurchased is returned when a user attempts to purchase a
// coupon they already own. Translates to HTTP 409.
var ErrAlreadyPurchased = errors.New("coupon already purchased")

// ErrInsufficientPoints is returned when a user's loyalty point balance
// cannot cover a coupon's required points. Translates to HTTP 400.
var ErrInsufficientPoints = errors.New("insufficient loyalty points")

// ErrCouponUnavailable is returned when a reservation references a
// coupon the user does not hold, or one that is already locked by a
// pending reservation or spent. Translates to HTTP 400.
var ErrCouponUnavailable = errors.New("coupon unavailable")

// ErrInvalidReference is returned when a reservation references a
// special menu or coupon belonging to a different restaurant. The
// conditional insert catches this atomically. Translates to HTTP 400.
var ErrInvalidReference = errors.New("invalid special menu or coupon reference")

// ErrTokenExpired is returned when an email verification or password
// reset token exists but is past its expiry. Translates to HTTP 400.
var ErrTokenExpired = errors.New("token expired")
