// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationConfirmedEvent is published when an owner confirms a
// reservation. It carries enough denormalized detail for downstream
// consumers to log or notify without querying the primary database.
type ReservationConfirmedEvent struct {
	ReservationID  uint64  `json:"reservation_id"`
	UserID         uint64  `json:"user_id"`
	RestaurantID   uint64  `json:"restaurant_id"`
	RestaurantName string  `json:"restaurant_name"`
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	GuestCount     int     `json:"guest_count"`
	SpecialMenuID  *uint64 `json:"special_menu_id,omitempty"`
	CouponID       *uint64 `json:"coupon_id,omitempty"`
	ConfirmedAt    string  `json:"confirmed_at"`
}

// UserRegisteredEvent is published after a successful registration. The
// verification token is included so a mail worker can build the
// verification link; the API itself never sends email.
type UserRegisteredEvent struct {
	UserID            uint64 `json:"user_id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	VerificationToken string `json:"verification_token"`
	RegisteredAt      string `json:"registered_at"`
}
