package model

import "time"

// Reservation status values.  Pending reservations move to confirmed or
// cancelled; both are terminal.  Seated and completed are accepted by
// validation for forward compatibility but no handler transitions into
// them yet.
const (
    ReservationPending   = "pending"
    ReservationConfirmed = "confirmed"
    ReservationCancelled = "cancelled"
    ReservationSeated    = "seated"
    ReservationCompleted = "completed"
)

// ValidReservationStatus reports whether s is one of the declared
// reservation status values.
func ValidReservationStatus(s string) bool {
    switch s {
    case ReservationPending, ReservationConfirmed, ReservationCancelled,
        ReservationSeated, ReservationCompleted:
        return true
    }
    return false
}

// Reservation records a user's booking at a restaurant.  It may
// optionally reference a special menu and a purchased coupon; both must
// belong to the same restaurant as the reservation itself.
//
// Fields:
//  ID                 – primary key identifier.
//  UserID             – user who made the reservation.
//  RestaurantID       – restaurant being booked.
//  Date               – reservation date (date portion only).
//  Time               – reservation time of day, "HH:MM:SS".
//  GuestCount         – number of guests.
//  Status             – state of the reservation (see constants above).
//  SpecialMenuID      – optional special menu chosen for the visit.
//  CouponID           – optional coupon applied to the visit; locked while
//                       the reservation is pending and spent on confirm.
//  CancellationReason – reason supplied when cancelling (nullable).
//  ReservationNotes   – free-form notes from the diner (nullable).
//  CreatedAt          – creation timestamp.
//  UpdatedAt          – last update timestamp.
type Reservation struct {
    ID                 uint64    // reservations.id
    UserID             uint64    // reservations.user_id
    RestaurantID       uint64    // reservations.restaurant_id
    Date               time.Time // reservations.date
    Time               string    // reservations.time
    GuestCount         int       // reservations.guest_count
    Status             string    // reservations.status
    SpecialMenuID      *uint64   // reservations.special_menu_id (nullable)
    CouponID           *uint64   // reservations.coupon_id (nullable)
    CancellationReason *string   // reservations.cancellation_reason (nullable)
    ReservationNotes   *string   // reservations.reservation_notes (nullable)
    CreatedAt          time.Time // reservations.created_at
    UpdatedAt          time.Time // reservations.updated_at
}
