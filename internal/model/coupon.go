package model

import "time"

// Coupon is a loyalty-point-funded discount offered by a restaurant.
// Editing a coupon never retroactively affects existing purchases.
// Corresponds to a row in the `coupons` table.
type Coupon struct {
    ID                 uint64    // coupons.id
    RestaurantID       uint64    // coupons.restaurant_id
    Description        string    // coupons.description
    DiscountPercentage int       // coupons.discount_percentage
    RequiredPoints     int       // coupons.required_points
    CreatedAt          time.Time // coupons.created_at
    UpdatedAt          time.Time // coupons.updated_at
}

// PurchasedCoupon is the join row recording that a user spent loyalty
// points on a coupon.  A (user, coupon) pair has at most one row.
//
// Lifecycle flags:
//  IsLocked – true while the coupon is referenced by a pending
//             reservation, preventing it from backing a second one.
//  IsUsed   – true once a reservation using the coupon was confirmed
//             by the owner; a used coupon is spent permanently.
type PurchasedCoupon struct {
    ID          uint64    // purchased_coupons.id
    UserID      uint64    // purchased_coupons.user_id
    CouponID    uint64    // purchased_coupons.coupon_id
    IsUsed      bool      // purchased_coupons.is_used
    IsLocked    bool      // purchased_coupons.is_locked
    PurchasedAt time.Time // purchased_coupons.purchased_at
}
