package model

import "time"

// User represents a diner account as stored in the `users` table.
// The json tags are omitted here because these structs are primarily
// used internally by the repository layer; handlers define separate
// response types with appropriate JSON tags.
//
// Fields:
//  ID            – primary key identifier of the user.
//  Name          – display name.
//  Email         – unique email address.
//  Password      – bcrypt hashed password.
//  Phone         – optional phone number.
//  LoyaltyPoints – non-negative loyalty point balance; debited by coupon
//                  purchases and late-cancellation penalties.
//  ConfirmedUser – whether the email address has been verified.  Unconfirmed
//                  accounts cannot create reservations.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type User struct {
    ID            uint64    // users.id
    Name          string    // users.name
    Email         string    // users.email
    Password      string    // users.password (bcrypt hash)
    Phone         *string   // users.phone (nullable)
    LoyaltyPoints int       // users.loyalty_points
    ConfirmedUser bool      // users.confirmed_user
    CreatedAt     time.Time // users.created_at
    UpdatedAt     time.Time // users.updated_at
}

// EmailVerification models a row in the `email_verifications` table.  A
// token is issued at registration and consumed by the verify-email
// endpoint, which flips users.confirmed_user.
type EmailVerification struct {
    ID        uint64    // email_verifications.id
    UserID    uint64    // email_verifications.user_id
    Token     string    // email_verifications.token
    ExpiresAt time.Time // email_verifications.expires_at
    CreatedAt time.Time // email_verifications.created_at
}

// PasswordReset models a row in the `password_resets` table (and its
// owner-side twin `password_resets_owners`).  Only the SHA-256 hash of
// the reset token is stored.
type PasswordReset struct {
    ID        uint64    // password_resets.id
    AccountID uint64    // password_resets.account_id
    TokenHash string    // password_resets.token_hash
    ExpiresAt time.Time // password_resets.expires_at
    CreatedAt time.Time // password_resets.created_at
}
