package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/forkspot/restaurant-reservation/internal/utils"
)

// VerificationRepo stores single-use email verification tokens. The
// token itself is a random UUID handed to the user out of band; the
// verify endpoint consumes it and flips users.confirmed_user.
type VerificationRepo struct{ DB *sql.DB }

func NewVerificationRepo(db *sql.DB) *VerificationRepo { return &VerificationRepo{DB: db} }

// Create stores a verification token for the user. Re-registering a
// token for the same user replaces the previous one.
func (r *VerificationRepo) Create(ctx context.Context, userID uint64, token string, ttl time.Duration) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO email_verifications (user_id, token, expires_at)
		 VALUES ($1, $2, NOW() + $3 * INTERVAL '1 second')
		 ON CONFLICT (user_id) DO UPDATE
		 SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at`,
		userID, token, int64(ttl.Seconds()))
	return err
}

// Consume looks up a verification token, deletes it and returns the
// user it belonged to. An expired token is deleted too but reported as
// ErrTokenExpired so the handler can prompt a re-send.
func (r *VerificationRepo) Consume(ctx context.Context, token string) (uint64, error) {
	var userID uint64
	var expiresAt time.Time
	err := r.DB.QueryRowContext(ctx,
		`DELETE FROM email_verifications WHERE token = $1 RETURNING user_id, expires_at`,
		token).Scan(&userID, &expiresAt)
	if err != nil {
		return 0, err
	}
	if time.Now().After(expiresAt) {
		return 0, ErrTokenExpired
	}
	return userID, nil
}

// Password reset audiences. Each audience has its own table so a reset
// token issued for a diner can never touch an owner account.
const (
	ResetAudienceUser  = "user"
	ResetAudienceOwner = "owner"
)

// PasswordResetRepo stores hashed password reset tokens for one
// audience (diners or owners). The raw token never touches the
// database; callers hash it with utils.HashResetToken.
type PasswordResetRepo struct {
	DB    *sql.DB
	table string
}

// NewPasswordResetRepo returns a reset repo bound to the audience's
// table. The audience string must be one of the constants above; any
// other value falls back to the user table.
func NewPasswordResetRepo(db *sql.DB, audience string) *PasswordResetRepo {
	table := "password_resets"
	if audience == ResetAudienceOwner {
		table = "password_resets_owners"
	}
	return &PasswordResetRepo{DB: db, table: table}
}

// Create stores the hash of a reset token, replacing any previous token
// for the same account.
func (r *PasswordResetRepo) Create(ctx context.Context, accountID uint64, rawToken string, ttl time.Duration) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO `+r.table+` (account_id, token_hash, expires_at)
		 VALUES ($1, $2, NOW() + $3 * INTERVAL '1 second')
		 ON CONFLICT (account_id) DO UPDATE
		 SET token_hash = EXCLUDED.token_hash, expires_at = EXCLUDED.expires_at`,
		accountID, utils.HashResetToken(rawToken), int64(ttl.Seconds()))
	return err
}

// Validate checks a raw reset token without consuming it, so a reset
// form can verify the link before asking for the new password.
func (r *PasswordResetRepo) Validate(ctx context.Context, rawToken string) error {
	var expiresAt time.Time
	err := r.DB.QueryRowContext(ctx,
		`SELECT expires_at FROM `+r.table+` WHERE token_hash = $1`,
		utils.HashResetToken(rawToken)).Scan(&expiresAt)
	if err != nil {
		return err
	}
	if time.Now().After(expiresAt) {
		return ErrTokenExpired
	}
	return nil
}

// Consume validates a raw reset token, deletes it and returns the
// account it belongs to. Expired tokens are removed and reported as
// ErrTokenExpired.
func (r *PasswordResetRepo) Consume(ctx context.Context, rawToken string) (uint64, error) {
	var accountID uint64
	var expiresAt time.Time
	err := r.DB.QueryRowContext(ctx,
		`DELETE FROM `+r.table+` WHERE token_hash = $1 RETURNING account_id, expires_at`,
		utils.HashResetToken(rawToken)).Scan(&accountID, &expiresAt)
	if err != nil {
		return 0, err
	}
	if time.Now().After(expiresAt) {
		return 0, ErrTokenExpired
	}
	return accountID, nil
}
