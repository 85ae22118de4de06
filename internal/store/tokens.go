package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RevokeToken records that the session jti was logged out. The entry is
// kept until the token would have expired anyway.
func RevokeToken(ctx context.Context, db *sql.DB, jti string, expiresAt time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`,
		jti, formatTime(expiresAt),
	)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

// IsTokenRevoked reports whether jti was logged out.
func IsTokenRevoked(ctx context.Context, db *sql.DB, jti string) (bool, error) {
	var revoked bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = ?)`, jti,
	).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return revoked, nil
}

// PurgeRevokedTokens drops revocations of tokens that expired before now
// and returns how many were dropped.
func PurgeRevokedTokens(ctx context.Context, db *sql.DB, now time.Time) (int64, error) {
	res, err := db.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < ?`, formatTime(now),
	)
	if err != nil {
		return 0, fmt.Errorf("purging revoked tokens: %w", err)
	}
	return res.RowsAffected()
}

// Tokens adapts the revocation functions to api.Revocations.
type Tokens struct {
	DB *sql.DB
}

// NewTokens returns a revocation list on db.
func NewTokens(db *sql.DB) *Tokens {
	return &Tokens{DB: db}
}

func (s *Tokens) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	return RevokeToken(ctx, s.DB, jti, expiresAt)
}

func (s *Tokens) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return IsTokenRevoked(ctx, s.DB, jti)
}

// Purge drops revocations that no longer matter.
func (s *Tokens) Purge(ctx context.Context) (int64, error) {
	return PurgeRevokedTokens(ctx, s.DB, time.Now())
}
