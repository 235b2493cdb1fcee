// Package revokedtokens provides a PostgreSQL-backed list of logged out
// access tokens, keyed by the token's jti claim.
package revokedtokens

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/simkeeper/internal/dbx"
	"github.com/dmitrijs2005/simkeeper/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create records a revoked token. Revoking the same token twice is a no-op.
func (r *PostgresRepository) Create(ctx context.Context, token *models.RevokedToken) error {
	query := `
		INSERT INTO revoked_tokens (token_id, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, token.TokenID, token.UserID, token.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Exists reports whether tokenID has been revoked.
func (r *PostgresRepository) Exists(ctx context.Context, tokenID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id = $1)`

	var found bool
	if err := r.db.QueryRowContext(ctx, query, tokenID).Scan(&found); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return found, nil
}

// PurgeExpired deletes rows for tokens that would be rejected anyway and
// returns how many were removed.
func (r *PostgresRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM revoked_tokens WHERE expires_at < $1`

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
