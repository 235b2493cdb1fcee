package revokedtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/simkeeper/internal/server/models"
)

// Repository stores the ids of access tokens that were logged out before
// their natural expiry.
type Repository interface {
	Create(ctx context.Context, token *models.RevokedToken) error
	Exists(ctx context.Context, tokenID string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
