package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RevocationStore remembers users whose outstanding tokens must be refused.
type RevocationStore interface {
	Revoke(ctx context.Context, userID uuid.UUID, ttl time.Duration) error
	IsRevoked(ctx context.Context, userID uuid.UUID) (bool, error)
}
