package post

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Post is authored by a user. This service never creates posts; it only
// removes them when their author deletes the account.
type Post struct {
	ID        uuid.UUID `json:"_id"`
	UserID    uuid.UUID `json:"user"`
	Text      string    `json:"text"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"date"`
}

type Repository interface {
	// DeleteByUser removes every post authored by userID and returns how many went away.
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}
