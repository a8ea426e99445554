package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Avatar       string    `json:"avatar"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"date"`
}

// Summary is the part of a user joined into profile responses.
type Summary struct {
	ID     uuid.UUID `json:"_id"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar"`
}

func (u *User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

// Repository is read-mostly: users are registered elsewhere and only
// removed here as the last step of an account deletion.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
