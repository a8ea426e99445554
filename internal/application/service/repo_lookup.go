package service

import (
	"context"
	"errors"
)

// ErrNoExternalProfile is returned when the code host answers with anything but 200.
var ErrNoExternalProfile = errors.New("no external profile")

// RepoLookup fetches the public repositories of a code-hosting account as raw JSON.
type RepoLookup interface {
	ListRepos(ctx context.Context, username string) ([]byte, error)
}
