package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/devconnector/internal/application/service"
	"github.com/khoahotran/devconnector/pkg/apperror"
	"github.com/khoahotran/devconnector/pkg/logger"
)

type stubLookup struct {
	body []byte
	err  error
	got  string
}

func (s *stubLookup) ListRepos(_ context.Context, username string) ([]byte, error) {
	s.got = username
	return s.body, s.err
}

func TestListRepos_RelaysBody(t *testing.T) {
	lookup := &stubLookup{body: []byte(`[{"name":"hello-world"}]`)}
	uc := NewReposUseCase(lookup, logger.NewNopLogger())

	out, err := uc.Execute(context.Background(), ListReposInput{Username: " octocat "})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"hello-world"}]`, string(out.Body))
	assert.Equal(t, "octocat", lookup.got)
}

func TestListRepos_NoProfile(t *testing.T) {
	lookup := &stubLookup{err: fmt.Errorf("%w: status 404", service.ErrNoExternalProfile)}
	uc := NewReposUseCase(lookup, logger.NewNopLogger())

	_, err := uc.Execute(context.Background(), ListReposInput{Username: "ghost"})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperror.ToHTTPStatus(err))

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "No Github profile found", appErr.ToJSON()["msg"])
}

func TestListRepos_TransportError(t *testing.T) {
	uc := NewReposUseCase(&stubLookup{err: errors.New("dial tcp: timeout")}, logger.NewNopLogger())

	_, err := uc.Execute(context.Background(), ListReposInput{Username: "octocat"})
	assert.Equal(t, http.StatusInternalServerError, apperror.ToHTTPStatus(err))
}
