package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestToHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NewNotFound("profile", "x"), http.StatusNotFound},
		{"invalid input", NewInvalidInput("bad id", nil), http.StatusBadRequest},
		{"validation", NewValidation([]FieldError{{Msg: "Status is required", Param: "status"}}), http.StatusBadRequest},
		{"unauthorized", NewUnauthorized("no token", nil), http.StatusUnauthorized},
		{"permission", NewPermissionDenied("nope"), http.StatusForbidden},
		{"conflict", NewConflict("profile", "user", "x"), http.StatusConflict},
		{"internal", NewInternal("db down", errors.New("boom")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("get profile: %w", NewNotFound("profile", "x")), http.StatusNotFound},
		{"override", NewNotFound("profile", "x").WithStatus(http.StatusBadRequest), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToHTTPStatus(tc.err))
		})
	}
}

func TestNotFoundAs(t *testing.T) {
	err := NotFoundAs(fmt.Errorf("wrap: %w", NewNotFound("profile", "x")), http.StatusBadRequest, "Profile not found")
	assert.Equal(t, http.StatusBadRequest, ToHTTPStatus(err))

	var appErr *AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, gin.H{"msg": "Profile not found"}, appErr.ToJSON())

	internal := NewInternal("db", nil)
	assert.Same(t, internal, NotFoundAs(internal, http.StatusBadRequest, "x"))
}

func TestToJSON(t *testing.T) {
	fields := []FieldError{{Msg: "Skills is required", Param: "skills", Location: "body"}}
	assert.Equal(t, gin.H{"errors": fields}, NewValidation(fields).ToJSON())
	assert.Equal(t, gin.H{"msg": "Server Error"}, NewInternal("secret detail", errors.New("pq: password")).ToJSON())
	assert.Equal(t, gin.H{"msg": "profile not found"}, NewNotFound("profile", "1").ToJSON())
}
