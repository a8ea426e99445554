package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/devconnector/pkg/apperror"
)

type sample struct {
	Status       string   `json:"status" validate:"required"`
	Skills       []string `json:"skills" validate:"required,min=1"`
	FieldOfStudy string   `json:"fieldofstudy" label:"Field of study" validate:"required"`
	From         string   `json:"from" validate:"required,date"`
	Bio          string   `json:"bio" validate:"max=10"`
}

func TestValidateStruct_OK(t *testing.T) {
	sv := NewStructValidator()
	err := sv.ValidateStruct(&sample{
		Status: "Dev", Skills: []string{"Go"}, FieldOfStudy: "CS", From: "2020-01-01",
	})
	assert.NoError(t, err)
}

func TestValidateStruct_FieldErrors(t *testing.T) {
	sv := NewStructValidator()
	err := sv.ValidateStruct(&sample{Skills: []string{}, From: "yesterday", Bio: "far too long for this"})
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.ErrorIs(t, err, apperror.ErrValidation)

	byParam := map[string]string{}
	for _, f := range appErr.Fields {
		byParam[f.Param] = f.Msg
		assert.Equal(t, "body", f.Location)
	}
	assert.Equal(t, "Status is required", byParam["status"])
	assert.Equal(t, "Skills is required", byParam["skills"])
	assert.Equal(t, "Field of study is required", byParam["fieldofstudy"])
	assert.Equal(t, "From must be a valid date", byParam["from"])
	assert.Equal(t, "Bio must be at most 10 characters", byParam["bio"])
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2020-06-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2020-06-01T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 6, 1, 8, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("01/06/2020")
	assert.Error(t, err)
}
