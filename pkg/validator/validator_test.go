package validator

import (
	"errors"
	"testing"

	"github.com/Dnl30T/Avisos-FOA/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=student staff"`
}

func TestToAppError(t *testing.T) {
	err := New().Struct(signup{Email: "nope", Password: "short", Role: "janitor"})
	require.Error(t, err)

	appErr := ToAppError(err)
	assert.ErrorIs(t, appErr, apperror.ErrInvalidInput)

	var ve *apperror.ValidationError
	require.True(t, errors.As(appErr, &ve))
	require.Len(t, ve.Fields, 3)
	assert.Equal(t, apperror.FieldError{Field: "email", Message: "email must be a valid email"}, ve.Fields[0])
	assert.Equal(t, apperror.FieldError{Field: "password", Message: "password must be at least 8 characters"}, ve.Fields[1])
	assert.Equal(t, apperror.FieldError{Field: "role", Message: "role must be one of: student, staff"}, ve.Fields[2])
}

func TestToAppError_NonValidation(t *testing.T) {
	appErr := ToAppError(errors.New("unexpected EOF"))

	var ve *apperror.ValidationError
	require.True(t, errors.As(appErr, &ve))
	assert.Equal(t, []apperror.FieldError{{Field: "body", Message: "unexpected EOF"}}, ve.Fields)
}
