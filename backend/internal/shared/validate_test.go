package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Email string  `json:"email" validate:"required,email"`
	Role  string  `json:"role" validate:"required,oneof=student admin"`
	Score float64 `json:"score" validate:"gte=0,lte=100"`
}

func TestValidate(t *testing.T) {
	assert.Nil(t, Validate(sampleRequest{Email: "a@b.edu", Role: "student", Score: 50}))

	errs := Validate(sampleRequest{Email: "nope", Role: "faculty", Score: 120})
	require.Len(t, errs, 3)

	fields := map[string]string{}
	for _, e := range errs {
		fields[e.Field] = e.Message
	}
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Contains(t, fields["role"], "student admin")
	assert.Equal(t, "must be at most 100", fields["score"])

	assert.Contains(t, ValidationErrorsString(errs), "email: must be a valid email address")
}

func TestValidateInput_WrapsInvalidInput(t *testing.T) {
	type req struct {
		Email string `json:"email" validate:"required,email"`
	}

	err := ValidateInput(req{Email: "nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)

	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "email", inputErr.Fields[0].Field)
	assert.Contains(t, err.Error(), "email: must be a valid email address")

	assert.NoError(t, ValidateInput(req{Email: "ana@plpasig.edu.ph"}))
}
