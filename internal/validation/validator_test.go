package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "habitsAPI/internal/errors"
)

type sample struct {
	Name     string `json:"name" validate:"notblank,max=10"`
	Platform string `json:"platform" validate:"required,oneof=ios android web"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
}

func TestValidatePasses(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(sample{Name: "Run", Platform: "ios"}))
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Validate(sample{Name: "   ", Platform: "blackberry", Email: "nope"})
	require.Error(t, err)

	var domainErr *apperrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeValidation, domainErr.Code)

	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["name"])
	assert.Equal(t, "must be one of: ios android web", details["platform"])
	assert.Equal(t, "must be a valid email address", details["email"])
}

func TestValidateMax(t *testing.T) {
	v := New()

	err := v.Validate(sample{Name: "much too long a name", Platform: "web"})
	var domainErr *apperrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "must not exceed 10 characters", domainErr.Details.(map[string]string)["name"])
}

func TestMustRegisterPanicsOnBadTag(t *testing.T) {
	v := validator.New()
	assert.Panics(t, func() {
		mustRegister(v, "", func(validator.FieldLevel) bool { return true })
	})
	assert.NotPanics(t, func() { New() })
}
