package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		want  error
	}{
		{"user@example.com", nil},
		{"", ErrEmailRequired},
		{"not-an-email", ErrEmailInvalid},
		{"Name <user@example.com>", ErrEmailInvalid},
		{strings.Repeat("a", 250) + "@x.io", ErrEmailTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.ErrorIs(t, ValidateEmail(tt.email), tt.want)
			if tt.want == nil {
				assert.NoError(t, ValidateEmail(tt.email))
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("correct horse battery"))
	assert.ErrorIs(t, ValidatePassword("short"), ErrPasswordTooShort)
	assert.ErrorIs(t, ValidatePassword(strings.Repeat("x", 73)), ErrPasswordTooLong)
	assert.ErrorIs(t, ValidatePassword("MyPassword-2024"), ErrPasswordCommon)
}

func TestValidateActivity(t *testing.T) {
	assert.NoError(t, ValidateActivity("transport", "drove 10 km"))
	assert.ErrorIs(t, ValidateActivity("", "drove 10 km"), ErrMissingCategory)
	assert.ErrorIs(t, ValidateActivity("transport", "   "), ErrMissingDescription)
	assert.ErrorIs(t, ValidateActivity("gardening", "planted"), ErrUnknownCategory)

	assert.True(t, IsMissingInformation(ValidateActivity("", "")))
	assert.False(t, IsMissingInformation(ValidateActivity("gardening", "planted")))
}
