package validation

import (
	"errors"
	"strings"

	"github.com/templui/ecoscan/internal/emission"
)

var (
	ErrMissingCategory    = errors.New("please select a category")
	ErrMissingDescription = errors.New("please describe the activity")
	ErrUnknownCategory    = errors.New("unknown category")
)

// ValidateActivity checks the log-activity form. Both fields are required and
// the category must be one of the known categories.
func ValidateActivity(category, description string) error {
	if strings.TrimSpace(category) == "" {
		return ErrMissingCategory
	}
	if strings.TrimSpace(description) == "" {
		return ErrMissingDescription
	}
	if _, ok := emission.Lookup(category); !ok {
		return ErrUnknownCategory
	}
	return nil
}

// IsMissingInformation reports whether err means a required field was left empty.
func IsMissingInformation(err error) bool {
	return errors.Is(err, ErrMissingCategory) || errors.Is(err, ErrMissingDescription)
}
