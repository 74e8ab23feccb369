// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/GarciaKevinFab/academico-sync/internal/errors"
)

var (
	// periodRegex matches academic period identifiers like "2026-I" or "2026-II".
	periodRegex = regexp.MustCompile(`^[0-9]{4}-(I|II|III)$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// AcademicPeriod validates period identifiers in the "YYYY-{I,II,III}" format
// used across the school system and the ministry API.
var AcademicPeriod = validation.NewStringRuleWithError(
	func(s string) bool {
		return periodRegex.MatchString(s)
	},
	validation.NewError("validation_academic_period", "must be a valid academic period (e.g. 2026-I)"),
)
