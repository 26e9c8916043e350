package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

// Limits on user-supplied text, counted in runes.
const (
	MaxGroupNameLength = 100
	MaxMessageLength   = 5000
	MaxUserNameLength  = 50
)

// validatorInstance is a package-level validator instance.
// Using a single instance is more efficient as it caches struct information.
var validatorInstance = validator.New()

func init() {
	// notblank already exists upstream, but it accepts strings made only of
	// control characters, which clients happily send.
	_ = validatorInstance.RegisterValidation("printable", validatePrintable)
}

func validatePrintable(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	for _, r := range s {
		if !unicode.IsControl(r) && !unicode.IsSpace(r) {
			return true
		}
	}
	return false
}

// Validator exposes the shared validator so other packages register their
// request structs against the same cache.
func Validator() *validator.Validate {
	return validatorInstance
}

// Validate runs struct validation and folds validator errors into
// ErrInvalidInput, keeping the field detail in the message.
func Validate(v any) error {
	err := validatorInstance.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

// NormalizeName trims surrounding whitespace and converts to NFC so that
// visually identical names compare equal.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

type groupName struct {
	Name string `validate:"required,printable,max=100"`
}

// ValidateGroupName normalizes and checks a group name.
func ValidateGroupName(name string) (string, error) {
	n := NormalizeName(name)
	if err := Validate(groupName{Name: n}); err != nil {
		return "", err
	}
	return n, nil
}
