package usecases

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// FieldName converts a struct field name such as ConfirmPassword into the
// form key confirm_password.
func FieldName(fe validator.FieldError) string {
	return snake(fe.Field())
}

// FieldMessage renders a user-facing message for a failed validation tag.
func FieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "min":
		return fmt.Sprintf("Must be at least %s characters long.", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters long.", fe.Param())
	case "eqfield":
		return fmt.Sprintf("Field must be equal to %s.", strings.ReplaceAll(snake(fe.Param()), "_", " "))
	default:
		return "Invalid value."
	}
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
