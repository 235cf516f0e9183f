package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// FieldErrors maps a json field name to a message meant for display next to that field.
type FieldErrors map[string]string

// String renders the errors in a stable order, mostly for logs.
func (fe FieldErrors) String() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

// FromError converts the result of Validate.Struct / StructPartial into FieldErrors.
// A nil error yields nil.
func FromError(err error) FieldErrors {
	if err == nil {
		return nil
	}
	out := FieldErrors{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.Field()] = message(fe)
		}
		return out
	}
	out["error"] = err.Error()
	return out
}

func message(fe validatorv10.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "alphaspace":
		return field + " must contain only letters and spaces"
	case "phone":
		return field + " must be a valid 10-digit phone number"
	case "pincode":
		return field + " must be exactly 6 digits"
	case "cardnumber":
		return field + " must be 13 to 19 digits"
	case "cardexpiry":
		return field + " must be in MM/YY format"
	case "cvv":
		return field + " must be 3 or 4 digits"
	case "accepted":
		return field + " must be accepted"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fe.Error()
	}
}
