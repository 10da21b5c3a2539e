package serrors

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidationErrors maps struct field names to their failure.
type ValidationErrors map[string]*BaseError

// ProcessValidatorErrors converts go-playground validator failures into
// coded errors. fieldLabel resolves a struct field name to the label
// shown to the user; an empty label falls back to the field name.
func ProcessValidatorErrors(errs validator.ValidationErrors, fieldLabel func(field string) string) ValidationErrors {
	out := make(ValidationErrors, len(errs))
	for _, fe := range errs {
		label := ""
		if fieldLabel != nil {
			label = fieldLabel(fe.Field())
		}
		if label == "" {
			label = fe.Field()
		}
		out[fe.Field()] = validationError(fe.Tag(), label)
	}
	return out
}

func validationError(tag, label string) *BaseError {
	switch tag {
	case "required":
		return NewError("VALIDATION_REQUIRED", fmt.Sprintf("%s is required", label), "")
	case "email":
		return NewError("VALIDATION_EMAIL", fmt.Sprintf("%s must be a valid e-mail address", label), "")
	case "min":
		return NewError("VALIDATION_MIN", fmt.Sprintf("%s is too short", label), "")
	case "max":
		return NewError("VALIDATION_MAX", fmt.Sprintf("%s is too long", label), "")
	default:
		return NewError("VALIDATION_FAILED", fmt.Sprintf("%s is invalid", label), tag)
	}
}

// Messages flattens validation errors into plain field->message pairs.
func (v ValidationErrors) Messages() map[string]string {
	out := make(map[string]string, len(v))
	for field, err := range v {
		out[field] = err.Message
	}
	return out
}
