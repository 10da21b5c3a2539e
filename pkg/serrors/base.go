package serrors

import "fmt"

// BaseError is the standard error shape exchanged between services and
// controllers: a stable machine code plus a human-readable message.
type BaseError struct {
	Code         string
	Message      string
	Details      string
	TemplateData map[string]string
}

func NewError(code, message, details string) *BaseError {
	return &BaseError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

func (e *BaseError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BaseError) WithTemplateData(data map[string]string) *BaseError {
	c := *e
	c.TemplateData = data
	return &c
}

func (e *BaseError) Is(target error) bool {
	other, ok := target.(*BaseError)
	if !ok {
		return false
	}
	return e.Code == other.Code
}
