// Package validation provides small form-input checks shared by the
// wizard and history search. A validation failure means missing or
// malformed input; wrong credentials are the callers' business.
package validation

import "strings"

type Result struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Check accumulates field errors for one user action.
type Check struct {
	errors []FieldError
}

func NewCheck() *Check {
	return &Check{}
}

// Required records an error when value is blank after trimming.
func (c *Check) Required(field, value string) *Check {
	if strings.TrimSpace(value) == "" {
		c.errors = append(c.errors, FieldError{
			Field:   field,
			Message: "required field missing",
			Code:    "REQUIRED_FIELD_MISSING",
		})
	}
	return c
}

// MinLength records an error when value is shorter than min runes.
func (c *Check) MinLength(field, value string, min int) *Check {
	if len([]rune(value)) < min {
		c.errors = append(c.errors, FieldError{
			Field:   field,
			Message: "value shorter than minimum length",
			Code:    "MIN_LENGTH",
		})
	}
	return c
}

func (c *Check) Result() *Result {
	return &Result{
		Valid:  len(c.errors) == 0,
		Errors: c.errors,
	}
}

// FirstField returns the field name of the first recorded error.
func (c *Check) FirstField() string {
	if len(c.errors) == 0 {
		return ""
	}
	return c.errors[0].Field
}

func (c *Check) Valid() bool {
	return len(c.errors) == 0
}
