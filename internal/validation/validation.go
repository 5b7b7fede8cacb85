// Package validation checks user-submitted recipe fields.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLength = 200
	MaxBodyLength  = 20000
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Field + " " + e.Message
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// First adds the first non-nil error, so one field reports one problem.
func (c *Collector) First(errs ...*ValidationError) {
	for _, err := range errs {
		if err != nil {
			c.Add(err)
			return
		}
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// ValidateUTF8 returns an error if the value is not valid UTF-8.
func ValidateUTF8(field, value string) *ValidationError {
	if !utf8.ValidString(value) {
		return &ValidationError{
			Field:   field,
			Message: "must be valid UTF-8",
		}
	}
	return nil
}

// ValidateNoNullBytes returns an error if the value contains null bytes.
func ValidateNoNullBytes(field, value string) *ValidationError {
	if strings.Contains(value, "\x00") {
		return &ValidationError{
			Field:   field,
			Message: "must not contain null bytes",
		}
	}
	return nil
}

// ValidateMaxLength returns an error if the value exceeds max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", max),
		}
	}
	return nil
}

// ValidateRequired returns an error if the value is empty or whitespace-only.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateText runs the checks every free-text recipe field shares.
func ValidateText(c *Collector, field, value string, max int) {
	c.First(
		ValidateRequired(field, value),
		ValidateUTF8(field, value),
		ValidateNoNullBytes(field, value),
		ValidateMaxLength(field, value, max),
	)
}

// ValidateRecipe validates the fields submitted on create and update.
func ValidateRecipe(title, ingredients, method string) []ValidationError {
	var c Collector
	ValidateText(&c, "title", title, MaxTitleLength)
	ValidateText(&c, "ingredients", ingredients, MaxBodyLength)
	ValidateText(&c, "method", method, MaxBodyLength)
	if !c.HasErrors() {
		return nil
	}
	return c.Errors()
}
