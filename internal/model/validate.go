package model

import (
	"fmt"
	"math"
	"net/mail"
	"regexp"
	"strings"
	"time"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateEntry checks entry values against the rules of fields, descending
// into layout children. It returns a *ValidationError if any rule fails.
func ValidateEntry(fields []*Field, e *Entry) error {
	var ve ValidationError
	validateFields(fields, e.Values, &ve)
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

func validateFields(fields []*Field, values map[string]any, ve *ValidationError) {
	for _, f := range fields {
		if f.Kind().IsLayout() {
			validateFields(f.Children(), values, ve)
			continue
		}
		if err := validateValue(f, values[f.Name()]); err != nil {
			ve.Errors = append(ve.Errors, FieldError{Field: f.Name(), Message: err.Error()})
		}
	}
}

func validateValue(f *Field, val any) error {
	rules := f.Validation()
	if val == nil || val == "" {
		if rules.Required {
			return fmt.Errorf("is required")
		}
		return nil
	}
	if err := validateKind(f.Kind(), val); err != nil {
		return err
	}
	if s, ok := val.(string); ok {
		n := len([]rune(s))
		if n < rules.MinLength {
			return fmt.Errorf("must be at least %d characters", rules.MinLength)
		}
		if rules.MaxLength > 0 && n > rules.MaxLength {
			return fmt.Errorf("must be %d characters or fewer", rules.MaxLength)
		}
		if rules.Pattern != "" {
			re, err := regexp.Compile(rules.Pattern)
			if err != nil {
				return fmt.Errorf("invalid pattern %q: %v", rules.Pattern, err)
			}
			if !re.MatchString(s) {
				return fmt.Errorf("must match %s", rules.Pattern)
			}
		}
	}
	if rules.Validator != nil {
		return rules.Validator(val)
	}
	return nil
}

func validateKind(kind Kind, val any) error {
	switch kind {
	case KindNumber:
		n, ok := val.(float64)
		if !ok {
			if _, isInt := val.(int); isInt {
				return nil
			}
			return fmt.Errorf("must be an integer")
		}
		if n != math.Trunc(n) {
			return fmt.Errorf("must be an integer")
		}
	case KindFloat:
		switch val.(type) {
		case float64, int:
		default:
			return fmt.Errorf("must be a number")
		}
	case KindBoolean:
		if _, ok := val.(bool); !ok {
			return fmt.Errorf("must be a boolean")
		}
	case KindEmail:
		s, ok := val.(string)
		if !ok {
			return fmt.Errorf("must be a string")
		}
		if _, err := mail.ParseAddress(s); err != nil {
			return fmt.Errorf("must be an email address")
		}
	case KindDateTime:
		switch v := val.(type) {
		case time.Time:
		case string:
			if _, err := time.Parse(time.RFC3339, v); err != nil {
				return fmt.Errorf("must be an RFC 3339 timestamp string")
			}
		default:
			return fmt.Errorf("must be an RFC 3339 timestamp string")
		}
	case KindChoices, KindReferenceMany:
		if _, ok := asSlice(val); !ok {
			return fmt.Errorf("must be an array")
		}
	}
	return nil
}
