package fp

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validator rejects a value with a ValidationError or ValidationErrors.
type Validator[T any] func(T) error

// ValidationError is one rejected field. Field uses the JSON path of the
// request, e.g. sender.company_name.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is the full set of rejected fields of one request.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// HasErrors reports whether any field was rejected.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validate runs every validator against value. The result fails with the
// combined ValidationErrors when any of them reject it.
func Validate[T any](value T, validators ...Validator[T]) Result[T] {
	var errs ValidationErrors
	for _, v := range validators {
		errs = errs.add("", v(value))
	}
	if errs.HasErrors() {
		return Fail[T](errs)
	}
	return Ok(value)
}

// add appends err under prefix, flattening nested ValidationErrors.
func (e ValidationErrors) add(prefix string, err error) ValidationErrors {
	switch v := err.(type) {
	case nil:
		return e
	case ValidationError:
		return append(e, ValidationError{Field: join(prefix, v.Field), Message: v.Message})
	case ValidationErrors:
		for _, ve := range v {
			e = e.add(prefix, ve)
		}
		return e
	default:
		return append(e, ValidationError{Field: prefix, Message: err.Error()})
	}
}

// Required rejects blank strings.
func Required(field string) Validator[string] {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return ValidationError{Field: field, Message: "is required"}
		}
		return nil
	}
}

// MaxLength counts runes, not bytes.
func MaxLength(field string, max int) Validator[string] {
	return func(s string) error {
		if utf8.RuneCountInString(s) > max {
			return ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", max)}
		}
		return nil
	}
}

// Pattern rejects strings that do not match pattern.
func Pattern(field string, pattern *regexp.Regexp, message string) Validator[string] {
	return func(s string) error {
		if pattern == nil || !pattern.MatchString(s) {
			return ValidationError{Field: field, Message: message}
		}
		return nil
	}
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Email checks the address shape only.
func Email(field string) Validator[string] {
	return Pattern(field, emailPattern, "must be a valid email address")
}

// Range is inclusive on both ends.
func Range[T int | int32 | int64 | float32 | float64](field string, min, max T) Validator[T] {
	return func(n T) error {
		if n < min || n > max {
			return ValidationError{Field: field, Message: fmt.Sprintf("must be between %v and %v", min, max)}
		}
		return nil
	}
}

// OneOf accepts only the listed values.
func OneOf[T comparable](field string, allowed ...T) Validator[T] {
	return func(v T) error {
		for _, a := range allowed {
			if v == a {
				return nil
			}
		}
		return ValidationError{Field: field, Message: "is not a valid value"}
	}
}

// Optional skips v for empty strings.
func Optional(v Validator[string]) Validator[string] {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		return v(s)
	}
}

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// HexColor validates a #RRGGBB color.
func HexColor(field string) Validator[string] {
	return Pattern(field, hexColorPattern, "must be a #RRGGBB color")
}

// Each runs v on every element and prefixes failing fields with their index,
// e.g. items[2].service_name.
func Each[T any](field string, v Validator[T]) Validator[[]T] {
	return func(values []T) error {
		var errs ValidationErrors
		for i, value := range values {
			errs = errs.add(fmt.Sprintf("%s[%d]", field, i), v(value))
		}
		if errs.HasErrors() {
			return errs
		}
		return nil
	}
}

func join(prefix, field string) string {
	if prefix == "" {
		return field
	}
	if field == "" {
		return prefix
	}
	return prefix + "." + field
}
