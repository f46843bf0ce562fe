package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	playground "github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		if prev, ok := result[err.Field]; ok {
			result[err.Field] = prev + "; " + err.Message
			continue
		}
		result[err.Field] = err.Message
	}
	return result
}

// OrNil returns nil for an empty list so callers can `return errs.OrNil()`.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Date validation
func IsValidDate(dateStr string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", dateStr)
	return date, err == nil
}

// IsValidTime accepts HH:MM:SS and HH:MM.
func IsValidTime(timeStr string) (time.Time, bool) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, timeStr); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeTime rewrites a valid time of day as zero-padded HH:MM:SS so that
// plain string comparison orders times chronologically.
func NormalizeTime(timeStr string) (string, bool) {
	t, ok := IsValidTime(strings.TrimSpace(timeStr))
	if !ok {
		return "", false
	}
	return t.Format("15:04:05"), true
}

// Slice contains check
func IsInSlice(value string, slice []string) bool {
	for _, item := range slice {
		if item == value {
			return true
		}
	}
	return false
}

// Itoa converts an integer to a string.
func Itoa(i int) string {
	return strconv.Itoa(i)
}

var structValidator = newStructValidator()

func newStructValidator() *playground.Validate {
	v := playground.New(playground.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Struct runs the `validate` struct tags of s and reports failures in the
// same shape as hand-written checks.
func Struct(s interface{}) ValidationErrors {
	err := structValidator.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{Field: "request", Message: err.Error()}}
	}

	errs := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, ValidationError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return errs
}

func fieldMessage(fe playground.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "datetime":
		return fmt.Sprintf("%s must match the format %s", field, fe.Param())
	case "uuid", "uuid4", "uuid_rfc4122":
		return field + " must be a valid UUID"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "hexcolor":
		return field + " must be a hex color such as #1e88e5"
	case "dive":
		return field + " contains an invalid element"
	default:
		return fmt.Sprintf("%s failed the %s rule", field, fe.Tag())
	}
}

// Var checks a single value against tag, reporting failures under field.
func Var(field string, value interface{}, tag string) ValidationErrors {
	err := structValidator.Var(value, tag)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{Field: field, Message: err.Error()}}
	}

	errs := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg := fieldMessage(fe)
		// Var errors carry no field name.
		msg = field + strings.TrimPrefix(msg, fe.Field())
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}
	return errs
}
