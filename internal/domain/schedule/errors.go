package schedule

import (
	"errors"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/client"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/employee"
)

var (
	// Template Errors
	ErrTemplateNotFound   = errors.New("schedule template not found")
	ErrTemplateNameExists = errors.New("schedule template with this name already exists")

	// Weekly Day Errors
	ErrWeeklyDayNotFound = errors.New("weekly day not found")

	// Exception Errors
	ErrExceptionNotFound = errors.New("schedule exception not found")

	// Assignment Errors
	ErrAssignmentNotFound = errors.New("schedule assignment not found")
	// ErrTimelineConflict means an overlap survived timeline reconciliation.
	// It signals a bug, not a user mistake.
	ErrTimelineConflict = errors.New("assignment timeline conflict: overlapping assignment detected")

	// Validation Errors
	ErrInvalidDateFormat  = errors.New("invalid date format, use YYYY-MM-DD")
	ErrInvalidRequestData = errors.New("invalid request data")
)

// NotFoundErr returns the not-found error reported for k.
func (k EntityKind) NotFoundErr() error {
	switch k {
	case EntityTemplate:
		return ErrTemplateNotFound
	case EntityWeeklyDay:
		return ErrWeeklyDayNotFound
	case EntityException:
		return ErrExceptionNotFound
	case EntityAssignment:
		return ErrAssignmentNotFound
	case EntityEmployee:
		return employee.ErrEmployeeNotFound
	case EntityClient:
		return client.ErrClientNotFound
	default:
		return ErrInvalidRequestData
	}
}
