package employee

import (
	"context"
	"time"
)

// EmployeeRepository is the employee directory as seen by the schedule engine.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)
	UpdateShiftType(ctx context.Context, id string, companyID string, shiftType ShiftType) error
	// ListScheduled returns employees of every company that either have a
	// stored shift type or are covered on date by their own or a pool
	// assignment.
	ListScheduled(ctx context.Context, date time.Time) ([]Employee, error)
}
