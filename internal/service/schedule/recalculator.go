package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/tenant"
)

// Recalculator re-derives and persists shift classifications.
type Recalculator struct {
	resolver    *Resolver
	assignments schedule.AssignmentRepository
	employees   employee.EmployeeRepository
	clock       schedule.Clock
}

func NewRecalculator(resolver *Resolver, repos Repositories, clock schedule.Clock) *Recalculator {
	return &Recalculator{
		resolver:    resolver,
		assignments: repos.Assignments,
		employees:   repos.Employees,
		clock:       clock,
	}
}

// Reclassify resolves the employee's plan for date and stores its shift type.
func (r *Recalculator) Reclassify(ctx context.Context, tc tenant.Context, employeeID string, date time.Time) (employee.ShiftType, error) {
	plan, err := r.resolver.Resolve(ctx, tc, employeeID, date)
	if err != nil {
		return "", err
	}
	shiftType := schedule.Classify(plan)
	if err := r.employees.UpdateShiftType(ctx, employeeID, tc.CompanyID, shiftType); err != nil {
		return "", fmt.Errorf("store shift type: %w", err)
	}
	return shiftType, nil
}

// Recalculate reclassifies every employee whose assignment to templateID is
// active on date (today when nil). A failure for one employee is logged and
// does not stop the others.
func (r *Recalculator) Recalculate(ctx context.Context, tc tenant.Context, templateID string, date *time.Time) (schedule.RecalculationResult, error) {
	on := r.clock.Today()
	if date != nil {
		on = schedule.DateOnly(*date)
	}

	result := schedule.RecalculationResult{
		TemplateID: templateID,
		Date:       schedule.FormatDate(on),
		Failures:   []schedule.RecalculationFailure{},
	}

	assignments, err := r.assignments.ListActiveByTemplate(ctx, tc.CompanyID, templateID, on)
	if err != nil {
		return result, fmt.Errorf("list affected employees: %w", err)
	}

	seen := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		if a.EmployeeID == nil || seen[*a.EmployeeID] {
			continue
		}
		employeeID := *a.EmployeeID
		seen[employeeID] = true
		result.Processed++

		if _, err := r.Reclassify(ctx, tc, employeeID, on); err != nil {
			slog.Error("failed to recalculate shift type",
				"company_id", tc.CompanyID,
				"employee_id", employeeID,
				"template_id", templateID,
				"date", result.Date,
				"error", err,
			)
			result.Failures = append(result.Failures, schedule.RecalculationFailure{EmployeeID: employeeID, Error: err.Error()})
			continue
		}
		result.Updated++
	}

	slog.Info("shift types recalculated",
		"company_id", tc.CompanyID,
		"template_id", templateID,
		"date", result.Date,
		"processed", result.Processed,
		"updated", result.Updated,
		"failed", len(result.Failures),
	)
	return result, nil
}
