package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/client"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/tenant"
)

// Resolver answers "what is this employee supposed to do on this date". It
// only reads and never runs inside a caller's write transaction.
type Resolver struct {
	assignments schedule.AssignmentRepository
	days        schedule.WeeklyDayRepository
	exceptions  schedule.ExceptionRepository
	blocks      schedule.BlockRepository
	clients     client.ClientRepository
}

func NewResolver(repos Repositories) *Resolver {
	return &Resolver{
		assignments: repos.Assignments,
		days:        repos.Days,
		exceptions:  repos.Exceptions,
		blocks:      repos.Blocks,
		clients:     repos.Clients,
	}
}

// Resolve walks exception, then weekly day, then nothing. Missing data is a
// NoPlan, never an error.
func (r *Resolver) Resolve(ctx context.Context, tc tenant.Context, employeeID string, date time.Time) (schedule.Plan, error) {
	date = schedule.DateOnly(date)

	candidates, err := r.assignments.ListActiveOn(ctx, tc.CompanyID, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("resolve plan: %w", err)
	}
	active, found, conflicting := schedule.PickActiveAssignment(candidates)
	if !found {
		return schedule.NoPlan{On: date}, nil
	}
	if conflicting {
		slog.Warn("more than one assignment active for employee",
			"company_id", tc.CompanyID,
			"employee_id", employeeID,
			"date", schedule.FormatDate(date),
			"chosen_assignment_id", active.ID,
		)
	}

	tmpl := schedule.TemplateRef{ID: active.TemplateID, Name: active.TemplateName}
	dayClient, err := r.dayClient(ctx, tc, employeeID, active, date)
	if err != nil {
		return nil, err
	}

	ex, err := r.exceptions.GetByDate(ctx, active.TemplateID, date)
	switch {
	case err == nil && ex.IsActive:
		ex.Blocks, err = r.blocks.ListByParent(ctx, schedule.ExceptionParent(ex.ID))
		if err != nil {
			return nil, fmt.Errorf("resolve plan: %w", err)
		}
		return schedule.NewExceptionPlan(date, active, tmpl, dayClient, ex), nil
	case err != nil && !errors.Is(err, schedule.ErrExceptionNotFound):
		return nil, fmt.Errorf("resolve plan: %w", err)
	}

	wd, err := r.days.GetByWeekday(ctx, active.TemplateID, schedule.ISOWeekday(date))
	if err != nil {
		if errors.Is(err, schedule.ErrWeeklyDayNotFound) {
			return schedule.NewWeeklyPlan(date, active, tmpl, dayClient, nil), nil
		}
		return nil, fmt.Errorf("resolve plan: %w", err)
	}
	if wd.Configured() {
		wd.Blocks, err = r.blocks.ListByParent(ctx, schedule.DayParent(wd.ID))
		if err != nil {
			return nil, fmt.Errorf("resolve plan: %w", err)
		}
	}
	return schedule.NewWeeklyPlan(date, active, tmpl, dayClient, &wd), nil
}

// dayClient prefers the assignment's client and falls back to the
// employee's client association active on date.
func (r *Resolver) dayClient(ctx context.Context, tc tenant.Context, employeeID string, a schedule.Assignment, date time.Time) (*schedule.ClientRef, error) {
	if a.ClientID != nil {
		ref := &schedule.ClientRef{ID: *a.ClientID}
		if a.ClientName != nil {
			ref.Name = *a.ClientName
		}
		return ref, nil
	}

	c, err := r.clients.GetActiveForEmployee(ctx, employeeID, tc.CompanyID, date)
	if err != nil {
		if errors.Is(err, client.ErrClientNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve day client: %w", err)
	}
	return &schedule.ClientRef{ID: c.ID, Name: c.Name}, nil
}
