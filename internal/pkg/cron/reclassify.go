package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/tenant"
)

// ScheduledEmployeeLister finds employees whose stored shift type may change
// on date: those with a classification already stored and those covered by
// an assignment active on date.
type ScheduledEmployeeLister interface {
	ListScheduled(ctx context.Context, date time.Time) ([]employee.Employee, error)
}

type Reclassifier interface {
	Reclassify(ctx context.Context, tc tenant.Context, employeeID string, date time.Time) (employee.ShiftType, error)
}

// ReclassifyJobs refreshes shift types once per engine day. Plans depend on
// the weekday and on assignment boundaries, so yesterday's classification
// goes stale at midnight even when nothing was edited.
type ReclassifyJobs struct {
	employees    ScheduledEmployeeLister
	reclassifier Reclassifier
	clock        schedule.Clock

	mu      sync.Mutex
	lastRun time.Time
}

func NewReclassifyJobs(employees ScheduledEmployeeLister, reclassifier Reclassifier, clock schedule.Clock) *ReclassifyJobs {
	return &ReclassifyJobs{
		employees:    employees,
		reclassifier: reclassifier,
		clock:        clock,
	}
}

func (j *ReclassifyJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("daily_shift_type_reclassification", interval, j.ReclassifyDay)
}

// ReclassifyDay does nothing when today was already processed. A failure
// for one employee is logged and leaves the day open for the next tick.
func (j *ReclassifyJobs) ReclassifyDay(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	today := j.clock.Today()
	if j.lastRun.Equal(today) {
		return nil
	}

	employees, err := j.employees.ListScheduled(ctx, today)
	if err != nil {
		return fmt.Errorf("list scheduled employees: %w", err)
	}

	failed := 0
	for _, emp := range employees {
		tc := tenant.Context{CompanyID: emp.CompanyID}
		if _, err := j.reclassifier.Reclassify(ctx, tc, emp.ID, today); err != nil {
			failed++
			slog.Error("daily reclassification failed",
				"company_id", emp.CompanyID,
				"employee_id", emp.ID,
				"error", err,
			)
		}
	}

	slog.Info("daily reclassification finished",
		"date", schedule.FormatDate(today),
		"employees", len(employees),
		"failed", failed,
	)
	if failed > 0 {
		return fmt.Errorf("%d of %d employees could not be reclassified", failed, len(employees))
	}
	j.lastRun = today
	return nil
}
