package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/tenant"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/validator"
)

type assignmentServiceImpl struct {
	tx           database.TxManager
	repos        Repositories
	cache        schedule.PlanCache
	recalculator *Recalculator
	clock        schedule.Clock
}

func NewAssignmentService(
	tx database.TxManager,
	repos Repositories,
	cache schedule.PlanCache,
	recalculator *Recalculator,
	clock schedule.Clock,
) schedule.AssignmentService {
	return &assignmentServiceImpl{
		tx:           tx,
		repos:        repos,
		cache:        cache,
		recalculator: recalculator,
		clock:        clock,
	}
}

// Assign implements schedule.AssignmentService. Earlier assignments still
// running on the start date are cut back, later ones the new assignment
// covers are deleted, and the new one is inserted, all in one transaction.
func (s *assignmentServiceImpl) Assign(ctx context.Context, tc tenant.Context, req schedule.AssignRequest) (schedule.AssignResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.AssignResponse{}, err
	}

	start := s.clock.Today()
	if req.StartDate != "" {
		d, err := schedule.ParseDate(req.StartDate)
		if err != nil {
			return schedule.AssignResponse{}, err
		}
		start = d
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		return schedule.AssignResponse{}, err
	}
	if end != nil && end.Before(start) {
		return schedule.AssignResponse{}, validator.ValidationErrors{{
			Field:   "fecha_fin",
			Message: "fecha_fin must not be before fecha_inicio",
		}}
	}

	if err := s.repos.Guard.Ensure(ctx, tc.CompanyID, schedule.EntityTemplate, req.TemplateID); err != nil {
		return schedule.AssignResponse{}, err
	}
	if req.EmployeeID != nil {
		if err := s.repos.Guard.Ensure(ctx, tc.CompanyID, schedule.EntityEmployee, *req.EmployeeID); err != nil {
			return schedule.AssignResponse{}, err
		}
	}
	if req.ClientID != nil {
		if _, err := ensureActiveClient(ctx, s.repos.Clients, tc, *req.ClientID); err != nil {
			return schedule.AssignResponse{}, err
		}
	}

	next := schedule.Assignment{
		CompanyID:      tc.CompanyID,
		EmployeeID:     req.EmployeeID,
		TemplateID:     req.TemplateID,
		ClientID:       req.ClientID,
		StartDate:      start,
		EndDate:        end,
		Alias:          req.Alias,
		Color:          req.Color,
		IgnoreHolidays: req.IgnoreHolidays,
	}

	var (
		created schedule.Assignment
		change  schedule.TimelineChange
	)
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repos.Assignments.LockTimeline(txCtx, tc.CompanyID, req.EmployeeID); err != nil {
			return err
		}
		existing, err := s.repos.Assignments.ListTimeline(txCtx, tc.CompanyID, req.EmployeeID)
		if err != nil {
			return err
		}

		change = schedule.ReconcileTimeline(existing, start, end)
		if prev, after, overlap := schedule.FindOverlap(change.Apply(existing, &next)); overlap {
			return fmt.Errorf("%w: %s and %s", schedule.ErrTimelineConflict, describe(prev), describe(after))
		}

		if err := s.applyChange(txCtx, tc, change); err != nil {
			return err
		}
		created, err = s.repos.Assignments.Create(txCtx, next)
		return err
	})
	if err != nil {
		return schedule.AssignResponse{}, err
	}

	s.cache.Invalidate(ctx, tc.CompanyID)
	resp := schedule.NewAssignResponse(created, change)
	if req.EmployeeID != nil {
		if shiftType, ok := s.reclassify(ctx, tc, *req.EmployeeID, start); ok {
			resp.ShiftType = &shiftType
		}
	}
	return resp, nil
}

// GetAssignment implements schedule.AssignmentService.
func (s *assignmentServiceImpl) GetAssignment(ctx context.Context, tc tenant.Context, id string) (schedule.AssignmentResponse, error) {
	a, err := s.repos.Assignments.GetByID(ctx, id, tc.CompanyID)
	if err != nil {
		return schedule.AssignmentResponse{}, err
	}
	return schedule.NewAssignmentResponse(a), nil
}

// ListAssignments implements schedule.AssignmentService.
func (s *assignmentServiceImpl) ListAssignments(ctx context.Context, tc tenant.Context, filter schedule.AssignmentFilter) (schedule.ListAssignmentsResponse, error) {
	if err := filter.Validate(); err != nil {
		return schedule.ListAssignmentsResponse{}, err
	}

	assignments, total, err := s.repos.Assignments.List(ctx, tc.CompanyID, filter)
	if err != nil {
		return schedule.ListAssignmentsResponse{}, err
	}

	resp := schedule.ListAssignmentsResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages(total, filter.Limit),
		Showing:     calculateShowingText(filter.Page, filter.Limit, total),
		Assignments: make([]schedule.AssignmentResponse, 0, len(assignments)),
	}
	for _, a := range assignments {
		resp.Assignments = append(resp.Assignments, schedule.NewAssignmentResponse(a))
	}
	return resp, nil
}

// ListEmployeeAssignments implements schedule.AssignmentService.
func (s *assignmentServiceImpl) ListEmployeeAssignments(ctx context.Context, tc tenant.Context, employeeID string) ([]schedule.AssignmentResponse, error) {
	if err := s.repos.Guard.Ensure(ctx, tc.CompanyID, schedule.EntityEmployee, employeeID); err != nil {
		return nil, err
	}

	timeline, err := s.repos.Assignments.ListTimeline(ctx, tc.CompanyID, &employeeID)
	if err != nil {
		return nil, err
	}
	resp := make([]schedule.AssignmentResponse, 0, len(timeline))
	for _, a := range timeline {
		resp = append(resp, schedule.NewAssignmentResponse(a))
	}
	return resp, nil
}

// UpdateAssignment implements schedule.AssignmentService. Only the end date,
// alias, color and holiday flag can change. Moving the end date onto a later
// assignment is a conflict, not a silent rewrite.
func (s *assignmentServiceImpl) UpdateAssignment(ctx context.Context, tc tenant.Context, req schedule.UpdateAssignmentRequest) (schedule.AssignmentResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.AssignmentResponse{}, err
	}

	var updated schedule.Assignment
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.repos.Assignments.GetByID(txCtx, req.ID, tc.CompanyID)
		if err != nil {
			return err
		}
		if err := s.repos.Assignments.LockTimeline(txCtx, tc.CompanyID, current.EmployeeID); err != nil {
			return err
		}

		next := current
		if req.EndDate != nil {
			end, err := parseOptionalDate(req.EndDate)
			if err != nil {
				return err
			}
			if end != nil && end.Before(current.StartDate) {
				return validator.ValidationErrors{{
					Field:   "fecha_fin",
					Message: "fecha_fin must not be before fecha_inicio",
				}}
			}
			next.EndDate = end
		}
		if req.Alias != nil {
			next.Alias = nilIfBlank(*req.Alias)
		}
		if req.Color != nil {
			next.Color = nilIfBlank(*req.Color)
		}
		if req.IgnoreHolidays != nil {
			next.IgnoreHolidays = *req.IgnoreHolidays
		}

		timeline, err := s.repos.Assignments.ListTimeline(txCtx, tc.CompanyID, current.EmployeeID)
		if err != nil {
			return err
		}
		others := make([]schedule.Assignment, 0, len(timeline))
		for _, a := range timeline {
			if a.ID != current.ID {
				others = append(others, a)
			}
		}
		if prev, after, overlap := schedule.FindOverlap(schedule.TimelineChange{}.Apply(others, &next)); overlap {
			return fmt.Errorf("%w: %s and %s", schedule.ErrTimelineConflict, describe(prev), describe(after))
		}

		updated, err = s.repos.Assignments.Update(txCtx, next)
		return err
	})
	if err != nil {
		return schedule.AssignmentResponse{}, err
	}

	s.cache.Invalidate(ctx, tc.CompanyID)
	if updated.EmployeeID != nil {
		s.reclassify(ctx, tc, *updated.EmployeeID, s.clock.Today())
	}
	return schedule.NewAssignmentResponse(updated), nil
}

// DeleteAssignment implements schedule.AssignmentService.
func (s *assignmentServiceImpl) DeleteAssignment(ctx context.Context, tc tenant.Context, id string) error {
	a, err := s.repos.Assignments.GetByID(ctx, id, tc.CompanyID)
	if err != nil {
		return err
	}
	if err := s.repos.Assignments.Delete(ctx, id, tc.CompanyID); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, tc.CompanyID)
	if a.EmployeeID != nil {
		s.reclassify(ctx, tc, *a.EmployeeID, s.clock.Today())
	}
	return nil
}

// Unassign implements schedule.AssignmentService. Open-ended assignments
// that already started end yesterday; those starting today or later never
// took effect and are removed.
func (s *assignmentServiceImpl) Unassign(ctx context.Context, tc tenant.Context, employeeID string) (schedule.UnassignResponse, error) {
	if err := s.repos.Guard.Ensure(ctx, tc.CompanyID, schedule.EntityEmployee, employeeID); err != nil {
		return schedule.UnassignResponse{}, err
	}

	today := s.clock.Today()
	var change schedule.TimelineChange
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repos.Assignments.LockTimeline(txCtx, tc.CompanyID, &employeeID); err != nil {
			return err
		}
		existing, err := s.repos.Assignments.ListTimeline(txCtx, tc.CompanyID, &employeeID)
		if err != nil {
			return err
		}
		change = schedule.CloseOpenEnded(existing, today)
		return s.applyChange(txCtx, tc, change)
	})
	if err != nil {
		return schedule.UnassignResponse{}, err
	}

	if !change.IsEmpty() {
		s.cache.Invalidate(ctx, tc.CompanyID)
		s.reclassify(ctx, tc, employeeID, today)
	}
	return schedule.NewUnassignResponse(employeeID, change), nil
}

func (s *assignmentServiceImpl) applyChange(ctx context.Context, tc tenant.Context, change schedule.TimelineChange) error {
	for _, t := range change.Truncate {
		if err := s.repos.Assignments.UpdateEnd(ctx, t.AssignmentID, tc.CompanyID, t.EndDate); err != nil {
			return err
		}
	}
	return s.repos.Assignments.DeleteMany(ctx, tc.CompanyID, change.Delete)
}

// reclassify runs after commit. Failures are logged and reported as !ok.
func (s *assignmentServiceImpl) reclassify(ctx context.Context, tc tenant.Context, employeeID string, date time.Time) (shiftType string, ok bool) {
	st, err := s.recalculator.Reclassify(ctx, tc, employeeID, date)
	if err != nil {
		slog.Error("failed to reclassify employee",
			"company_id", tc.CompanyID,
			"employee_id", employeeID,
			"date", schedule.FormatDate(date),
			"error", err,
		)
		return "", false
	}
	return string(st), true
}

func describe(a schedule.Assignment) string {
	end := "open"
	if a.EndDate != nil {
		end = schedule.FormatDate(*a.EndDate)
	}
	id := a.ID
	if id == "" {
		id = "new"
	}
	return fmt.Sprintf("%s [%s..%s]", id, schedule.FormatDate(a.StartDate), end)
}

func nilIfBlank(s string) *string {
	if validator.IsEmpty(s) {
		return nil
	}
	return &s
}
