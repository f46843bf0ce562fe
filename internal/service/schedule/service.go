package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/client"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/tenant"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/validator"
)

type scheduleServiceImpl struct {
	tx           database.TxManager
	repos        Repositories
	cache        schedule.PlanCache
	trigger      schedule.RecalculationTrigger
	recalculator *Recalculator
	clock        schedule.Clock
}

func NewScheduleService(
	tx database.TxManager,
	repos Repositories,
	cache schedule.PlanCache,
	trigger schedule.RecalculationTrigger,
	recalculator *Recalculator,
	clock schedule.Clock,
) schedule.ScheduleService {
	return &scheduleServiceImpl{
		tx:           tx,
		repos:        repos,
		cache:        cache,
		trigger:      trigger,
		recalculator: recalculator,
		clock:        clock,
	}
}

// ==================== TEMPLATE ====================

// CreateTemplate implements schedule.ScheduleService.
func (s *scheduleServiceImpl) CreateTemplate(ctx context.Context, tc tenant.Context, req schedule.CreateTemplateRequest) (schedule.TemplateResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.TemplateResponse{}, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	created, err := s.repos.Templates.Create(ctx, schedule.Template{
		CompanyID:   tc.CompanyID,
		Name:        req.Name,
		Description: req.Description,
		Kind:        schedule.TemplateKind(req.Kind),
		IsActive:    active,
	})
	if err != nil {
		return schedule.TemplateResponse{}, err
	}
	return schedule.NewTemplateResponse(created), nil
}

// GetTemplate implements schedule.ScheduleService. Days and exceptions are
// returned with their blocks.
func (s *scheduleServiceImpl) GetTemplate(ctx context.Context, tc tenant.Context, id string) (schedule.TemplateResponse, error) {
	tmpl, err := s.repos.Templates.GetByID(ctx, id, tc.CompanyID)
	if err != nil {
		return schedule.TemplateResponse{}, err
	}

	days, err := s.repos.Days.ListByTemplate(ctx, tmpl.ID)
	if err != nil {
		return schedule.TemplateResponse{}, err
	}
	for i := range days {
		if days[i].Blocks, err = s.repos.Blocks.ListByParent(ctx, schedule.DayParent(days[i].ID)); err != nil {
			return schedule.TemplateResponse{}, err
		}
	}
	tmpl.Days = days

	exceptions, err := s.loadExceptions(ctx, tmpl.ID, schedule.ExceptionFilter{})
	if err != nil {
		return schedule.TemplateResponse{}, err
	}
	tmpl.Exceptions = exceptions

	return schedule.NewTemplateResponse(tmpl), nil
}

// ListTemplates implements schedule.ScheduleService.
func (s *scheduleServiceImpl) ListTemplates(ctx context.Context, tc tenant.Context, filter schedule.TemplateFilter) (schedule.ListTemplatesResponse, error) {
	if err := filter.Validate(); err != nil {
		return schedule.ListTemplatesResponse{}, err
	}

	templates, total, err := s.repos.Templates.List(ctx, tc.CompanyID, filter)
	if err != nil {
		return schedule.ListTemplatesResponse{}, err
	}

	resp := schedule.ListTemplatesResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
		Showing:    calculateShowingText(filter.Page, filter.Limit, total),
		Templates:  make([]schedule.TemplateResponse, 0, len(templates)),
	}
	if filter.All {
		resp.Page, resp.Limit, resp.TotalPages = 1, int(total), 1
		resp.Showing = calculateShowingText(1, int(total), total)
	}
	for _, t := range templates {
		resp.Templates = append(resp.Templates, schedule.NewTemplateResponse(t))
	}
	return resp, nil
}

// UpdateTemplate implements schedule.ScheduleService.
func (s *scheduleServiceImpl) UpdateTemplate(ctx context.Context, tc tenant.Context, req schedule.UpdateTemplateRequest) (schedule.TemplateResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.TemplateResponse{}, err
	}

	var updated schedule.Template
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		tmpl, err := s.repos.Templates.GetByID(txCtx, req.ID, tc.CompanyID)
		if err != nil {
			return err
		}
		if req.Name != nil {
			tmpl.Name = *req.Name
		}
		if req.Description != nil {
			tmpl.Description = *req.Description
		}
		if req.Kind != nil {
			tmpl.Kind = schedule.TemplateKind(*req.Kind)
		}
		if req.IsActive != nil {
			tmpl.IsActive = *req.IsActive
		}
		updated, err = s.repos.Templates.Update(txCtx, tmpl)
		return err
	})
	if err != nil {
		return schedule.TemplateResponse{}, err
	}

	s.cache.Invalidate(ctx, tc.CompanyID)
	return schedule.NewTemplateResponse(updated), nil
}

// DeleteTemplate implements schedule.ScheduleService. Its assignments are
// removed with it, so the employees that were on it are reclassified.
func (s *scheduleServiceImpl) DeleteTemplate(ctx context.Context, tc tenant.Context, id string) error {
	if err := s.repos.Guard.Ensure(ctx, tc.CompanyID, schedule.EntityTemplate, id); err != nil {
		return err
	}

	today := s.clock.Today()
	affected, err := s.repos.Assignments.ListActiveByTemplate(ctx, tc.CompanyID, id, today)
	if err != nil {
		return err
	}

	if err := s.repos.Templates.Delete(ctx, id, tc.CompanyID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, tc.CompanyID)

	for _, a := range affected {
		if a.EmployeeID == nil {
			continue
		}
		if _, err := s.recalculator.Reclassify(ctx, tc, *a.EmployeeID, today); err != nil {
			slog.Error("failed to reclassify employee after template deletion",
				"company_id", tc.CompanyID,
				"employee_id", *a.EmployeeID,
				"template_id", id,
				"error", err,
			)
		}
	}
	return nil
}

// ==================== WEEKLY DAY ====================

// UpsertWeeklyDay implements schedule.ScheduleService. A new range must still
// contain the blocks already attached to the day.
func (s *scheduleServiceImpl) UpsertWeeklyDay(ctx context.Context, tc tenant.Context, req schedule.UpsertWeeklyDayRequest) (schedule.WeeklyDayResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.WeeklyDayResponse{}, err
	}
	if err := s.repos.Guard.Ensure(ctx, tc.CompanyID, schedule.EntityTemplate, req.TemplateID); err != nil {
		return schedule.WeeklyDayResponse{}, err
	}

	day := req.ToWeeklyDay()
	var saved schedule.WeeklyDay
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.repos.Days.GetByWeekday(txCtx, req.TemplateID, req.Weekday)
		switch {
		case err == nil:
			if _, err := s.repos.Blocks.LockParent(txCtx, schedule.DayParent(existing.ID)); err != nil {
				return err
			}
			blocks, err := s.repos.Blocks.ListByParent(txCtx, schedule.DayParent(existing.ID))
			if err != nil {
				return err
			}
			if err := checkBlocksFitRange(blocks, day.Range); err != nil {
				return err
			}
		case !errors.Is(err, schedule.ErrWeeklyDayNotFound):
			return err
		}

		saved, err = s.repos.Days.Upsert(txCtx, day)
		if err != nil {
			return err
		}
		saved.Blocks, err = s.repos.Blocks.ListByParent(txCtx, schedule.DayParent(saved.ID))
		return err
	})
	if err != nil {
		return schedule.WeeklyDayResponse{}, err
	}

	s.afterBlocksChanged(ctx, tc, req.TemplateID)
	return schedule.NewWeeklyDayResponse(saved), nil
}

// ResetDay implements schedule.ScheduleService.
func (s *scheduleServiceImpl) ResetDay(ctx context.Context, tc tenant.Context, dayID string) (schedule.WeeklyDayResponse, error) {
	if err := s.repos.Guard.Ensure(ctx, tc.CompanyID, schedule.EntityWeeklyDay, dayID); err != nil {
		return schedule.WeeklyDayResponse{}, err
	}

	var reset schedule.WeeklyDay
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.repos.Blocks.LockParent(txCtx, schedule.DayParent(dayID)); err != nil {
			return err
		}
		if err := s.repos.Blocks.DeleteByParent(txCtx, schedule.DayParent(dayID)); err != nil {
			return err
		}
		var err error
		reset, err = s.repos.Days.Reset(txCtx, dayID)
		return err
	})
	if err != nil {
		return schedule.WeeklyDayResponse{}, err
	}

	reset.Blocks = []schedule.Block{}
	s.afterBlocksChanged(ctx, tc, reset.TemplateID)
	return schedule.NewWeeklyDayResponse(reset), nil
}

// ReplicateDay implements schedule.ScheduleService.
func (s *scheduleServiceImpl) ReplicateDay(ctx context.Context, tc tenant.Context, req schedule.ReplicateDayRequest) (schedule.ReplicateDayResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.ReplicateDayResponse{}, err
	}
	if err := s.repos.Guard.Ensure(ctx, tc.CompanyID, schedule.EntityTemplate, req.TemplateID); err != nil {
		return schedule.ReplicateDayResponse{}, err
	}

	resp := schedule.ReplicateDayResponse{
		SourceWeekday: req.SourceWeekday,
		Replicated:    []int{},
		Skipped:       []int{},
	}
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		source, err := s.repos.Days.GetByWeekday(txCtx, req.TemplateID, req.SourceWeekday)
		if err != nil {
			return err
		}
		if _, err := s.repos.Blocks.LockParent(txCtx, schedule.DayParent(source.ID)); err != nil {
			return err
		}
		// Re-read under the lock.
		if source, err = s.repos.Days.GetByID(txCtx, source.ID); err != nil {
			return err
		}
		sourceBlocks, err := s.repos.Blocks.ListByParent(txCtx, schedule.DayParent(source.ID))
		if err != nil {
			return err
		}

		for _, weekday := range req.TargetWeekdays {
			target, err := s.repos.Days.GetByWeekday(txCtx, req.TemplateID, weekday)
			switch {
			case err == nil:
				if _, err := s.repos.Blocks.LockParent(txCtx, schedule.DayParent(target.ID)); err != nil {
					return err
				}
				if !req.Overwrite {
					existing, err := s.repos.Blocks.ListByParent(txCtx, schedule.DayParent(target.ID))
					if err != nil {
						return err
					}
					if len(existing) > 0 {
						resp.Skipped = append(resp.Skipped, weekday)
						continue
					}
				}
			case !errors.Is(err, schedule.ErrWeeklyDayNotFound):
				return err
			}

			saved, err := s.repos.Days.Upsert(txCtx, schedule.WeeklyDay{
				TemplateID: req.TemplateID,
				Weekday:    weekday,
				Range:      source.Range,
				IsActive:   source.IsActive,
			})
			if err != nil {
				return err
			}
			if _, err := s.repos.Blocks.ReplaceAll(txCtx, schedule.DayParent(saved.ID), copyBlocks(sourceBlocks)); err != nil {
				return err
			}
			resp.Replicated = append(resp.Replicated, weekday)
		}
		return nil
	})
	if err != nil {
		return schedule.ReplicateDayResponse{}, err
	}

	if len(resp.Replicated) > 0 {
		s.afterBlocksChanged(ctx, tc, req.TemplateID)
	}
	return resp, nil
}

// ==================== EXCEPTION ====================

// ListExceptions implements schedule.ScheduleService.
func (s *scheduleServiceImpl) ListExceptions(ctx context.Context, tc tenant.Context, templateID string, filter schedule.ExceptionFilter) ([]schedule.ExceptionResponse, error) {
	if err := s.repos.Guard.Ensure(ctx, tc.CompanyID, schedule.EntityTemplate, templateID); err != nil {
		return nil, err
	}

	exceptions, err := s.loadExceptions(ctx, templateID, filter)
	if err != nil {
		return nil, err
	}
	resp := make([]schedule.ExceptionResponse, 0, len(exceptions))
	for _, e := range exceptions {
		resp = append(resp, schedule.NewExceptionResponse(e))
	}
	return resp, nil
}

// UpsertException implements schedule.ScheduleService.
func (s *scheduleServiceImpl) UpsertException(ctx context.Context, tc tenant.Context, req schedule.UpsertExceptionRequest) (schedule.ExceptionResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.ExceptionResponse{}, err
	}
	if err := s.repos.Guard.Ensure(ctx, tc.CompanyID, schedule.EntityTemplate, req.TemplateID); err != nil {
		return schedule.ExceptionResponse{}, err
	}

	ex := req.ToException()
	var saved schedule.Exception
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.repos.Exceptions.GetByDate(txCtx, req.TemplateID, ex.Date)
		switch {
		case err == nil:
			if _, err := s.repos.Blocks.LockParent(txCtx, schedule.ExceptionParent(existing.ID)); err != nil {
				return err
			}
			blocks, err := s.repos.Blocks.ListByParent(txCtx, schedule.ExceptionParent(existing.ID))
			if err != nil {
				return err
			}
			if err := checkBlocksFitRange(blocks, ex.Range); err != nil {
				return err
			}
		case !errors.Is(err, schedule.ErrExceptionNotFound):
			return err
		}

		saved, err = s.repos.Exceptions.Upsert(txCtx, ex)
		if err != nil {
			return err
		}
		saved.Blocks, err = s.repos.Blocks.ListByParent(txCtx, schedule.ExceptionParent(saved.ID))
		return err
	})
	if err != nil {
		return schedule.ExceptionResponse{}, err
	}

	s.afterBlocksChanged(ctx, tc, req.TemplateID)
	return schedule.NewExceptionResponse(saved), nil
}

// DeleteException implements schedule.ScheduleService.
func (s *scheduleServiceImpl) DeleteException(ctx context.Context, tc tenant.Context, id string) error {
	if err := s.repos.Guard.Ensure(ctx, tc.CompanyID, schedule.EntityException, id); err != nil {
		return err
	}
	ex, err := s.repos.Exceptions.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repos.Exceptions.Delete(ctx, id); err != nil {
		return err
	}

	s.afterBlocksChanged(ctx, tc, ex.TemplateID)
	return nil
}

// ==================== BLOCKS ====================

// UpsertBlocks implements schedule.ScheduleService. The whole block set of
// the parent is replaced in one transaction while the parent row is locked,
// so the range checked is the range in force at commit.
func (s *scheduleServiceImpl) UpsertBlocks(ctx context.Context, tc tenant.Context, req schedule.UpsertBlocksRequest) ([]schedule.BlockResponse, error) {
	if err := s.ensureBlockParent(ctx, tc, req.Parent); err != nil {
		return nil, err
	}

	var (
		templateID string
		saved      []schedule.Block
	)
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		locked, err := s.repos.Blocks.LockParent(txCtx, req.Parent)
		if err != nil {
			return err
		}
		templateID = locked.TemplateID

		sorted, err := schedule.ValidateBlocks(req.ToBlocks(), locked.Range)
		if err != nil {
			return err
		}
		if err := s.checkBlockClients(txCtx, tc, sorted); err != nil {
			return err
		}

		if _, err := s.repos.Blocks.ReplaceAll(txCtx, req.Parent, sorted); err != nil {
			return err
		}
		saved, err = s.repos.Blocks.ListByParent(txCtx, req.Parent)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterBlocksChanged(ctx, tc, templateID)
	return schedule.NewBlockResponses(saved), nil
}

// ensureBlockParent checks that the weekly day or exception belongs to the
// company.
func (s *scheduleServiceImpl) ensureBlockParent(ctx context.Context, tc tenant.Context, parent schedule.BlockParent) error {
	switch parent.Kind {
	case schedule.BlockParentDay:
		return s.repos.Guard.Ensure(ctx, tc.CompanyID, schedule.EntityWeeklyDay, parent.ID)
	case schedule.BlockParentException:
		return s.repos.Guard.Ensure(ctx, tc.CompanyID, schedule.EntityException, parent.ID)
	default:
		return fmt.Errorf("%w: unknown block parent %q", schedule.ErrInvalidRequestData, parent.Kind)
	}
}

func (s *scheduleServiceImpl) checkBlockClients(ctx context.Context, tc tenant.Context, blocks []schedule.Block) error {
	var errs validator.ValidationErrors
	checked := make(map[string]error)
	for i, b := range blocks {
		if b.ClientID == nil {
			continue
		}
		err, done := checked[*b.ClientID]
		if !done {
			_, err = ensureActiveClient(ctx, s.repos.Clients, tc, *b.ClientID)
			checked[*b.ClientID] = err
		}
		switch {
		case err == nil:
		case errors.Is(err, client.ErrClientNotFound), errors.Is(err, client.ErrClientInactive):
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("bloques[%d]", i+1),
				Message: fmt.Sprintf("block %d: %s", i+1, err.Error()),
			})
		default:
			return err
		}
	}
	return errs.OrNil()
}

// ==================== RECALCULATION ====================

// Recalculate implements schedule.ScheduleService. It always runs inline so
// the caller sees the result.
func (s *scheduleServiceImpl) Recalculate(ctx context.Context, tc tenant.Context, templateID string, date *time.Time) (schedule.RecalculationResult, error) {
	if err := s.repos.Guard.Ensure(ctx, tc.CompanyID, schedule.EntityTemplate, templateID); err != nil {
		return schedule.RecalculationResult{}, err
	}
	return s.recalculator.Recalculate(ctx, tc, templateID, date)
}

// afterBlocksChanged drops cached plans and re-derives classifications once
// the write is committed.
func (s *scheduleServiceImpl) afterBlocksChanged(ctx context.Context, tc tenant.Context, templateID string) {
	s.cache.Invalidate(ctx, tc.CompanyID)
	notifyBlocksChanged(ctx, s.trigger, tc, templateID)
}

func (s *scheduleServiceImpl) loadExceptions(ctx context.Context, templateID string, filter schedule.ExceptionFilter) ([]schedule.Exception, error) {
	exceptions, err := s.repos.Exceptions.ListByTemplate(ctx, templateID, filter)
	if err != nil {
		return nil, err
	}
	for i := range exceptions {
		if exceptions[i].Blocks, err = s.repos.Blocks.ListByParent(ctx, schedule.ExceptionParent(exceptions[i].ID)); err != nil {
			return nil, err
		}
	}
	return exceptions, nil
}

// checkBlocksFitRange rejects a new parent range that would leave existing
// blocks outside it.
func checkBlocksFitRange(blocks []schedule.Block, r *schedule.TimeRange) error {
	if r == nil || len(blocks) == 0 {
		return nil
	}
	var errs validator.ValidationErrors
	for i, b := range blocks {
		if !r.Contains(b.Start, b.End) {
			errs = append(errs, validator.ValidationError{
				Field:   "rango",
				Message: fmt.Sprintf("block %d (%s-%s) would fall outside %s-%s", i+1, b.Start, b.End, r.Start, r.End),
			})
		}
	}
	return errs.OrNil()
}

func copyBlocks(blocks []schedule.Block) []schedule.Block {
	out := make([]schedule.Block, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, schedule.Block{
			Type:       b.Type,
			Start:      b.Start,
			End:        b.End,
			IsRequired: b.IsRequired,
			ClientID:   b.ClientID,
		})
	}
	return out
}
