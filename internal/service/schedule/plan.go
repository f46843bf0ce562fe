package schedule

import (
	"context"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/tenant"
)

type planServiceImpl struct {
	resolver *Resolver
	guard    schedule.OwnershipGuard
	cache    schedule.PlanCache
}

func NewPlanService(resolver *Resolver, guard schedule.OwnershipGuard, cache schedule.PlanCache) schedule.PlanService {
	return &planServiceImpl{resolver: resolver, guard: guard, cache: cache}
}

// ResolvePlan implements schedule.PlanService.
func (s *planServiceImpl) ResolvePlan(ctx context.Context, tc tenant.Context, employeeID string, date time.Time) (schedule.Plan, error) {
	if err := s.guard.Ensure(ctx, tc.CompanyID, schedule.EntityEmployee, employeeID); err != nil {
		return nil, err
	}
	return s.resolver.Resolve(ctx, tc, employeeID, date)
}

// GetPlan implements schedule.PlanService.
func (s *planServiceImpl) GetPlan(ctx context.Context, tc tenant.Context, employeeID string, date time.Time) (schedule.PlanResponse, error) {
	if err := s.guard.Ensure(ctx, tc.CompanyID, schedule.EntityEmployee, employeeID); err != nil {
		return schedule.PlanResponse{}, err
	}
	return s.cachedPlan(ctx, tc, employeeID, schedule.DateOnly(date))
}

// GetPlanRange implements schedule.PlanService.
func (s *planServiceImpl) GetPlanRange(ctx context.Context, tc tenant.Context, req schedule.PlanRangeRequest) ([]schedule.PlanResponse, error) {
	req.From, req.To = schedule.DateOnly(req.From), schedule.DateOnly(req.To)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.guard.Ensure(ctx, tc.CompanyID, schedule.EntityEmployee, req.EmployeeID); err != nil {
		return nil, err
	}

	plans := make([]schedule.PlanResponse, 0)
	for d := req.From; !d.After(req.To); d = d.AddDate(0, 0, 1) {
		plan, err := s.cachedPlan(ctx, tc, req.EmployeeID, d)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func (s *planServiceImpl) cachedPlan(ctx context.Context, tc tenant.Context, employeeID string, date time.Time) (schedule.PlanResponse, error) {
	cached, version, ok := s.cache.Get(ctx, tc.CompanyID, employeeID, date)
	if ok {
		return cached, nil
	}

	plan, err := s.resolver.Resolve(ctx, tc, employeeID, date)
	if err != nil {
		return schedule.PlanResponse{}, err
	}
	resp := schedule.NewPlanResponse(plan)
	s.cache.Set(ctx, tc.CompanyID, employeeID, date, version, resp)
	return resp, nil
}
