package schedule

import (
	"context"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/tenant"
)

type ScheduleService interface {
	// Template
	CreateTemplate(ctx context.Context, tc tenant.Context, req CreateTemplateRequest) (TemplateResponse, error)
	GetTemplate(ctx context.Context, tc tenant.Context, id string) (TemplateResponse, error)
	ListTemplates(ctx context.Context, tc tenant.Context, filter TemplateFilter) (ListTemplatesResponse, error)
	UpdateTemplate(ctx context.Context, tc tenant.Context, req UpdateTemplateRequest) (TemplateResponse, error)
	DeleteTemplate(ctx context.Context, tc tenant.Context, id string) error

	// Weekly Day
	UpsertWeeklyDay(ctx context.Context, tc tenant.Context, req UpsertWeeklyDayRequest) (WeeklyDayResponse, error)
	ResetDay(ctx context.Context, tc tenant.Context, dayID string) (WeeklyDayResponse, error)
	ReplicateDay(ctx context.Context, tc tenant.Context, req ReplicateDayRequest) (ReplicateDayResponse, error)

	// Exception
	ListExceptions(ctx context.Context, tc tenant.Context, templateID string, filter ExceptionFilter) ([]ExceptionResponse, error)
	UpsertException(ctx context.Context, tc tenant.Context, req UpsertExceptionRequest) (ExceptionResponse, error)
	DeleteException(ctx context.Context, tc tenant.Context, id string) error

	// Blocks
	UpsertBlocks(ctx context.Context, tc tenant.Context, req UpsertBlocksRequest) ([]BlockResponse, error)

	// Recalculation
	Recalculate(ctx context.Context, tc tenant.Context, templateID string, date *time.Time) (RecalculationResult, error)
}

type AssignmentService interface {
	Assign(ctx context.Context, tc tenant.Context, req AssignRequest) (AssignResponse, error)
	GetAssignment(ctx context.Context, tc tenant.Context, id string) (AssignmentResponse, error)
	ListAssignments(ctx context.Context, tc tenant.Context, filter AssignmentFilter) (ListAssignmentsResponse, error)
	ListEmployeeAssignments(ctx context.Context, tc tenant.Context, employeeID string) ([]AssignmentResponse, error)
	UpdateAssignment(ctx context.Context, tc tenant.Context, req UpdateAssignmentRequest) (AssignmentResponse, error)
	DeleteAssignment(ctx context.Context, tc tenant.Context, id string) error
	Unassign(ctx context.Context, tc tenant.Context, employeeID string) (UnassignResponse, error)
}

type PlanService interface {
	// ResolvePlan never caches and never fails for absent data.
	ResolvePlan(ctx context.Context, tc tenant.Context, employeeID string, date time.Time) (Plan, error)
	GetPlan(ctx context.Context, tc tenant.Context, employeeID string, date time.Time) (PlanResponse, error)
	GetPlanRange(ctx context.Context, tc tenant.Context, req PlanRangeRequest) ([]PlanResponse, error)
}
