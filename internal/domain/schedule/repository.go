package schedule

import (
	"context"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/tenant"
)

type TemplateRepository interface {
	Create(ctx context.Context, template Template) (Template, error)
	GetByID(ctx context.Context, id string, companyID string) (Template, error)
	List(ctx context.Context, companyID string, filter TemplateFilter) ([]Template, int64, error)
	Update(ctx context.Context, template Template) (Template, error)
	Delete(ctx context.Context, id string, companyID string) error
}

type WeeklyDayRepository interface {
	// Upsert inserts or updates the day keyed by (template, weekday).
	Upsert(ctx context.Context, day WeeklyDay) (WeeklyDay, error)
	GetByID(ctx context.Context, id string) (WeeklyDay, error)
	// GetByWeekday returns ErrWeeklyDayNotFound when the template has no row
	// for weekday.
	GetByWeekday(ctx context.Context, templateID string, weekday int) (WeeklyDay, error)
	ListByTemplate(ctx context.Context, templateID string) ([]WeeklyDay, error)
	// Reset clears the range and deactivates the day. Blocks are left to the
	// caller.
	Reset(ctx context.Context, id string) (WeeklyDay, error)
}

type ExceptionRepository interface {
	// Upsert inserts or updates the exception keyed by (template, date).
	Upsert(ctx context.Context, exception Exception) (Exception, error)
	GetByID(ctx context.Context, id string) (Exception, error)
	// GetByDate returns ErrExceptionNotFound when no exception exists for
	// date, active or not.
	GetByDate(ctx context.Context, templateID string, date time.Time) (Exception, error)
	ListByTemplate(ctx context.Context, templateID string, filter ExceptionFilter) ([]Exception, error)
	Delete(ctx context.Context, id string) error
}

// LockedParent is a weekly day or exception as read under its row lock.
type LockedParent struct {
	TemplateID string
	Range      *TimeRange
}

type BlockRepository interface {
	// LockParent takes a row lock on the weekly day or exception until the
	// surrounding transaction ends and returns its current range. Every write
	// to a parent's range or block set takes it first.
	LockParent(ctx context.Context, parent BlockParent) (LockedParent, error)
	// ListByParent returns the blocks sorted by start time with client names
	// joined.
	ListByParent(ctx context.Context, parent BlockParent) ([]Block, error)
	// ReplaceAll deletes every block of parent and inserts blocks in order.
	// It must run inside a transaction.
	ReplaceAll(ctx context.Context, parent BlockParent, blocks []Block) ([]Block, error)
	DeleteByParent(ctx context.Context, parent BlockParent) error
}

type AssignmentRepository interface {
	Create(ctx context.Context, assignment Assignment) (Assignment, error)
	GetByID(ctx context.Context, id string, companyID string) (Assignment, error)
	// LockTimeline serialises writers of one (company, employee) timeline
	// until the surrounding transaction ends. employeeID nil locks the
	// unassigned pool.
	LockTimeline(ctx context.Context, companyID string, employeeID *string) error
	// ListTimeline returns every assignment of the pair sorted by start date.
	ListTimeline(ctx context.Context, companyID string, employeeID *string) ([]Assignment, error)
	// ListActiveOn returns the employee's assignments and the unassigned pool
	// assignments active on date.
	ListActiveOn(ctx context.Context, companyID string, employeeID string, date time.Time) ([]Assignment, error)
	// ListActiveByTemplate returns employee-specific assignments of the
	// template active on date.
	ListActiveByTemplate(ctx context.Context, companyID string, templateID string, date time.Time) ([]Assignment, error)
	List(ctx context.Context, companyID string, filter AssignmentFilter) ([]Assignment, int64, error)
	Update(ctx context.Context, assignment Assignment) (Assignment, error)
	UpdateEnd(ctx context.Context, id string, companyID string, endDate time.Time) error
	Delete(ctx context.Context, id string, companyID string) error
	DeleteMany(ctx context.Context, companyID string, ids []string) error
}

// OwnershipGuard is the single place answering "does entity id of kind
// belong to company". It returns kind.NotFoundErr() for missing and foreign
// rows alike.
type OwnershipGuard interface {
	Ensure(ctx context.Context, companyID string, kind EntityKind, id string) error
}

// PlanCache stores resolved plans. Implementations swallow and log their own
// failures.
//
// Get also returns the cache version it looked at. A plan resolved after a
// miss must be stored with that version, so a plan built from data older
// than an Invalidate is never readable under the newer version. A negative
// version means the cache is unavailable and Set does nothing.
type PlanCache interface {
	Get(ctx context.Context, companyID, employeeID string, date time.Time) (plan PlanResponse, version int64, ok bool)
	Set(ctx context.Context, companyID, employeeID string, date time.Time, version int64, plan PlanResponse)
	// Invalidate drops every cached plan of the company.
	Invalidate(ctx context.Context, companyID string)
}

// RecalculationTrigger is notified after blocks of a template change. date
// nil means today.
type RecalculationTrigger interface {
	OnTemplateBlocksChanged(ctx context.Context, tc tenant.Context, templateID string, date *time.Time) error
}
