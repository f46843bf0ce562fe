package schedule

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== RESOLVER TESTS =====

func TestResolver_NoAssignment(t *testing.T) {
	env := newTestEnv(t, monday)
	emp := env.addEmployee(companyA, "Ana")

	plan, err := env.resolver.Resolve(context.Background(), tcA, emp, monday)

	require.NoError(t, err)
	assert.Equal(t, schedule.PlanModeNone, plan.Mode())
	assert.Empty(t, plan.Blocks())
	assert.Equal(t, employee.ShiftTypeOther, schedule.Classify(plan))
}

func TestResolver_WeeklyPlan(t *testing.T) {
	env := newTestEnv(t, monday)
	templateID := env.createTemplate(t, tcA, "Morning")
	env.configureDay(t, tcA, templateID, 1, "09:00", "17:00", block("work", "09:00", "17:00"))
	emp := env.addEmployee(companyA, "Ana")
	env.seedAssignment(companyA, &emp, templateID, date("2025-03-01"), nil)

	plan, err := env.resolver.Resolve(context.Background(), tcA, emp, monday)

	require.NoError(t, err)
	weekly, ok := plan.(schedule.WeeklyPlan)
	require.True(t, ok)
	assert.Equal(t, 1, weekly.Weekday)
	assert.Equal(t, "Morning", weekly.Template.Name)
	require.Len(t, weekly.Blocks(), 1)
	assert.Equal(t, "09:00:00", weekly.Blocks()[0].Start)
}

func TestResolver_UnconfiguredWeekday(t *testing.T) {
	env := newTestEnv(t, monday)
	templateID := env.createTemplate(t, tcA, "Morning")
	env.configureDay(t, tcA, templateID, 1, "09:00", "17:00", block("work", "09:00", "17:00"))
	emp := env.addEmployee(companyA, "Ana")
	env.seedAssignment(companyA, &emp, templateID, date("2025-03-01"), nil)

	// Tuesday has no row.
	plan, err := env.resolver.Resolve(context.Background(), tcA, emp, date("2025-03-11"))

	require.NoError(t, err)
	assert.Equal(t, schedule.PlanModeWeekly, plan.Mode())
	assert.Empty(t, plan.Blocks())
}

func TestResolver_ExceptionDominatesWeeklyDay(t *testing.T) {
	env := newTestEnv(t, monday)
	ctx := context.Background()
	templateID := env.createTemplate(t, tcA, "Morning")
	env.configureDay(t, tcA, templateID, 1, "09:00", "17:00", block("work", "09:00", "17:00"))
	ex, err := env.schedules.UpsertException(ctx, tcA, schedule.UpsertExceptionRequest{
		TemplateID: templateID,
		Date:       "2025-03-10",
		Note:       "Stocktake",
		Range:      &schedule.TimeRangeRequest{Start: "06:00", End: "14:00"},
	})
	require.NoError(t, err)
	_, err = env.schedules.UpsertBlocks(ctx, tcA, schedule.UpsertBlocksRequest{
		Parent: schedule.ExceptionParent(ex.ID),
		Blocks: []schedule.BlockRequest{block("work", "06:00", "10:00"), block("work", "10:00", "14:00")},
	})
	require.NoError(t, err)
	emp := env.addEmployee(companyA, "Ana")
	env.seedAssignment(companyA, &emp, templateID, date("2025-03-01"), nil)

	env.store.weekdayLookups = 0
	plan, err := env.resolver.Resolve(ctx, tcA, emp, monday)

	require.NoError(t, err)
	exPlan, ok := plan.(schedule.ExceptionPlan)
	require.True(t, ok)
	assert.Equal(t, "Stocktake", exPlan.Note)
	require.Len(t, plan.Blocks(), 2)
	assert.Equal(t, "06:00:00", plan.Blocks()[0].Start)
	assert.Equal(t, 0, env.store.weekdayLookups)
	assert.Equal(t, employee.ShiftTypeSplit, schedule.Classify(plan))
}

func TestResolver_InactiveExceptionFallsBackToWeekly(t *testing.T) {
	env := newTestEnv(t, monday)
	ctx := context.Background()
	templateID := env.createTemplate(t, tcA, "Morning")
	env.configureDay(t, tcA, templateID, 1, "09:00", "17:00", block("work", "09:00", "17:00"))
	inactive := false
	_, err := env.schedules.UpsertException(ctx, tcA, schedule.UpsertExceptionRequest{
		TemplateID: templateID,
		Date:       "2025-03-10",
		IsActive:   &inactive,
	})
	require.NoError(t, err)
	emp := env.addEmployee(companyA, "Ana")
	env.seedAssignment(companyA, &emp, templateID, date("2025-03-01"), nil)

	plan, err := env.resolver.Resolve(ctx, tcA, emp, monday)

	require.NoError(t, err)
	assert.Equal(t, schedule.PlanModeWeekly, plan.Mode())
	assert.Len(t, plan.Blocks(), 1)
}

func TestResolver_EmployeeAssignmentBeatsPool(t *testing.T) {
	env := newTestEnv(t, monday)
	poolTemplate := env.createTemplate(t, tcA, "Default")
	ownTemplate := env.createTemplate(t, tcA, "Own")
	emp := env.addEmployee(companyA, "Ana")
	other := env.addEmployee(companyA, "Ben")
	env.seedAssignment(companyA, nil, poolTemplate, date("2025-01-01"), nil)
	env.seedAssignment(companyA, &emp, ownTemplate, date("2025-03-01"), nil)

	plan, err := env.resolver.Resolve(context.Background(), tcA, emp, monday)
	require.NoError(t, err)
	assert.Equal(t, "Own", plan.(schedule.WeeklyPlan).Template.Name)

	plan, err = env.resolver.Resolve(context.Background(), tcA, other, monday)
	require.NoError(t, err)
	assert.Equal(t, "Default", plan.(schedule.WeeklyPlan).Template.Name)
}

func TestResolver_DayClient(t *testing.T) {
	env := newTestEnv(t, monday)
	templateID := env.createTemplate(t, tcA, "Morning")
	env.configureDay(t, tcA, templateID, 1, "09:00", "17:00", block("work", "09:00", "17:00"))
	emp := env.addEmployee(companyA, "Ana")
	associated := env.addClient(companyA, "Acme", true)
	env.store.employeeClients[emp] = associated
	env.seedAssignment(companyA, &emp, templateID, date("2025-03-01"), nil)

	plan, err := env.resolver.Resolve(context.Background(), tcA, emp, monday)

	require.NoError(t, err)
	require.Len(t, plan.Blocks(), 1)
	b := plan.Blocks()[0]
	require.NotNil(t, b.ClientID)
	assert.Equal(t, associated, *b.ClientID)
	assert.Equal(t, "Acme", *b.ClientName)
}

// ===== PLAN SERVICE TESTS =====

func TestPlanService_GetPlan_UsesCache(t *testing.T) {
	env := newTestEnv(t, monday)
	ctx := context.Background()
	templateID := env.createTemplate(t, tcA, "Morning")
	env.configureDay(t, tcA, templateID, 1, "09:00", "17:00", block("work", "09:00", "17:00"))
	emp := env.addEmployee(companyA, "Ana")
	env.seedAssignment(companyA, &emp, templateID, date("2025-03-01"), nil)

	env.store.activeOnLookups = 0
	first, err := env.plans.GetPlan(ctx, tcA, emp, monday)
	require.NoError(t, err)
	second, err := env.plans.GetPlan(ctx, tcA, emp, monday)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, env.store.activeOnLookups)
	assert.Equal(t, schedule.PlanModeWeeklyJSON, first.Mode)
	assert.Equal(t, string(employee.ShiftTypeFull), first.ShiftType)
	require.NotNil(t, first.TemplateName)
	assert.Equal(t, "Morning", *first.TemplateName)
}

func TestPlanService_GetPlan_SeesChangesAfterInvalidation(t *testing.T) {
	env := newTestEnv(t, monday)
	ctx := context.Background()
	templateID := env.createTemplate(t, tcA, "Morning")
	dayID := env.configureDay(t, tcA, templateID, 1, "09:00", "17:00", block("work", "09:00", "17:00"))
	emp := env.addEmployee(companyA, "Ana")
	env.seedAssignment(companyA, &emp, templateID, date("2025-03-01"), nil)

	before, err := env.plans.GetPlan(ctx, tcA, emp, monday)
	require.NoError(t, err)
	require.Len(t, before.Blocks, 1)

	_, err = env.schedules.UpsertBlocks(ctx, tcA, schedule.UpsertBlocksRequest{
		Parent: schedule.DayParent(dayID),
		Blocks: []schedule.BlockRequest{block("work", "09:00", "12:00"), block("work", "12:00", "17:00")},
	})
	require.NoError(t, err)

	after, err := env.plans.GetPlan(ctx, tcA, emp, monday)
	require.NoError(t, err)
	assert.Len(t, after.Blocks, 2)
	assert.Equal(t, string(employee.ShiftTypeSplit), after.ShiftType)
}

func TestPlanService_GetPlan_InvalidationDuringResolveIsNotCached(t *testing.T) {
	env := newTestEnv(t, monday)
	ctx := context.Background()
	templateID := env.createTemplate(t, tcA, "Morning")
	env.configureDay(t, tcA, templateID, 1, "09:00", "17:00", block("work", "09:00", "17:00"))
	emp := env.addEmployee(companyA, "Ana")
	env.seedAssignment(companyA, &emp, templateID, date("2025-03-01"), nil)

	// A writer commits and invalidates after the miss but before the store.
	env.cache.beforeSet = func() {
		env.cache.beforeSet = nil
		env.cache.Invalidate(ctx, companyA)
	}
	env.store.activeOnLookups = 0

	_, err := env.plans.GetPlan(ctx, tcA, emp, monday)
	require.NoError(t, err)
	_, err = env.plans.GetPlan(ctx, tcA, emp, monday)
	require.NoError(t, err)

	assert.Equal(t, 2, env.store.activeOnLookups)
}

func TestPlanService_GetPlan_OtherCompanyNotFound(t *testing.T) {
	env := newTestEnv(t, monday)
	emp := env.addEmployee(companyA, "Ana")

	_, err := env.plans.GetPlan(context.Background(), tcB, emp, monday)

	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestPlanService_GetPlanRange(t *testing.T) {
	env := newTestEnv(t, monday)
	templateID := env.createTemplate(t, tcA, "Morning")
	env.configureDay(t, tcA, templateID, 1, "09:00", "17:00", block("work", "09:00", "17:00"))
	emp := env.addEmployee(companyA, "Ana")
	env.seedAssignment(companyA, &emp, templateID, date("2025-03-10"), nil)

	plans, err := env.plans.GetPlanRange(context.Background(), tcA, schedule.PlanRangeRequest{
		EmployeeID: emp,
		From:       date("2025-03-09"),
		To:         date("2025-03-11"),
	})

	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, schedule.PlanModeNoneJSON, plans[0].Mode)
	assert.Equal(t, "2025-03-10", plans[1].Date)
	assert.Len(t, plans[1].Blocks, 1)
	assert.Empty(t, plans[2].Blocks)
}

func TestPlanService_GetPlanRange_TooLong(t *testing.T) {
	env := newTestEnv(t, monday)
	emp := env.addEmployee(companyA, "Ana")

	_, err := env.plans.GetPlanRange(context.Background(), tcA, schedule.PlanRangeRequest{
		EmployeeID: emp,
		From:       date("2025-01-01"),
		To:         date("2025-03-31"),
	})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "to", verrs[0].Field)
}
